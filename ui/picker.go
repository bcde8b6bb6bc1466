// thcrap-launcher/ui/picker.go
package ui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"thcrap-launcher/config"
	"thcrap-launcher/launcher"
	"thcrap-launcher/thcrap"
)

const (
	minRows    = 2
	maxRows    = 6 // desired, exceeded once maxColumns is reached
	minColumns = 2
	maxColumns = 4
)

// gridColumns fills up to maxRows per column, then widens up to maxColumns,
// then grows rows again.
func gridColumns(n int) int {
	if n <= 0 {
		return minColumns
	}
	want := 1 + (n-1)/maxRows
	return max(min(want, maxColumns), minColumns)
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Play      key.Binding
	Configure key.Binding
	Updater   key.Binding
	Steam     key.Binding
	Colors    key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Configure, k.Updater, k.Steam, k.Colors, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Left, k.Right}, k.ShortHelp()}
}

var defaultKeys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:     key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "right")),
	Play:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play")),
	Configure: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "thcrap config")),
	Updater:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "toggle updater")),
	Steam:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "toggle steam integration")),
	Colors:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset colors")),
	Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type profilesChangedMsg struct{}

type watchErrMsg struct{ err error }

// Model is the profile picker.
type Model struct {
	choices []string
	cursor  int
	columns int

	loc    thcrap.Location
	list   func() []string
	keys   keyMap
	help   help.Model
	theme  Theme
	status string

	watcher    *fsnotify.Watcher
	saveColors func(map[string]string) error

	result launcher.Selection
	done   bool
	width  int
}

// NewModel builds a picker over choices with lastRun pre-selected when present.
// list is called to refresh the choices when the profile directory changes.
func NewModel(choices []string, lastRun string, loc thcrap.Location, list func() []string, theme Theme) Model {
	m := Model{
		choices: choices,
		loc:     loc,
		list:    list,
		keys:    defaultKeys,
		help:    help.New(),
		theme:   theme,
	}
	m.columns = gridColumns(len(choices))
	if i := slices.Index(choices, lastRun); i >= 0 {
		m.cursor = i
	}
	return m
}

// Result is the choice once the program has ended.
func (m Model) Result() (launcher.Selection, bool) {
	return m.result, m.done
}

func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case profilesChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case watchErrMsg:
		m.status = fmt.Sprintf("watching profiles failed: %v", msg.err)
		return m, m.waitForChange()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.choices)
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor-m.columns >= 0 {
			m.cursor -= m.columns
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor+m.columns < n {
			m.cursor += m.columns
		}
	case key.Matches(msg, m.keys.Left):
		if m.cursor%m.columns > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cursor%m.columns < m.columns-1 && m.cursor+1 < n {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Play):
		if n > 0 {
			m.result = launcher.Selection{Profile: m.choices[m.cursor]}
			m.done = true
			return m, tea.Quit
		}
	case key.Matches(msg, m.keys.Configure):
		m.result = launcher.Selection{Configure: true}
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Updater):
		m.toggle(thcrap.FeatureUpdater)
	case key.Matches(msg, m.keys.Steam):
		m.toggle(thcrap.FeatureSteam)
	case key.Matches(msg, m.keys.Colors):
		m.resetColors()
	}
	return m, nil
}

func (m *Model) toggle(f thcrap.Feature) {
	want := !f.Enabled(m.loc)
	if err := f.SetEnabled(m.loc, want); err != nil {
		m.status = err.Error()
		return
	}
	state := "disabled"
	if want {
		state = "enabled"
	}
	m.status = fmt.Sprintf("%s %s", f.Name, state)
}

// resetColors restores DefaultColors and stores them as the color preference.
func (m *Model) resetColors() {
	if m.saveColors != nil {
		if err := m.saveColors(maps.Clone(DefaultColors)); err != nil {
			m.status = fmt.Sprintf("saving colors failed: %v", err)
			return
		}
	}
	m.theme = NewTheme(nil)
	m.status = "colors reset"
}

// refresh relists the choices, keeping the cursor on the same name if it survived.
func (m *Model) refresh() {
	if m.list == nil {
		return
	}
	current := ""
	if m.cursor < len(m.choices) {
		current = m.choices[m.cursor]
	}
	m.choices = m.list()
	m.columns = gridColumns(len(m.choices))
	m.cursor = 0
	if i := slices.Index(m.choices, current); i >= 0 {
		m.cursor = i
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	w := m.watcher
	return func() tea.Msg {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return nil
			}
			return profilesChangedMsg{}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return watchErrMsg{err: err}
		}
	}
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.theme.Title.Render(config.AppName))
	s.WriteString("\n\n")

	cellWidth := 0
	for _, c := range m.choices {
		for _, line := range strings.Split(Label(c), "\n") {
			cellWidth = max(cellWidth, lipgloss.Width(line))
		}
	}
	cellWidth += 4

	var rows []string
	for start := 0; start < len(m.choices); start += m.columns {
		var cells []string
		for i := start; i < min(start+m.columns, len(m.choices)); i++ {
			style := m.theme.Cell
			if i == m.cursor {
				style = m.theme.Selected
			}
			cells = append(cells, style.Width(cellWidth).Render(Label(m.choices[i])))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	for len(rows) < minRows {
		rows = append(rows, "")
	}
	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	s.WriteString("\n\n")

	var features []string
	for _, f := range thcrap.Features() {
		mark := "off"
		if f.Enabled(m.loc) {
			mark = "on"
		}
		features = append(features, fmt.Sprintf("%s: %s", f.Name, mark))
	}
	s.WriteString(m.theme.Dim.Render(strings.Join(features, " • ")))
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(m.theme.Status.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(m.help.View(m.keys))
	return s.String()
}

// Picker is the terminal selection surface.
type Picker struct {
	loc        thcrap.Location
	settings   *config.Settings
	logger     *zap.Logger
	opts       []tea.ProgramOption
	isTerminal func() bool
}

func NewPicker(loc thcrap.Location, settings *config.Settings, logger *zap.Logger, opts ...tea.ProgramOption) *Picker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Picker{
		loc:        loc,
		settings:   settings,
		logger:     logger.Named("picker"),
		opts:       opts,
		isTerminal: hasTerminal,
	}
}

// hasTerminal reports whether bubbletea can get keyboard input: either stdin is a
// terminal or the controlling terminal can be opened. Steam provides neither.
func hasTerminal() bool {
	if term.IsTerminal(os.Stdin.Fd()) {
		return true
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return false
	}
	tty.Close()
	return true
}

// Select runs the picker until the user commits, asks for the configurator, or
// quits (launcher.ErrCancelled). Without a terminal it fails with
// launcher.ErrSelectorUnavailable before touching the screen.
func (p *Picker) Select(ctx context.Context, choices launcher.Choices) (launcher.Selection, error) {
	if !p.isTerminal() {
		return launcher.Selection{}, fmt.Errorf("%w: no terminal attached", launcher.ErrSelectorUnavailable)
	}

	colors, err := p.settings.Colors()
	if err != nil {
		return launcher.Selection{}, err
	}

	list := func() []string {
		return append([]string{thcrap.NoPatch}, thcrap.ListProfiles(p.loc)...)
	}
	m := NewModel(choices.Profiles, choices.LastRun, p.loc, list, NewTheme(colors))
	m.saveColors = p.settings.SetColors

	if w, err := fsnotify.NewWatcher(); err != nil {
		p.logger.Warn("profile watching unavailable", zap.Error(err))
	} else {
		defer w.Close()
		if err := w.Add(p.loc.ProfileDir); err != nil {
			p.logger.Debug("not watching profile directory", zap.Error(err))
		} else {
			m.watcher = w
		}
	}

	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, p.opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return launcher.Selection{}, ctx.Err()
		}
		return launcher.Selection{}, fmt.Errorf("profile picker: %w", err)
	}

	sel, ok := final.(Model).Result()
	if !ok {
		return launcher.Selection{}, launcher.ErrCancelled
	}
	return sel, nil
}
