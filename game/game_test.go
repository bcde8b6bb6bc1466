package game

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thcrap-launcher/thcrap"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			panic("testing.Chdir: " + err.Error())
		}
	})
}

func requireCheck(t *testing.T, err error, check string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, check, ve.Check, err.Error())
}

func TestCheckTargetRelative(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "sub", "game.exe"))
	touch(t, filepath.Join(dir, "outside", "game.exe"))
	touch(t, filepath.Join(dir, "game.txt"))
	chdir(t, filepath.Join(dir, "sub"))

	require.NoError(t, CheckTarget("./game.exe", "."))
	requireCheck(t, CheckTarget("../outside/game.exe", "."), CheckContainment)
	requireCheck(t, CheckTarget("../game.txt", "."), CheckExtension)

	chdir(t, dir)
	require.NoError(t, CheckTarget("./sub/game.exe", "./sub"))
	requireCheck(t, CheckTarget("game.txt", "."), CheckExtension)
}

func TestCheckTargetAbsolute(t *testing.T) {
	dir := t.TempDir()
	game := filepath.Join(dir, "th18", "th18.exe")
	touch(t, game)
	touch(t, filepath.Join(dir, "th18-sibling", "th18.exe"))
	cwd := filepath.Join(dir, "th18")

	require.NoError(t, CheckTarget(game, cwd))
	require.NoError(t, CheckTarget("th18.exe", cwd), "relative to an absolute cwd")
	require.NoError(t, CheckTarget(game, cwd+"/"))

	requireCheck(t, CheckTarget(filepath.Join(dir, "th18-sibling", "th18.exe"), cwd), CheckContainment)
	requireCheck(t, CheckTarget(filepath.Join(cwd, "..", "th18-sibling", "th18.exe"), cwd), CheckContainment)
	requireCheck(t, CheckTarget(filepath.Join(cwd, "missing.exe"), cwd), CheckExistence)
}

func TestCheckTargetCaseInsensitiveSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "TH06.EXE"))
	require.NoError(t, CheckTarget(filepath.Join(dir, "TH06.EXE"), dir))
	requireCheck(t, CheckTarget(filepath.Join(dir, "TH06.EXE.bak"), dir), CheckExtension)
}

func TestCheckTargetChecksInOrder(t *testing.T) {
	// Outside and missing, but the extension is reported first.
	requireCheck(t, CheckTarget("/nowhere/readme.txt", "/games"), CheckExtension)
	// Missing and outside: containment comes before existence.
	requireCheck(t, CheckTarget("/nowhere/game.exe", "/games"), CheckContainment)
}

func TestValidationErrorMessages(t *testing.T) {
	err := CheckTarget("/nowhere/game.exe", "/games")
	assert.Equal(t, "/nowhere/game.exe is not inside the current directory, /games", err.Error())
	err = CheckTarget("game.txt", "/games")
	assert.Equal(t, "game.txt doesn't end in .exe", err.Error())
}

func TestBuildCommandUnpatched(t *testing.T) {
	loc := thcrap.Resolve("/cwd/thcrap")
	for _, sel := range []string{"no_patch", "no patch"} {
		cmd, err := BuildCommand(sel, loc, "/cwd/game.exe", []string{"wrapper", "/cwd/game.exe"}, "/cwd")
		require.NoError(t, err)
		assert.Equal(t, []string{"wrapper", "/cwd/game.exe"}, cmd.Args)
		assert.Equal(t, map[string]string{"LANG": "ja_JP.UTF-8"}, cmd.Env)
	}
}

func TestBuildCommandPatched(t *testing.T) {
	loc := thcrap.Resolve("/cwd/thcrap")
	args := []string{"wrapper", "/cwd/game.exe"}
	cmd, err := BuildCommand("en", loc, "/cwd/game.exe", args, "/cwd")
	require.NoError(t, err)
	assert.Equal(t, []string{"wrapper", "/cwd/thcrap/thcrap_loader.exe", "en.js", "../game.exe"}, cmd.Args)
	assert.Empty(t, cmd.Env)
	assert.Equal(t, []string{"wrapper", "/cwd/game.exe"}, args, "input args must not change")
}

func TestBuildCommandRelativeRoot(t *testing.T) {
	loc := thcrap.Resolve("./thcrap")
	cmd, err := BuildCommand("es", loc, "/steam/common/th18/th18.exe",
		[]string{"/proton", "waitforexitandrun", "/steam/common/th18/th18.exe"}, "/steam/common/th18")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proton", "waitforexitandrun", filepath.Join("thcrap", "thcrap_loader.exe"), "es.js", "../th18.exe"}, cmd.Args)

	global := thcrap.Resolve("/home/deck/.local/share/thcrap-launcher")
	cmd, err = BuildCommand("en", global, "th18.exe", []string{"th18.exe"}, "/steam/common/th18")
	require.NoError(t, err)
	assert.Equal(t, []string{global.Loader, "en.js", "../../../../../steam/common/th18/th18.exe"}, cmd.Args)
}

func TestBuildCommandErrors(t *testing.T) {
	loc := thcrap.Resolve("/cwd/thcrap")
	_, err := BuildCommand("en", loc, "/cwd/game.exe", nil, "/cwd")
	require.Error(t, err)
	_, err = BuildCommand("", loc, "/cwd/game.exe", []string{"/cwd/game.exe"}, "/cwd")
	require.Error(t, err)
}

func TestCommandEnviron(t *testing.T) {
	base := []string{"HOME=/home/deck", "LANG=en_US.UTF-8", "PATH=/usr/bin"}
	cmd := Command{Env: map[string]string{"LANG": "ja_JP.UTF-8"}}
	assert.Equal(t, []string{"HOME=/home/deck", "PATH=/usr/bin", "LANG=ja_JP.UTF-8"}, cmd.Environ(base))
	assert.Equal(t, base, Command{}.Environ(base))
}

type fakeExec struct {
	argv0 string
	argv  []string
	envv  []string
	err   error
}

func (f *fakeExec) exec(argv0 string, argv []string, envv []string) error {
	f.argv0, f.argv, f.envv = argv0, argv, envv
	return f.err
}

func newTestEngine(f *fakeExec, lookErr error) *Engine {
	e := NewEngine(zap.NewNop())
	e.exec = f.exec
	e.environ = func() []string { return []string{"LANG=C"} }
	e.lookPath = func(file string) (string, error) {
		if lookErr != nil {
			return "", lookErr
		}
		return "/usr/bin/" + file, nil
	}
	return e
}

func TestHandoff(t *testing.T) {
	f := &fakeExec{}
	e := newTestEngine(f, nil)

	cmd := Command{Args: []string{"wrapper", "/cwd/game.exe"}, Env: map[string]string{"LANG": UnpatchedLocale}}
	require.NoError(t, e.Handoff(cmd))
	assert.Equal(t, "/usr/bin/wrapper", f.argv0)
	assert.Equal(t, []string{"wrapper", "/cwd/game.exe"}, f.argv)
	assert.Equal(t, []string{"LANG=ja_JP.UTF-8"}, f.envv)
}

func TestHandoffNotFound(t *testing.T) {
	f := &fakeExec{}
	e := newTestEngine(f, errors.New("executable file not found in $PATH"))

	err := e.Handoff(Command{Args: []string{"wrapper"}})
	var he *HandoffError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "wrapper", he.Argv0)
	assert.Empty(t, f.argv0, "exec must not be attempted")
}

func TestHandoffExecFailure(t *testing.T) {
	f := &fakeExec{err: errors.New("permission denied")}
	e := newTestEngine(f, nil)

	err := e.Handoff(Command{Args: []string{"wrapper"}})
	var he *HandoffError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "/usr/bin/wrapper", he.Argv0)
}

func TestHandoffEmpty(t *testing.T) {
	var he *HandoffError
	require.ErrorAs(t, newTestEngine(&fakeExec{}, nil).Handoff(Command{}), &he)
}

func TestCheckResolvesWithoutExec(t *testing.T) {
	f := &fakeExec{}
	require.NoError(t, newTestEngine(f, nil).Check(Command{Args: []string{"wrapper"}}))
	assert.Empty(t, f.argv0)

	var he *HandoffError
	err := newTestEngine(f, errors.New("executable file not found in $PATH")).Check(Command{Args: []string{"/missing/proton"}})
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "/missing/proton", he.Argv0)
	assert.Empty(t, f.argv0)
}
