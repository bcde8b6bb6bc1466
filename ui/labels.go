// thcrap-launcher/ui/labels.go
package ui

import "fmt"

var profileLabels = map[string]string{
	"no_patch": "日本語",
	"no patch": "日本語",
	"jp":       "日本語",
	"en":       "English",
	"es":       "Español",
	"de":       "Deutsch",
	"pt":       "Português",
	"fr":       "Français",
	"zh":       "中文",
	"kr":       "한국어",
	"en_troll": "English Troll",
}

// Label is the display text for a profile: the language name over the code,
// or the bare name for profiles without a known language.
func Label(name string) string {
	if label, ok := profileLabels[name]; ok {
		return fmt.Sprintf("%s\n(%s)", label, name)
	}
	return name
}
