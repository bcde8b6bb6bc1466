package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func docFrom(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseDocument("test", []byte(src))
	require.NoError(t, err)
	return doc
}

func TestMergeOverride(t *testing.T) {
	cases := []struct {
		name      string
		doc       string
		overrides string
		want      string
	}{
		{"empty both", `{}`, `{}`, `{}`},
		{"add to empty", `{}`, `{"a":1}`, `{"a":1}`},
		{"keep untouched", `{"a":1,"b":2}`, `{}`, `{"a":1,"b":2}`},
		{"replace in place", `{"a":1,"b":2,"c":3}`, `{"b":"x"}`, `{"a":1,"b":"x","c":3}`},
		{"append new keys", `{"a":1}`, `{"z":true,"b":null}`, `{"a":1,"z":true,"b":null}`},
		{"shallow nested", `{"n":{"x":1,"y":2}}`, `{"n":{"x":9}}`, `{"n":{"x":9}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := docFrom(t, tc.doc)
			before, err := doc.MarshalJSON()
			require.NoError(t, err)

			merged := MergeOverride(doc, docFrom(t, tc.overrides))
			got, err := merged.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))

			after, err := doc.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after), "input document must not change")
		})
	}
}

func TestMergeOverridePreservesAndReplaces(t *testing.T) {
	doc := docFrom(t, `{"background_updates":true,"console":false,"patches":[{"id":"base"}]}`)
	overrides := NewDocument()
	require.NoError(t, overrides.Set("background_updates", false))
	require.NoError(t, overrides.Set("update_others", false))

	merged := MergeOverride(doc, overrides)
	for _, k := range doc.Keys() {
		require.True(t, merged.Has(k), "key %s dropped", k)
		if !overrides.Has(k) {
			want, _ := doc.Raw(k)
			got, _ := merged.Raw(k)
			assert.JSONEq(t, string(want), string(got))
		}
	}
	for _, k := range overrides.Keys() {
		want, _ := overrides.Raw(k)
		got, _ := merged.Raw(k)
		assert.JSONEq(t, string(want), string(got))
	}
}

func TestLoadDocumentMissing(t *testing.T) {
	doc, err := LoadDocument(filepath.Join(t.TempDir(), "nope.js"))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
}

func TestLoadDocumentCorrupt(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"syntax.js":   `{"a": }`,
		"array.js":    `[1,2,3]`,
		"empty.js":    ``,
		"trailing.js": `{"a":1} {"b":2}`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))

		_, err := LoadDocument(path)
		var corrupt *CorruptDocumentError
		require.True(t, errors.As(err, &corrupt), "%s: got %v", name, err)
		assert.Equal(t, path, corrupt.Path)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.js")

	doc := NewDocument()
	require.NoError(t, doc.Set("last_run", "en"))
	require.NoError(t, doc.Set("count", 3))
	require.NoError(t, doc.Set("enabled", true))
	require.NoError(t, doc.Set("color", map[string]string{"green": "#5abd42"}))
	require.NoError(t, doc.Set("list", []any{"a", 1.5, nil}))
	require.NoError(t, doc.Set("unicode", "日本語"))
	require.NoError(t, SaveDocument(doc, path))

	loaded, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Keys(), loaded.Keys())
	for _, k := range doc.Keys() {
		want, _ := doc.Raw(k)
		got, _ := loaded.Raw(k)
		assert.JSONEq(t, string(want), string(got), k)
	}
}

func TestSaveDocumentFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.js")
	doc := NewDocument()
	require.NoError(t, doc.Set("background_updates", false))
	require.NoError(t, doc.Set("update_others", false))
	require.NoError(t, SaveDocument(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\r\n  \"background_updates\": false,\r\n  \"update_others\": false\r\n}", string(data))
	assert.False(t, strings.Contains(strings.ReplaceAll(string(data), "\r\n", ""), "\n"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestLoadDocumentBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.js")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, `{"a":1}`...), 0644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.True(t, doc.Has("a"))
}

func TestTruthy(t *testing.T) {
	doc := docFrom(t, `{"t1":[{"id":"x"}],"t2":"s","t3":1,"t4":{"a":1},"t5":true,
		"f1":[],"f2":"","f3":0,"f4":{},"f5":false,"f6":null,"f7":0.0}`)
	for _, k := range []string{"t1", "t2", "t3", "t4", "t5"} {
		assert.True(t, doc.Truthy(k), k)
	}
	for _, k := range []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7", "missing"} {
		assert.False(t, doc.Truthy(k), k)
	}
}

func TestDocumentMarshalInsideStruct(t *testing.T) {
	doc := docFrom(t, `{"b":1,"a":2}`)
	out, err := json.Marshal(struct {
		D *Document `json:"d"`
	}{doc})
	require.NoError(t, err)
	assert.Equal(t, `{"d":{"b":1,"a":2}}`, string(out))
}

func TestSettingsLastRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thcrap_launcher.json")
	s := NewSettings(path, zap.NewNop())

	name, err := s.LastRun()
	require.NoError(t, err)
	assert.Equal(t, NoConfig, name)

	require.NoError(t, s.SetColors(map[string]string{"bg_main": "#000000"}))
	require.NoError(t, s.SetLastRun("es"))

	name, err = s.LastRun()
	require.NoError(t, err)
	assert.Equal(t, "es", name)

	colors, err := s.Colors()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bg_main": "#000000"}, colors)
}

func TestSettingsPreservesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thcrap_launcher.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"color":{"red":"#bd4242"},"window":[1280,800]}`), 0644))

	s := NewSettings(path, nil)
	require.NoError(t, s.SetLastRun("en"))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"color", "window", "last_run"}, doc.Keys())
	raw, _ := doc.Raw("window")
	assert.JSONEq(t, `[1280,800]`, string(raw))
}

func TestSettingsCorruptIsSurfaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thcrap_launcher.json")
	require.NoError(t, os.WriteFile(path, []byte(`{last_run: en}`), 0644))

	s := NewSettings(path, nil)
	_, err := s.LastRun()
	var corrupt *CorruptDocumentError
	require.ErrorAs(t, err, &corrupt)

	require.Error(t, s.SetLastRun("en"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{last_run: en}`, string(data), "corrupt settings must not be overwritten")
}

func TestSettingsNonStringLastRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thcrap_launcher.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_run": 7}`), 0644))

	name, err := NewSettings(path, nil).LastRun()
	require.NoError(t, err)
	assert.Equal(t, "7", name)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"HOME": "/home/deck",
		"PWD":  "/games/th18",
	}
	cfg := FromEnv(func(k string) string { return env[k] })
	assert.Equal(t, "/home/deck/.local/share/thcrap-launcher", cfg.ThcrapDir)
	assert.Equal(t, "/home/deck/.cache/thcrap-launcher/thcrap.zip", cfg.ArchiveCache)
	assert.Equal(t, "/games/th18", cfg.Cwd)
	assert.Equal(t, DefaultArchiveURL, cfg.ArchiveURL)

	env["XDG_DATA_DIR"] = "/data"
	env["XDG_CACHE_HOME"] = "/cache"
	cfg = FromEnv(func(k string) string { return env[k] })
	assert.Equal(t, "/data/thcrap-launcher", cfg.ThcrapDir)
	assert.Equal(t, "/cache/thcrap-launcher/thcrap.zip", cfg.ArchiveCache)
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/deck", ExpandHome("~", "/home/deck"))
	assert.Equal(t, "/home/deck/global_thcrap", ExpandHome("~/global_thcrap", "/home/deck"))
	assert.Equal(t, "../shared_thcrap", ExpandHome("../shared_thcrap", "/home/deck"))
	assert.Equal(t, "~other/x", ExpandHome("~other/x", "/home/deck"))
}

func TestGameExe(t *testing.T) {
	assert.Equal(t, "", Config{}.GameExe())
	assert.Equal(t, "/g/th18.exe", Config{Args: []string{"proton", "run", "/g/th18.exe"}}.GameExe())
}
