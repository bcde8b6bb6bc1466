// thcrap-launcher/config/document.go
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CorruptDocumentError reports a document file that exists but cannot be parsed.
type CorruptDocumentError struct {
	Path string
	Err  error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("corrupt document %s: %v", e.Path, e.Err)
}

func (e *CorruptDocumentError) Unwrap() error { return e.Err }

// Document is a JSON object whose top-level keys keep the order they were first
// seen in. Values are held as compact raw JSON.
type Document struct {
	keys   []string
	values map[string]json.RawMessage
}

func NewDocument() *Document {
	return &Document{values: make(map[string]json.RawMessage)}
}

func (d *Document) Len() int { return len(d.keys) }

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Raw returns the compact JSON encoding of the value at key.
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set stores value under key. Existing keys keep their position.
func (d *Document) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	d.setRaw(key, raw)
	return nil
}

func (d *Document) setRaw(key string, raw json.RawMessage) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = raw
}

// Decode unmarshals the value at key into v. It reports false when key is absent.
func (d *Document) Decode(key string, v any) (bool, error) {
	raw, ok := d.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// Truthy follows the usual scripting rules: null, false, 0, "" and empty
// containers are false, everything else present is true.
func (d *Document) Truthy(key string) bool {
	raw, ok := d.values[key]
	if !ok {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`, "[]", "{}":
		return false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0
	}
	return true
}

func (d *Document) clone() *Document {
	c := &Document{
		keys:   append([]string(nil), d.keys...),
		values: make(map[string]json.RawMessage, len(d.values)),
	}
	for k, v := range d.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON writes the keys in document order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(d.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON requires a JSON object. Duplicate keys keep their first position
// and their last value.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("top-level value is not an object")
	}

	parsed := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return err
		}
		parsed.setRaw(key, compact.Bytes())
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after object")
	}

	*d = *parsed
	return nil
}

// MergeOverride returns a copy of doc where every key of overrides replaces the
// top-level value in doc. Keys absent from overrides are kept untouched; new keys
// are appended in override order.
func MergeOverride(doc, overrides *Document) *Document {
	merged := doc.clone()
	for _, k := range overrides.keys {
		merged.setRaw(k, overrides.values[k])
	}
	return merged
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadDocument reads the document at path. A missing file is an empty document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return ParseDocument(path, data)
}

// ParseDocument parses data read from path, tolerating a leading UTF-8 BOM.
func ParseDocument(path string, data []byte) (*Document, error) {
	doc := NewDocument()
	if err := doc.UnmarshalJSON(bytes.TrimPrefix(data, utf8BOM)); err != nil {
		return nil, &CorruptDocumentError{Path: path, Err: err}
	}
	return doc, nil
}

// SaveDocument replaces the file at path with the indented document using CRLF
// line endings, the format thcrap itself writes and reads.
func SaveDocument(doc *Document, path string) error {
	compact, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, compact, "", "  "); err != nil {
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	data := bytes.ReplaceAll(indented.Bytes(), []byte("\n"), []byte("\r\n"))

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp file in %s: %w", dir, err)
	}

	_, writeErr := tempFile.Write(data)
	closeErr := tempFile.Close()
	if writeErr != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("cannot write %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("cannot write %s: %w", path, closeErr)
	}
	if err := os.Rename(tempFile.Name(), path); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("cannot replace %s: %w", path, err)
	}
	return nil
}
