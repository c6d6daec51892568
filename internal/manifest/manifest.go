// Package manifest reads and rewrites plugin manifest files.
//
// A manifest is a JSON object. Known fields (name, description, version,
// author) are exposed as typed values; every other field is carried through
// untouched so that a load/save cycle only ever changes the version.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sprite-ai/plugver/internal/semver"
)

var (
	// ErrNotFound is returned when a plugin has no manifest file.
	ErrNotFound = errors.New("manifest not found")
	// ErrMalformed is returned when a manifest is not a valid record.
	ErrMalformed = errors.New("manifest malformed")
)

// Author identifies who maintains a plugin.
type Author struct {
	Name string `json:"name"`
}

// Manifest is one plugin's identity and version record.
type Manifest struct {
	Name        string
	Description string
	Version     semver.Version
	Author      *Author

	fields []field
}

type field struct {
	key   string
	value json.RawMessage
}

// Keys returns the top-level keys in file order.
func (m *Manifest) Keys() []string {
	keys := make([]string, len(m.fields))
	for i, f := range m.fields {
		keys[i] = f.key
	}
	return keys
}

// Raw returns the undecoded value of a top-level field.
func (m *Manifest) Raw(key string) (json.RawMessage, bool) {
	for _, f := range m.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// Decode parses manifest JSON, keeping top-level key order.
func Decode(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	m := &Manifest{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected object key, got %v", ErrMalformed, tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
		}
		m.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}

	if err := m.decodeKnown(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) decodeKnown() error {
	raw, ok := m.Raw("name")
	if !ok {
		return fmt.Errorf("%w: missing \"name\"", ErrMalformed)
	}
	if err := json.Unmarshal(raw, &m.Name); err != nil || m.Name == "" {
		return fmt.Errorf("%w: \"name\" must be a non-empty string", ErrMalformed)
	}

	if raw, ok := m.Raw("description"); ok {
		if err := json.Unmarshal(raw, &m.Description); err != nil {
			return fmt.Errorf("%w: \"description\" must be a string", ErrMalformed)
		}
	}

	raw, ok = m.Raw("version")
	if !ok {
		return fmt.Errorf("%w: missing \"version\"", ErrMalformed)
	}
	var vs string
	if err := json.Unmarshal(raw, &vs); err != nil {
		return fmt.Errorf("%w: \"version\" must be a string", ErrMalformed)
	}
	v, err := semver.Parse(vs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	m.Version = v

	if raw, ok := m.Raw("author"); ok && string(raw) != "null" {
		var a Author
		if err := json.Unmarshal(raw, &a); err != nil {
			return fmt.Errorf("%w: \"author\" must be an object", ErrMalformed)
		}
		m.Author = &a
	}
	return nil
}

// Encode renders the manifest with two-space indentation and a trailing newline.
func (m *Manifest) Encode() ([]byte, error) {
	if err := m.syncKnown(); err != nil {
		return nil, err
	}

	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, f := range m.fields {
		if i > 0 {
			compact.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		compact.Write(k)
		compact.WriteByte(':')
		compact.Write(f.value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indenting manifest: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// syncKnown writes typed fields back into the ordered field list. Values that
// still decode to the typed value keep their original encoding.
func (m *Manifest) syncKnown() error {
	if err := m.syncString("name", m.Name, false); err != nil {
		return err
	}
	if err := m.syncString("description", m.Description, true); err != nil {
		return err
	}
	if err := m.syncString("version", m.Version.String(), false); err != nil {
		return err
	}
	if m.Author != nil {
		if raw, ok := m.Raw("author"); ok {
			var cur map[string]json.RawMessage
			if err := json.Unmarshal(raw, &cur); err == nil {
				var name string
				if err := json.Unmarshal(cur["name"], &name); err == nil && name == m.Author.Name {
					return nil
				}
				// Keep sibling author fields, replace only the name.
				if cur == nil {
					cur = map[string]json.RawMessage{}
				}
				enc, err := json.Marshal(m.Author.Name)
				if err != nil {
					return err
				}
				cur["name"] = enc
				merged, err := json.Marshal(cur)
				if err != nil {
					return err
				}
				m.set("author", merged)
				return nil
			}
		}
		enc, err := json.Marshal(m.Author)
		if err != nil {
			return err
		}
		m.set("author", enc)
	}
	return nil
}

func (m *Manifest) syncString(key, val string, omitEmpty bool) error {
	raw, ok := m.Raw(key)
	if ok {
		var cur string
		if err := json.Unmarshal(raw, &cur); err == nil && cur == val {
			return nil
		}
	} else if omitEmpty && val == "" {
		return nil
	}
	enc, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.set(key, enc)
	return nil
}

func (m *Manifest) set(key string, value json.RawMessage) {
	for i := range m.fields {
		if m.fields[i].key == key {
			m.fields[i].value = value
			return
		}
	}
	m.fields = append(m.fields, field{key: key, value: value})
}
