package guides

import (
	"bytes"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// Entry is one processed document.
type Entry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Catalog maps category keys to ordered entries. Keys keep insertion order
// when encoded.
type Catalog struct {
	keys    []string
	entries map[string][]Entry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: map[string][]Entry{}}
}

// Set stores entries under key, appending key on first use.
func (c *Catalog) Set(key string, entries []Entry) {
	if _, ok := c.entries[key]; !ok {
		c.keys = append(c.keys, key)
	}
	if entries == nil {
		entries = []Entry{}
	}
	c.entries[key] = entries
}

// Keys returns category keys in insertion order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Entries returns the entries stored under key.
func (c *Catalog) Entries(key string) []Entry {
	return c.entries[key]
}

// Len returns the total number of entries across categories.
func (c *Catalog) Len() int {
	n := 0
	for _, k := range c.keys {
		n += len(c.entries[k])
	}
	return n
}

// MarshalJSON encodes the catalog as an object whose keys follow insertion order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalNoEscape(c.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// LoadEntries reads a previously written catalog. A missing file yields an
// empty map.
func LoadEntries(path string) (map[string][]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string][]Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string][]Entry{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return out, nil
}
