package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RowData maps normalized column names to cell values while preserving the
// CSV column order, which a plain Go map cannot do.
//
// Values are always strings; numeric-looking cells are never coerced, so the
// stored data contract is uniform ({"age":"30"}, not {"age":30}).
type RowData struct {
	keys   []string
	values map[string]string
}

// Set stores value under key, replacing any existing value. The first Set of
// a key fixes its position in the serialization order.
func (d *RowData) Set(key, value string) {
	if d.values == nil {
		d.values = make(map[string]string)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key.
func (d *RowData) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the column names in insertion order. The returned slice is a
// copy.
func (d *RowData) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of columns.
func (d *RowData) Len() int {
	return len(d.keys)
}

// MarshalJSON emits a JSON object whose members appear in column order.
func (d RowData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores the mapping, keeping the member order of the
// document.
func (d *RowData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row data: expected object, got %v", tok)
	}

	d.keys = nil
	d.values = make(map[string]string)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("row data: expected string key, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case string:
			d.Set(key, v)
		case json.Number:
			d.Set(key, v.String())
		case float64:
			// Older writers may have stored numbers; keep the textual form.
			d.Set(key, fmt.Sprintf("%v", v))
		case nil:
			d.Set(key, "")
		default:
			return fmt.Errorf("row data: unsupported value for %q: %v", key, valTok)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
