// internal/model/schema.go
package model

import (
	"bytes"
	"encoding/json"
)

const StringType = "string"

// SchemaEntry is one discovered field. Columns is set only for the row table.
type SchemaEntry struct {
	Name    string
	Type    string
	Columns []string
}

// SchemaDescriptor is the introspected shape of a template, in discovery order.
type SchemaDescriptor struct {
	entries []SchemaEntry
	index   map[string]int
}

// AddField registers a placeholder name; repeated names keep their first position.
func (d *SchemaDescriptor) AddField(name string) {
	if _, ok := d.index[name]; ok {
		return
	}
	d.put(SchemaEntry{Name: name, Type: StringType})
}

// SetColumns stores the row column labels under name, replacing any placeholder entry.
func (d *SchemaDescriptor) SetColumns(name string, columns []string) {
	cols := make([]string, len(columns))
	copy(cols, columns)

	if i, ok := d.index[name]; ok {
		d.entries[i] = SchemaEntry{Name: name, Columns: cols}
		return
	}
	d.put(SchemaEntry{Name: name, Columns: cols})
}

func (d *SchemaDescriptor) put(e SchemaEntry) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	d.index[e.Name] = len(d.entries)
	d.entries = append(d.entries, e)
}

func (d SchemaDescriptor) Entries() []SchemaEntry {
	out := make([]SchemaEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d SchemaDescriptor) Len() int {
	return len(d.entries)
}

// FieldNames lists the scalar placeholder names, excluding row tables.
func (d SchemaDescriptor) FieldNames() []string {
	names := []string{}
	for _, e := range d.entries {
		if e.Columns == nil {
			names = append(names, e.Name)
		}
	}
	return names
}

// MarshalJSON writes the entries as one JSON object in discovery order.
func (d SchemaDescriptor) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var value []byte
		if e.Columns != nil {
			value, err = json.Marshal(e.Columns)
		} else {
			value, err = json.Marshal(e.Type)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
