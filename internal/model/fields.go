// internal/model/fields.go
package model

import (
	"strconv"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	appErrors "github.com/unclebandit/order-email-api/internal/errors"
)

type FieldKind int

const (
	KindScalar FieldKind = iota
	KindRows
	KindRecord
)

// Cell is one named value of a row or record, kept in payload order
type Cell struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Row is a line item: column name -> value in document order
type Row []Cell

func (r Row) Get(name string) (string, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// set keeps the first position of a repeated key and the last value
func (r Row) set(name, value string) Row {
	for i := range r {
		if r[i].Name == name {
			r[i].Value = value
			return r
		}
	}
	return append(r, Cell{Name: name, Value: value})
}

// FieldValue is either a scalar, a sequence of rows or a single nested record.
type FieldValue struct {
	Kind   FieldKind
	Scalar string
	Rows   []Row
	Record Row
	Null   bool
	Number bool
}

func ScalarValue(s string) FieldValue {
	return FieldValue{Kind: KindScalar, Scalar: s}
}

func RowsValue(rows ...Row) FieldValue {
	if rows == nil {
		rows = []Row{}
	}
	return FieldValue{Kind: KindRows, Rows: rows}
}

func RecordValue(record Row) FieldValue {
	return FieldValue{Kind: KindRecord, Record: record}
}

// IsEmpty reports whether the value would fail a required-field check:
// null, "", "0", numeric zero, false, and empty rows or records.
func (v FieldValue) IsEmpty() bool {
	switch v.Kind {
	case KindRows:
		return len(v.Rows) == 0
	case KindRecord:
		return len(v.Record) == 0
	}
	if v.Null || v.Scalar == "" || v.Scalar == "0" {
		return true
	}
	if v.Number {
		f, err := strconv.ParseFloat(v.Scalar, 64)
		return err == nil && f == 0
	}
	return false
}

type Field struct {
	Name  string
	Value FieldValue
}

// FieldMap is an insertion-ordered map of request fields.
type FieldMap struct {
	fields []Field
	index  map[string]int
}

func NewFieldMap(fields ...Field) FieldMap {
	var m FieldMap
	for _, f := range fields {
		m.Set(f.Name, f.Value)
	}
	return m
}

func (m *FieldMap) Set(name string, v FieldValue) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[name]; ok {
		m.fields[i].Value = v
		return
	}
	m.index[name] = len(m.fields)
	m.fields = append(m.fields, Field{Name: name, Value: v})
}

func (m FieldMap) Get(name string) (FieldValue, bool) {
	i, ok := m.index[name]
	if !ok {
		return FieldValue{}, false
	}
	return m.fields[i].Value, true
}

func (m FieldMap) Len() int {
	return len(m.fields)
}

// Fields returns a copy of the fields in insertion order
func (m FieldMap) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Clone returns a copy that can be modified without touching m
func (m FieldMap) Clone() FieldMap {
	return NewFieldMap(m.fields...)
}

// ParseFieldMap decodes a JSON object keeping the key order of the document.
// Input that is not valid UTF-8 is rejected as malformed.
func ParseFieldMap(data []byte) (FieldMap, error) {
	if !utf8.Valid(data) || !gjson.ValidBytes(data) {
		return FieldMap{}, appErrors.ErrMalformedJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return FieldMap{}, appErrors.ErrNotObject
	}

	var m FieldMap
	root.ForEach(func(key, value gjson.Result) bool {
		m.Set(key.String(), fieldValueOf(value))
		return true
	})
	return m, nil
}

func fieldValueOf(r gjson.Result) FieldValue {
	switch {
	case r.IsArray():
		rows := []Row{}
		r.ForEach(func(_, item gjson.Result) bool {
			if item.IsObject() {
				rows = append(rows, rowOf(item))
			} else {
				rows = append(rows, Row{{Value: scalarOf(item)}})
			}
			return true
		})
		return RowsValue(rows...)
	case r.IsObject():
		return RecordValue(rowOf(r))
	}

	v := ScalarValue(scalarOf(r))
	v.Null = r.Type == gjson.Null
	v.Number = r.Type == gjson.Number
	return v
}

func rowOf(obj gjson.Result) Row {
	row := Row{}
	obj.ForEach(func(key, value gjson.Result) bool {
		row = row.set(key.String(), scalarOf(value))
		return true
	})
	return row
}

// scalarOf converts a JSON value to the string it is substituted as.
// Booleans follow the usual template convention: true -> "1", false -> "".
func scalarOf(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	case gjson.True:
		return "1"
	case gjson.False, gjson.Null:
		return ""
	default:
		return r.Raw
	}
}
