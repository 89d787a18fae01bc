// Package record assembles extracted fields into rows of a fixed, ordered column schema.
package record

import "fmt"

// Schema is an ordered, immutable list of column names.
type Schema struct {
	name    string
	columns []string
	index   map[string]int
}

// NewSchema builds a schema. Duplicate column names are a programming error and panic.
func NewSchema(name string, columns ...string) Schema {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; dup {
			panic(fmt.Sprintf("record: duplicate column %q in schema %s", c, name))
		}
		idx[c] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Schema{name: name, columns: cols, index: idx}
}

// Name identifies the schema in exports and run history, e.g. "amazon".
func (s Schema) Name() string { return s.name }

// Columns returns a copy of the column list in output order.
func (s Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len is the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Fields maps column names to values. Columns a block does not mention are simply absent.
type Fields map[string]string

// Record is one output row. Every column of its schema has a value, possibly "".
type Record struct {
	schema Schema
	values []string
}

// New fills a record from parts; later parts override earlier ones. Keys that are not
// schema columns are ignored.
func (s Schema) New(parts ...Fields) Record {
	values := make([]string, len(s.columns))
	for _, p := range parts {
		for k, v := range p {
			if i, ok := s.index[k]; ok {
				values[i] = v
			}
		}
	}
	return Record{schema: s, values: values}
}

// Schema returns the schema the record was built from.
func (r Record) Schema() Schema { return r.schema }

// Get returns the value of column, or "" when the column is unknown or empty.
func (r Record) Get(column string) string {
	if i, ok := r.schema.index[column]; ok {
		return r.values[i]
	}
	return ""
}

// Values returns the row in column order.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the row keyed by column name, every column included.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for i, c := range r.schema.columns {
		out[c] = r.values[i]
	}
	return out
}

// Assemble joins the scalar fields of one block with each of its line items, giving one
// record per item in item order. No items means no records.
func Assemble(s Schema, scalars Fields, items []Fields) []Record {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		out = append(out, s.New(scalars, it))
	}
	return out
}

// Single is the record of a block that describes exactly one item.
func Single(s Schema, parts ...Fields) Record {
	return s.New(parts...)
}
