package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
)

// Document is the JSON export layout.
type Document struct {
	Schema  string              `json:"schema"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// JSON writes the records as a Document and checks the result against a JSON schema built
// from the column list, so every row carries exactly the schema's columns.
func (s *Service) JSON(schema record.Schema, recs []record.Record) ([]byte, error) {
	start := time.Now()

	doc := Document{
		Schema:  schema.Name(),
		Columns: schema.Columns(),
		Rows:    make([]map[string]string, 0, len(recs)),
	}
	for _, r := range recs {
		doc.Rows = append(doc.Rows, r.Map())
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}
	if err := ValidateJSON(schema, data); err != nil {
		return nil, err
	}

	s.logger.Info("export.json.ok",
		"schema", schema.Name(),
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

// JSONSchema describes a Document of the given record schema.
func JSONSchema(schema record.Schema) map[string]any {
	cols := schema.Columns()
	props := make(map[string]any, len(cols))
	required := make([]any, 0, len(cols))
	for _, c := range cols {
		props[c] = map[string]any{"type": "string"}
		required = append(required, c)
	}
	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []any{"schema", "columns", "rows"},
		"properties": map[string]any{
			"schema":  map[string]any{"const": schema.Name()},
			"columns": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"rows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           props,
					"required":             required,
					"additionalProperties": false,
				},
			},
		},
	}
}

// ValidateJSON validates data against JSONSchema(schema).
func ValidateJSON(schema record.Schema, data []byte) error {
	b, err := json.Marshal(JSONSchema(schema))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rows.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("rows.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
