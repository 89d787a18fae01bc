package utils

import (
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
	"github.com/joseph-ayodele/labels-extractor/internal/entity"
	"github.com/joseph-ayodele/labels-extractor/internal/pipeline"
)

func str(s string) *structpb.Value { return structpb.NewStringValue(s) }
func num(n int64) *structpb.Value { return structpb.NewNumberValue(float64(n)) }
func obj(s *structpb.Struct) *structpb.Value { return structpb.NewStructValue(s) }

// StringList converts ss to a list value.
func StringList(ss []string) *structpb.Value {
	vals := make([]*structpb.Value, len(ss))
	for i, s := range ss {
		vals[i] = str(s)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

// ToPBRecord maps a record to a struct keyed by column name.
func ToPBRecord(r record.Record) *structpb.Struct {
	fields := make(map[string]*structpb.Value, r.Schema().Len())
	for col, v := range r.Map() {
		fields[col] = str(v)
	}
	return &structpb.Struct{Fields: fields}
}

// ToPBOutcome carries the column order next to the records since struct keys are unordered.
func ToPBOutcome(o pipeline.Outcome) *structpb.Struct {
	recs := make([]*structpb.Value, len(o.Records))
	for i, r := range o.Records {
		recs[i] = obj(ToPBRecord(r))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":     str(o.RunID.String()),
		"source":     str(o.Source),
		"status":     str(string(o.Status)),
		"message":    str(o.Message),
		"summary":    str(o.Summary()),
		"blocks":     num(int64(o.Blocks)),
		"rows":       num(int64(o.Rows())),
		"elapsed_ms": num(o.Elapsed.Milliseconds()),
		"schema":     str(o.Schema.Name()),
		"columns":    StringList(o.Schema.Columns()),
		"records":    structpb.NewListValue(&structpb.ListValue{Values: recs}),
	}}
}

func ToPBRun(r *entity.Run) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id":         str(r.ID.String()),
		"platform":   str(string(r.Platform)),
		"source":     str(r.Source),
		"format":     str(r.Format),
		"status":     str(string(r.Status)),
		"row_count":  num(int64(r.RowCount)),
		"message":    str(r.Message),
		"started_at": str(r.StartedAt.UTC().Format(time.RFC3339)),
	}
	if r.FinishedAt != nil {
		fields["finished_at"] = str(r.FinishedAt.UTC().Format(time.RFC3339))
	}
	return &structpb.Struct{Fields: fields}
}

func ToPBRuns(runs []*entity.Run) *structpb.Struct {
	vals := make([]*structpb.Value, len(runs))
	for i, r := range runs {
		vals[i] = obj(ToPBRun(r))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"runs": structpb.NewListValue(&structpb.ListValue{Values: vals}),
	}}
}

// GetString returns the trimmed string field key of s, or "" when missing or not a string.
func GetString(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

// GetInt returns the numeric field key of s truncated to an int, or 0.
func GetInt(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

// GetStrings returns the string elements of the list field key of s.
func GetStrings(s *structpb.Struct, key string) []string {
	list := s.GetFields()[key].GetListValue().GetValues()
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, v.GetStringValue())
	}
	return out
}
