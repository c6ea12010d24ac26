// Package records flattens catalog volume info into a uniform table and
// encodes it as the cached JSON document.
package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/justyntemme/bookcache/internal/metadata"
)

// ErrNoData is returned when no catalog item carried volume info
var ErrNoData = errors.New("no data available")

// Table is a set of records sharing one column set
type Table struct {
	Columns []string
	Rows    []Record
}

// Flatten builds a table from the volume info of every item in responses.
// Items without volume info are skipped with a warning. Fields missing from
// a row but present in another are set to "".
func Flatten(responses []*metadata.CatalogResponse, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var infos [][]metadata.Field
	for _, resp := range responses {
		if !resp.HasItems() {
			continue
		}
		for _, item := range resp.Items {
			if item.VolumeInfo == nil {
				logger.Warn("VolumeInfo not found for a book",
					zap.String("isbn", resp.ISBN),
					zap.String("id", item.ID))
				continue
			}
			infos = append(infos, item.VolumeInfo.Fields())
		}
	}

	if len(infos) == 0 {
		return nil, ErrNoData
	}

	columns := unionColumns(infos)
	table := &Table{Columns: columns, Rows: make([]Record, 0, len(infos))}
	for _, fields := range infos {
		table.Rows = append(table.Rows, fill(columns, fields))
	}
	return table, nil
}

// unionColumns returns every field name in first-seen order
func unionColumns(infos [][]metadata.Field) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, fields := range infos {
		for _, f := range fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				columns = append(columns, f.Name)
			}
		}
	}
	return columns
}

func fill(columns []string, fields []metadata.Field) Record {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		values[f.Name] = f.Value
	}

	rec := make(Record, 0, len(columns))
	for _, c := range columns {
		v, ok := values[c]
		if !ok || v == nil {
			v = ""
		}
		rec = append(rec, metadata.Field{Name: c, Value: v})
	}
	return rec
}

// Document is the persisted {"items": [...]} artifact
type Document struct {
	Items []Record `json:"items"`
}

// Document wraps the table rows for storage
func (t *Table) Document() *Document {
	return &Document{Items: t.Rows}
}

// Encode serializes the document with 4-space indentation
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a stored document
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("decode document: empty payload")
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Items == nil {
		return nil, errors.New(`decode document: missing "items"`)
	}
	return &doc, nil
}
