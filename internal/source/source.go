// Package source reads records to transform from a relational database.
package source

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/storage"
)

// Source errors.
var (
	ErrAlreadyConsumed = errors.New("record sequence already consumed")
	ErrMissingColumn   = errors.New("required column missing from query result")
)

// Default column names.
const (
	DefaultPrimaryKey   = "id"
	DefaultContentField = "content"
)

// Config describes which rows to read and how to map their columns.
type Config struct {
	// Query selects the rows to transform.
	Query string
	// PrimaryKey names the column holding the record identifier.
	PrimaryKey string
	// ContentField names the column holding the text to transform.
	ContentField string
}

func (c Config) withDefaults() (Config, error) {
	if err := storage.ValidateString(c.Query, "source query"); err != nil {
		return c, err
	}
	if c.PrimaryKey == "" {
		c.PrimaryKey = DefaultPrimaryKey
	}
	if c.ContentField == "" {
		c.ContentField = DefaultContentField
	}
	return c, nil
}

func (c Config) countQuery() string {
	return "SELECT COUNT(*) FROM (" + storage.TrimStatement(c.Query) + ") AS subquery"
}

// toRecord maps one result row onto a Record. Columns other than the key
// and content columns become metadata.
func (c Config) toRecord(columns []string, values []any) (model.Record, error) {
	record := model.Record{Metadata: make(map[string]any, len(columns))}

	var haveID, haveContent bool
	for i, col := range columns {
		switch col {
		case c.PrimaryKey:
			record.ID = normalizeValue(values[i])
			haveID = true
		case c.ContentField:
			record.Content = contentString(values[i])
			haveContent = true
		default:
			record.Metadata[col] = normalizeValue(values[i])
		}
	}

	if !haveID {
		return model.Record{}, fmt.Errorf("%w: %s", ErrMissingColumn, c.PrimaryKey)
	}
	if !haveContent {
		return model.Record{}, fmt.Errorf("%w: %s", ErrMissingColumn, c.ContentField)
	}

	return record, nil
}

// normalizeValue keeps identifiers comparable. Some drivers return text
// columns as byte slices.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func contentString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// once guards the single pass over a record sequence.
type once struct {
	used atomic.Bool
}

func (o *once) claim() error {
	if !o.used.CompareAndSwap(false, true) {
		return ErrAlreadyConsumed
	}
	return nil
}
