package source

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sync"

	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/storage"
)

// SQLite reads records from a SQLite database.
type SQLite struct {
	db       *sql.DB
	cfg      Config
	consumed once
	closeMu  sync.Mutex
	closed   bool
}

// OpenSQLite opens dbPath and returns a source for cfg.
func OpenSQLite(ctx context.Context, dbPath string, cfg Config) (*SQLite, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	return &SQLite{db: db, cfg: cfg}, nil
}

// Query returns the selection statement.
func (s *SQLite) Query() string { return s.cfg.Query }

// Count returns the number of rows the query selects.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.cfg.countQuery()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Records streams the selected rows. The sequence can be ranged over once.
func (s *SQLite) Records(ctx context.Context) iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		if err := s.consumed.claim(); err != nil {
			yield(model.Record{}, err)
			return
		}

		rows, err := s.db.QueryContext(ctx, s.cfg.Query)
		if err != nil {
			yield(model.Record{}, fmt.Errorf("failed to query records: %w", err))
			return
		}
		defer func() { _ = rows.Close() }()

		columns, err := rows.Columns()
		if err != nil {
			yield(model.Record{}, fmt.Errorf("failed to read columns: %w", err))
			return
		}

		for rows.Next() {
			values := make([]any, len(columns))
			ptrs := make([]any, len(columns))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				yield(model.Record{}, fmt.Errorf("failed to scan record: %w", err))
				return
			}

			record, err := s.cfg.toRecord(columns, values)
			if !yield(record, err) || err != nil {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(model.Record{}, fmt.Errorf("failed to iterate records: %w", err))
		}
	}
}

// Close releases the database handle. It is safe to call more than once.
func (s *SQLite) Close(_ context.Context) error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close source database: %w", err)
	}
	return nil
}
