package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/llm-pipeline/internal/storage"
)

// SQLite writes transformed content to a SQLite database.
type SQLite struct {
	db        *sql.DB
	template  Template
	statement string
	order     []string
	buf       buffer
}

// OpenSQLite validates query and opens dbPath.
func OpenSQLite(ctx context.Context, dbPath, query string) (*SQLite, error) {
	tmpl, err := ParseTemplate(query)
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	statement, order := tmpl.Render(BindQuestion)
	return &SQLite{db: db, template: tmpl, statement: statement, order: order}, nil
}

// Query returns the write template as configured.
func (s *SQLite) Query() string { return s.template.String() }

// PendingCount returns the number of buffered writes.
func (s *SQLite) PendingCount() int { return s.buf.count() }

// WriteRecord buffers a write until the next CommitBatch.
func (s *SQLite) WriteRecord(_ context.Context, id any, content string) error {
	return s.buf.add(id, content)
}

// CommitBatch applies all buffered writes in one transaction.
func (s *SQLite) CommitBatch(ctx context.Context) error {
	return s.buf.flush(func(writes []pendingWrite) error {
		return s.apply(ctx, writes)
	})
}

// Close commits any remaining writes and releases the database handle.
func (s *SQLite) Close(ctx context.Context) error {
	return s.buf.shutdown(
		func(writes []pendingWrite) error { return s.apply(ctx, writes) },
		func() error {
			if err := s.db.Close(); err != nil {
				return fmt.Errorf("failed to close sink database: %w", err)
			}
			return nil
		},
	)
}

func (s *SQLite) apply(ctx context.Context, writes []pendingWrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.statement)
	if err != nil {
		return fmt.Errorf("failed to prepare sink query: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, w := range writes {
		if _, err := stmt.ExecContext(ctx, bindArgs(s.order, w)...); err != nil {
			return fmt.Errorf("failed to write record %v: %w", w.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	slog.Debug("Committed batch", "records", len(writes))
	return nil
}
