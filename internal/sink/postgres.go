package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Veraticus/llm-pipeline/internal/storage"
)

// Postgres writes transformed content to a PostgreSQL database.
type Postgres struct {
	pool      *pgxpool.Pool
	template  Template
	statement string
	order     []string
	buf       buffer
}

// OpenPostgres validates query and connects to dsn.
func OpenPostgres(ctx context.Context, dsn, query string) (*Postgres, error) {
	tmpl, err := ParseTemplate(query)
	if err != nil {
		return nil, err
	}

	pool, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}

	statement, order := tmpl.Render(BindDollar)
	return &Postgres{pool: pool, template: tmpl, statement: statement, order: order}, nil
}

// Query returns the write template as configured.
func (p *Postgres) Query() string { return p.template.String() }

// PendingCount returns the number of buffered writes.
func (p *Postgres) PendingCount() int { return p.buf.count() }

// WriteRecord buffers a write until the next CommitBatch.
func (p *Postgres) WriteRecord(_ context.Context, id any, content string) error {
	return p.buf.add(id, content)
}

// CommitBatch applies all buffered writes in one transaction.
func (p *Postgres) CommitBatch(ctx context.Context) error {
	return p.buf.flush(func(writes []pendingWrite) error {
		return p.apply(ctx, writes)
	})
}

// Close commits any remaining writes and releases the connection pool.
func (p *Postgres) Close(ctx context.Context) error {
	return p.buf.shutdown(
		func(writes []pendingWrite) error { return p.apply(ctx, writes) },
		func() error {
			p.pool.Close()
			return nil
		},
	)
}

func (p *Postgres) apply(ctx context.Context, writes []pendingWrite) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, w := range writes {
		batch.Queue(p.statement, bindArgs(p.order, w)...)
	}

	results := tx.SendBatch(ctx, batch)
	for _, w := range writes {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to write record %v: %w", w.id, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to finish batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	slog.Debug("Committed batch", "records", len(writes))
	return nil
}
