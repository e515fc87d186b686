package source

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/storage"
)

// Postgres reads records from a PostgreSQL database.
type Postgres struct {
	pool     *pgxpool.Pool
	cfg      Config
	consumed once
	closeMu  sync.Mutex
	closed   bool
}

// OpenPostgres connects to dsn and returns a source for cfg.
func OpenPostgres(ctx context.Context, dsn string, cfg Config) (*Postgres, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	pool, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &Postgres{pool: pool, cfg: cfg}, nil
}

// Query returns the selection statement.
func (p *Postgres) Query() string { return p.cfg.Query }

// Count returns the number of rows the query selects.
func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, p.cfg.countQuery()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(n), nil
}

// Records streams the selected rows. The sequence can be ranged over once.
func (p *Postgres) Records(ctx context.Context) iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		if err := p.consumed.claim(); err != nil {
			yield(model.Record{}, err)
			return
		}

		rows, err := p.pool.Query(ctx, p.cfg.Query)
		if err != nil {
			yield(model.Record{}, fmt.Errorf("failed to query records: %w", err))
			return
		}
		defer rows.Close()

		fds := rows.FieldDescriptions()
		columns := make([]string, len(fds))
		for i, fd := range fds {
			columns[i] = fd.Name
		}

		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				yield(model.Record{}, fmt.Errorf("failed to scan record: %w", err))
				return
			}

			record, err := p.cfg.toRecord(columns, values)
			if !yield(record, err) || err != nil {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(model.Record{}, fmt.Errorf("failed to iterate records: %w", err))
		}
	}
}

// Close releases the connection pool. It is safe to call more than once.
func (p *Postgres) Close(_ context.Context) error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if !p.closed {
		p.closed = true
		p.pool.Close()
	}
	return nil
}
