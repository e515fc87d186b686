// Package testutil provides test utilities for the llm-pipeline project.
// It sets up throwaway SQLite databases holding rows to transform.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Veraticus/llm-pipeline/internal/storage"
)

// Schema of the fixture table.
const schema = `CREATE TABLE articles (
	id INTEGER PRIMARY KEY,
	body TEXT NOT NULL,
	title TEXT,
	status TEXT NOT NULL DEFAULT 'draft'
)`

// Statements matching the fixture table.
const (
	SelectQuery = "SELECT id, body AS content, title FROM articles ORDER BY id"
	UpdateQuery = "UPDATE articles SET body = :content WHERE id = :id"
)

// Article is one fixture row.
type Article struct {
	Body   string
	Title  string
	Status string
	ID     int64
}

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	DB   *sql.DB
	t    *testing.T
	Path string
}

// SetupTestDB creates a file-backed SQLite database under t.TempDir()
// seeded with articles. Cleanup is registered automatically.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.Articles(25)...)
//	src, err := source.OpenSQLite(ctx, db.Path, source.Config{Query: testutil.SelectQuery})
func SetupTestDB(t *testing.T, articles ...Article) *TestDB {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pipeline.db")

	db, err := storage.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	testDB := &TestDB{DB: db, Path: path, t: t}
	testDB.Insert(articles...)
	return testDB
}

// Insert adds articles to the fixture table.
func (db *TestDB) Insert(articles ...Article) {
	db.t.Helper()

	for _, a := range articles {
		status := a.Status
		if status == "" {
			status = "draft"
		}
		if _, err := db.DB.Exec(
			"INSERT INTO articles (id, body, title, status) VALUES (?, ?, ?, ?)",
			a.ID, a.Body, a.Title, status,
		); err != nil {
			db.t.Fatalf("failed to seed article %d: %v", a.ID, err)
		}
	}
}

// Body returns the stored body of article id.
func (db *TestDB) Body(id int64) string {
	db.t.Helper()

	var body string
	if err := db.DB.QueryRow("SELECT body FROM articles WHERE id = ?", id).Scan(&body); err != nil {
		db.t.Fatalf("failed to read article %d: %v", id, err)
	}
	return body
}

// Articles returns n articles with ids 1..n.
func Articles(n int) []Article {
	articles := make([]Article, n)
	for i := range articles {
		id := int64(i + 1)
		articles[i] = Article{
			ID:    id,
			Title: fmt.Sprintf("Article %d", id),
			Body:  fmt.Sprintf("original body of article number %d", id),
		}
	}
	return articles
}
