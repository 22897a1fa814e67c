package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository opens (creating it if missing) the vault database and applies the migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite vault initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

const documentColumns = `id, name, text, page_count, source, created_at, updated_at`

// CreateDocument stores a new document.
func (r *Repository) CreateDocument(ctx context.Context, d model.Document) error {
	if err := d.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO documents (` + documentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Name,
		d.Text,
		d.PageCount,
		d.Source,
		d.CreatedAt.Unix(),
		d.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: documents.") {
			return fmt.Errorf("document %s: %w", d.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert document: %w", err)
	}

	r.logger.Debugf("Created document in vault: %s", d.ID)
	return nil
}

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query document: %w", err)
	}

	return &doc, nil
}

// ListDocuments returns all the documents, newest first.
func (r *Repository) ListDocuments(ctx context.Context) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return docs, nil
}

// UpdateDocument updates an existing document.
func (r *Repository) UpdateDocument(ctx context.Context, d model.Document) error {
	if err := d.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET
			name = ?,
			text = ?,
			page_count = ?,
			source = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		d.Name,
		d.Text,
		d.PageCount,
		d.Source,
		d.UpdatedAt.Unix(),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update document: %w", err)
	}

	if err := checkAffected(result, d.ID); err != nil {
		return err
	}

	r.logger.Debugf("Updated document in vault: %s", d.ID)
	return nil
}

// DeleteDocument deletes a document, its analyses are removed by the foreign key cascade.
func (r *Repository) DeleteDocument(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete document: %w", err)
	}

	if err := checkAffected(result, id); err != nil {
		return err
	}

	r.logger.Debugf("Deleted document from vault: %s", id)
	return nil
}

func checkAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("document %s: %w", id, model.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (model.Document, error) {
	var d model.Document
	var createdAt, updatedAt int64

	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Text,
		&d.PageCount,
		&d.Source,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Document{}, err
	}

	d.CreatedAt = timeFromUnix(createdAt)
	d.UpdatedAt = timeFromUnix(updatedAt)

	return d, nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
