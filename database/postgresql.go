package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
)

// PostgresBackend keeps each document as a JSONB row of the documents table.
type PostgresBackend struct {
	db *sql.DB
}

// StartPostgreSQL opens the connection and creates the documents table if it
// does not exist.
func StartPostgreSQL(ctx context.Context, uri string) (*PostgresBackend, error) {
	if uri == "" {
		return nil, errors.New("you must set your 'POSTGRESQL_URI' environmental variable")
	}

	db, err := sql.Open("pgx", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(15 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to PostgreSQL: %w", err)
	}

	log.Info("Connected to PostgreSQL successfully")

	b := &PostgresBackend{db: db}
	if err := b.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return b, nil
}

func (b *PostgresBackend) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		name VARCHAR(255) PRIMARY KEY,
		body JSONB NOT NULL,
		updated_at TIMESTAMP DEFAULT NOW()
	)
	`
	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return err
	}

	log.Info("Tables created or already exist")
	return nil
}

func (b *PostgresBackend) Driver() string {
	return "postgres"
}

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = $1", name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Update serializes writers of the same document on its row lock, which
// holds across API instances sharing the database.
func (b *PostgresBackend) Update(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO documents (name, body) VALUES ($1, '[]'::jsonb) ON CONFLICT (name) DO NOTHING", name)
	if err != nil {
		return err
	}

	var current []byte
	err = tx.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = $1 FOR UPDATE", name).Scan(&current)
	if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET body = $1::jsonb, updated_at = $2 WHERE name = $3", string(next), time.Now(), name)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the connection pool.
func (b *PostgresBackend) Close() error {
	if b.db == nil {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	log.Info("Database connection closed")
	return nil
}
