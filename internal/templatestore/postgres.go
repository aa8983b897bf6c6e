package templatestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const selectTemplateQuery = `SELECT body FROM document_templates WHERE id = $1 AND active`

// PostgresLoader reads templates from the document_templates table.
type PostgresLoader struct {
	db *sql.DB
}

func NewPostgresLoader(db *sql.DB) *PostgresLoader {
	return &PostgresLoader{db: db}
}

func (l *PostgresLoader) Load(ctx context.Context, id string) (string, error) {
	var body string
	err := l.db.QueryRowContext(ctx, selectTemplateQuery, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound(id)
	}
	if err != nil {
		return "", fmt.Errorf("query template %s: %w", id, err)
	}
	return body, nil
}
