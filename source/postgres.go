package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/pauloqxm/voce-denuncia/models"
)

// PostgresSource reads complaints from a table or view whose column names
// match the spreadsheet headers. It only ever issues SELECT.
type PostgresSource struct {
	db    *sql.DB
	table string
}

// NewPostgresSource opens a connection pool for the given DSN. The connection
// is not verified here; Fetch reports connectivity errors.
func NewPostgresSource(dsn, table string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return NewPostgresSourceFromDB(db, table), nil
}

// NewPostgresSourceFromDB wraps an existing handle.
func NewPostgresSourceFromDB(db *sql.DB, table string) *PostgresSource {
	return &PostgresSource{db: db, table: table}
}

func (s *PostgresSource) Name() string { return "postgres:" + s.table }

// Fetch selects every row. Column values are stringified and NULL becomes
// an empty cell.
func (s *PostgresSource) Fetch(ctx context.Context) (*models.RawTable, error) {
	query := "SELECT * FROM " + quoteTable(s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("postgres: columns: %w", err)
	}

	table := &models.RawTable{Header: cols}
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		row := make([]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate rows: %w", err)
	}
	return table, nil
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// quoteTable quotes a "table" or "schema.table" identifier.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
