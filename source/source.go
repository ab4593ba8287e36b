// Package source fetches the raw complaints table from where it is published.
// Every source is read-only.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/pauloqxm/voce-denuncia/models"
)

// Source is anything that can produce the raw complaints table.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*models.RawTable, error)
}

// ReadCSV parses a comma-separated document whose first row is the header.
// An empty document yields an empty table and no error.
func ReadCSV(r io.Reader) (*models.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &models.RawTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	table := &models.RawTable{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", len(table.Rows)+1, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
