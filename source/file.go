package source

import (
	"context"
	"fmt"
	"os"

	"github.com/pauloqxm/voce-denuncia/models"
)

// FileSource reads a CSV export saved on local disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file://" + s.path }

func (s *FileSource) Fetch(ctx context.Context) (*models.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("file: open %q: %w", s.path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("file: parse %q: %w", s.path, err)
	}
	return table, nil
}
