package storage

import "github.com/pauloqxm/voce-denuncia/models"

// RecordWriter is the interface every export backend satisfies.
type RecordWriter interface {
	Write(records []*models.ComplaintRecord) error
	Close() error
}

var (
	_ RecordWriter = (*CSVWriter)(nil)
	_ RecordWriter = (*ShapefileWriter)(nil)
)
