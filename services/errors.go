package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies sheet-level and fetch-level ingestion failures.
type ErrorKind string

const (
	FetchFailed           ErrorKind = "fetch_failed"
	MissingRequiredColumn ErrorKind = "missing_required_column"
)

// IngestionError is returned by Load when the whole run had to be abandoned.
// Field-level coercion problems never produce one.
type IngestionError struct {
	Kind    ErrorKind
	Source  string
	Missing []string
	Err     error
}

func (e *IngestionError) Error() string {
	switch e.Kind {
	case MissingRequiredColumn:
		return "ingestion: missing required columns: " + strings.Join(e.Missing, ", ")
	case FetchFailed:
		return fmt.Sprintf("ingestion: fetch from %s failed: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("ingestion: %s: %v", e.Kind, e.Err)
	}
}

func (e *IngestionError) Unwrap() error { return e.Err }

// AsIngestionError extracts an *IngestionError from err's chain.
func AsIngestionError(err error) (*IngestionError, bool) {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// IsKind reports whether err is an IngestionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ie, ok := AsIngestionError(err)
	return ok && ie.Kind == kind
}
