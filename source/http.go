package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pauloqxm/voce-denuncia/models"
)

// maxDocumentBytes caps how much of a remote export is read.
const maxDocumentBytes = 32 << 20

// HTTPSource downloads a CSV export over HTTP GET.
type HTTPSource struct {
	url      string
	client   *http.Client
	maxBytes int64
}

// NewHTTPSource creates a source for the given CSV export URL. A nil client
// uses http.DefaultClient; timeouts come from the context passed to Fetch.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client, maxBytes: maxDocumentBytes}
}

func (s *HTTPSource) Name() string { return s.url }

// Fetch retrieves and parses the document. Non-2xx responses and documents
// larger than the size cap are errors; a cut-off document is never parsed.
func (s *HTTPSource) Fetch(ctx context.Context) (*models.RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: get %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("http: get %s: unexpected status %s", s.url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("http: read %s: %w", s.url, err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("http: get %s: document exceeds %d bytes", s.url, s.maxBytes)
	}

	table, err := ReadCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http: parse %s: %w", s.url, err)
	}
	return table, nil
}
