package services

import (
	"context"
	"time"

	"github.com/pauloqxm/voce-denuncia/config"
	"github.com/pauloqxm/voce-denuncia/metrics"
	"github.com/pauloqxm/voce-denuncia/models"
	"github.com/pauloqxm/voce-denuncia/utils"
)

// Fetcher is the read side of a complaints source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (*models.RawTable, error)
}

// Loader runs the ingestion pipeline: fetch, then normalize.
type Loader struct {
	source     Fetcher
	normalizer *Normalizer
	retry      *utils.RetryConfig
	timeout    time.Duration
	logger     *utils.Logger
}

// NewLoader creates a Loader reading from src with the fetch settings in cfg.
func NewLoader(src Fetcher, cfg *config.Config, logger *utils.Logger) *Loader {
	return &Loader{
		source:     src,
		normalizer: NewNormalizer(logger),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.FetchMaxAttempts,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		timeout: cfg.FetchTimeout,
		logger:  logger,
	}
}

// Load fetches and normalizes the sheet. On failure the returned result is
// empty (never nil) and the error is an *IngestionError.
func (l *Loader) Load(ctx context.Context) (*models.LoadResult, error) {
	start := time.Now()
	l.logger.Info("[loader] Fetching complaints from %s", l.source.Name())

	var table *models.RawTable
	err := l.retry.Do(ctx, "fetch", func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		t, err := l.source.Fetch(attemptCtx)
		if err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		metrics.ObserveLoad(metrics.ResultFetchFailed, time.Since(start))
		l.logger.Error("[loader] Fetch failed: %v", err)
		return &models.LoadResult{Records: []*models.ComplaintRecord{}},
			&IngestionError{Kind: FetchFailed, Source: l.source.Name(), Err: err}
	}

	result, err := l.normalizer.Normalize(table)
	if err != nil {
		metrics.ObserveLoad(metrics.ResultMissingRequiredColumn, time.Since(start))
		l.logger.Error("[loader] %v", err)
		return result, err
	}

	metrics.ObserveLoad(metrics.ResultOK, time.Since(start))
	metrics.AddFieldWarnings(result.Warnings)
	if len(result.Warnings) > 0 {
		l.logger.Warn("[loader] %d cells fell back to raw text or absent", len(result.Warnings))
	}
	l.logger.Info("[loader] Loaded %d records in %v", len(result.Records), time.Since(start).Round(time.Millisecond))
	return result, nil
}
