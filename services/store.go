package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pauloqxm/voce-denuncia/metrics"
	"github.com/pauloqxm/voce-denuncia/models"
	"github.com/pauloqxm/voce-denuncia/utils"
)

// Ingester produces a fresh LoadResult. *Loader satisfies it.
type Ingester interface {
	Load(ctx context.Context) (*models.LoadResult, error)
}

// Snapshot is one immutable generation of the dataset plus the outcome of
// the most recent load attempt. Callers must not modify it.
type Snapshot struct {
	ID            uuid.UUID
	LoadedAt      time.Time
	LastAttempt   time.Time
	Records       []*models.ComplaintRecord
	Types         []string
	Neighborhoods []string
	Warnings      []models.FieldWarning
	LastError     error
}

// Loaded reports whether any load has ever succeeded.
func (s *Snapshot) Loaded() bool {
	return s.ID != uuid.Nil
}

// Store is the process-wide dataset. Reads are lock-free; Reload swaps in a
// fully built Snapshot so readers never observe a partial update.
type Store struct {
	loader  Ingester
	logger  *utils.Logger
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

// NewStore creates a Store holding an empty, never-loaded snapshot.
func NewStore(loader Ingester, logger *utils.Logger) *Store {
	s := &Store{loader: loader, logger: logger}
	s.current.Store(&Snapshot{
		Records:       []*models.ComplaintRecord{},
		Types:         []string{AllOption},
		Neighborhoods: []string{AllOption},
	})
	return s
}

// Current returns the snapshot being served.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload runs the loader and publishes the result. Concurrent callers share a
// single run. When the load fails the previous records stay published and the
// returned snapshot carries the error in LastError.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := s.group.Do("reload", func() (any, error) {
		return s.reload(context.WithoutCancel(ctx))
	})
	if shared {
		s.logger.Debug("[store] Reload coalesced with an in-flight run")
	}
	snap, _ := v.(*Snapshot)
	return snap, err
}

// LoadInitial is Reload for startup: the run stays bound to ctx, so an
// interrupt during the first fetch aborts it instead of waiting for the
// fetch timeout.
func (s *Store) LoadInitial(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.group.Do("reload", func() (any, error) {
		return s.reload(ctx)
	})
	snap, _ := v.(*Snapshot)
	return snap, err
}

func (s *Store) reload(ctx context.Context) (*Snapshot, error) {
	result, err := s.loader.Load(ctx)
	now := time.Now()
	prev := s.Current()

	if err != nil {
		next := *prev
		next.LastAttempt = now
		next.LastError = err
		s.current.Store(&next)
		if prev.Loaded() {
			s.logger.Warn("[store] Reload failed, keeping dataset %s with %d records", prev.ID, len(prev.Records))
		}
		return &next, err
	}

	next := &Snapshot{
		ID:            uuid.New(),
		LoadedAt:      now,
		LastAttempt:   now,
		Records:       result.Records,
		Types:         TypeOptions(result.Records),
		Neighborhoods: NeighborhoodOptions(result.Records),
		Warnings:      result.Warnings,
	}
	s.current.Store(next)
	metrics.SetDataset(next.Records)

	s.logger.Info("[store] Dataset %s published: %d records, %d types, %d neighborhoods",
		next.ID, len(next.Records), len(next.Types)-1, len(next.Neighborhoods)-1)
	return next, nil
}
