package repository

import (
	"context"
	"fmt"
	"sync"

	"PivotPipe/internal/domain/models"
	"PivotPipe/internal/domain/repository"
)

// MemoryStore is the primary DerivedStore: an in-memory index keyed by
// symbol, with append-only snapshot history. The pipeline itself is
// single-threaded, but the HTTP surface reads concurrently, hence the lock.
//
// Records from earlier pre-market runs are superseded per symbol, never
// bulk-cleared; symbols that left the universe keep their last record.
type MemoryStore struct {
	mu       sync.RWMutex
	symbols  map[string]*models.DerivedSymbolData
	universe []*models.UniverseSnapshot
	gaps     []*models.GapSnapshot
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{symbols: make(map[string]*models.DerivedSymbolData)}
}

func (s *MemoryStore) PersistSymbolData(_ context.Context, d *models.DerivedSymbolData) error {
	if d == nil || d.Symbol == "" {
		return fmt.Errorf("derived record requires a symbol")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[d.Symbol] = d
	return nil
}

func (s *MemoryStore) PersistUniverseSnapshot(_ context.Context, snap *models.UniverseSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.universe = append(s.universe, snap)
	return nil
}

func (s *MemoryStore) PersistGapSnapshot(_ context.Context, snap *models.GapSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gaps = append(s.gaps, snap)
	return nil
}

func (s *MemoryStore) GetSymbolData(_ context.Context, symbol string) (*models.DerivedSymbolData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, repository.ErrNoSymbolData)
	}
	return d, nil
}

func (s *MemoryStore) LatestUniverseSnapshot(_ context.Context) (*models.UniverseSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.universe) == 0 {
		return nil, fmt.Errorf("no universe snapshot yet")
	}
	return s.universe[len(s.universe)-1], nil
}

func (s *MemoryStore) LatestGapSnapshot(_ context.Context) (*models.GapSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.gaps) == 0 {
		return nil, fmt.Errorf("no gap snapshot yet")
	}
	return s.gaps[len(s.gaps)-1], nil
}

func (s *MemoryStore) TargetByStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error) {
	d, err := s.GetSymbolData(ctx, symbol)
	if err != nil {
		return 0, err
	}
	v, ok := d.TargetAt(step, side)
	if !ok {
		return 0, fmt.Errorf("%s step %d: %w", symbol, step, repository.ErrStepOutOfRange)
	}
	return v, nil
}

func (s *MemoryStore) FlipForStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error) {
	d, err := s.GetSymbolData(ctx, symbol)
	if err != nil {
		return 0, err
	}
	v, ok := d.FlipAt(step, side)
	if !ok {
		return 0, fmt.Errorf("%s flip step %d: %w", symbol, step, repository.ErrStepOutOfRange)
	}
	return v, nil
}

func (s *MemoryStore) StopForStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error) {
	d, err := s.GetSymbolData(ctx, symbol)
	if err != nil {
		return 0, err
	}
	v, ok := d.StopAt(step, side)
	if !ok {
		return 0, fmt.Errorf("%s stop step %d: %w", symbol, step, repository.ErrStepOutOfRange)
	}
	return v, nil
}
