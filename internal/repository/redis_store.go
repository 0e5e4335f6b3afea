package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"PivotPipe/internal/domain/models"
	"PivotPipe/internal/domain/repository"
)

const (
	redisSymbolKeyPrefix = "pivotpipe:derived:"
	redisUniverseKey     = "pivotpipe:universe"
	redisGapKey          = "pivotpipe:gaps"
)

// RedisStore is a DerivedStore on Redis, for deployments where the derived
// levels must be visible outside the pipeline process. Records are JSON;
// snapshot history is an append-only list.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) PersistSymbolData(ctx context.Context, d *models.DerivedSymbolData) error {
	if d == nil || d.Symbol == "" {
		return fmt.Errorf("derived record requires a symbol")
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal derived record: %w", err)
	}
	if err := s.rdb.Set(ctx, redisSymbolKeyPrefix+d.Symbol, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", d.Symbol, err)
	}
	return nil
}

func (s *RedisStore) PersistUniverseSnapshot(ctx context.Context, snap *models.UniverseSnapshot) error {
	return s.appendJSON(ctx, redisUniverseKey, snap)
}

func (s *RedisStore) PersistGapSnapshot(ctx context.Context, snap *models.GapSnapshot) error {
	return s.appendJSON(ctx, redisGapKey, snap)
}

func (s *RedisStore) appendJSON(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.RPush(ctx, key, b).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) GetSymbolData(ctx context.Context, symbol string) (*models.DerivedSymbolData, error) {
	b, err := s.rdb.Get(ctx, redisSymbolKeyPrefix+symbol).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", symbol, repository.ErrNoSymbolData)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", symbol, err)
	}
	var d models.DerivedSymbolData
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("unmarshal derived record: %w", err)
	}
	return &d, nil
}

func (s *RedisStore) LatestUniverseSnapshot(ctx context.Context) (*models.UniverseSnapshot, error) {
	var snap models.UniverseSnapshot
	if err := s.latest(ctx, redisUniverseKey, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *RedisStore) LatestGapSnapshot(ctx context.Context) (*models.GapSnapshot, error) {
	var snap models.GapSnapshot
	if err := s.latest(ctx, redisGapKey, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *RedisStore) latest(ctx context.Context, key string, out interface{}) error {
	b, err := s.rdb.LIndex(ctx, key, -1).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("no snapshot yet in %s", key)
	}
	if err != nil {
		return fmt.Errorf("redis lindex %s: %w", key, err)
	}
	return json.Unmarshal(b, out)
}

func (s *RedisStore) TargetByStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error) {
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

func (s *RedisStore) FlipForStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error) {
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

func (s *RedisStore) StopForStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error) {
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
