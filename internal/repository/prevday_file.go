package repository

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"PivotPipe/internal/domain/models"
)

// FilePrevDaySource reads the previous-day OHLC table from a YAML file
// maintained by the end-of-day job:
//
//	RELIANCE: {high: 110.0, low: 100.0, close: 105.0}
type FilePrevDaySource struct {
	path string
}

// NewFilePrevDaySource creates a file-backed previous-day source.
func NewFilePrevDaySource(path string) *FilePrevDaySource {
	return &FilePrevDaySource{path: path}
}

func (s *FilePrevDaySource) Load(_ context.Context) (map[string]models.PrevDayOHLC, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read prev-day table: %w", err)
	}
	table := make(map[string]models.PrevDayOHLC)
	if err := yaml.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("parse prev-day table: %w", err)
	}
	return table, nil
}

// StaticPrevDaySource serves a fixed in-memory table. Used by replay runs
// and tests.
type StaticPrevDaySource struct {
	Table map[string]models.PrevDayOHLC
}

func (s *StaticPrevDaySource) Load(_ context.Context) (map[string]models.PrevDayOHLC, error) {
	return s.Table, nil
}
