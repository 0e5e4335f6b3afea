package models

import (
	"testing"
	"time"
)

func TestCandleSessionDate(t *testing.T) {
	c := &Candle{WindowStart: time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC)}
	if got := c.SessionDate(); got != "2026-01-02" {
		t.Fatalf("session date wrong: %q", got)
	}
}
