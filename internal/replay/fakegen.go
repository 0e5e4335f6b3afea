package replay

import (
	"math"
	"math/rand"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
)

// FakeTickGenerator emits a seeded random-walk tick stream for one symbol.
// The same seed and clock schedule reproduce the same stream, which is what
// the determinism tests rely on.
type FakeTickGenerator struct {
	symbol string
	price  float64
	bus    *bus.Bus
	clk    clock.Clock
	rng    *rand.Rand
}

// NewFakeTickGenerator creates a generator starting at startPrice.
func NewFakeTickGenerator(symbol string, startPrice float64, b *bus.Bus, clk clock.Clock, seed int64) *FakeTickGenerator {
	return &FakeTickGenerator{
		symbol: symbol,
		price:  startPrice,
		bus:    b,
		clk:    clk,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// EmitTick generates and publishes a single tick at the clock's current
// time, and returns it.
func (g *FakeTickGenerator) EmitTick() models.Tick {
	delta := g.rng.Float64()*2 - 1
	g.price = math.Max(0.01, g.price+delta)

	tick := models.Tick{
		Symbol:    g.symbol,
		Price:     math.Round(g.price*100) / 100,
		Volume:    float64(g.rng.Intn(100) + 1),
		Timestamp: g.clk.Now(),
	}
	g.bus.Publish(events.TickReceived{Tick: tick})
	return tick
}
