package generator

import (
	"context"
	"math/rand"
	"time"

	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// for deterministic values
type Rand interface {
	Float64() float64
}

// Publisher receives every emitted quote, e.g. to mirror the feed to a broker
type Publisher interface {
	Publish(ctx context.Context, q models.Quote)
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.Ticker.C }

// RealRand is not safe for concurrent use on its own; the generator only
// draws from it while holding the store lock.
type RealRand struct{ *rand.Rand }

func NewRealRand(seed int64) RealRand { return RealRand{rand.New(rand.NewSource(seed))} }

func (r RealRand) Float64() float64 { return r.Rand.Float64() }
