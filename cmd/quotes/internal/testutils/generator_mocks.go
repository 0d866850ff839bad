package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/generator"
	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

// MockClock hands out tickers that only fire when Tick is called
type MockClock struct {
	Mu          sync.Mutex
	CurrentTime time.Time
	tickers     []*MockTicker
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) NewTicker(d time.Duration) generator.Ticker {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	t := &MockTicker{c: make(chan time.Time, 1), clock: m}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves time forward without firing any ticker
func (m *MockClock) Advance(d time.Duration) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.CurrentTime = m.CurrentTime.Add(d)
}

// Tick advances time by d and fires every live ticker once. Like
// time.Ticker, a tick is dropped if the previous one was not received yet.
func (m *MockClock) Tick(d time.Duration) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.CurrentTime = m.CurrentTime.Add(d)
	for _, t := range m.tickers {
		select {
		case t.c <- m.CurrentTime:
		default:
		}
	}
}

// Active is the number of tickers not yet stopped
func (m *MockClock) Active() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.tickers)
}

// WaitForActive polls until exactly n tickers are live
func (m *MockClock) WaitForActive(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.Active() == n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return m.Active() == n
}

type MockTicker struct {
	c     chan time.Time
	clock *MockClock
}

func (t *MockTicker) C() <-chan time.Time { return t.c }

func (t *MockTicker) Stop() {
	t.clock.Mu.Lock()
	defer t.clock.Mu.Unlock()
	for i, other := range t.clock.tickers {
		if other == t {
			t.clock.tickers = append(t.clock.tickers[:i], t.clock.tickers[i+1:]...)
			return
		}
	}
}

type MockRand struct {
	ValFloat float64
}

func (m *MockRand) Float64() float64 { return m.ValFloat }

type MockPublisher struct {
	Quotes []models.Quote
	Mu     sync.Mutex
}

func (m *MockPublisher) Publish(ctx context.Context, q models.Quote) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Quotes = append(m.Quotes, q)
}

func (m *MockPublisher) Len() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Quotes)
}
