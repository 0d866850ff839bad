package generator

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

var ErrEmptyStore = errors.New("quote store needs at least one instrument")

// DefaultQuotes returns the seed instruments in their fixed order
func DefaultQuotes() []models.Quote {
	return []models.Quote{
		{Ticker: "AAPL", Price: decimal.RequireFromString("134.16")},
		{Ticker: "TSLA", Price: decimal.RequireFromString("739.74")},
		{Ticker: "NFLX", Price: decimal.RequireFromString("546.25")},
		{Ticker: "ARKK", Price: decimal.RequireFromString("124.51")},
		{Ticker: "SQ", Price: decimal.RequireFromString("256.34")},
		{Ticker: "DIS", Price: decimal.RequireFromString("187.29")},
		{Ticker: "MFST", Price: decimal.RequireFromString("260.29")},
		{Ticker: "PLTR", Price: decimal.RequireFromString("23.21")},
	}
}

// Store is the single instrument list shared by every subscription.
// Prices are only read and written under mu, so concurrent walkers see one
// consistent price history per ticker.
type Store struct {
	mu     sync.Mutex
	quotes []models.Quote
}

func NewStore(seed []models.Quote) (*Store, error) {
	if len(seed) == 0 {
		return nil, ErrEmptyStore
	}
	quotes := make([]models.Quote, len(seed))
	copy(quotes, seed)
	return &Store{quotes: quotes}, nil
}

func (s *Store) Len() int {
	return len(s.quotes) // fixed after construction
}

func (s *Store) Snapshot() []models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Quote, len(s.quotes))
	copy(out, s.quotes)
	return out
}

// Update replaces the price at index i with fn(price) and returns the new value
func (s *Store) Update(i int, fn func(decimal.Decimal) decimal.Decimal) models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[i].Price = fn(s.quotes[i].Price)
	return models.Quote{Ticker: s.quotes[i].Ticker, Price: s.quotes[i].Price}
}
