package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price snapshot for one ticker
type Quote struct {
	Ticker  string          `json:"ticker"`
	Price   decimal.Decimal `json:"price"`
	Instant time.Time       `json:"instant"` // set at emission, not at generation
}

// MarshalJSON writes the price as a JSON number instead of decimal's default quoted string
func (q Quote) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ticker  string      `json:"ticker"`
		Price   json.Number `json:"price"`
		Instant time.Time   `json:"instant"`
	}{
		Ticker:  q.Ticker,
		Price:   json.Number(q.Price.String()),
		Instant: q.Instant,
	})
}
