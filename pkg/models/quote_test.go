package models_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

func TestQuote_PriceIsJSONNumber(t *testing.T) {
	q := models.Quote{
		Ticker:  "AAPL",
		Price:   decimal.RequireFromString("134.16"),
		Instant: time.Date(2021, 4, 18, 12, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got := string(b)
	if !strings.Contains(got, `"price":134.16`) {
		t.Errorf("Expected unquoted price, got %s", got)
	}
	if !strings.Contains(got, `"instant":"2021-04-18T12:00:00Z"`) {
		t.Errorf("Expected ISO-8601 instant, got %s", got)
	}

	var back models.Quote
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("decoder should accept numeric price: %v", err)
	}
	if !back.Price.Equal(q.Price) || back.Ticker != "AAPL" {
		t.Errorf("Decoded %+v, want %+v", back, q)
	}
}
