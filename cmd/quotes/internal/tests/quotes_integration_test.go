package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/feed"
	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/generator"
	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/handler"
	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/testutils"
	"github.com/shubham-shewale/stock-quotes/pkg/config"
	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

func startServer(t *testing.T) (*httptest.Server, *testutils.MockKafkaWriter, *generator.Store) {
	t.Helper()

	store, err := generator.NewStore(generator.DefaultQuotes())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	// Fake broker: spinning up real Kafka is heavy for tests
	writer := &testutils.MockKafkaWriter{}
	pub := feed.NewKafkaPublisher(zap.NewNop(), writer)

	gen := generator.NewQuoteGenerator(zap.NewNop(), store, generator.NewRealRand(time.Now().UnixNano()), generator.RealClock{}, generator.WithPublisher(pub))
	h := handler.New(zap.NewNop(), gen, config.QuotesConfig{Period: 2 * time.Millisecond, DefaultSize: 10, MaxSize: 1000})

	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)
	return server, writer, store
}

func fetch(t *testing.T, url string) []models.Quote {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Errorf("GET failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	var quotes []models.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		t.Errorf("Invalid JSON: %v", err)
	}
	return quotes
}

func TestEndToEnd_BoundedMirrorsToKafka(t *testing.T) {
	server, writer, _ := startServer(t)

	quotes := fetch(t, server.URL+"/quotes?size=3")
	if len(quotes) != 3 {
		t.Fatalf("Expected 3 quotes, got %d", len(quotes))
	}

	// Quotes are mirrored as they are taken, before the response is written
	if writer.Len() != 3 {
		t.Fatalf("Expected 3 mirrored messages, got %d", writer.Len())
	}

	writer.Mu.Lock()
	defer writer.Mu.Unlock()
	for i, msg := range writer.Messages {
		if string(msg.Key) != quotes[i].Ticker {
			t.Errorf("Message %d: expected key %s, got %s", i, quotes[i].Ticker, msg.Key)
		}
	}
}

func TestEndToEnd_ConcurrentClientsShareOneWalk(t *testing.T) {
	server, _, store := startServer(t)

	const clients = 5
	results := make([][]models.Quote, clients)

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fetch(t, server.URL+"/quotes?size=16")
		}(i)
	}
	wg.Wait()

	// Each client walks its own cursor but every step lands on the shared
	// store, so per-client prices never go backwards
	for c, quotes := range results {
		last := make(map[string]models.Quote)
		for _, q := range quotes {
			if prev, ok := last[q.Ticker]; ok && q.Price.LessThan(prev.Price) {
				t.Errorf("Client %d: %s went down %s -> %s", c, q.Ticker, prev.Price, q.Price)
			}
			last[q.Ticker] = q
		}
	}

	// Store holds the maximum price observed for each ticker
	for _, final := range store.Snapshot() {
		for c, quotes := range results {
			for _, q := range quotes {
				if q.Ticker == final.Ticker && q.Price.GreaterThan(final.Price) {
					t.Errorf("Client %d saw %s %s above stored %s", c, q.Ticker, q.Price, final.Price)
				}
			}
		}
	}
}
