package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/generator"
	"github.com/shubham-shewale/stock-quotes/pkg/config"
	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

const (
	QuotesPath = "/quotes"

	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
)

var ErrInvalidSize = errors.New("invalid size")

// QuoteSource is the generator as seen by the transport
type QuoteSource interface {
	Subscribe(ctx context.Context, period time.Duration) *generator.Subscription
	Take(ctx context.Context, period time.Duration, n int) ([]models.Quote, error)
}

type Handler struct {
	logger      *zap.Logger
	source      QuoteSource
	period      time.Duration
	defaultSize int
	maxSize     int

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func New(logger *zap.Logger, source QuoteSource, cfg config.QuotesConfig) *Handler {
	return &Handler{
		logger:      logger,
		source:      source,
		period:      cfg.Period,
		defaultSize: cfg.DefaultSize,
		maxSize:     cfg.MaxSize,
		writeWait:   5 * time.Second,
		pongWait:    60 * time.Second,
		pingPeriod:  50 * time.Second,
	}
}

// Routes mounts GET /quotes behind the request logger
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+QuotesPath, h.quotes)
	return RequestLogger(h.logger, mux)
}

type mode int

const (
	modeUnsupported mode = iota
	modeBounded
	modeStream
)

func (h *Handler) quotes(w http.ResponseWriter, r *http.Request) {
	if isWebSocketUpgrade(r) {
		h.streamWebSocket(w, r)
		return
	}

	switch negotiate(r.Header.Get("Accept")) {
	case modeBounded:
		h.fetchQuotes(w, r)
	case modeStream:
		h.streamQuotes(w, r)
	default:
		writeError(w, http.StatusNotAcceptable, fmt.Sprintf("supported media types: %s, %s", contentTypeJSON, contentTypeNDJSON))
	}
}

// negotiate picks the first acceptable media range in header order.
// Ranges with q=0 are refused; other quality values do not reorder.
func negotiate(accept string) mode {
	if strings.TrimSpace(accept) == "" {
		return modeBounded
	}
	for _, part := range strings.Split(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if q, ok := params["q"]; ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				continue
			}
		}
		switch mt {
		case contentTypeNDJSON:
			return modeStream
		case contentTypeJSON, "application/*", "*/*":
			return modeBounded
		}
	}
	return modeUnsupported
}

func parseSize(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidSize, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %d", ErrInvalidSize, n)
	}
	if n > max {
		return 0, fmt.Errorf("%w: must be at most %d, got %d", ErrInvalidSize, max, n)
	}
	return n, nil
}

// fetchQuotes answers with a completed array of size quotes
func (h *Handler) fetchQuotes(w http.ResponseWriter, r *http.Request) {
	size, err := parseSize(r.URL.Query().Get("size"), h.defaultSize, h.maxSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quotes, err := h.source.Take(r.Context(), h.period, size)
	if err != nil {
		h.logger.Debug("Client left before quotes were ready", zap.Int("size", size), zap.Error(err))
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	if err := json.NewEncoder(w).Encode(quotes); err != nil {
		h.logger.Debug("Write quotes failed", zap.Error(err))
	}
}

// streamQuotes writes one JSON object per line until the client goes away
func (h *Handler) streamQuotes(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	sub := h.source.Subscribe(r.Context(), h.period)
	defer sub.Close()

	w.Header().Set("Content-Type", contentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("Streaming not supported by response writer", zap.Error(err))
		return
	}

	enc := json.NewEncoder(w)
	sent := 0
	for {
		q, err := sub.Next()
		if err != nil {
			h.logger.Debug("Stream closed", zap.Int("sent", sent), zap.Error(err))
			return
		}
		if err := enc.Encode(q); err != nil {
			h.logger.Debug("Stream write failed", zap.Int("sent", sent), zap.Error(err))
			return
		}
		if err := rc.Flush(); err != nil {
			h.logger.Debug("Stream flush failed", zap.Int("sent", sent), zap.Error(err))
			return
		}
		sent++
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
