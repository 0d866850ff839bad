package generator

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

const DefaultPeriod = 100 * time.Millisecond

// maxStep bounds a single walk step to 5% of the current price
var maxStep = decimal.NewFromFloat(0.05)

type QuoteGenerator struct {
	logger    *zap.Logger
	store     *Store
	rand      Rand
	clock     Clock
	publisher Publisher
	symmetric bool
}

type Option func(*QuoteGenerator)

// WithPublisher mirrors every emitted quote to p
func WithPublisher(p Publisher) Option {
	return func(g *QuoteGenerator) { g.publisher = p }
}

// WithSymmetricWalk allows negative steps; the default walk only drifts up.
func WithSymmetricWalk(on bool) Option {
	return func(g *QuoteGenerator) { g.symmetric = on }
}

func NewQuoteGenerator(logger *zap.Logger, store *Store, rnd Rand, clock Clock, opts ...Option) *QuoteGenerator {
	g := &QuoteGenerator{
		logger: logger,
		store:  store,
		rand:   rnd,
		clock:  clock,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Walker is one subscription's view of the walk: a cursor into the shared store.
type Walker struct {
	gen    *QuoteGenerator
	cursor int
}

func (g *QuoteGenerator) NewWalker() *Walker {
	return &Walker{gen: g}
}

func (w *Walker) Cursor() int { return w.cursor }

// Next advances the instrument under the cursor by one step and moves the
// cursor round-robin. The returned quote is not stamped.
func (w *Walker) Next() models.Quote {
	q := w.gen.store.Update(w.cursor, w.gen.step)
	w.cursor = (w.cursor + 1) % w.gen.store.Len()
	return q
}

// step runs under the store lock
func (g *QuoteGenerator) step(price decimal.Decimal) decimal.Decimal {
	u := g.rand.Float64()
	if g.symmetric {
		u = 2*u - 1
	}
	limit := price.Mul(maxStep)
	delta := limit.Mul(decimal.NewFromFloat(u))
	return price.Add(roundSignificant(delta, 2, limit))
}

// roundSignificant rounds d half-up to the given number of significant
// digits. If rounding would carry |d| past limit it rounds toward zero instead.
func roundSignificant(d decimal.Decimal, digits int32, limit decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	abs := d.Abs()
	places := digits - int32(abs.NumDigits()) - abs.Exponent()
	r := d.Round(places)
	if r.Abs().GreaterThan(limit) {
		r = d.RoundDown(places)
	}
	return r
}

// Subscription paces one walker with its own ticker. The step is applied
// and stamped inside Next, when the consumer takes the quote, so a slow or
// departed consumer never holds a stale timestamp or an unseen step.
type Subscription struct {
	gen    *QuoteGenerator
	walker *Walker
	ticker Ticker
	ctx    context.Context
	cancel context.CancelFunc
}

// Subscribe starts a ticker that is released as soon as ctx ends or Close
// is called. The first quote is available after one period.
func (g *QuoteGenerator) Subscribe(ctx context.Context, period time.Duration) *Subscription {
	if period <= 0 {
		period = DefaultPeriod
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		gen:    g,
		walker: g.NewWalker(),
		ticker: g.clock.NewTicker(period),
		ctx:    ctx,
		cancel: cancel,
	}

	g.logger.Debug("Quote stream started", zap.Duration("period", period))
	context.AfterFunc(ctx, func() {
		s.ticker.Stop()
		g.logger.Debug("Quote stream stopped")
	})
	return s
}

// Next waits for the next tick and returns the freshly stepped quote,
// stamped with the current time. It fails once the subscription ends.
func (s *Subscription) Next() (models.Quote, error) {
	if err := s.ctx.Err(); err != nil {
		return models.Quote{}, err
	}

	select {
	case <-s.ctx.Done():
		return models.Quote{}, s.ctx.Err()
	case <-s.ticker.C():
	}
	// a tick and cancellation can race in the select above
	if err := s.ctx.Err(); err != nil {
		return models.Quote{}, err
	}

	q := s.walker.Next()
	q.Instant = s.gen.clock.Now()

	if s.gen.publisher != nil {
		// the mirror outlives the subscriber that produced the quote
		s.gen.publisher.Publish(context.WithoutCancel(s.ctx), q)
	}
	return q, nil
}

// Close stops the ticker. Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
}

// Take collects exactly n quotes from a fresh subscription. It returns the
// quotes gathered so far together with ctx's error if ctx ends first.
func (g *QuoteGenerator) Take(ctx context.Context, period time.Duration, n int) ([]models.Quote, error) {
	if n <= 0 {
		return []models.Quote{}, nil
	}

	sub := g.Subscribe(ctx, period)
	defer sub.Close()

	quotes := make([]models.Quote, 0, n)
	for len(quotes) < n {
		q, err := sub.Next()
		if err != nil {
			return quotes, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
