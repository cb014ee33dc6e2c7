// Package pricefeed streams USD marks for the native token.
package pricefeed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pancakeswap-go/internal/metrics"
)

const (
	// ProviderStub emits deterministic synthetic ticks (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams live trades from Binance public websockets.
	ProviderBinance = "binance"
)

const (
	defaultSymbol         = "BNBUSDT"
	defaultBinanceURL     = "wss://stream.binance.com:9443"
	defaultStubInterval   = 500 * time.Millisecond
	defaultStubStartPrice = 300.0
)

// Tick is one observed trade.
type Tick struct {
	Symbol string
	Price  float64
	Size   float64
	Side   int // +1 buy, -1 sell (aggressor)
	Ts     time.Time
}

// Feed represents a pluggable price stream implementation.
type Feed struct {
	provider     string
	symbol       string
	log          zerolog.Logger
	binanceURL   string
	stubInterval time.Duration

	mu   sync.RWMutex
	last *Tick
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithBinanceURL points the binance provider at another websocket host.
func WithBinanceURL(u string) Option {
	return func(f *Feed) {
		if u != "" {
			f.binanceURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithStubInterval overrides the cadence of synthetic ticks.
func WithStubInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.stubInterval = d
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = defaultSymbol
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		symbol:       symbol,
		log:          log,
		binanceURL:   defaultBinanceURL,
		stubInterval: defaultStubInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Symbol returns the tracked pair.
func (f *Feed) Symbol() string { return f.symbol }

// Last returns the most recent tick seen by Run.
func (f *Feed) Last() (Tick, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last == nil {
		return Tick{}, false
	}
	return *f.last, true
}

// Run pushes ticks onto the provided channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- Tick) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

// Latest runs the feed until the first tick arrives and returns it.
func (f *Feed) Latest(ctx context.Context) (Tick, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticks := make(chan Tick, 1)
	errc := make(chan error, 1)
	go func() { errc <- f.Run(ctx, ticks) }()

	select {
	case tk := <-ticks:
		return tk, nil
	case err := <-errc:
		if err == nil {
			err = errors.New("price feed stopped before first tick")
		}
		return Tick{}, err
	case <-ctx.Done():
		return Tick{}, ctx.Err()
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- Tick, tick Tick) error {
	select {
	case out <- tick:
		f.mu.Lock()
		f.last = &tick
		f.mu.Unlock()
		metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- Tick) error {
	ticker := time.NewTicker(f.stubInterval)
	defer ticker.Stop()

	px := defaultStubStartPrice
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			px += 0.1
			if err := f.emit(ctx, out, Tick{Symbol: f.symbol, Price: px, Size: 1, Side: 1, Ts: ts}); err != nil {
				return err
			}
		}
	}
}
