// Package pricing provides per-model token prices and advisory cost
// computation. Cost is best effort by design: an unknown model yields a nil
// cost, never an error, so pricing can never block a completion result.
package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/routerkit/routerkit-go/pkg/model"
)

// Price holds USD rates per one million tokens.
type Price struct {
	PromptPer1M     float64 `json:"prompt_per_1m"`
	CompletionPer1M float64 `json:"completion_per_1m"`
}

// Oracle resolves the price for a model id. The second return value is
// false when the model is unknown.
type Oracle interface {
	PriceFor(modelID string) (Price, bool)
}

// StaticTable is an Oracle backed by a fixed map.
type StaticTable map[string]Price

// PriceFor implements Oracle by exact model-id match.
func (t StaticTable) PriceFor(modelID string) (Price, bool) {
	p, ok := t[modelID]
	return p, ok
}

// Cost computes the monetary cost of usage at price p.
func Cost(usage *model.Usage, p Price) float64 {
	if usage == nil {
		return 0
	}
	return float64(usage.PromptTokens)/1e6*p.PromptPer1M +
		float64(usage.CompletionTokens)/1e6*p.CompletionPer1M
}

// CostFor resolves the price through the oracle and returns the cost, or
// nil when the oracle, usage or model is unknown.
func CostFor(o Oracle, modelID string, usage *model.Usage) *float64 {
	if o == nil || usage == nil {
		return nil
	}
	p, ok := o.PriceFor(modelID)
	if !ok {
		return nil
	}
	cost := Cost(usage, p)
	return &cost
}

// FetchFunc retrieves a fresh price table from an external source.
type FetchFunc func(ctx context.Context) (StaticTable, error)

// CachingOracle serves prices from a cached table and refreshes it on a
// background timer, decoupled from any individual call. A failed refresh
// keeps the previous table.
type CachingOracle struct {
	mu       sync.RWMutex
	table    StaticTable
	fetch    FetchFunc
	interval time.Duration

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewCachingOracle builds an oracle seeded with table. When fetch is non-nil
// and interval is positive, Start launches the refresh loop.
func NewCachingOracle(seed StaticTable, fetch FetchFunc, interval time.Duration) *CachingOracle {
	if seed == nil {
		seed = StaticTable{}
	}
	return &CachingOracle{
		table:    seed,
		fetch:    fetch,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// PriceFor implements Oracle against the cached table.
func (o *CachingOracle) PriceFor(modelID string) (Price, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.table[modelID]
	return p, ok
}

// Start launches the background refresh loop. It returns immediately; the
// loop stops when ctx is cancelled or Close is called.
func (o *CachingOracle) Start(ctx context.Context) {
	o.mu.Lock()
	if o.started || o.fetch == nil || o.interval <= 0 {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()
	go o.loop(ctx)
}

func (o *CachingOracle) loop(ctx context.Context) {
	defer close(o.done)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stop:
			return
		case <-ticker.C:
			o.Refresh(ctx)
		}
	}
}

// Refresh fetches the table once, swapping it in on success.
func (o *CachingOracle) Refresh(ctx context.Context) {
	table, err := o.fetch(ctx)
	if err != nil || table == nil {
		return
	}
	o.mu.Lock()
	o.table = table
	o.mu.Unlock()
}

// Close stops the refresh loop and waits for it to exit.
func (o *CachingOracle) Close() {
	o.stopOnce.Do(func() { close(o.stop) })
	o.mu.RLock()
	started := o.started
	o.mu.RUnlock()
	if started {
		<-o.done
	}
}

var (
	_ Oracle = StaticTable{}
	_ Oracle = (*CachingOracle)(nil)
)
