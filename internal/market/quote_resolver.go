package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"claws/internal/audit"
	"claws/internal/logger"
	"claws/internal/pkg/circuit"
	"claws/internal/types"
)

const (
	defaultCallTimeout = 3 * time.Second
	defaultRetryPause  = 500 * time.Millisecond
)

// ResolverConfig bounds each provider call and the pause between failover
// attempts. Concurrent switches the chain from sequential iteration to a
// raced fan-out that still honors priority order when picking a winner.
type ResolverConfig struct {
	CallTimeout time.Duration
	RetryPause  time.Duration
	Concurrent  bool
}

func (c ResolverConfig) withDefaults() ResolverConfig {
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
	if c.RetryPause < 0 {
		c.RetryPause = defaultRetryPause
	}
	return c
}

// Resolution is the outcome of one quote resolution pass. Attempts lists
// every provider tried, in priority order, including the winner.
type Resolution struct {
	Quotes   map[string]types.Quote
	Source   string
	Attempts []types.AttemptRecord
}

// QuoteResolver walks an ordered provider chain until one yields usable
// prices for at least one requested symbol. It never substitutes data of
// its own: when the chain is exhausted the caller gets
// ErrResolutionExhausted plus the full attempt log.
type QuoteResolver struct {
	sources  []PriceSource
	cfg      ResolverConfig
	breakers map[string]*circuit.CircuitBreaker
	sleep    func(time.Duration)
}

func NewQuoteResolver(sources []PriceSource, cfg ResolverConfig) *QuoteResolver {
	r := &QuoteResolver{
		sources:  sources,
		cfg:      cfg.withDefaults(),
		breakers: make(map[string]*circuit.CircuitBreaker),
		sleep:    time.Sleep,
	}
	return r
}

// EnableBreakers arms a circuit breaker per provider so scheduled runs
// stop hammering a source that keeps failing.
func (r *QuoteResolver) EnableBreakers(threshold int, cooldown time.Duration) {
	for _, src := range r.sources {
		r.breakers[src.Name()] = circuit.NewCircuitBreaker(src.Name(), threshold, cooldown)
	}
}

// Resolve returns the first usable provider result in priority order.
// Every attempt is appended to trail and echoed into the returned
// Resolution regardless of outcome.
func (r *QuoteResolver) Resolve(ctx context.Context, symbols []string, trail *audit.Log) (Resolution, error) {
	if len(symbols) == 0 {
		return Resolution{}, fmt.Errorf("quote resolver requires at least one symbol")
	}
	if len(r.sources) == 0 {
		return Resolution{}, ErrResolutionExhausted
	}
	if r.cfg.Concurrent {
		return r.resolveConcurrent(ctx, symbols, trail)
	}
	return r.resolveSequential(ctx, symbols, trail)
}

func (r *QuoteResolver) resolveSequential(ctx context.Context, symbols []string, trail *audit.Log) (Resolution, error) {
	res := Resolution{}
	for i, src := range r.sources {
		if skipped := r.breakerSkip(src.Name(), &res, trail); skipped {
			continue
		}
		quotes, err := r.callProvider(ctx, src, symbols)
		r.recordAttempt(&res, trail, src.Name(), err)
		if err == nil {
			res.Quotes = quotes
			res.Source = src.Name()
			return res, nil
		}
		logger.Warnf("quote provider %s failed: %v", src.Name(), err)
		if i < len(r.sources)-1 && r.cfg.RetryPause > 0 {
			r.sleep(r.cfg.RetryPause)
		}
	}
	return res, ErrResolutionExhausted
}

// resolveConcurrent races all providers under one deadline. The winner is
// the earliest-priority success, not the first responder, so provider
// ordering keeps its meaning.
func (r *QuoteResolver) resolveConcurrent(ctx context.Context, symbols []string, trail *audit.Log) (Resolution, error) {
	type outcome struct {
		quotes map[string]types.Quote
		err    error
		ran    bool
	}
	outcomes := make([]outcome, len(r.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range r.sources {
		if br, ok := r.breakers[src.Name()]; ok && !br.Allow() {
			outcomes[i] = outcome{err: fmt.Errorf("circuit open")}
			continue
		}
		i, src := i, src
		g.Go(func() error {
			quotes, err := r.callProvider(gctx, src, symbols)
			outcomes[i] = outcome{quotes: quotes, err: err, ran: true}
			return nil
		})
	}
	_ = g.Wait()

	res := Resolution{}
	var winner *outcome
	for i, src := range r.sources {
		oc := outcomes[i]
		r.recordAttempt(&res, trail, src.Name(), oc.err)
		if oc.ran {
			r.feedBreaker(src.Name(), oc.err)
		}
		if oc.err == nil && winner == nil {
			winner = &outcomes[i]
			res.Source = src.Name()
		}
	}
	if winner == nil {
		return res, ErrResolutionExhausted
	}
	res.Quotes = winner.quotes
	return res, nil
}

func (r *QuoteResolver) callProvider(ctx context.Context, src PriceSource, symbols []string) (map[string]types.Quote, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	quotes, err := src.FetchPrices(callCtx, symbols)
	if err != nil {
		return nil, &ProviderError{Provider: src.Name(), Err: err}
	}
	clean, err := sanitizeQuotes(quotes, symbols)
	if err != nil {
		return nil, &ProviderError{Provider: src.Name(), Err: err}
	}
	return clean, nil
}

func (r *QuoteResolver) breakerSkip(name string, res *Resolution, trail *audit.Log) bool {
	br, ok := r.breakers[name]
	if !ok || br.Allow() {
		return false
	}
	rec := types.AttemptRecord{Provider: name, Error: "circuit open", OK: false}
	res.Attempts = append(res.Attempts, rec)
	trail.Record(types.AuditProviderAttempt, fmt.Sprintf("skipped %s: circuit open", name), nil)
	return true
}

func (r *QuoteResolver) recordAttempt(res *Resolution, trail *audit.Log, name string, err error) {
	rec := types.AttemptRecord{Provider: name, OK: err == nil}
	if err != nil {
		rec.Error = err.Error()
		trail.Record(types.AuditProviderAttempt, fmt.Sprintf("%s failed: %v", name, err), nil)
	} else {
		trail.Record(types.AuditProviderSuccess, fmt.Sprintf("%s supplied prices", name), nil)
	}
	res.Attempts = append(res.Attempts, rec)
	if !r.cfg.Concurrent {
		r.feedBreaker(name, err)
	}
}

func (r *QuoteResolver) feedBreaker(name string, err error) {
	br, ok := r.breakers[name]
	if !ok {
		return
	}
	if err != nil {
		br.RecordFailure()
	} else {
		br.RecordSuccess()
	}
}

// sanitizeQuotes keeps only requested symbols with finite, positive
// prices. A provider that yields nothing usable counts as failed.
func sanitizeQuotes(quotes map[string]types.Quote, symbols []string) (map[string]types.Quote, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("empty price payload")
	}
	requested := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		requested[s] = true
	}
	clean := make(map[string]types.Quote, len(quotes))
	for sym, q := range quotes {
		if !requested[sym] {
			continue
		}
		if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
			continue
		}
		if math.IsNaN(q.Change24hPct) || math.IsInf(q.Change24hPct, 0) {
			q.Change24hPct = 0
		}
		clean[sym] = q
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("no usable prices in payload")
	}
	return clean, nil
}
