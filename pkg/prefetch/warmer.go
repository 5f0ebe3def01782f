// Package prefetch warms the response cache for read endpoints the app
// is about to need (reference data after launch, the first cards page
// after login), so later offline reads have something to fall back on.
package prefetch

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Prometheus metrics for prefetch operations.
var (
	prefetchWarmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "townsq_prefetch_warmed_total",
		Help: "Total endpoints successfully warmed into the cache",
	})

	prefetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "townsq_prefetch_failures_total",
		Help: "Total endpoint warm-up attempts that failed",
	})
)

// Fetcher is the slice of the client the warmer needs.
type Fetcher interface {
	Get(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error)
}

// Config holds warmer configuration.
type Config struct {
	// MaxConcurrency bounds parallel warm-up requests.
	MaxConcurrency int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
	}
}

// Warmer fetches a set of read endpoints through the resilient client
// so their responses land in the cache. Individual failures are logged
// and counted, never fatal: a partially warmed cache is still a warmer
// cache.
type Warmer struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// NewWarmer creates a warmer over the given fetcher.
func NewWarmer(fetcher Fetcher, config Config, logger zerolog.Logger) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	return &Warmer{
		fetcher: fetcher,
		config:  config,
		logger:  logger.With().Str("component", "prefetch").Logger(),
	}
}

// Warm fetches every endpoint with bounded concurrency and returns how
// many succeeded. Cancelling ctx stops scheduling new fetches.
func (w *Warmer) Warm(ctx context.Context, endpoints []string) int {
	start := time.Now()
	var warmed atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(w.config.MaxConcurrency)

	for _, endpoint := range endpoints {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if _, err := w.fetcher.Get(groupCtx, endpoint, nil); err != nil {
				prefetchFailuresTotal.Inc()
				w.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Warm-up fetch failed")
				return nil // never fatal
			}
			prefetchWarmedTotal.Inc()
			warmed.Add(1)
			return nil
		})
	}

	_ = group.Wait()

	w.logger.Info().
		Int("requested", len(endpoints)).
		Int64("warmed", warmed.Load()).
		Dur("duration", time.Since(start)).
		Msg("Cache warm-up complete")

	return int(warmed.Load())
}
