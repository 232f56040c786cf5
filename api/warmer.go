/*
warmer.go - Background analysis cache warmer

PURPOSE:
  Periodically recomputes every region's analysis and stores it in the
  handler's cache, so the first dashboard request for a region does not pay
  for the full fetch and aggregation. Regions whose records are malformed
  are logged and skipped; requests for them still report the error.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Warms immediately on start, then on every tick
  - Records outcomes in the region_analysis_loads_total metric

CONFIGURATION:
  - Interval: dashboard.warm_interval (0 disables the warmer)

USAGE:
  warmer := NewCacheWarmer(handler, cfg.Dashboard.WarmInterval)
  warmer.Start()
  // ... later
  warmer.Stop()

SEE ALSO:
  - handlers.go: analysis cache
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/seva-insights/engine"
	"github.com/warp/seva-insights/metrics"
)

// CacheWarmer keeps the handler's analysis cache populated.
type CacheWarmer struct {
	Handler  *Handler
	Interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCacheWarmer creates a warmer for h.
func NewCacheWarmer(h *Handler, interval time.Duration) *CacheWarmer {
	return &CacheWarmer{
		Handler:  h,
		Interval: interval,
	}
}

// Start begins warming in the background. It is a no-op while running and
// may be called again after Stop.
func (cw *CacheWarmer) Start() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.Interval <= 0 {
		log.Println("[Warmer] Disabled, not starting")
		return
	}
	if cw.ticker != nil {
		return
	}

	cw.ticker = time.NewTicker(cw.Interval)
	cw.stop = make(chan struct{})
	cw.wg.Add(1)

	go cw.run(cw.ticker, cw.stop)

	log.Printf("[Warmer] Started with interval: %v", cw.Interval)
}

// Stop stops the warmer and waits for an in-flight pass to finish.
func (cw *CacheWarmer) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.ticker != nil {
		cw.ticker.Stop()
		close(cw.stop)
		cw.wg.Wait()
		cw.ticker = nil
		log.Println("[Warmer] Stopped")
	}
}

func (cw *CacheWarmer) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cw.wg.Done()

	cw.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			cw.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow recomputes every region once and returns how many were cached.
func (cw *CacheWarmer) RunNow(ctx context.Context) int {
	h := cw.Handler
	regions, err := h.Store.ListRegions(ctx)
	if err != nil {
		log.Printf("[Warmer] Error listing regions: %v", err)
		return 0
	}

	warmed := 0
	for _, region := range regions {
		a, err := engine.LoadAnalysis(ctx, h.Store, region)
		if err != nil {
			metrics.AnalysisLoads.WithLabelValues("error").Inc()
			log.Printf("[Warmer] Skipping %s: %v", region, err)
			continue
		}
		metrics.AnalysisLoads.WithLabelValues("warm").Inc()
		h.analyses.SetDefault(region, a)
		warmed++
	}

	log.Printf("[Warmer] Warmed %d of %d regions", warmed, len(regions))
	return warmed
}
