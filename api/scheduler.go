/*
scheduler.go - Periodic cache sweeper

PURPOSE:
  The in-memory result cache only evicts expired entries when they are
  read. Users who stop asking for a balance leave their entries behind.
  The sweeper removes them on a fixed interval.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Sweeps once immediately on start
  - Not needed for the Redis backend, which expires keys itself

USAGE:
  sweeper := NewCacheSweeper(memCache, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - cache/cache.go: Memory.Sweep
*/
package api

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/warp/worktime-engine/logger"
)

// Sweeper removes expired cache entries and reports how many.
type Sweeper interface {
	Sweep() int
}

// CacheSweeper runs Sweep on an interval.
type CacheSweeper struct {
	Cache    Sweeper
	Interval time.Duration
	Enabled  bool
	Logger   *log.Logger

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
	swept   int
}

// NewCacheSweeper creates a sweeper with a one minute interval.
func NewCacheSweeper(c Sweeper, l *log.Logger) *CacheSweeper {
	if l == nil {
		l = logger.Discard()
	}
	return &CacheSweeper{
		Cache:    c,
		Interval: time.Minute,
		Enabled:  true,
		Logger:   l,
	}
}

// Start begins sweeping. Calling Start twice is a no-op.
func (cs *CacheSweeper) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		cs.Logger.Info("[Sweeper] Disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.Interval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)

	go cs.run(cs.ticker, cs.stop)

	cs.Logger.Info("[Sweeper] Started", "interval", cs.Interval)
}

// Stop stops the sweeper and waits for a running sweep to finish. Stop
// without a running sweeper is a no-op; Start may be called again after.
func (cs *CacheSweeper) Stop() {
	cs.mu.Lock()
	ticker, stop := cs.ticker, cs.stop
	cs.ticker, cs.stop = nil, nil
	cs.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
		close(stop)
		cs.wg.Wait()
		cs.Logger.Info("[Sweeper] Stopped")
	}
}

func (cs *CacheSweeper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cs.wg.Done()

	// Run immediately on start
	cs.sweep()

	for {
		select {
		case <-ticker.C:
			cs.sweep()
		case <-stop:
			return
		}
	}
}

func (cs *CacheSweeper) sweep() int {
	n := cs.Cache.Sweep()

	cs.mu.Lock()
	cs.lastRun = time.Now()
	cs.swept += n
	cs.mu.Unlock()

	if n > 0 {
		cs.Logger.Debug("[Sweeper] Removed expired entries", "count", n)
	}
	return n
}

// RunNow sweeps immediately and returns the number of removed entries.
func (cs *CacheSweeper) RunNow() int {
	return cs.sweep()
}

// Swept is the total number of entries removed so far.
func (cs *CacheSweeper) Swept() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.swept
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (cs *CacheSweeper) GetNextRunTime() time.Time {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.lastRun.IsZero() {
		return time.Now()
	}
	return cs.lastRun.Add(cs.Interval)
}
