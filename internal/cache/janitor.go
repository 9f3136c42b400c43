package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	cron "github.com/robfig/cron/v3"
)

// Janitor periodically prunes a cache on a cron schedule.
type Janitor struct {
	pruner   Pruner
	maxAge   time.Duration
	schedule string
	logger   hclog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewJanitor creates a Janitor that removes entries older than maxAge each
// time schedule fires. The schedule is parsed immediately so configuration
// mistakes surface at startup.
func NewJanitor(p Pruner, schedule string, maxAge time.Duration, logger hclog.Logger) (*Janitor, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("janitor max age must be positive, got %s", maxAge)
	}

	j := &Janitor{
		pruner:   p,
		maxAge:   maxAge,
		schedule: schedule,
		logger:   logger.Named("janitor"),
		cron:     cron.New(),
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce() }); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return j, nil
}

// RunOnce prunes the cache immediately and returns the number of entries
// removed.
func (j *Janitor) RunOnce() int {
	start := time.Now()
	removed, err := j.pruner.Prune(j.maxAge)
	if err != nil {
		j.logger.Error("prune failed", "removed", removed, "error", err)
		return removed
	}
	j.logger.Debug("prune finished", "removed", removed, "duration", time.Since(start))
	return removed
}

// Start starts the schedule. Calling Start on a running Janitor is a no-op.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		j.cron.Start()
		j.running = true
		j.logger.Info("cache janitor started", "schedule", j.schedule, "max_age", j.maxAge)
	}
}

// Stop stops the schedule and waits for a running prune to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		<-j.cron.Stop().Done()
		j.running = false
	}
}

// IsRunning returns whether the schedule is active.
func (j *Janitor) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
