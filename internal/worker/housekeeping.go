package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
)

// LimiterCleaner drops idle rate limiter state
type LimiterCleaner interface {
	Cleanup(idle time.Duration) int
}

// Housekeeper runs the periodic maintenance jobs: sweeping uploads older
// than the retention period and dropping idle rate limiter buckets.
type Housekeeper struct {
	cfg       config.HousekeepingConfig
	store     uploads.Store
	retention time.Duration
	limiters  []LimiterCleaner
	idle      time.Duration
	now       func() time.Time
	logger    *logger.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewHousekeeper creates a housekeeper. A zero retention keeps uploads
// forever.
func NewHousekeeper(
	cfg config.HousekeepingConfig,
	store uploads.Store,
	retentionDays int,
	limiterIdle time.Duration,
	log *logger.Logger,
	limiters ...LimiterCleaner,
) *Housekeeper {
	return &Housekeeper{
		cfg:       cfg,
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		limiters:  limiters,
		idle:      limiterIdle,
		now:       time.Now,
		logger:    log,
	}
}

// Start schedules the jobs. Schedules carry a seconds field.
func (h *Housekeeper) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scheduler != nil {
		return fmt.Errorf("housekeeping is already running")
	}

	scheduler := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	if h.retention > 0 && h.store != nil {
		if _, err := scheduler.AddFunc(h.cfg.UploadSweepSchedule, func() {
			h.SweepUploads(ctx)
		}); err != nil {
			return fmt.Errorf("invalid upload sweep schedule: %w", err)
		}
	}

	if len(h.limiters) > 0 && h.idle > 0 {
		if _, err := scheduler.AddFunc(h.cfg.LimiterCleanupSchedule, func() {
			h.CleanupLimiters()
		}); err != nil {
			return fmt.Errorf("invalid limiter cleanup schedule: %w", err)
		}
	}

	scheduler.Start()
	h.scheduler = scheduler

	h.logger.WithFields(map[string]interface{}{
		"jobs":           len(scheduler.Entries()),
		"retention_days": int(h.retention.Hours() / 24),
	}).Info("Housekeeping started")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish
func (h *Housekeeper) Stop() {
	h.mu.Lock()
	scheduler := h.scheduler
	h.scheduler = nil
	h.mu.Unlock()

	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
	h.logger.Info("Housekeeping stopped")
}

// SweepUploads removes images older than the retention period
func (h *Housekeeper) SweepUploads(ctx context.Context) int {
	if h.retention <= 0 {
		return 0
	}

	cutoff := h.now().Add(-h.retention)
	removed, err := h.store.Sweep(ctx, cutoff)
	log := h.logger.WithFields(map[string]interface{}{
		"backend": h.store.Backend(),
		"removed": removed,
		"cutoff":  cutoff.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.ErrorWithErr(err, "Upload sweep failed")
		return removed
	}
	log.Info("Upload sweep completed")
	return removed
}

// CleanupLimiters drops rate limiter buckets idle for longer than the
// configured expiry
func (h *Housekeeper) CleanupLimiters() int {
	removed := 0
	for _, l := range h.limiters {
		removed += l.Cleanup(h.idle)
	}
	if removed > 0 {
		h.logger.With("removed", removed).Debug("Dropped idle rate limiter buckets")
	}
	return removed
}
