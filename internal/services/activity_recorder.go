package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/internal/infrastructure/audit"
	"github.com/taskdeck/backend/usecase"
)

// RecorderConfig controls the audit trail retention sweep.
type RecorderConfig struct {
	Retention time.Duration
	SweepSpec string
}

// ActivityRecorder appends task mutations to the local audit store and prunes
// aged entries on a cron schedule.
type ActivityRecorder struct {
	store  *audit.Store
	logger *zap.Logger
	cron   *cron.Cron
	cfg    RecorderConfig
}

func NewActivityRecorder(store *audit.Store, logger *zap.Logger, cfg RecorderConfig) *ActivityRecorder {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.SweepSpec == "" {
		cfg.SweepSpec = "@hourly"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ActivityRecorder{
		store:  store,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(),
	}

	_, _ = r.cron.AddFunc(cfg.SweepSpec, r.sweep)

	return r
}

// Start launches the retention sweep scheduler.
func (r *ActivityRecorder) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("activity recorder started")
}

// Stop gracefully stops the scheduler.
func (r *ActivityRecorder) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("activity recorder stopped")
}

// Record appends one entry. Failures are logged and swallowed so the audit
// trail never fails the request that triggered it.
func (r *ActivityRecorder) Record(ctx context.Context, entry domain.Activity) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Append(entry); err != nil {
		r.logger.Error("failed to record activity",
			zap.String("task_id", entry.TaskID),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

// Recent returns the user's latest entries, newest first.
func (r *ActivityRecorder) Recent(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	return r.store.RecentByUser(userID, limit)
}

func (r *ActivityRecorder) sweep() {
	cutoff := time.Now().Add(-r.cfg.Retention)
	dropped, err := r.store.Prune(cutoff)
	if err != nil {
		r.logger.Error("activity sweep failed", zap.Error(err))
		return
	}
	if dropped > 0 {
		r.logger.Info("activity entries pruned", zap.Int("count", dropped))
	}
}

var _ usecase.ActivityRecorder = (*ActivityRecorder)(nil)
