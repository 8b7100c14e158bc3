package jobs

import (
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner drops location samples older than its retention.
type Pruner interface {
	Prune(now time.Time) int
}

// TrailPruneJob bounds the memory held by courier location trails.
type TrailPruneJob struct {
	feed     Pruner
	clock    commands.Clock
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewTrailPruneJob(feed Pruner, clock commands.Clock, schedule string, logger *zap.Logger) *TrailPruneJob {
	if clock == nil {
		clock = commands.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("trail_prune_job")
	return &TrailPruneJob{
		feed:     feed,
		clock:    clock,
		schedule: schedule,
		cron:     newCron(logger),
		logger:   logger,
	}
}

// PruneOnce removes expired samples and returns how many were dropped.
func (j *TrailPruneJob) PruneOnce() int {
	removed := j.feed.Prune(j.clock())
	if removed > 0 {
		j.logger.Debug("location samples pruned", zap.Int("removed", removed))
	}
	return removed
}

func (j *TrailPruneJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.PruneOnce() }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("trail prune job started", zap.String("schedule", j.schedule))
	return nil
}

func (j *TrailPruneJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("trail prune job stopped")
}
