package jobs

import (
	"fmt"

	"go.uber.org/zap"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	assignmentSweepJob *AssignmentSweepJob
	trailPruneJob      *TrailPruneJob
	logger             *zap.Logger
}

func NewJobManager(sweep *AssignmentSweepJob, prune *TrailPruneJob, logger *zap.Logger) *JobManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobManager{
		assignmentSweepJob: sweep,
		trailPruneJob:      prune,
		logger:             logger.Named("job_manager"),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.assignmentSweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start assignment sweep job: %w", err)
	}

	if err := jm.trailPruneJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.assignmentSweepJob.Stop()
		return fmt.Errorf("failed to start trail prune job: %w", err)
	}

	jm.logger.Info("jobs started")
	return nil
}

// StopAll stops all scheduled jobs and waits for running ones.
func (jm *JobManager) StopAll() {
	jm.assignmentSweepJob.Stop()
	jm.trailPruneJob.Stop()
}
