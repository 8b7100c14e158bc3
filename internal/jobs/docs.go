// Package jobs provides scheduled background tasks for the dispatch service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, six-field expressions with
// seconds) and only call the application layer; they hold no dispatch logic
// of their own.
//
// # Available Jobs
//
// 1. AssignmentSweepJob - retries assign_courier for aprobado orders of
// direct-dispatch origins and for listo orders, in parallel up to
// SweepConfig.Concurrency
// 2. TrailPruneJob - drops courier location samples past the feed retention
//
// # Usage
//
//	jobManager := jobs.NewJobManager(sweepJob, pruneJob, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - NoCourierAvailable is an expected outcome and is logged at debug level
// - Orders that moved on since the listing are skipped
// - Other failures are logged and do not stop the sweep
// - A sweep still running when the next is due is skipped
package jobs
