package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/drummonds/resuminds/database"
	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// InitializeSchedules starts the object URL sweep and old job pruning
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	cfg := serverHandler.ServerConfig
	c := cron.New()
	chain := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)) //ensure we don't kick off another if old one is still running

	if cfg.ObjectURLTTL > 0 && cfg.SweepInterval > 0 {
		sweepJob := chain.Then(cron.FuncJob(func() { serverHandler.runTracked(database.JobTypeObjectURLSweep, "Sweeping object URLs", serverHandler.sweepObjectURLs) }))
		if _, err := c.AddJob(every(cfg.SweepInterval), sweepJob); err != nil {
			Logger.Error("Unable to schedule object URL sweep", "error", err)
		} else {
			Logger.Info("Adding object URL sweep scheduler", "interval", cfg.SweepInterval, "ttl", cfg.ObjectURLTTL)
		}
	} else {
		Logger.Info("Object URLs never expire, sweep disabled")
	}

	if cfg.JobRetention > 0 {
		cleanupJob := chain.Then(cron.FuncJob(func() { serverHandler.runTracked(database.JobTypeJobCleanup, "Pruning finished jobs", serverHandler.pruneJobs) }))
		if _, err := c.AddJob("@hourly", cleanupJob); err != nil {
			Logger.Error("Unable to schedule job cleanup", "error", err)
		} else {
			Logger.Info("Adding job cleanup scheduler", "retention", cfg.JobRetention)
		}
	}

	c.Start()
	serverHandler.cron = c
	return c
}

// StopSchedules stops the scheduler and waits for running jobs
func (serverHandler *ServerHandler) StopSchedules() {
	if serverHandler.cron == nil {
		return
	}
	<-serverHandler.cron.Stop().Done()
	serverHandler.cron = nil
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// runTracked runs work as a job so it shows up on the jobs page
func (serverHandler *ServerHandler) runTracked(jobType database.JobType, message string, work func() (map[string]int, error)) {
	job, err := serverHandler.DB.CreateJob(jobType, message)
	if err != nil {
		Logger.Error("Failed to create job", "type", jobType, "error", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic in scheduled job", "type", jobType, "panic", r)
			serverHandler.DB.UpdateJobError(job.ID, fmt.Sprintf("Panic: %v", r))
		}
	}()

	serverHandler.DB.UpdateJobStatus(job.ID, database.JobStatusRunning, message)
	counts, err := work()
	if err != nil {
		Logger.Error("Scheduled job failed", "type", jobType, "error", err)
		serverHandler.DB.UpdateJobError(job.ID, err.Error())
		return
	}
	result, _ := json.Marshal(counts)
	serverHandler.DB.CompleteJob(job.ID, string(result))
}

// sweepObjectURLs revokes object URLs older than the configured TTL
func (serverHandler *ServerHandler) sweepObjectURLs() (map[string]int, error) {
	urls := serverHandler.Rasterizer.ObjectURLs()
	removed := urls.Sweep()
	if removed > 0 {
		Logger.Info("Revoked expired object URLs", "removed", removed, "remaining", urls.Len())
	}
	return map[string]int{"removed": removed, "remaining": urls.Len()}, nil
}

// pruneJobs deletes finished jobs older than the retention period
func (serverHandler *ServerHandler) pruneJobs() (map[string]int, error) {
	deleted, err := serverHandler.DB.DeleteOldJobs(serverHandler.ServerConfig.JobRetention)
	if err != nil {
		return nil, err
	}
	Logger.Info("Pruned old jobs", "deleted", deleted)
	return map[string]int{"deleted": deleted}, nil
}
