package job

import (
	"context"
	"log/slog"

	"github.com/quietroom/quietroom-api/internal/repository"
)

// CleanupJob runs the expiry sweep on the in-process cron schedule. The
// /drive/cleanup endpoint triggers the same sweep for external schedulers.
type CleanupJob struct {
	sweeper repository.Sweeper
}

func NewCleanupJob(sweeper repository.Sweeper) *CleanupJob {
	return &CleanupJob{sweeper: sweeper}
}

func (j *CleanupJob) Run() {
	ctx := context.Background()

	deleted, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		slog.Error("cleanup sweep failed", "deleted", deleted, "err", err)
		return
	}
	slog.Info("cleanup sweep finished", "deleted", deleted)
}
