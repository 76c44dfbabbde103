package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/digimartng/digimart-backend/pkg/logger"
)

type expiredDownloadPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DownloadExpiryJobParams configure the guest download purge.
type DownloadExpiryJobParams struct {
	Logger *logger.Logger
	Repo   expiredDownloadPurger
	Now    func() time.Time
}

// NewDownloadExpiryJob builds the cron job that purges guest download grants
// whose validity window has closed.
func NewDownloadExpiryJob(params DownloadExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("downloads repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &downloadExpiryJob{
		logg: params.Logger,
		repo: params.Repo,
		now:  now,
	}, nil
}

type downloadExpiryJob struct {
	logg *logger.Logger
	repo expiredDownloadPurger
	now  func() time.Time
}

func (j *downloadExpiryJob) Name() string { return "download-expiry" }

func (j *downloadExpiryJob) Run(ctx context.Context) error {
	purged, err := j.repo.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("purge expired downloads: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": purged})
	j.logg.Info(logCtx, "download expiry sweep complete")
	return nil
}
