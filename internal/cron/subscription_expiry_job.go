package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/digimartng/digimart-backend/pkg/logger"
)

type lapsedSubscriptionExpirer interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionExpiryJobParams configure the membership expiry sweep.
type SubscriptionExpiryJobParams struct {
	Logger *logger.Logger
	Repo   lapsedSubscriptionExpirer
	Now    func() time.Time
}

// NewSubscriptionExpiryJob builds the cron job that flips lapsed memberships
// to expired. Reads remain correct between sweeps because activeness always
// rechecks the end date.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &subscriptionExpiryJob{
		logg: params.Logger,
		repo: params.Repo,
		now:  now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	repo lapsedSubscriptionExpirer
	now  func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.repo.ExpireLapsed(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("expire lapsed subscriptions: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": expired})
	j.logg.Info(logCtx, "subscription expiry sweep complete")
	return nil
}
