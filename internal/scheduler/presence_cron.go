package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PresenceSweeper flips stale online users offline and reports how many.
type PresenceSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// StartPresenceCronJobs runs the stale presence sweep on the given cron
// schedule. Stop the returned cron on shutdown.
func StartPresenceCronJobs(sweeper PresenceSweeper, schedule string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := sweeper.SweepStale(ctx)
		if err != nil {
			logrus.WithError(err).Error("Presence sweep failed")
			return
		}
		if n > 0 {
			logrus.WithField("count", n).Info("Presence sweep took stale users offline")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid presence sweep schedule %q: %v", schedule, err)
	}

	c.Start()
	return c, nil
}
