package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DigestSender mails the alert digest for a time window
type DigestSender interface {
	SendDigest(ctx context.Context, window time.Duration) (int, error)
}

// DigestJob mails the unresolved critical alerts of the last window
func DigestJob(sender DigestSender, window time.Duration, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := sender.SendDigest(ctx, window)
		if err != nil {
			return err
		}
		if n == 0 {
			logger.Info("No alerts for digest")
		}
		return nil
	}
}

// Sweeper forgets idle state older than maxIdle
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

func SweepJob(s Sweeper, maxIdle time.Duration) JobFunc {
	return func(context.Context) error {
		s.Sweep(maxIdle)
		return nil
	}
}
