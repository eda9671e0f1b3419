package studio

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jobCancelKeyFmt  = "studio:job:%s:cancel"
	cancelPollPeriod = 2 * time.Second
)

// JobCancelKey returns the cancellation flag key for a job.
func JobCancelKey(jobID string) string {
	return fmt.Sprintf(jobCancelKeyFmt, jobID)
}

// RequestCancel flags a job for cancellation. The worker picks the flag
// up between shots, so the current call is allowed to finish.
func RequestCancel(ctx context.Context, rdb *redis.Client, jobID string) error {
	if err := rdb.Set(ctx, JobCancelKey(jobID), "1", jobStateRetention).Err(); err != nil {
		return fmt.Errorf("failed to flag job %s for cancellation: %w", jobID, err)
	}
	log.Printf("🛑 Cancellation requested for job: %s", jobID)
	return nil
}

// IsJobCancelled checks the cancellation flag.
func IsJobCancelled(ctx context.Context, rdb *redis.Client, jobID string) bool {
	exists, err := rdb.Exists(ctx, JobCancelKey(jobID)).Result()
	if err != nil {
		log.Printf("⚠️  Failed to check cancel flag for %s: %v", jobID, err)
		return false
	}
	return exists > 0
}

// watchCancellation derives a context that is cancelled when the job's
// flag appears. The poller stops when the returned cancel runs.
func watchCancellation(parent context.Context, rdb *redis.Client, jobID string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(cancelPollPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if IsJobCancelled(ctx, rdb, jobID) {
					log.Printf("🛑 Cancel flag detected for job %s", jobID)
					cancel()
					return
				}
			}
		}
	}()

	return ctx, cancel
}
