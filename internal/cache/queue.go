package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReloadJob asks a worker to reload one region's playlist.
type ReloadJob struct {
	Region      string    `json:"region"`
	RequestedAt time.Time `json:"requested_at"`
}

// DefaultQueue is the Redis list used for reload jobs.
const DefaultQueue = KeyPrefix + "jobs:reload"

// Enqueue pushes job onto the left of queue.
func Enqueue(ctx context.Context, r *Redis, queue string, job ReloadJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, queue, data).Err()
}

// Dequeue blocks up to timeout for a job from the right of queue. On timeout
// or context cancellation it returns (nil, nil) so the caller can loop and
// check for shutdown.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*ReloadJob, error) {
	result, err := r.client.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var job ReloadJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &job, nil
}
