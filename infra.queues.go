package main

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPopTimeout bounds each blocking pop so consumers notice cancellation.
const DefaultPopTimeout = time.Second

// ErrQueueEmpty is returned by Pop when nothing arrived before the pop timeout.
var ErrQueueEmpty = errors.New("queue is empty")

var (
	_ Queuer           = (*redisQueue)(nil) // ensure redisQueue implements Queuer.
	_ ActivityRecorder = (*redisQueue)(nil) // ensure redisQueue implements ActivityRecorder.
)

// Queuer describes the activity queue.
type Queuer interface {
	Push(ctx context.Context, activity Activity) error
	Pop(ctx context.Context) (Activity, error)
}

// redisQueue is a redis list used as a FIFO of activities.
type redisQueue struct {
	client     *redis.Client
	name       string
	ids        UIDHandler
	popTimeout time.Duration
}

// NewRedisQueue provides the activity queue stored in the redis list `name`.
func NewRedisQueue(client *redis.Client, name string, ids UIDHandler) *redisQueue {
	return &redisQueue{client: client, name: name, ids: ids, popTimeout: DefaultPopTimeout}
}

// Record gives the activity an id when missing and enqueues it.
func (q *redisQueue) Record(ctx context.Context, activity Activity) error {
	if activity.ID == "" {
		activity.ID = q.ids.Generate(ActivityIDPrefix)
	}
	return q.Push(ctx, activity)
}

// Push enqueues an activity.
func (q *redisQueue) Push(ctx context.Context, activity Activity) error {
	data, err := codec.Marshal(activity)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.name, data).Err()
}

// Pop returns the oldest queued activity. It waits at most the pop
// timeout and then returns ErrQueueEmpty.
func (q *redisQueue) Pop(ctx context.Context) (Activity, error) {
	var activity Activity
	infos, err := q.client.BLPop(ctx, q.popTimeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return activity, ErrQueueEmpty
	}
	if err != nil {
		return activity, err
	}
	err = codec.Unmarshal([]byte(infos[1]), &activity)
	return activity, err
}
