package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultEventsQueue = "books.events"

// Book change operations carried by events.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpPurge  = "purge"
)

// Ensure *redisQueue implements Queuer.
var _ Queuer = (*redisQueue)(nil)

// BookEvent describes a change applied to the books collection.
type BookEvent struct {
	Op   string `json:"op"`
	Book Book   `json:"book"`
}

// Queuer describes a queue of book events.
type Queuer interface {
	Push(ctx context.Context, event BookEvent) error
	Pop(ctx context.Context) (BookEvent, error)
}

// redisQueue is a FIFO queue backed by a single redis list.
// A single list keeps events in the order they were produced.
type redisQueue struct {
	client *redis.Client
	name   string
}

func NewRedisQueue(client *redis.Client, name string) Queuer {
	if name == "" {
		name = DefaultEventsQueue
	}
	return &redisQueue{client: client, name: name}
}

// Push enqueues an event at the tail of the list.
func (q *redisQueue) Push(ctx context.Context, event BookEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.name, eventBytes).Err()
}

// Pop blocks until an event is available at the head of the list.
func (q *redisQueue) Pop(ctx context.Context) (BookEvent, error) {
	var event BookEvent
	infos, err := q.client.BLPop(ctx, 0*time.Second, q.name).Result()
	if err != nil {
		return event, err
	}

	err = json.Unmarshal([]byte(infos[1]), &event)
	return event, err
}
