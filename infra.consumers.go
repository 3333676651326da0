package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const popRetryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context) error
}

// mirrorConsumer replays book events onto a secondary storage.
type mirrorConsumer struct {
	logger *zap.Logger
	queue  Queuer
	repo   BookStorage
}

func NewMirrorConsumer(logger *zap.Logger, q Queuer, repo BookStorage) Consumer {
	return &mirrorConsumer{logger, q, repo}
}

// Consume pops events until the context is done. Failures to apply an
// event are logged and the event is dropped.
func (mc *mirrorConsumer) Consume(ctx context.Context) error {
	for {
		event, err := mc.queue.Pop(ctx)
		if err != nil && ctx.Err() != nil {
			mc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			mc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(popRetryDelay):
			}
			continue
		}

		mc.Apply(ctx, event)
	}
}

// Apply executes a single event against the mirror storage.
func (mc *mirrorConsumer) Apply(ctx context.Context, event BookEvent) {
	book := event.Book
	switch event.Op {
	case OpCreate:
		if err := mc.repo.Insert(ctx, book); err != nil && !errors.Is(err, ErrDuplicateBook) {
			mc.logger.Error("consumer: failed to create", zap.String("book.id", book.ID.Hex()), zap.Error(err))
		}
	case OpUpdate:
		nb := NewBook{Title: book.Title, Author: book.Author, PublishedYear: book.PublishedYear}
		n, err := mc.repo.UpdateOne(ctx, book.ID, nb)
		if err != nil {
			mc.logger.Error("consumer: failed to update", zap.String("book.id", book.ID.Hex()), zap.Error(err))
			return
		}
		if n == 0 {
			// the mirror missed the creation, so restore the record.
			if err = mc.repo.Insert(ctx, book); err != nil {
				mc.logger.Error("consumer: failed to restore", zap.String("book.id", book.ID.Hex()), zap.Error(err))
			}
		}
	case OpDelete:
		if _, err := mc.repo.DeleteOne(ctx, book.ID); err != nil {
			mc.logger.Error("consumer: failed to delete", zap.String("book.id", book.ID.Hex()), zap.Error(err))
		}
	case OpPurge:
		if _, err := mc.repo.DeleteMany(ctx); err != nil {
			mc.logger.Error("consumer: failed to purge", zap.Error(err))
		}
	default:
		mc.logger.Warn("consumer: received unknown event operation", zap.String("op", event.Op), zap.String("book.id", book.ID.Hex()))
	}
}
