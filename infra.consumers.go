package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// consumerErrorBackoff is the pause after a failed pop so a broken
// connection does not spin the loop.
const consumerErrorBackoff = 500 * time.Millisecond

type Consumer interface {
	Consume(ctx context.Context) error
}

type journalConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	journal ActivityJournal
}

// NewJournalConsumer provides the consumer which moves queued activities into the journal.
func NewJournalConsumer(logger *zap.Logger, q Queuer, journal ActivityJournal) Consumer {
	return &journalConsumer{logger: logger, queue: q, journal: journal}
}

// Consume runs until ctx is done.
func (jc *journalConsumer) Consume(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			jc.logger.Info("consumer: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		activity, err := jc.queue.Pop(ctx)
		if errors.Is(err, ErrQueueEmpty) {
			continue
		}
		if err != nil && ctx.Err() != nil {
			jc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}
		if err != nil {
			jc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(consumerErrorBackoff):
			}
			continue
		}

		if err = jc.journal.Append(ctx, activity); err != nil {
			jc.logger.Error("consumer: failed to append activity",
				zap.String("activity.id", activity.ID),
				zap.String("activity.resource", activity.Resource),
				zap.Error(err),
			)
		}
	}
}
