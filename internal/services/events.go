package services

import (
	"context"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// EventPublisher announces committed writes. *amqp.Client implements it.
type EventPublisher interface {
	PublishChange(ctx context.Context, evt *amqp.ChangeEvent) error
}

// publisher wraps an optional EventPublisher. Publishing never fails the
// caller: the write is already committed.
type publisher struct {
	events EventPublisher
}

func (p publisher) publish(ctx context.Context, entity amqp.Entity, action amqp.Action, id string, periods ...core.YearMonth) {
	if p.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping change event",
			log.FieldEntity, entity,
			log.FieldAction, action)
		return
	}
	evt := amqp.NewChangeEvent(entity, action, id, periods...)
	if err := p.events.PublishChange(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			log.FieldOperation, log.OpPublish,
			log.FieldEntity, entity,
			log.FieldAction, action,
			"id", id,
			log.FieldError, err)
	}
}
