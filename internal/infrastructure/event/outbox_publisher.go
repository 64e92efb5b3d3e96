package event

import (
	"context"
	"errors"

	"github.com/casaops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher publishes domain events to the outbox table. The outbox
// processor relays them to the event bus afterwards, so delivery survives
// a crash between commit and publish.
type OutboxPublisher struct {
	serializer *EventSerializer
	db         *gorm.DB
}

// NewOutboxPublisher creates a new outbox publisher. Use PublishWithTx to
// save events inside an existing transaction.
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
	}
}

// NewOutboxEventPublisher creates an outbox publisher bound to a database
// handle so it satisfies shared.EventPublisher for the application services.
func NewOutboxEventPublisher(db *gorm.DB, serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
		db:         db,
	}
}

// Publish saves events to the outbox using the bound database handle
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if p.db == nil {
		return errors.New("outbox publisher has no database handle, use PublishWithTx")
	}
	return p.PublishWithTx(ctx, p.db, events...)
}

// PublishWithTx publishes events to the outbox within the provided transaction
// This ensures events are persisted atomically with the aggregate changes
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}

		entry := shared.NewOutboxEntry(event.OrgID(), event, payload)
		entries = append(entries, entry)
	}

	repo := NewGormOutboxRepository(tx)
	return repo.Save(ctx, entries...)
}

var _ shared.EventPublisher = (*OutboxPublisher)(nil)
