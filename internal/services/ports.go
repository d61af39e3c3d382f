package services

import "context"

// EventPublisher announces persisted records to downstream consumers.
type EventPublisher interface {
	PublishRecordCreated(ctx context.Context, kind, id, ownerID string) error
}

// Invalidator drops cached read models of an owner after a write.
type Invalidator interface {
	Invalidate(ownerID string)
}
