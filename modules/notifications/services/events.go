package services

import "github.com/finenotify/finenotify/modules/notifications/domain/delivery"

// StatusRecordedEvent is published on every store write that changes the
// visible state of a message id.
type StatusRecordedEvent struct {
	MessageID string
	Status    delivery.Status
}
