package dispatch

import (
	"github.com/sirupsen/logrus"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
)

// Reconciler maps provider message ids arriving on the realtime channel
// back to batch rows. Events for ids outside the batch (another session, or
// arrived before the mapping was recorded) are dropped silently.
type Reconciler struct {
	batch  *Batch
	logger *logrus.Logger
}

func NewReconciler(batch *Batch, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reconciler{batch: batch, logger: logger}
}

// Apply folds one observer frame into the batch.
func (r *Reconciler) Apply(frame delivery.Frame) {
	switch frame.Type {
	case delivery.FrameInitial:
		for id, status := range frame.Statuses {
			r.applyUpdate(id, status)
		}
	case delivery.FrameUpdate:
		r.applyUpdate(frame.MessageID, frame.Status)
	default:
		r.logger.WithField("type", frame.Type).Debug("unknown frame type ignored")
	}
}

func (r *Reconciler) applyUpdate(id string, status delivery.Status) {
	index, ok := r.batch.Lookup(id)
	if !ok {
		return
	}
	if status == delivery.StatusFailed {
		status = delivery.StatusError
	}
	if r.batch.advance(index, status) {
		r.logger.WithFields(logrus.Fields{
			"index":      index,
			"message-id": id,
			"status":     status,
		}).Info("row updated")
	}
}
