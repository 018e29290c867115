package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
)

// Sender is the outbound side of the messaging provider: a structured
// templated send and an unstructured free-text send, each returning the
// provider-assigned message id on success.
type Sender interface {
	SendTemplate(ctx context.Context, to, template, language string, params []string) (string, error)
	SendText(ctx context.Context, to, body string) (string, error)
}

// ErrBatchInProgress is returned when a whole-batch dispatch is started
// while another one is still running. Batches are serialized end to end;
// interleaving is never allowed.
var ErrBatchInProgress = errors.New("dispatch: a batch is already in flight")

type SequencerOptions struct {
	Template string
	Language string
	// Pacing is the fixed delay inserted between successive sends to
	// respect provider rate limits.
	Pacing time.Duration
	Logger *logrus.Logger
	// OnItemFailed surfaces a user-visible failure signal naming the
	// destination after both send modes failed.
	OnItemFailed func(item delivery.Item, err error)
}

// Sequencer originates outbound sends strictly one at a time. For each item
// the templated send is attempted first; on failure exactly one free-text
// fallback is tried; a second failure parks the item in the error state with
// no provider id recorded.
type Sequencer struct {
	sender   Sender
	opts     SequencerOptions
	inFlight atomic.Bool
}

func NewSequencer(sender Sender, opts SequencerOptions) *Sequencer {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Sequencer{sender: sender, opts: opts}
}

// Dispatch sends the whole batch sequentially. Per-item faults never abort
// the remaining items; only context cancellation does.
func (s *Sequencer) Dispatch(ctx context.Context, batch *Batch) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBatchInProgress
	}
	defer s.inFlight.Store(false)

	for i := 0; i < batch.Len(); i++ {
		if i > 0 && s.opts.Pacing > 0 {
			timer := time.NewTimer(s.opts.Pacing)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.dispatchItem(ctx, batch, i)
	}
	return nil
}

// DispatchOne retries a single item, typically one parked in the error
// state. It shares the in-flight guard with Dispatch so a retry cannot
// interleave with a running batch.
func (s *Sequencer) DispatchOne(ctx context.Context, batch *Batch, index int) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBatchInProgress
	}
	defer s.inFlight.Store(false)

	if _, err := batch.Item(index); err != nil {
		return err
	}
	s.dispatchItem(ctx, batch, index)
	return nil
}

func (s *Sequencer) dispatchItem(ctx context.Context, batch *Batch, index int) {
	item, err := batch.Item(index)
	if err != nil {
		return
	}
	// Guards against duplicate sends from a stale trigger: anything already
	// in flight or acknowledged stays untouched.
	if !item.Dispatchable() {
		s.opts.Logger.WithFields(logrus.Fields{
			"index":  index,
			"status": item.Status,
		}).Debug("item not dispatchable, skipped")
		return
	}

	batch.setStatus(index, delivery.StatusSending)

	id, err := s.sender.SendTemplate(ctx, item.Phone, s.opts.Template, s.opts.Language, templateParams(item))
	if err == nil {
		s.recordSent(batch, index, id)
		return
	}
	s.opts.Logger.WithError(err).WithField("to", item.Phone).Warn("templated send failed, trying fallback")

	id, fallbackErr := s.sender.SendText(ctx, item.Phone, fallbackBody(item))
	if fallbackErr == nil {
		s.recordSent(batch, index, id)
		return
	}

	batch.setStatus(index, delivery.StatusError)
	s.opts.Logger.WithError(fallbackErr).WithField("to", item.Phone).Error("fallback send failed")
	if s.opts.OnItemFailed != nil {
		item.Status = delivery.StatusError
		s.opts.OnItemFailed(item, fallbackErr)
	}
}

func (s *Sequencer) recordSent(batch *Batch, index int, id string) {
	if err := batch.attach(index, id); err != nil {
		s.opts.Logger.WithError(err).WithField("index", index).Error("could not record provider id")
	}
	batch.setStatus(index, delivery.StatusSent)
}

func templateParams(item delivery.Item) []string {
	return []string{item.FullName, item.Plate, item.Amount, item.IssuedAt}
}

func fallbackBody(item delivery.Item) string {
	return fmt.Sprintf(
		"Dear %s, you have a pending fine for vehicle %s of %s issued on %s. Please settle it at your earliest convenience.",
		item.FullName, item.Plate, item.Amount, item.IssuedAt,
	)
}
