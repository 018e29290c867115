package delivery

import "github.com/pkg/errors"

// Item is one row of a dispatch batch. Its identity is the positional index
// in the batch; the provider message id is attached once the send is
// accepted and never changes afterwards.
type Item struct {
	Index     int
	Phone     string
	FullName  string
	Plate     string
	Amount    string
	IssuedAt  string
	Status    Status
	MessageID string
}

// ErrMessageIDImmutable is returned when a second provider id is attached to
// an item that already carries one.
var ErrMessageIDImmutable = errors.New("delivery: message id already set")

func NewItem(index int, phone string) *Item {
	return &Item{
		Index:  index,
		Phone:  phone,
		Status: StatusIdle,
	}
}

// AttachMessageID records the provider-assigned id for this item.
func (i *Item) AttachMessageID(id string) error {
	if i.MessageID != "" {
		return ErrMessageIDImmutable
	}
	i.MessageID = id
	return nil
}

// Dispatchable reports whether the item may be (re)sent. Items already in
// flight or acknowledged by the provider must not be sent again.
func (i *Item) Dispatchable() bool {
	switch i.Status {
	case StatusSending, StatusSent, StatusDelivered, StatusRead:
		return false
	default:
		return true
	}
}
