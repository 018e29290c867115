package services

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/pkg/eventbus"
	"github.com/finenotify/finenotify/pkg/logging"
)

func newBus() eventbus.EventBus {
	return eventbus.NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel))
}

func TestStatusService_LastWriteWins(t *testing.T) {
	svc := NewStatusService(newBus())

	writes := []struct {
		id     string
		status delivery.Status
	}{
		{"wamid.1", delivery.StatusSent},
		{"wamid.2", delivery.StatusSent},
		{"wamid.1", delivery.StatusDelivered},
		{"wamid.2", delivery.StatusDelivered},
		{"wamid.1", delivery.StatusRead},
	}
	for _, w := range writes {
		svc.RecordStatus(w.id, w.status)
	}

	require.Equal(t, map[string]delivery.Status{
		"wamid.1": delivery.StatusRead,
		"wamid.2": delivery.StatusDelivered,
	}, svc.AllStatuses())
}

func TestStatusService_GetStatus(t *testing.T) {
	svc := NewStatusService(newBus())
	svc.RecordStatus("wamid.1", delivery.StatusSent)

	status, ok := svc.GetStatus("wamid.1")
	require.True(t, ok)
	require.Equal(t, delivery.StatusSent, status)

	_, ok = svc.GetStatus("wamid.unknown")
	require.False(t, ok)
}

func TestStatusService_PublishesOnVisibleChange(t *testing.T) {
	bus := newBus()
	var events []*StatusRecordedEvent
	bus.Subscribe(func(e *StatusRecordedEvent) {
		events = append(events, e)
	})

	svc := NewStatusService(bus)
	svc.RecordStatus("wamid.1", delivery.StatusSent)
	svc.RecordStatus("wamid.1", delivery.StatusSent) // no visible change
	svc.RecordStatus("wamid.1", delivery.StatusDelivered)

	require.Len(t, events, 2)
	require.Equal(t, delivery.StatusSent, events[0].Status)
	require.Equal(t, delivery.StatusDelivered, events[1].Status)
}

func TestStatusService_SnapshotIsACopy(t *testing.T) {
	svc := NewStatusService(newBus())
	svc.RecordStatus("wamid.1", delivery.StatusSent)

	snapshot := svc.AllStatuses()
	snapshot["wamid.1"] = delivery.StatusRead

	status, _ := svc.GetStatus("wamid.1")
	require.Equal(t, delivery.StatusSent, status)
}
