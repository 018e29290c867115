package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
)

func mappedBatch(t *testing.T) *Batch {
	t.Helper()
	batch := testBatch("59891111111", "59892222222", "59893333333")
	require.NoError(t, batch.attach(0, "wamid.1"))
	require.NoError(t, batch.attach(1, "wamid.2"))
	batch.setStatus(0, delivery.StatusSent)
	batch.setStatus(1, delivery.StatusSent)
	return batch
}

func TestReconciler_MappedIDUpdatesExactlyOneRow(t *testing.T) {
	batch := mappedBatch(t)
	rec := NewReconciler(batch, testLogger())

	rec.Apply(delivery.NewUpdateFrame("wamid.1", delivery.StatusDelivered))

	states := batch.States()
	require.Equal(t, delivery.StatusDelivered, states[0])
	require.Equal(t, delivery.StatusSent, states[1])
	require.Equal(t, delivery.StatusIdle, states[2])
}

func TestReconciler_UnmappedIDIsDroppedSilently(t *testing.T) {
	batch := mappedBatch(t)
	rec := NewReconciler(batch, testLogger())
	before := batch.States()

	rec.Apply(delivery.NewUpdateFrame("wamid.other-session", delivery.StatusRead))

	require.Equal(t, before, batch.States())
}

func TestReconciler_TransitionsAreForwardOnly(t *testing.T) {
	batch := mappedBatch(t)
	rec := NewReconciler(batch, testLogger())

	rec.Apply(delivery.NewUpdateFrame("wamid.1", delivery.StatusDelivered))
	// A stale "sent" arriving after "delivered" must not regress the row.
	rec.Apply(delivery.NewUpdateFrame("wamid.1", delivery.StatusSent))
	require.Equal(t, delivery.StatusDelivered, batch.States()[0])

	rec.Apply(delivery.NewUpdateFrame("wamid.1", delivery.StatusRead))
	require.Equal(t, delivery.StatusRead, batch.States()[0])
}

func TestReconciler_ProviderFailureMapsToError(t *testing.T) {
	batch := mappedBatch(t)
	rec := NewReconciler(batch, testLogger())

	rec.Apply(delivery.NewUpdateFrame("wamid.2", delivery.StatusFailed))

	require.Equal(t, delivery.StatusError, batch.States()[1])
}

func TestReconciler_InitialSnapshotAppliesMappedIDs(t *testing.T) {
	batch := mappedBatch(t)
	rec := NewReconciler(batch, testLogger())

	rec.Apply(delivery.NewInitialFrame(map[string]delivery.Status{
		"wamid.1":       delivery.StatusRead,
		"wamid.2":       delivery.StatusDelivered,
		"wamid.foreign": delivery.StatusSent,
	}))

	states := batch.States()
	require.Equal(t, delivery.StatusRead, states[0])
	require.Equal(t, delivery.StatusDelivered, states[1])
	require.Equal(t, delivery.StatusIdle, states[2])
}

func TestBatch_MessageIDImmutable(t *testing.T) {
	batch := mappedBatch(t)
	err := batch.attach(0, "wamid.second")
	require.ErrorIs(t, err, delivery.ErrMessageIDImmutable)

	index, ok := batch.Lookup("wamid.1")
	require.True(t, ok)
	require.Equal(t, 0, index)
	_, ok = batch.Lookup("wamid.second")
	require.False(t, ok)
}
