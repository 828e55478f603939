package buffer

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "buffer.db"), "submissions")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func submissionItem(trackingID string, priority int) Item {
	payload, _ := json.Marshal(map[string]string{"tracking_id": trackingID})
	return Item{
		TrackingID: trackingID,
		Entity:     EntityContribution,
		Operation:  OperationSubmit,
		Data:       payload,
		Priority:   priority,
	}
}

func TestEnqueueAndGetBatch(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(submissionItem("RTX-AAA", 3)))
	require.NoError(t, store.Enqueue(submissionItem("RTX-BBB", 3)))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, item := range items {
		assert.NotEmpty(t, item.ID, "enqueue assigns an ID")
		assert.Equal(t, EntityContribution, item.Entity)
		assert.False(t, item.Timestamp.IsZero())
	}
}

func TestGetBatchOrdersByPriority(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(submissionItem("RTX-LOW", 5)))
	require.NoError(t, store.Enqueue(submissionItem("RTX-HIGH", 1)))
	require.NoError(t, store.Enqueue(submissionItem("RTX-MID", 3)))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "RTX-HIGH", items[0].TrackingID)
	assert.Equal(t, "RTX-MID", items[1].TrackingID)
	assert.Equal(t, "RTX-LOW", items[2].TrackingID)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue(submissionItem("RTX-AAA", 3)))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, store.Remove(items[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeueBumpsTimestamp(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue(submissionItem("RTX-AAA", 3)))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	original := items[0].Timestamp

	require.NoError(t, store.Remove(items[0]))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Requeue(items[0]))

	items, err = store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Timestamp.After(original))
	assert.Equal(t, "RTX-AAA", items[0].TrackingID)
}

func TestCleanupDropsOldItems(t *testing.T) {
	store := openTestStore(t)

	stale := submissionItem("RTX-OLD", 3)
	stale.Timestamp = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Enqueue(stale))
	require.NoError(t, store.Enqueue(submissionItem("RTX-NEW", 3)))

	require.NoError(t, store.Cleanup(time.Now().Add(-24*time.Hour)))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "RTX-NEW", items[0].TrackingID)
}

func TestOpenDefaultsBucketName(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Enqueue(submissionItem("RTX-AAA", 3)))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
