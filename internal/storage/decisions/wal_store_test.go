package decisions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/folio/internal/domain"
)

func testEvent(runID, outcome string) domain.DecisionEvent {
	return domain.DecisionEvent{
		RunID:     runID,
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Model:     "test-model",
		Response:  `{"BTC": 6000, "cash": 4000}`,
		Outcome:   outcome,
	}
}

func TestWALStoreSaveAndReplay(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testEvent("run-1", "succeeded")))
	require.NoError(t, store.Save(testEvent("run-2", "failed")))
	require.NoError(t, store.Save(testEvent("run-3", "skipped_no_data")))

	events, err := store.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "run-1", events[0].RunID)
	require.Equal(t, "run-3", events[2].RunID)
	require.Equal(t, "failed", events[1].Outcome)
	require.Equal(t, "test-model", events[0].Model)
	require.Equal(t, `{"BTC": 6000, "cash": 4000}`, events[0].Response)
}

func TestWALStoreEventsAfterSkipsConsumed(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testEvent("run-1", "succeeded")))
	require.NoError(t, store.Save(testEvent("run-2", "succeeded")))

	events, err := store.EventsAfter(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "run-2", events[0].RunID)

	events, err = store.EventsAfter(2)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestWALStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(testEvent("run-1", "succeeded")))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	events, err := reopened.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "run-1", events[0].RunID)
}

func TestWALStoreRejectsEventWithoutRunID(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.Error(t, store.Save(testEvent("", "succeeded")))
}
