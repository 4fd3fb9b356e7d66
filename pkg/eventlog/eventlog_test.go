package eventlog_test

import (
	"context"
	"testing"

	"github.com/gambit-chess/engine/pkg/eventlog"
	"github.com/gambit-chess/engine/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLog(t *testing.T) *eventlog.Log {
	t.Helper()
	live, err := store.NewLiveStore()
	require.NoError(t, err)
	t.Cleanup(live.Close)
	return eventlog.New(live)
}

func TestAppendAssignsMonotonicSequence(t *testing.T) {
	log := newLog(t)
	ctx := context.Background()

	ev1 := log.Append(ctx, "g1", eventlog.MoveMade, eventlog.Everyone(), "e4")
	ev2 := log.Append(ctx, "g1", eventlog.MoveMade, eventlog.Everyone(), "e5")

	assert.Equal(t, uint64(1), ev1.Sequence)
	assert.Equal(t, uint64(2), ev2.Sequence)
	assert.Equal(t, uint64(2), log.LastSequence("g1"))
}

func TestReplayFiltersDirectedRecipient(t *testing.T) {
	log := newLog(t)
	ctx := context.Background()

	log.Append(ctx, "g1", eventlog.MoveMade, eventlog.Everyone(), "e4")
	log.Append(ctx, "g1", eventlog.AllocationSubmitted, eventlog.OnlyPlayer("alice"), 5)
	log.Append(ctx, "g1", eventlog.AllocationSubmitted, eventlog.OnlyPlayer("bob"), 3)

	aliceEvents, err := log.Replay(ctx, "g1", 0, "alice")
	require.NoError(t, err)
	require.Len(t, aliceEvents, 2)
	assert.Equal(t, eventlog.MoveMade, aliceEvents[0].Type)
	assert.Equal(t, eventlog.AllocationSubmitted, aliceEvents[1].Type)
	assert.Equal(t, 5, aliceEvents[1].Payload)

	spectatorEvents, err := log.Replay(ctx, "g1", 0, "")
	require.NoError(t, err)
	require.Len(t, spectatorEvents, 1)
	assert.Equal(t, eventlog.MoveMade, spectatorEvents[0].Type)
}

func TestReplaySinceSequenceExcludesAlreadySeen(t *testing.T) {
	log := newLog(t)
	ctx := context.Background()

	first := log.Append(ctx, "g1", eventlog.MoveMade, eventlog.Everyone(), "e4")
	log.Append(ctx, "g1", eventlog.MoveMade, eventlog.Everyone(), "e5")

	events, err := log.Replay(ctx, "g1", first.Sequence, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e5", events[0].Payload)
}

func TestReplayUnknownGameErrors(t *testing.T) {
	log := newLog(t)
	_, err := log.Replay(context.Background(), "missing", 0, "")
	assert.Error(t, err)
}

func TestRecipientMatches(t *testing.T) {
	assert.True(t, eventlog.Everyone().Matches(""))
	assert.True(t, eventlog.Everyone().Matches("alice"))
	assert.True(t, eventlog.OnlyPlayer("alice").Matches("alice"))
	assert.False(t, eventlog.OnlyPlayer("alice").Matches("bob"))
	assert.False(t, eventlog.OnlyPlayer("alice").Matches(""))
}
