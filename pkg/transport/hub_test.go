package transport

import (
	"testing"

	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/eventlog"
	"github.com/gambit-chess/engine/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	live, err := store.NewLiveStore()
	require.NoError(t, err)
	t.Cleanup(live.Close)

	archive, err := store.OpenArchiveStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	return NewHub(live, archive, eventlog.New(live))
}

func TestHubCreateAndListGames(t *testing.T) {
	h := newTestHub(t)
	cfg := config.MustLoad("standard")

	h.CreateGame("g2", cfg)
	h.CreateGame("g1", cfg)

	games := h.ListGames()
	require.Len(t, games, 2)
	assert.Equal(t, "g1", games[0].ID)
	assert.Equal(t, "g2", games[1].ID)
	assert.Equal(t, "WAITING_FOR_PLAYERS", games[0].Status)
}

func TestHubMachineLookup(t *testing.T) {
	h := newTestHub(t)
	h.CreateGame("g1", config.MustLoad("standard"))

	m, ok := h.Machine("g1")
	require.True(t, ok)
	assert.Equal(t, "g1", m.ID())

	_, ok = h.Machine("missing")
	assert.False(t, ok)
}
