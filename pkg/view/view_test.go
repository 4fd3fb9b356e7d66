package view_test

import (
	"context"
	"testing"

	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/state"
	"github.com/gambit-chess/engine/pkg/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeatedMachine(t *testing.T) (*state.Machine, string, string) {
	t.Helper()
	cfg := config.MustLoad("standard")
	m := state.New("v1", cfg)
	_, err := m.Join(context.Background(), "alice", cfg.InitialBattlePoints)
	require.NoError(t, err)
	_, err = m.Join(context.Background(), "bob", cfg.InitialBattlePoints)
	require.NoError(t, err)
	snap := m.Snapshot()
	white, black := "alice", "bob"
	if snap.White.ID != "alice" {
		white, black = "bob", "alice"
	}
	return m, white, black
}

func TestSpectatorNeverSeesBattlePoints(t *testing.T) {
	m, _, _ := newSeatedMachine(t)
	gs := m.Snapshot()

	snap := view.Filter(gs, "")
	assert.Equal(t, view.Hidden, snap.White.BattlePoints)
	assert.Equal(t, view.Hidden, snap.Black.BattlePoints)
}

func TestPlayerAlwaysSeesOwnBattlePoints(t *testing.T) {
	m, white, _ := newSeatedMachine(t)
	gs := m.Snapshot()

	snap := view.Filter(gs, white)
	var own view.PlayerView
	if snap.White.ID == white {
		own = snap.White
	} else {
		own = snap.Black
	}
	assert.NotEqual(t, view.Hidden, own.BattlePoints)
}

func TestOpponentBattlePointsHiddenUnderStandardProfile(t *testing.T) {
	m, white, _ := newSeatedMachine(t)
	gs := m.Snapshot()
	require.True(t, gs.Config.InformationHiding.HideBattlePoints)

	snap := view.Filter(gs, white)
	var opponent view.PlayerView
	if snap.White.ID == white {
		opponent = snap.Black
	} else {
		opponent = snap.White
	}
	assert.Equal(t, view.Hidden, opponent.BattlePoints)
}
