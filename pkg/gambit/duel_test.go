package gambit_test

import (
	"testing"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/gambit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveCostBelowCapacity(t *testing.T) {
	assert.Equal(t, 2, gambit.EffectiveCost(2, 3, 10))
}

func TestEffectiveCostAboveCapacityDoublesMarginal(t *testing.T) {
	// capacity 3, spend 5: 3 + 2*(5-3) = 7
	assert.Equal(t, 7, gambit.EffectiveCost(5, 3, 10))
}

func TestEffectiveCostClampedAtMax(t *testing.T) {
	assert.Equal(t, gambit.EffectiveCost(10, 3, 10), gambit.EffectiveCost(50, 3, 10))
}

func TestDuelAllocateRejectsDuplicateAndNonParticipant(t *testing.T) {
	d := gambit.NewPendingDuel(board.Move{}, board.White, board.Black,
		board.Piece{Color: board.White, Kind: board.Knight},
		board.Piece{Color: board.Black, Kind: board.Bishop})

	require.NoError(t, d.Allocate(board.White, 3))
	assert.Error(t, d.Allocate(board.White, 5))
	assert.False(t, d.Ready())
	require.NoError(t, d.Allocate(board.Black, 2))
	assert.True(t, d.Ready())
}

func TestResolveHigherEffectiveBidWins(t *testing.T) {
	cfg := config.MustLoad("standard")
	d := gambit.NewPendingDuel(board.Move{}, board.White, board.Black,
		board.Piece{Color: board.White, Kind: board.Knight},
		board.Piece{Color: board.Black, Kind: board.Bishop})
	require.NoError(t, d.Allocate(board.White, 5))
	require.NoError(t, d.Allocate(board.Black, 2))

	res, err := gambit.Resolve(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, gambit.AttackerWins, res.Outcome)
	assert.Equal(t, 5, res.AttackerNominal)
	assert.Equal(t, 2, res.DefenderNominal)
}

func TestResolveTieDefaultsToDefenderByStandardProfile(t *testing.T) {
	cfg := config.MustLoad("standard")
	d := gambit.NewPendingDuel(board.Move{}, board.White, board.Black,
		board.Piece{Color: board.White, Kind: board.Knight},
		board.Piece{Color: board.Black, Kind: board.Knight})
	require.NoError(t, d.Allocate(board.White, 3))
	require.NoError(t, d.Allocate(board.Black, 3))

	res, err := gambit.Resolve(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, gambit.DefenderWins, res.Outcome)
}

func TestResolveTieAttackerTiesProfileFlips(t *testing.T) {
	cfg := config.MustLoad("attacker-ties")
	d := gambit.NewPendingDuel(board.Move{}, board.White, board.Black,
		board.Piece{Color: board.White, Kind: board.Knight},
		board.Piece{Color: board.Black, Kind: board.Knight})
	require.NoError(t, d.Allocate(board.White, 3))
	require.NoError(t, d.Allocate(board.Black, 3))

	res, err := gambit.Resolve(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, gambit.AttackerWins, res.Outcome)
}

func TestResolveBeforeBothAllocatedErrors(t *testing.T) {
	cfg := config.MustLoad("standard")
	d := gambit.NewPendingDuel(board.Move{}, board.White, board.Black,
		board.Piece{Color: board.White, Kind: board.Knight},
		board.Piece{Color: board.Black, Kind: board.Knight})
	require.NoError(t, d.Allocate(board.White, 3))

	_, err := gambit.Resolve(d, cfg)
	assert.Error(t, err)
}

func TestResolveSpendsEffectiveAllocationWhenConfigured(t *testing.T) {
	cfg := config.MustLoad("advanced")
	require.True(t, cfg.DuelResolution.SpendsEffectiveAllocation)

	d := gambit.NewPendingDuel(board.Move{}, board.White, board.Black,
		board.Piece{Color: board.White, Kind: board.Knight},
		board.Piece{Color: board.Black, Kind: board.Bishop})
	require.NoError(t, d.Allocate(board.White, 5))
	require.NoError(t, d.Allocate(board.Black, 2))

	res, err := gambit.Resolve(d, cfg)
	require.NoError(t, err)
	assert.Equal(t, res.AttackerEffective, res.AttackerNominal)
	assert.Equal(t, res.DefenderEffective, res.DefenderNominal)
}
