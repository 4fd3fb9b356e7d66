package transport

import (
	"testing"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/eventlog"
	"github.com/gambit-chess/engine/pkg/gambit"
	"github.com/gambit-chess/engine/pkg/state"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSquare(t *testing.T, s string) board.Square {
	t.Helper()
	sq, err := board.ParseSquare(s)
	require.NoError(t, err)
	return sq
}

func TestPendingDuelDTOHidesSealedBids(t *testing.T) {
	d := gambit.NewPendingDuel(
		board.Move{Type: board.Capture, From: mustSquare(t, "f3"), To: mustSquare(t, "e5"), Captured: board.Pawn},
		board.White, board.Black,
		board.Piece{Color: board.White, Kind: board.Knight},
		board.Piece{Color: board.Black, Kind: board.Pawn},
	)
	require.NoError(t, d.Allocate(board.White, 3))

	dto, ok := payloadDTO(d).(DuelDTO)
	require.True(t, ok)
	assert.Equal(t, -1, dto.AttackerAllocation)
	assert.Equal(t, -1, dto.DefenderAllocation)
	assert.Equal(t, "f3", dto.Move.From)
	assert.Equal(t, "e5", dto.Move.To)
}

func TestMoveRecordDTOCarriesDuelAndRetreat(t *testing.T) {
	rec := state.MoveRecord{
		Move:       board.Move{Type: board.Capture, From: mustSquare(t, "f3"), To: mustSquare(t, "e5"), Captured: board.Pawn},
		Mover:      board.White,
		DuelResult: lang.Some(state.DuelResult{AttackerAlloc: 1, DefenderAlloc: 5, AttackerWon: false}),
		Retreat:    lang.Some(state.RetreatRecord{To: mustSquare(t, "f3"), Cost: 0}),
	}

	dto, ok := payloadDTO(rec).(MoveRecordDTO)
	require.True(t, ok)
	assert.True(t, dto.HasDuelResult)
	assert.False(t, dto.AttackerWon)
	assert.Equal(t, 1, dto.AttackerAlloc)
	assert.Equal(t, 5, dto.DefenderAlloc)
	assert.True(t, dto.HasRetreat)
	assert.Equal(t, "f3", dto.RetreatTo)
	assert.Equal(t, 0, dto.RetreatCost)
}

func TestEventFrameTypesMatchWireContract(t *testing.T) {
	cases := map[eventlog.EventType]string{
		eventlog.MoveMade:               TypeServerMove,
		eventlog.DuelStarted:            TypeDuelInitiated,
		eventlog.AllocationSubmitted:    TypeDuelAllocationConfirmed,
		eventlog.DuelResolved:           TypeDuelResolved,
		eventlog.TacticalRetreatOptions: TypeServerTacticalRetreat,
		eventlog.TacticalRetreatMade:    TypeServerTacticalRetreat,
		eventlog.BPUpdated:              TypeBattlePointsUpdated,
		eventlog.GameOver:               TypeEnded,
		eventlog.ChatMessage:            TypeEvent,
	}
	for ev, want := range cases {
		assert.Equal(t, want, eventFrameType(ev), "event %v", ev)
	}
}
