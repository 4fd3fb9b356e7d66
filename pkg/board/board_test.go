package board_test

import (
	"testing"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(t *testing.T) *board.Board {
	t.Helper()
	pos, turn, np, fm, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	return board.NewBoard(pos, turn, np, fm)
}

func push(t *testing.T, b *board.Board, moves ...string) {
	t.Helper()
	for _, str := range moves {
		m, err := board.ParseMove(str)
		require.NoError(t, err)
		require.True(t, b.PushMove(m), "move %v should be legal", str)
	}
}

func TestInitialPositionLegalMoveCount(t *testing.T) {
	b := newGame(t)
	assert.Len(t, b.Position().LegalMoves(board.White), 20)
}

func TestScholarsMateCheckmate(t *testing.T) {
	b := newGame(t)
	push(t, b, "e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7")

	assert.True(t, b.Position().InCheck(board.Black))
	assert.Empty(t, b.Position().LegalMoves(board.Black))

	result := b.AdjudicateNoLegalMoves()
	assert.Equal(t, board.WhiteWins, result.Outcome)
	assert.Equal(t, board.Checkmate, result.Reason)
}

func TestEnPassantCapture(t *testing.T) {
	b := newGame(t)
	push(t, b, "e2e4", "a7a6", "e4e5", "d7d5")

	m, err := board.ParseMove("e5d6")
	require.NoError(t, err)
	m.Type = board.EnPassant
	require.True(t, b.IsLegalMove(board.Move{Type: board.EnPassant, From: m.From, To: m.To, Captured: board.Pawn}))
}

func TestCastlingKingSide(t *testing.T) {
	b := newGame(t)
	push(t, b, "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6")
	push(t, b, "e1g1")
	wk, ok := b.Position().At(board.NewSquare(6, 0))
	require.True(t, ok)
	assert.Equal(t, board.King, wk.Kind)
	rook, ok := b.Position().At(board.NewSquare(5, 0))
	require.True(t, ok)
	assert.Equal(t, board.Rook, rook.Kind)
}

func TestCastlingThroughCheckIsIllegal(t *testing.T) {
	pos, err := board.NewPosition([]board.Placement{
		{Square: board.NewSquare(4, 0), Piece: board.Piece{Color: board.White, Kind: board.King}},
		{Square: board.NewSquare(7, 0), Piece: board.Piece{Color: board.White, Kind: board.Rook}},
		{Square: board.NewSquare(5, 7), Piece: board.Piece{Color: board.Black, Kind: board.Rook}},
		{Square: board.NewSquare(4, 7), Piece: board.Piece{Color: board.Black, Kind: board.King}},
	}, board.WhiteKingSide, 0, false)
	require.NoError(t, err)

	b := board.NewBoard(pos, board.White, 0, 1)
	for _, m := range b.Position().LegalMoves(board.White) {
		assert.NotEqual(t, board.KingSideCastle, m.Type, "cannot castle through f1 while attacked")
	}
}

func TestThreefoldRepetition(t *testing.T) {
	b := newGame(t)
	push(t, b, "g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8")
	assert.Equal(t, board.Draw, b.Result().Outcome)
	assert.Equal(t, board.ThreefoldRepetition, b.Result().Reason)
}

func TestInsufficientMaterialKingVsKing(t *testing.T) {
	pos, err := board.NewPosition([]board.Placement{
		{Square: board.NewSquare(4, 0), Piece: board.Piece{Color: board.White, Kind: board.King}},
		{Square: board.NewSquare(4, 7), Piece: board.Piece{Color: board.Black, Kind: board.King}},
	}, 0, 0, false)
	require.NoError(t, err)
	assert.True(t, pos.HasInsufficientMaterial())
}

func TestFENRoundTrip(t *testing.T) {
	pos, turn, np, fm, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	assert.Equal(t, fen.Initial, fen.Encode(pos, turn, np, fm))
}
