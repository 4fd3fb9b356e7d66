package retreat_test

import (
	"testing"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/board/fen"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/retreat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sq(t *testing.T, s string) board.Square {
	t.Helper()
	v, err := board.ParseSquare(s)
	require.NoError(t, err)
	return v
}

func optionMap(opts []retreat.Option) map[board.Square]int {
	m := make(map[board.Square]int, len(opts))
	for _, o := range opts {
		m[o.Square] = o.Cost
	}
	return m
}

func TestKnightOracleScenario(t *testing.T) {
	// d4 knight attempts Nd4xf5; duel fails. Retreat options equal BFS
	// costs from d4 to every square in the d4..f5 rectangle excluding f5:
	// d4:0, e4:3, f4:2, d5:3, e5:2.
	origin := sq(t, "d4")
	target := sq(t, "f5")

	opts := retreat.KnightOptions(origin, target, true)
	got := optionMap(opts)

	want := map[board.Square]int{
		sq(t, "d4"): 0,
		sq(t, "e4"): 3,
		sq(t, "f4"): 2,
		sq(t, "d5"): 3,
		sq(t, "e5"): 2,
	}
	assert.Equal(t, want, got)
}

func TestKnightOracleMatchesBFSFallback(t *testing.T) {
	origin := sq(t, "d4")
	target := sq(t, "f5")

	oracle := optionMap(retreat.KnightOptions(origin, target, true))
	fallback := optionMap(retreat.KnightOptions(origin, target, false))
	assert.Equal(t, oracle, fallback)
}

func TestSlidingRetreatBishopLine(t *testing.T) {
	// Bishop on c1 attempted a capture on f4; position is otherwise empty
	// along the diagonal so it can retreat to any square on the line,
	// including the far side behind the origin (b2, a3-equivalent... here
	// the opposite side of c1 from f4 runs off-board immediately, so only
	// the forward squares and origin are available).
	pos, turn, _, _, err := fen.Decode("8/8/8/8/5N2/8/8/2B2k1K w - - 0 1")
	require.NoError(t, err)
	_ = turn

	origin := sq(t, "c1")
	target := sq(t, "f4")
	cost := config.RetreatCost{BaseReturn: 0, DistanceMultiplier: 1}

	opts := retreat.SlidingOptions(pos, origin, target, cost)
	got := optionMap(opts)

	assert.Equal(t, 0, got[origin])
	assert.Equal(t, 1, got[sq(t, "d2")])
	assert.Equal(t, 2, got[sq(t, "e3")])
	assert.NotContains(t, got, target)
}

func TestSlidingRetreatCostRounding(t *testing.T) {
	pos, _, _, _, err := fen.Decode("8/8/8/8/5N2/8/8/2B2k1K w - - 0 1")
	require.NoError(t, err)

	origin := sq(t, "c1")
	target := sq(t, "f4")
	cost := config.RetreatCost{BaseReturn: 0, DistanceMultiplier: 1.5}

	opts := retreat.SlidingOptions(pos, origin, target, cost)
	got := optionMap(opts)

	// Chebyshev(c1,d2) = 1 -> 1.5 rounds half-up to 2.
	assert.Equal(t, 2, got[sq(t, "d2")])
}
