// Package retreat generates the tactical retreat option set for an attacker
// who lost a duel (spec.md §4.3), plus the Knight Retreat Oracle (§4.3.1).
package retreat

import (
	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/formula"
)

// Option is one retreat choice: a destination square and its BP cost.
type Option struct {
	Square board.Square
	Cost   int
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// SlidingOptions enumerates retreat squares for a bishop, rook or queen
// attacker whose capture from origin onto attackTarget lost its duel.
// pos is the position before the attempted capture (the attacker and
// defender are both still on the board at origin/attackTarget).
func SlidingOptions(pos *board.Position, origin, attackTarget board.Square, cost config.RetreatCost) []Option {
	df := sign(attackTarget.File() - origin.File())
	dr := sign(attackTarget.Rank() - origin.Rank())

	options := []Option{{Square: origin, Cost: 0}}

	// Squares strictly between origin and attack-target (exclusive of
	// attack-target, which is occupied by the defender).
	f, r := origin.File()+df, origin.Rank()+dr
	for board.ValidFileRank(f, r) {
		sq := board.NewSquare(f, r)
		if sq == attackTarget {
			break
		}
		options = append(options, Option{Square: sq, Cost: retreatCost(origin, sq, cost)})
		f, r = f+df, r+dr
	}

	// Squares collinear on the opposite side of origin, up to the first
	// blocking piece (exclusive of the blocker itself).
	f, r = origin.File()-df, origin.Rank()-dr
	for board.ValidFileRank(f, r) {
		sq := board.NewSquare(f, r)
		if !pos.IsEmpty(sq) {
			break
		}
		options = append(options, Option{Square: sq, Cost: retreatCost(origin, sq, cost)})
		f, r = f-df, r-dr
	}

	return options
}

func retreatCost(origin, s board.Square, cost config.RetreatCost) int {
	v := cost.BaseReturn + cost.DistanceMultiplier*float64(board.Chebyshev(origin, s))
	return formula.RoundHalfUp(v)
}

// KnightOptions enumerates retreat squares for a knight attacker, using the
// Knight Retreat Oracle when available and falling back to a direct BFS
// otherwise (spec.md §4.3 "Implementation must use the Knight Retreat
// Oracle ... A runtime fallback may recompute costs via BFS").
func KnightOptions(origin, attackTarget board.Square, useOracle bool) []Option {
	squares := boundingRectangle(origin, attackTarget)

	if useOracle {
		if opts, ok := oracleLookup(origin, attackTarget); ok {
			return opts
		}
	}

	dist := knightBFS(origin, squares)
	options := make([]Option, 0, len(squares))
	for _, sq := range squares {
		if d, ok := dist[sq]; ok {
			options = append(options, Option{Square: sq, Cost: d})
		}
	}
	return options
}

// boundingRectangle returns every square in the axis-aligned rectangle
// defined by origin and attackTarget, excluding attackTarget itself.
func boundingRectangle(origin, attackTarget board.Square) []board.Square {
	minFile, maxFile := minMax(origin.File(), attackTarget.File())
	minRank, maxRank := minMax(origin.Rank(), attackTarget.Rank())

	var squares []board.Square
	for f := minFile; f <= maxFile; f++ {
		for r := minRank; r <= maxRank; r++ {
			sq := board.NewSquare(f, r)
			if sq == attackTarget {
				continue
			}
			squares = append(squares, sq)
		}
	}
	return squares
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

// knightBFS computes the minimum number of knight hops from origin to every
// square in want, on an otherwise empty board, via breadth-first search.
func knightBFS(origin board.Square, want []board.Square) map[board.Square]int {
	target := make(map[board.Square]bool, len(want))
	for _, sq := range want {
		target[sq] = true
	}

	dist := map[board.Square]int{origin: 0}
	queue := []board.Square{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if dist[cur] >= 7 {
			continue
		}
		for _, off := range knightOffsets {
			f, r := cur.File()+off[0], cur.Rank()+off[1]
			if !board.ValidFileRank(f, r) {
				continue
			}
			next := board.NewSquare(f, r)
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[cur] + 1
			queue = append(queue, next)
		}
	}

	result := make(map[board.Square]int, len(want))
	for sq := range target {
		if d, ok := dist[sq]; ok {
			result[sq] = d
		}
	}
	return result
}
