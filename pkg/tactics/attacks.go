package tactics

import "github.com/gambit-chess/engine/pkg/board"

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

var kingOffsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func slidingDirs(k board.Kind) [][2]int {
	switch k {
	case board.Bishop:
		return bishopDirs[:]
	case board.Rook:
		return rookDirs[:]
	case board.Queen:
		dirs := make([][2]int, 0, 8)
		dirs = append(dirs, bishopDirs[:]...)
		dirs = append(dirs, rookDirs[:]...)
		return dirs
	default:
		return nil
	}
}

// walkRay lists the squares from (exclusive) outward in direction (df, dr)
// to the edge of the board.
func walkRay(from board.Square, df, dr int) []board.Square {
	var squares []board.Square
	f, r := from.File()+df, from.Rank()+dr
	for board.ValidFileRank(f, r) {
		squares = append(squares, board.NewSquare(f, r))
		f, r = f+df, r+dr
	}
	return squares
}

// firstOccupied returns the first occupied square (and its piece) along the
// ray from from in direction (df, dr), not including from itself.
func firstOccupied(pos *board.Position, from board.Square, df, dr int) (board.Square, board.Piece, bool) {
	for _, sq := range walkRay(from, df, dr) {
		if p, ok := pos.At(sq); ok {
			return sq, p, true
		}
	}
	return 0, board.Piece{}, false
}

// direction returns the unit step from a to b if they are aligned on a
// rank, file, or diagonal; ok is false otherwise (or if a == b).
func direction(a, b board.Square) (df, dr int, ok bool) {
	fdiff := b.File() - a.File()
	rdiff := b.Rank() - a.Rank()
	if fdiff == 0 && rdiff == 0 {
		return 0, 0, false
	}
	if fdiff == 0 {
		return 0, sign(rdiff), true
	}
	if rdiff == 0 {
		return sign(fdiff), 0, true
	}
	if abs(fdiff) == abs(rdiff) {
		return sign(fdiff), sign(rdiff), true
	}
	return 0, 0, false
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func dirSupportsKind(k board.Kind, df, dr int) bool {
	for _, d := range slidingDirs(k) {
		if d[0] == df && d[1] == dr {
			return true
		}
	}
	return false
}

// attacksFrom returns every enemy-or-friendly occupied square that the
// piece at sq attacks (covers), used for fork and direct-defense detection.
// Sliding pieces attack only the first occupied square along each ray.
func attacksFrom(pos *board.Position, sq board.Square, piece board.Piece) []board.Square {
	var out []board.Square
	switch piece.Kind {
	case board.Knight:
		for _, off := range knightOffsets {
			f, r := sq.File()+off[0], sq.Rank()+off[1]
			if board.ValidFileRank(f, r) {
				t := board.NewSquare(f, r)
				if _, ok := pos.At(t); ok {
					out = append(out, t)
				}
			}
		}
	case board.King:
		for _, off := range kingOffsets {
			f, r := sq.File()+off[0], sq.Rank()+off[1]
			if board.ValidFileRank(f, r) {
				t := board.NewSquare(f, r)
				if _, ok := pos.At(t); ok {
					out = append(out, t)
				}
			}
		}
	case board.Pawn:
		dr := 1
		if piece.Color == board.Black {
			dr = -1
		}
		for _, df := range []int{-1, 1} {
			f, r := sq.File()+df, sq.Rank()+dr
			if board.ValidFileRank(f, r) {
				t := board.NewSquare(f, r)
				if _, ok := pos.At(t); ok {
					out = append(out, t)
				}
			}
		}
	case board.Bishop, board.Rook, board.Queen:
		for _, d := range slidingDirs(piece.Kind) {
			if t, _, ok := firstOccupied(pos, sq, d[0], d[1]); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// attackersOf returns the squares of every by-colored piece that attacks
// target on pos.
func attackersOf(pos *board.Position, target board.Square, by board.Color) []board.Square {
	var out []board.Square
	for s := board.Square(0); s < board.NumSquares; s++ {
		p, ok := pos.At(s)
		if !ok || p.Color != by {
			continue
		}
		for _, t := range attacksFrom(pos, s, p) {
			if t == target {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
