// Package fen contains utilities for reading and writing positions in FEN
// (Forsyth-Edwards Notation).
package fen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/gambit-chess/engine/pkg/board"
)

const Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Decode returns a new position and game status from a FEN description.
func Decode(fen string) (*board.Position, board.Color, int, int, error) {
	parts := strings.Split(strings.TrimSpace(fen), " ")
	if len(parts) != 6 {
		return nil, 0, 0, 0, fmt.Errorf("invalid number of sections in FEN: %q", fen)
	}

	// (1) Piece placement, rank 8 down to rank 1, file a to file h within a rank.

	var pieces []board.Placement

	rank := 7
	file := 0
	for _, r := range parts[0] {
		switch {
		case r == '/':
			rank--
			file = 0
		case unicode.IsDigit(r):
			file += int(r - '0')
		case unicode.IsLetter(r):
			k, ok := board.ParseKind(r)
			if !ok {
				return nil, 0, 0, 0, fmt.Errorf("invalid piece %q in FEN: %q", r, fen)
			}
			color := board.Black
			if unicode.IsUpper(r) {
				color = board.White
			}
			if !board.ValidFileRank(file, rank) {
				return nil, 0, 0, 0, fmt.Errorf("invalid placement in FEN: %q", fen)
			}
			pieces = append(pieces, board.Placement{Square: board.NewSquare(file, rank), Piece: board.Piece{Color: color, Kind: k}})
			file++
		default:
			return nil, 0, 0, 0, fmt.Errorf("invalid character in FEN: %q", fen)
		}
	}

	// (2) Active color.

	active, ok := board.ParseColor(fenColorWord(parts[1]))
	if !ok {
		return nil, 0, 0, 0, fmt.Errorf("invalid active color in FEN: %q", fen)
	}

	// (3) Castling availability.

	castling, ok := board.ParseCastling(parts[2])
	if !ok {
		return nil, 0, 0, 0, fmt.Errorf("invalid castling in FEN: %q", fen)
	}

	// (4) En passant target square.

	var ep board.Square
	hasEP := false
	if parts[3] != "-" {
		sq, err := board.ParseSquare(parts[3])
		if err != nil {
			return nil, 0, 0, 0, fmt.Errorf("invalid en passant in FEN: %q", fen)
		}
		ep, hasEP = sq, true
	}

	// (5) Halfmove clock.

	np, err := strconv.Atoi(parts[4])
	if err != nil || np < 0 {
		return nil, 0, 0, 0, fmt.Errorf("invalid halfmove clock in FEN: %q", fen)
	}

	// (6) Fullmove number.

	fm, err := strconv.Atoi(parts[5])
	if err != nil || fm < 1 {
		return nil, 0, 0, 0, fmt.Errorf("invalid fullmove number in FEN: %q", fen)
	}

	pos, err := board.NewPosition(pieces, castling, ep, hasEP)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	return pos, active, np, fm, nil
}

// Encode encodes the position and game metadata in FEN notation.
func Encode(pos *board.Position, c board.Color, noprogress, fullmoves int) string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		blanks := 0
		for file := 0; file < 8; file++ {
			pc, ok := pos.At(board.NewSquare(file, rank))
			if !ok {
				blanks++
				continue
			}
			if blanks > 0 {
				sb.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}
			sb.WriteString(pc.String())
		}
		if blanks > 0 {
			sb.WriteString(strconv.Itoa(blanks))
		}
		if rank > 0 {
			sb.WriteString("/")
		}
	}

	ep := "-"
	if sq, ok := pos.EnPassant(); ok {
		ep = sq.String()
	}

	return fmt.Sprintf("%v %v %v %v %v %v", sb.String(), c, pos.Castling(), ep, noprogress, fullmoves)
}

// Prefix returns the portion of a FEN string used for threefold-repetition
// fingerprinting: placement, side-to-move, castling rights and en passant
// target, without the move counters.
func Prefix(fen string) string {
	parts := strings.Split(strings.TrimSpace(fen), " ")
	if len(parts) < 4 {
		return fen
	}
	return strings.Join(parts[:4], " ")
}

func fenColorWord(s string) string {
	switch s {
	case "w", "W":
		return "w"
	case "b", "B":
		return "b"
	default:
		return s
	}
}
