package board

import "fmt"

// MoveType indicates the type of move. The halfmove clock resets with any
// pawn move or capture.
type MoveType uint8

const (
	Normal MoveType = iota
	Push            // pawn single push
	DoublePush      // pawn two-square push
	EnPassant       // implicitly a pawn capture
	KingSideCastle
	QueenSideCastle
	Capture
	Promotion
	CapturePromotion

	// Retreat and PieceLoss are not ordinary chess moves: they record a
	// Gambit tactical retreat (piece relocated outside normal movement
	// rules after a lost duel) and a configurable attacker-piece-loss
	// resolution, respectively. Neither is ever produced by
	// Position.LegalMoves.
	Retreat
	PieceLoss
)

// Move represents a not-necessarily-legal move along with contextual
// metadata needed to apply and unapply it.
type Move struct {
	Type      MoveType
	From, To  Square
	Promotion Kind // desired piece for promotion, if any
	Captured  Kind // kind of the captured piece, if any
}

// IsCapture returns true iff the move is of a capturing type, including
// en passant.
func (m Move) IsCapture() bool {
	return m.Type == Capture || m.Type == CapturePromotion || m.Type == EnPassant
}

// ParseMove parses a move in pure algebraic coordinate notation, such as
// "e2e4" or "a7a8q". The parsed move carries no contextual information;
// Board.IsLegalMove and Board.PushMove re-derive type/capture by matching
// it against LegalMoves.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)
	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: %q", str)
	}

	from, err := ParseSquare(string(runes[0:2]))
	if err != nil {
		return Move{}, fmt.Errorf("invalid from in %q: %w", str, err)
	}
	to, err := ParseSquare(string(runes[2:4]))
	if err != nil {
		return Move{}, fmt.Errorf("invalid to in %q: %w", str, err)
	}

	if len(runes) == 5 {
		promo, ok := ParseKind(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion in %q", str)
		}
		return Move{From: from, To: to, Promotion: promo}, nil
	}
	return Move{From: from, To: to}, nil
}

func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) String() string {
	if m.Promotion.IsValid() {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}
