package board

import (
	"fmt"
	"strings"
)

// Placement places a piece on a square, used to build a Position.
type Placement struct {
	Square Square
	Piece  Piece
}

// Position represents a board position suitable for move generation: piece
// placement, castling rights and the en passant target square. It carries
// no game-level metadata (move counters, draw history) -- see Board.
type Position struct {
	squares   [64]Piece
	castling  Castling
	enPassant Square
	hasEP     bool
}

// NewPosition builds a position from an explicit placement list.
func NewPosition(pieces []Placement, castling Castling, ep Square, hasEP bool) (*Position, error) {
	ret := &Position{castling: castling, enPassant: ep, hasEP: hasEP}

	kings := [NumColors]int{}
	for _, p := range pieces {
		if ret.squares[p.Square].Kind != NoKind {
			return nil, fmt.Errorf("duplicate placement on %v", p.Square)
		}
		ret.squares[p.Square] = p.Piece
		if p.Piece.Kind == King {
			kings[p.Piece.Color]++
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return nil, fmt.Errorf("invalid number of kings: white=%d black=%d", kings[White], kings[Black])
	}
	wk, _ := ret.KingSquare(White)
	bk, _ := ret.KingSquare(Black)
	if Chebyshev(wk, bk) <= 1 {
		return nil, fmt.Errorf("kings cannot be adjacent")
	}
	return ret, nil
}

func (p *Position) Castling() Castling {
	return p.castling
}

// EnPassant returns the target en passant square, if the previous move was
// a double pawn push.
func (p *Position) EnPassant() (Square, bool) {
	return p.enPassant, p.hasEP
}

// At returns the piece on the given square. ok is false if empty.
func (p *Position) At(sq Square) (Piece, bool) {
	pc := p.squares[sq]
	return pc, pc.Kind != NoKind
}

func (p *Position) IsEmpty(sq Square) bool {
	return p.squares[sq].Kind == NoKind
}

func (p *Position) KingSquare(c Color) (Square, bool) {
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.squares[sq]
		if pc.Kind == King && pc.Color == c {
			return sq, true
		}
	}
	return 0, false
}

var knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
var queenDirs = append(append([][2]int{}, bishopDirs[:]...), rookDirs[:]...)

// IsAttacked returns true iff sq is attacked by the given color.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	f, r := sq.File(), sq.Rank()

	for _, o := range knightOffsets {
		if ValidFileRank(f+o[0], r+o[1]) {
			if pc, ok := p.At(NewSquare(f+o[0], r+o[1])); ok && pc.Color == by && pc.Kind == Knight {
				return true
			}
		}
	}
	for _, o := range kingOffsets {
		if ValidFileRank(f+o[0], r+o[1]) {
			if pc, ok := p.At(NewSquare(f+o[0], r+o[1])); ok && pc.Color == by && pc.Kind == King {
				return true
			}
		}
	}
	for _, d := range bishopDirs {
		if p.rayHits(f, r, d, by, Bishop, Queen) {
			return true
		}
	}
	for _, d := range rookDirs {
		if p.rayHits(f, r, d, by, Rook, Queen) {
			return true
		}
	}

	// Pawn attacks: a pawn of color `by` on (f-dir, r-pawnDir) attacks sq,
	// where dir is the direction that color's pawns capture toward.
	pawnRankDelta := -1
	if by == White {
		pawnRankDelta = -1 // white pawn attacks from one rank below
	} else {
		pawnRankDelta = 1
	}
	for _, df := range [2]int{-1, 1} {
		pf, pr := f+df, r+pawnRankDelta
		if ValidFileRank(pf, pr) {
			if pc, ok := p.At(NewSquare(pf, pr)); ok && pc.Color == by && pc.Kind == Pawn {
				return true
			}
		}
	}
	return false
}

func (p *Position) rayHits(f, r int, d [2]int, by Color, kinds ...Kind) bool {
	cf, cr := f+d[0], r+d[1]
	for ValidFileRank(cf, cr) {
		sq := NewSquare(cf, cr)
		if pc, ok := p.At(sq); ok {
			if pc.Color == by {
				for _, k := range kinds {
					if pc.Kind == k {
						return true
					}
				}
			}
			return false
		}
		cf += d[0]
		cr += d[1]
	}
	return false
}

func (p *Position) InCheck(c Color) bool {
	sq, ok := p.KingSquare(c)
	return ok && p.IsAttacked(sq, c.Opponent())
}

// PseudoLegalMoves generates moves for color without filtering for
// leaving-own-king-in-check; castling excludes moving through or out of
// check, since that is static given the position.
func (p *Position) PseudoLegalMoves(c Color) []Move {
	var moves []Move
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.squares[sq]
		if pc.Kind == NoKind || pc.Color != c {
			continue
		}
		switch pc.Kind {
		case Pawn:
			p.genPawnMoves(sq, c, &moves)
		case Knight:
			p.genOffsetMoves(sq, c, knightOffsets[:], &moves)
		case King:
			p.genOffsetMoves(sq, c, kingOffsets[:], &moves)
			p.genCastles(c, &moves)
		case Bishop:
			p.genSlideMoves(sq, c, bishopDirs[:], &moves)
		case Rook:
			p.genSlideMoves(sq, c, rookDirs[:], &moves)
		case Queen:
			p.genSlideMoves(sq, c, queenDirs[:], &moves)
		}
	}
	return moves
}

func (p *Position) genOffsetMoves(sq Square, c Color, offsets [][2]int, moves *[]Move) {
	f, r := sq.File(), sq.Rank()
	for _, o := range offsets {
		nf, nr := f+o[0], r+o[1]
		if !ValidFileRank(nf, nr) {
			continue
		}
		to := NewSquare(nf, nr)
		if pc, ok := p.At(to); ok {
			if pc.Color != c {
				*moves = append(*moves, Move{Type: Capture, From: sq, To: to, Captured: pc.Kind})
			}
			continue
		}
		*moves = append(*moves, Move{Type: Normal, From: sq, To: to})
	}
}

func (p *Position) genSlideMoves(sq Square, c Color, dirs [][2]int, moves *[]Move) {
	f, r := sq.File(), sq.Rank()
	for _, d := range dirs {
		nf, nr := f+d[0], r+d[1]
		for ValidFileRank(nf, nr) {
			to := NewSquare(nf, nr)
			if pc, ok := p.At(to); ok {
				if pc.Color != c {
					*moves = append(*moves, Move{Type: Capture, From: sq, To: to, Captured: pc.Kind})
				}
				break
			}
			*moves = append(*moves, Move{Type: Normal, From: sq, To: to})
			nf += d[0]
			nr += d[1]
		}
	}
}

func (p *Position) genPawnMoves(sq Square, c Color, moves *[]Move) {
	f, r := sq.File(), sq.Rank()
	dir, startRank, promoRank := 1, 1, 7
	if c == Black {
		dir, startRank, promoRank = -1, 6, 0
	}

	emitForward := func(to Square, typ MoveType) {
		if to.Rank() == promoRank {
			for _, promo := range []Kind{Queen, Rook, Bishop, Knight} {
				*moves = append(*moves, Move{Type: Promotion, From: sq, To: to, Promotion: promo})
			}
			return
		}
		*moves = append(*moves, Move{Type: typ, From: sq, To: to})
	}

	// single push
	if ValidFileRank(f, r+dir) && p.IsEmpty(NewSquare(f, r+dir)) {
		emitForward(NewSquare(f, r+dir), Push)

		// double push
		if r == startRank && p.IsEmpty(NewSquare(f, r+2*dir)) {
			*moves = append(*moves, Move{Type: DoublePush, From: sq, To: NewSquare(f, r+2*dir)})
		}
	}

	// captures
	for _, df := range [2]int{-1, 1} {
		nf, nr := f+df, r+dir
		if !ValidFileRank(nf, nr) {
			continue
		}
		to := NewSquare(nf, nr)
		if pc, ok := p.At(to); ok && pc.Color != c {
			if to.Rank() == promoRank {
				for _, promo := range []Kind{Queen, Rook, Bishop, Knight} {
					*moves = append(*moves, Move{Type: CapturePromotion, From: sq, To: to, Promotion: promo, Captured: pc.Kind})
				}
			} else {
				*moves = append(*moves, Move{Type: Capture, From: sq, To: to, Captured: pc.Kind})
			}
			continue
		}
		if ep, ok := p.EnPassant(); ok && ep == to {
			*moves = append(*moves, Move{Type: EnPassant, From: sq, To: to, Captured: Pawn})
		}
	}
}

func (p *Position) genCastles(c Color, moves *[]Move) {
	opp := c.Opponent()
	rank := 0
	if c == Black {
		rank = 7
	}
	kingFrom := NewSquare(4, rank)
	if pc, ok := p.At(kingFrom); !ok || pc.Kind != King || pc.Color != c {
		return
	}
	if p.IsAttacked(kingFrom, opp) {
		return
	}

	kingSide, queenSide := WhiteKingSide, WhiteQueenSide
	if c == Black {
		kingSide, queenSide = BlackKingSide, BlackQueenSide
	}

	if p.castling.IsAllowed(kingSide) &&
		p.IsEmpty(NewSquare(5, rank)) && p.IsEmpty(NewSquare(6, rank)) &&
		!p.IsAttacked(NewSquare(5, rank), opp) && !p.IsAttacked(NewSquare(6, rank), opp) {
		*moves = append(*moves, Move{Type: KingSideCastle, From: kingFrom, To: NewSquare(6, rank)})
	}
	if p.castling.IsAllowed(queenSide) &&
		p.IsEmpty(NewSquare(3, rank)) && p.IsEmpty(NewSquare(2, rank)) && p.IsEmpty(NewSquare(1, rank)) &&
		!p.IsAttacked(NewSquare(3, rank), opp) && !p.IsAttacked(NewSquare(2, rank), opp) {
		*moves = append(*moves, Move{Type: QueenSideCastle, From: kingFrom, To: NewSquare(2, rank)})
	}
}

// LegalMoves filters PseudoLegalMoves for moves that leave the mover's own
// king in check.
func (p *Position) LegalMoves(c Color) []Move {
	var ret []Move
	for _, m := range p.PseudoLegalMoves(c) {
		next := p.Apply(m)
		if !next.InCheck(c) {
			ret = append(ret, m)
		}
	}
	return ret
}

// Apply returns the resulting position of applying m, assumed pseudo-legal.
// Apply does not validate legality (king safety); use LegalMoves or
// IsLegalMove for that.
func (p *Position) Apply(m Move) *Position {
	next := *p
	pc := next.squares[m.From]
	next.squares[m.From] = Piece{}
	next.hasEP = false

	switch m.Type {
	case EnPassant:
		capSq := NewSquare(m.To.File(), m.From.Rank())
		next.squares[capSq] = Piece{}
		next.squares[m.To] = pc
	case DoublePush:
		next.squares[m.To] = pc
		mid := NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
		next.enPassant, next.hasEP = mid, true
	case Promotion, CapturePromotion:
		next.squares[m.To] = Piece{Color: pc.Color, Kind: m.Promotion}
	case KingSideCastle, QueenSideCastle:
		next.squares[m.To] = pc
		rank := m.From.Rank()
		if m.Type == KingSideCastle {
			rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
			next.squares[rookTo] = next.squares[rookFrom]
			next.squares[rookFrom] = Piece{}
		} else {
			rookFrom, rookTo := NewSquare(0, rank), NewSquare(3, rank)
			next.squares[rookTo] = next.squares[rookFrom]
			next.squares[rookFrom] = Piece{}
		}
	default:
		next.squares[m.To] = pc
	}

	// castling rights updates: losing the king or a rook's home square
	// forfeits the corresponding rights, whether by moving from or onto it.
	clearRightsTouching := func(sq Square) {
		switch sq {
		case NewSquare(4, 0):
			next.castling = next.castling.Without(WhiteKingSide | WhiteQueenSide)
		case NewSquare(4, 7):
			next.castling = next.castling.Without(BlackKingSide | BlackQueenSide)
		case NewSquare(0, 0):
			next.castling = next.castling.Without(WhiteQueenSide)
		case NewSquare(7, 0):
			next.castling = next.castling.Without(WhiteKingSide)
		case NewSquare(0, 7):
			next.castling = next.castling.Without(BlackQueenSide)
		case NewSquare(7, 7):
			next.castling = next.castling.Without(BlackKingSide)
		}
	}
	clearRightsTouching(m.From)
	clearRightsTouching(m.To)

	return &next
}

// Retreat returns the position resulting from relocating the piece at from
// to the empty square to, outside the normal movement rules: used for a
// Gambit tactical retreat, not a chess move. Clears any en passant target.
// If from == to, the position is otherwise unchanged (the no-op case of
// retreating to the origin square). Castling rights touching either square
// are forfeited, matching Apply's rule.
func (p *Position) Retreat(from, to Square) *Position {
	next := *p
	pc := next.squares[from]
	next.squares[from] = Piece{}
	next.squares[to] = pc
	next.hasEP = false

	clearRightsTouching := func(sq Square) {
		switch sq {
		case NewSquare(4, 0):
			next.castling = next.castling.Without(WhiteKingSide | WhiteQueenSide)
		case NewSquare(4, 7):
			next.castling = next.castling.Without(BlackKingSide | BlackQueenSide)
		case NewSquare(0, 0):
			next.castling = next.castling.Without(WhiteQueenSide)
		case NewSquare(7, 0):
			next.castling = next.castling.Without(WhiteKingSide)
		case NewSquare(0, 7):
			next.castling = next.castling.Without(BlackQueenSide)
		case NewSquare(7, 7):
			next.castling = next.castling.Without(BlackKingSide)
		}
	}
	clearRightsTouching(from)
	clearRightsTouching(to)

	return &next
}

// RemovePiece returns the position resulting from removing the piece at sq,
// used when pieceLossRules.attackerCanLosePiece resolves a lost duel by
// removing the attacker instead of retreating it.
func (p *Position) RemovePiece(sq Square) *Position {
	next := *p
	next.squares[sq] = Piece{}
	next.hasEP = false
	return &next
}

// HasInsufficientMaterial returns true iff neither side has enough material
// to deliver checkmate: K vs K, K+minor vs K, or K+B vs K+B on same-colored
// bishops are all considered insufficient; any pawn, rook or queen, or two+
// minors on one side, is sufficient.
func (p *Position) HasInsufficientMaterial() bool {
	var minors [NumColors]int
	var bishopSquareColor [NumColors][]int // 0 or 1, color of the square the bishop sits on

	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.squares[sq]
		switch pc.Kind {
		case NoKind, King:
			continue
		case Knight:
			minors[pc.Color]++
		case Bishop:
			minors[pc.Color]++
			bishopSquareColor[pc.Color] = append(bishopSquareColor[pc.Color], (sq.File()+sq.Rank())%2)
		default:
			return false // pawn, rook, queen: always sufficient
		}
	}

	total := minors[White] + minors[Black]
	switch total {
	case 0:
		return true
	case 1:
		return true // single minor vs bare king
	case 2:
		if minors[White] == 1 && minors[Black] == 1 && len(bishopSquareColor[White]) == 1 && len(bishopSquareColor[Black]) == 1 {
			return bishopSquareColor[White][0] == bishopSquareColor[Black][0]
		}
		return false
	default:
		return false
	}
}

func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		run := 0
		for file := 0; file < 8; file++ {
			pc, ok := p.At(NewSquare(file, rank))
			if !ok {
				run++
				continue
			}
			if run > 0 {
				fmt.Fprintf(&sb, "%d", run)
				run = 0
			}
			sb.WriteString(pc.String())
		}
		if run > 0 {
			fmt.Fprintf(&sb, "%d", run)
		}
		if rank > 0 {
			sb.WriteRune('/')
		}
	}
	ep := "-"
	if sq, ok := p.EnPassant(); ok {
		ep = sq.String()
	}
	return fmt.Sprintf("%v %v(%v)", sb.String(), p.castling, ep)
}
