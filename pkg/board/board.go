// Package board contains the chess rule kernel: board representation, move
// generation and validation, and draw-condition bookkeeping.
package board

import "fmt"

const (
	threefoldLimit     = 3
	noProgressPlyLimit = 100
)

type node struct {
	pos         *Position
	fingerprint string
	noprogress  int

	next Move // move leading to the next node, if any
	prev *node
}

// Board represents a chess board, its metadata, and the history of
// positions needed to adjudicate draw conditions. Not thread-safe; callers
// needing concurrent access (pkg/state) own it exclusively behind a mutex.
type Board struct {
	repetitions map[string]int

	fullmoves int
	turn      Color
	result    Result
	current   *node
}

// NewBoard constructs a board at the given position.
func NewBoard(pos *Position, turn Color, noprogress, fullmoves int) *Board {
	current := &node{pos: pos, noprogress: noprogress, fingerprint: fingerprint(pos, turn)}
	return &Board{
		repetitions: map[string]int{current.fingerprint: 1},
		fullmoves:   fullmoves,
		turn:        turn,
		current:     current,
	}
}

// fingerprint is the position fingerprint used for threefold detection:
// piece placement, side-to-move, castling rights and en passant target.
func fingerprint(pos *Position, turn Color) string {
	return fmt.Sprintf("%v|%v", pos, turn)
}

// Fork branches off a new board sharing the node history for past
// positions. The shared history must not be mutated via PopMove on the
// fork, as forward links would become stale for the original.
func (b *Board) Fork() *Board {
	fork := &Board{
		repetitions: map[string]int{},
		fullmoves:   b.fullmoves,
		turn:        b.turn,
		result:      b.result,
		current: &node{
			pos:         b.current.pos,
			fingerprint: b.current.fingerprint,
			noprogress:  b.current.noprogress,
			prev:        b.current.prev,
		},
	}
	for k, v := range b.repetitions {
		fork.repetitions[k] = v
	}
	return fork
}

func (b *Board) Position() *Position { return b.current.pos }
func (b *Board) Turn() Color         { return b.turn }
func (b *Board) NoProgress() int     { return b.current.noprogress }
func (b *Board) FullMoves() int      { return b.fullmoves }
func (b *Board) Result() Result      { return b.result }

// PositionHistory returns the fingerprint of the current position and every
// ancestor, most recent first, matching spec.md's positionHistory field.
func (b *Board) PositionHistory() []string {
	var ret []string
	for n := b.current; n != nil; n = n.prev {
		ret = append(ret, n.fingerprint)
	}
	return ret
}

// IsLegalMove returns true iff m, as generated by Position.LegalMoves, is
// legal in the current position (from the side to move).
func (b *Board) IsLegalMove(m Move) bool {
	for _, cand := range b.current.pos.LegalMoves(b.turn) {
		if cand.Equals(m) {
			return true
		}
	}
	return false
}

// PushMove attempts to make a legal move. Returns true iff legal; the board
// is unmodified if not.
func (b *Board) PushMove(m Move) bool {
	if b.result.IsTerminal() {
		return false
	}

	var applied Move
	found := false
	for _, cand := range b.current.pos.LegalMoves(b.turn) {
		if cand.Equals(m) {
			applied, found = cand, true
			break
		}
	}
	if !found {
		return false
	}

	next := b.current.pos.Apply(applied)
	mover := b.turn

	n := &node{
		pos:         next,
		fingerprint: fingerprint(next, mover.Opponent()),
		noprogress:  updateNoProgress(b.current.noprogress, applied),
		prev:        b.current,
	}

	b.current.next = applied
	b.current = n
	b.turn = mover.Opponent()
	b.repetitions[n.fingerprint]++
	if b.turn == White {
		b.fullmoves++
	}

	if b.repetitions[n.fingerprint] >= threefoldLimit {
		b.result = Result{Outcome: Draw, Reason: ThreefoldRepetition}
	}
	if b.current.noprogress >= noProgressPlyLimit {
		b.result = Result{Outcome: Draw, Reason: FiftyMoveRule}
	}
	if next.HasInsufficientMaterial() {
		b.result = Result{Outcome: Draw, Reason: InsufficientMaterial}
	}

	return true
}

// PushRetreat commits a Gambit tactical retreat: the piece at from
// relocates to to (which must be empty, or equal to from for a retreat to
// the origin square) outside the normal chess movement rules. Unlike
// PushMove this is not validated against LegalMoves, since retreat
// geometry is generated and validated separately (pkg/retreat); callers
// are expected to have already checked to is a member of that option set.
func (b *Board) PushRetreat(from, to Square) bool {
	if b.result.IsTerminal() {
		return false
	}

	next := b.current.pos.Retreat(from, to)
	mover := b.turn

	n := &node{
		pos:         next,
		fingerprint: fingerprint(next, mover.Opponent()),
		noprogress:  b.current.noprogress + 1,
		prev:        b.current,
	}

	b.current.next = Move{Type: Retreat, From: from, To: to}
	b.current = n
	b.turn = mover.Opponent()
	b.repetitions[n.fingerprint]++
	if b.turn == White {
		b.fullmoves++
	}

	if b.repetitions[n.fingerprint] >= threefoldLimit {
		b.result = Result{Outcome: Draw, Reason: ThreefoldRepetition}
	}
	if b.current.noprogress >= noProgressPlyLimit {
		b.result = Result{Outcome: Draw, Reason: FiftyMoveRule}
	}
	if next.HasInsufficientMaterial() {
		b.result = Result{Outcome: Draw, Reason: InsufficientMaterial}
	}

	return true
}

// PushLoss commits pieceLossRules.attackerCanLosePiece's resolution of a
// lost duel: the attacker at sq is removed from the board instead of
// retreating.
func (b *Board) PushLoss(sq Square) bool {
	if b.result.IsTerminal() {
		return false
	}

	next := b.current.pos.RemovePiece(sq)
	mover := b.turn

	n := &node{
		pos:         next,
		fingerprint: fingerprint(next, mover.Opponent()),
		noprogress:  b.current.noprogress + 1,
		prev:        b.current,
	}

	b.current.next = Move{Type: PieceLoss, From: sq, To: sq}
	b.current = n
	b.turn = mover.Opponent()
	b.repetitions[n.fingerprint]++
	if b.turn == White {
		b.fullmoves++
	}

	if b.repetitions[n.fingerprint] >= threefoldLimit {
		b.result = Result{Outcome: Draw, Reason: ThreefoldRepetition}
	}
	if b.current.noprogress >= noProgressPlyLimit {
		b.result = Result{Outcome: Draw, Reason: FiftyMoveRule}
	}
	if next.HasInsufficientMaterial() {
		b.result = Result{Outcome: Draw, Reason: InsufficientMaterial}
	}

	return true
}

// PopMove undoes the last move, if any.
func (b *Board) PopMove() (Move, bool) {
	if b.current.prev == nil {
		return Move{}, false
	}

	b.turn = b.turn.Opponent()
	b.repetitions[b.current.fingerprint]--
	b.result = Result{}
	if b.turn == Black {
		b.fullmoves--
	}

	b.current = b.current.prev
	m := b.current.next
	b.current.next = Move{}
	return m, true
}

// AdjudicateNoLegalMoves adjudicates the position assuming the side to move
// has no legal moves: Checkmate if in check, Stalemate otherwise.
func (b *Board) AdjudicateNoLegalMoves() Result {
	result := Result{Outcome: Draw, Reason: Stalemate}
	if b.current.pos.InCheck(b.turn) {
		result = Result{Outcome: Loss(b.turn), Reason: Checkmate}
	}
	b.Adjudicate(result)
	return result
}

// Adjudicate forces a result, e.g. resignation or draw agreement.
func (b *Board) Adjudicate(result Result) {
	b.result = result
}

// LastMove returns the most recently applied move, if any.
func (b *Board) LastMove() (Move, bool) {
	if b.current.prev != nil {
		return b.current.prev.next, true
	}
	return Move{}, false
}

func (b *Board) String() string {
	return fmt.Sprintf("board{pos=%v, turn=%v, noprogress=%v, fullmoves=%v, result=%v}",
		b.current.pos, b.turn, b.current.noprogress, b.fullmoves, b.result)
}

func updateNoProgress(old int, m Move) int {
	if m.Type != Normal && m.Type != KingSideCastle && m.Type != QueenSideCastle {
		return 0
	}
	return old + 1
}
