// Package gambit implements the Gambit Overlay duel sub-machine: sealed-bid
// auctions that replace an ordinary chess capture with a bid-then-resolve
// step, per spec.md §4.2.
package gambit

import (
	"fmt"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Outcome is the result of a resolved duel.
type Outcome uint8

const (
	Undecided Outcome = iota
	AttackerWins
	DefenderWins
)

func (o Outcome) String() string {
	switch o {
	case AttackerWins:
		return "attacker-wins"
	case DefenderWins:
		return "defender-wins"
	default:
		return "undecided"
	}
}

// PendingDuel is the sealed-bid auction opened when the kernel admits a
// capture move. Neither side observes the other's allocation until both
// have committed (spec.md §4.2 step 3).
type PendingDuel struct {
	Move           board.Move
	AttackerColor  board.Color
	DefenderColor  board.Color
	AttackerPiece  board.Piece
	DefenderPiece  board.Piece

	AttackerAllocation lang.Optional[int]
	DefenderAllocation lang.Optional[int]
}

// NewPendingDuel opens a duel over move, where attacker's piece is
// attempting to capture defender's piece.
func NewPendingDuel(move board.Move, attacker, defender board.Color, attackerPiece, defenderPiece board.Piece) *PendingDuel {
	return &PendingDuel{
		Move:          move,
		AttackerColor: attacker,
		DefenderColor: defender,
		AttackerPiece: attackerPiece,
		DefenderPiece: defenderPiece,
	}
}

// Allocate records player's sealed bid. It is an error to allocate for a
// color that isn't a participant, or to allocate twice for the same side
// (spec.md §4.2 concurrency contract: "any duplicate allocation from the
// same player is rejected").
func (d *PendingDuel) Allocate(color board.Color, amount int) error {
	if amount < 0 {
		return fmt.Errorf("gambit: negative allocation %d", amount)
	}
	switch color {
	case d.AttackerColor:
		if _, ok := d.AttackerAllocation.V(); ok {
			return fmt.Errorf("gambit: attacker already allocated")
		}
		d.AttackerAllocation = lang.Some(amount)
	case d.DefenderColor:
		if _, ok := d.DefenderAllocation.V(); ok {
			return fmt.Errorf("gambit: defender already allocated")
		}
		d.DefenderAllocation = lang.Some(amount)
	default:
		return fmt.Errorf("gambit: color %v is not a participant in this duel", color)
	}
	return nil
}

// Ready reports whether both sides have committed an allocation.
func (d *PendingDuel) Ready() bool {
	_, attacker := d.AttackerAllocation.V()
	_, defender := d.DefenderAllocation.V()
	return attacker && defender
}

// Resolution is the outcome of a fully-allocated duel: who won, and the
// nominal (debited) and effective (compared) cost each side paid.
type Resolution struct {
	Outcome Outcome

	AttackerNominal   int
	DefenderNominal   int
	AttackerEffective int
	DefenderEffective int
}

// EffectiveCost applies spec.md §4.2's "double cost above capacity" rule:
// spend up to capacity counts at face value; spend between capacity and
// maxPieceBattlePoints counts at double the marginal rate; spend above
// maxPieceBattlePoints is clamped.
func EffectiveCost(amount, capacity, maxPieceBattlePoints int) int {
	clamped := amount
	if maxPieceBattlePoints > 0 && clamped > maxPieceBattlePoints {
		clamped = maxPieceBattlePoints
	}
	if clamped <= capacity {
		return clamped
	}
	return capacity + 2*(clamped-capacity)
}

// Resolve computes the duel outcome once both sides have allocated. It does
// not mutate d or any player's BP; callers (pkg/state) apply the returned
// Resolution to the authoritative GameState.
func Resolve(d *PendingDuel, cfg config.Config) (Resolution, error) {
	attackerAmount, ok := d.AttackerAllocation.V()
	if !ok {
		return Resolution{}, fmt.Errorf("gambit: attacker has not allocated")
	}
	defenderAmount, ok := d.DefenderAllocation.V()
	if !ok {
		return Resolution{}, fmt.Errorf("gambit: defender has not allocated")
	}

	attackerCapacity := cfg.CapacityFor(d.AttackerPiece.Kind.String())
	defenderCapacity := cfg.CapacityFor(d.DefenderPiece.Kind.String())

	attackerEffective := EffectiveCost(attackerAmount, attackerCapacity, cfg.MaxPieceBattlePoints)
	defenderEffective := EffectiveCost(defenderAmount, defenderCapacity, cfg.MaxPieceBattlePoints)

	res := Resolution{
		AttackerNominal:   clampAmount(attackerAmount, cfg.MaxPieceBattlePoints),
		DefenderNominal:   clampAmount(defenderAmount, cfg.MaxPieceBattlePoints),
		AttackerEffective: attackerEffective,
		DefenderEffective: defenderEffective,
	}

	switch {
	case attackerEffective > defenderEffective:
		res.Outcome = AttackerWins
	case attackerEffective < defenderEffective:
		res.Outcome = DefenderWins
	case cfg.DuelResolution.DefenderWinsTies:
		res.Outcome = DefenderWins
	default:
		res.Outcome = AttackerWins
	}

	// D-1: SpendsEffectiveAllocation selects which figure is actually
	// debited from each player's BP pool (spec.md §9 Design Notes).
	if cfg.DuelResolution.SpendsEffectiveAllocation {
		res.AttackerNominal = attackerEffective
		res.DefenderNominal = defenderEffective
	}

	return res, nil
}

func clampAmount(amount, maxPieceBattlePoints int) int {
	if maxPieceBattlePoints > 0 && amount > maxPieceBattlePoints {
		return maxPieceBattlePoints
	}
	return amount
}
