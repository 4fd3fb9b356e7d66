// Package state implements the per-game state machine (spec.md §4.5): the
// single authority that owns a GameState's transitions across
// WAITING_FOR_PLAYERS -> IN_PROGRESS -> DUEL_IN_PROGRESS/
// TACTICAL_RETREAT_DECISION -> IN_PROGRESS -> a terminal status. Adapted
// from herohde-morlock's pkg/engine.Engine: a mutex-guarded struct with
// functional-option construction, generalized from "one search per engine"
// to "one authoritative transition per game."
package state

import (
	"time"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/gambit"
	"github.com/gambit-chess/engine/pkg/tactics"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Status is the per-game phase enum (spec.md §3).
type Status uint8

const (
	WaitingForPlayers Status = iota
	InProgress
	DuelInProgress
	TacticalRetreatDecision
	Checkmate
	Stalemate
	Draw
	Resigned
	Abandoned
)

func (s Status) String() string {
	switch s {
	case WaitingForPlayers:
		return "WAITING_FOR_PLAYERS"
	case InProgress:
		return "IN_PROGRESS"
	case DuelInProgress:
		return "DUEL_IN_PROGRESS"
	case TacticalRetreatDecision:
		return "TACTICAL_RETREAT_DECISION"
	case Checkmate:
		return "CHECKMATE"
	case Stalemate:
		return "STALEMATE"
	case Draw:
		return "DRAW"
	case Resigned:
		return "RESIGNED"
	case Abandoned:
		return "ABANDONED"
	default:
		return "?"
	}
}

// IsTerminal reports whether s is one of the game-over statuses.
func (s Status) IsTerminal() bool {
	return s == Checkmate || s == Stalemate || s == Draw || s == Resigned || s == Abandoned
}

// Player is a seated participant: their stable identity, color and current
// Battle Points pool (spec.md §3; BP may be hidden from viewers, see
// pkg/view).
type Player struct {
	ID           string
	Color        board.Color
	BattlePoints int
}

// DuelResult is the resolved outcome of a duel, attached to the MoveRecord
// it decided (spec.md §3).
type DuelResult struct {
	AttackerAlloc int
	DefenderAlloc int
	AttackerWon   bool
}

// RetreatRecord is the resolved outcome of a tactical retreat decision,
// attached to the MoveRecord whose duel it followed.
type RetreatRecord struct {
	To   board.Square
	Cost int
	Lost bool // true iff pieceLossRules.attackerCanLosePiece resolved this instead
}

// MoveRecord is one executed ply plus whatever duel/retreat/regeneration it
// triggered (spec.md §3). MoveHistory is append-only.
type MoveRecord struct {
	Move           board.Move
	Mover          board.Color
	DuelResult     lang.Optional[DuelResult]
	Retreat        lang.Optional[RetreatRecord]
	BPRegeneration lang.Optional[tactics.BPCalculationReport]
}

// GameState is the complete authoritative state of one game (spec.md §3).
// Exclusively owned and mutated by its Machine; every other reader holds a
// Snapshot (pkg/view filters those per viewer).
type GameState struct {
	ID string

	Board *board.Board

	White *Player
	Black *Player

	CurrentTurn board.Color
	MoveHistory []MoveRecord

	PendingDuel *gambit.PendingDuel

	Status Status
	Config config.Config

	LastBPCalculationReport lang.Optional[tactics.BPCalculationReport]

	// DrawOffer names the color that most recently offered a draw, cleared
	// on any move (SPEC_FULL.md §4 "Draw-offer bookkeeping"). Scoped to
	// pkg/state only; not part of the durable archive record.
	DrawOffer lang.Optional[board.Color]

	Reason board.Reason // populated once Status.IsTerminal()

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlayerByColor returns the seated player for c.
func (g *GameState) PlayerByColor(c board.Color) *Player {
	if c == board.White {
		return g.White
	}
	return g.Black
}

// PlayerByID returns the seated player with the given id and their color,
// or (nil, 0, false) if id is not seated.
func (g *GameState) PlayerByID(id string) (*Player, board.Color, bool) {
	if g.White != nil && g.White.ID == id {
		return g.White, board.White, true
	}
	if g.Black != nil && g.Black.ID == id {
		return g.Black, board.Black, true
	}
	return nil, 0, false
}

// clone returns a value copy of g suitable as a copy-on-write draft: the
// Board is forked (cheap, shares position history), Player structs are
// copied so mutating the draft's BP never touches the committed state
// until Machine commits the draft, and MoveHistory's backing array is
// reused (append-only; a draft that grows it does not alias the
// committed slice after append, per Go slice-growth semantics, but a
// draft that is discarded without appending never mutates it).
func (g *GameState) clone() *GameState {
	cp := *g
	cp.Board = g.Board.Fork()
	if g.White != nil {
		w := *g.White
		cp.White = &w
	}
	if g.Black != nil {
		b := *g.Black
		cp.Black = &b
	}
	if g.PendingDuel != nil {
		d := *g.PendingDuel
		cp.PendingDuel = &d
	}
	return &cp
}
