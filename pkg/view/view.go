// Package view implements the View Filter (spec.md §4.7): a pure function
// that derives a per-viewer snapshot from the authoritative GameState,
// subject to the active Config's informationHiding rules. Deliberately has
// no pack analog ("per-viewer filtered snapshot" is Gambit-specific) and no
// dependency on pkg/eventlog or pkg/transport, so pkg/state can emit
// recipients without either package importing the other.
package view

import (
	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/gambit"
	"github.com/gambit-chess/engine/pkg/state"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Hidden is the sentinel substituted for a BP or allocation value the
// viewer is not entitled to see (spec.md §4.7).
const Hidden = -1

// PlayerView is a player's BP as visible to one viewer: Hidden if the
// ruleset/viewer relationship says so.
type PlayerView struct {
	ID           string
	Color        board.Color
	BattlePoints int
}

// DuelView is the pending duel as visible to one viewer: each side's
// allocation is Hidden until the viewer is entitled to see it.
type DuelView struct {
	Move              board.Move
	AttackerColor     board.Color
	DefenderColor     board.Color
	AttackerPiece     board.Piece
	DefenderPiece     board.Piece
	AttackerAllocation int
	DefenderAllocation int
}

// MoveRecordView is one ply as visible to one viewer: duel allocation
// history stripped to Hidden if informationHiding.hideAllocationHistory.
type MoveRecordView struct {
	Move           board.Move
	Mover          board.Color
	HasDuelResult  bool
	AttackerAlloc  int
	DefenderAlloc  int
	AttackerWon    bool
	HasRetreat     bool
	RetreatTo      board.Square
	RetreatCost    int
}

// Snapshot is the complete per-viewer rendering of a GameState (spec.md
// §4.7).
type Snapshot struct {
	ID          string
	Status      state.Status
	Reason      board.Reason
	CurrentTurn board.Color

	White PlayerView
	Black PlayerView

	PendingDuel *DuelView

	MoveHistory []MoveRecordView

	// HasBPReport is true only when viewerID is the mover of the most
	// recent ply: "delivered to the mover only" (spec.md §4.7).
	HasBPReport bool
}

// Filter derives viewerID's snapshot of gs. viewerID is empty for a
// spectator with no seat in the game.
func Filter(gs *state.GameState, viewerID string) Snapshot {
	cfg := gs.Config
	_, viewerColor, isPlayer := gs.PlayerByID(viewerID)

	snap := Snapshot{
		ID:          gs.ID,
		Status:      gs.Status,
		Reason:      gs.Reason,
		CurrentTurn: gs.CurrentTurn,
		White:       filterPlayer(gs.White, isPlayer, viewerColor, cfg.InformationHiding.HideBattlePoints),
		Black:       filterPlayer(gs.Black, isPlayer, viewerColor, cfg.InformationHiding.HideBattlePoints),
	}

	if gs.PendingDuel != nil {
		snap.PendingDuel = filterDuel(gs.PendingDuel, isPlayer, viewerColor)
	}

	snap.MoveHistory = make([]MoveRecordView, len(gs.MoveHistory))
	for i, rec := range gs.MoveHistory {
		snap.MoveHistory[i] = filterMoveRecord(rec, cfg.InformationHiding.HideAllocationHistory)
	}

	if isPlayer && len(gs.MoveHistory) > 0 {
		last := gs.MoveHistory[len(gs.MoveHistory)-1]
		if last.Mover == viewerColor {
			if _, ok := gs.LastBPCalculationReport.V(); ok {
				snap.HasBPReport = true
			}
		}
	}

	return snap
}

func filterPlayer(p *state.Player, isPlayer bool, viewerColor board.Color, hideBP bool) PlayerView {
	if p == nil {
		return PlayerView{}
	}
	view := PlayerView{ID: p.ID, Color: p.Color, BattlePoints: p.BattlePoints}

	own := isPlayer && p.Color == viewerColor
	if !own && (!isPlayer || hideBP) {
		view.BattlePoints = Hidden
	}
	return view
}

func filterDuel(d *gambit.PendingDuel, isPlayer bool, viewerColor board.Color) *DuelView {
	dv := &DuelView{
		Move:               d.Move,
		AttackerColor:      d.AttackerColor,
		DefenderColor:      d.DefenderColor,
		AttackerPiece:      d.AttackerPiece,
		DefenderPiece:      d.DefenderPiece,
		AttackerAllocation: Hidden,
		DefenderAllocation: Hidden,
	}

	resolved := func(opt lang.Optional[int]) (int, bool) { return opt.V() }

	bothDone := false
	if a, aok := resolved(d.AttackerAllocation); aok {
		if def, dok := resolved(d.DefenderAllocation); dok {
			bothDone = true
			dv.AttackerAllocation = a
			dv.DefenderAllocation = def
		}
	}
	if bothDone {
		return dv
	}

	if !isPlayer {
		// Spectators never see a sealed bid before resolution.
		return dv
	}

	if viewerColor == d.AttackerColor {
		if a, ok := resolved(d.AttackerAllocation); ok {
			dv.AttackerAllocation = a
		}
	} else if viewerColor == d.DefenderColor {
		if def, ok := resolved(d.DefenderAllocation); ok {
			dv.DefenderAllocation = def
		}
	}
	return dv
}

func filterMoveRecord(rec state.MoveRecord, hideAllocationHistory bool) MoveRecordView {
	mv := MoveRecordView{Move: rec.Move, Mover: rec.Mover}

	if dr, ok := rec.DuelResult.V(); ok {
		mv.HasDuelResult = true
		mv.AttackerWon = dr.AttackerWon
		if hideAllocationHistory {
			mv.AttackerAlloc, mv.DefenderAlloc = Hidden, Hidden
		} else {
			mv.AttackerAlloc, mv.DefenderAlloc = dr.AttackerAlloc, dr.DefenderAlloc
		}
	}

	if rt, ok := rec.Retreat.V(); ok {
		mv.HasRetreat = true
		mv.RetreatTo = rt.To
		if hideAllocationHistory {
			mv.RetreatCost = Hidden
		} else {
			mv.RetreatCost = rt.Cost
		}
	}

	return mv
}
