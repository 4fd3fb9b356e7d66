package transport

import (
	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/gambit"
	"github.com/gambit-chess/engine/pkg/retreat"
	"github.com/gambit-chess/engine/pkg/state"
	"github.com/gambit-chess/engine/pkg/tactics"
	"github.com/gambit-chess/engine/pkg/view"
)

// retreatOptionSource names pkg/retreat's Option type for the payloadDTO
// type switch below, which otherwise only ever sees the slice form
// TacticalRetreatOptions events carry.
type retreatOptionSource = retreat.Option

func retreatOptionsDTO(opts []retreatOptionSource) []RetreatOptionDTO {
	out := make([]RetreatOptionDTO, len(opts))
	for i, o := range opts {
		out[i] = RetreatOptionDTO{Square: o.Square.String(), Cost: o.Cost}
	}
	return out
}

// The wire package never marshals board.Square/board.Color/board.Kind
// directly: their Go types are small uints whose default JSON encoding is a
// bare number, not the algebraic notation spec.md's wire contract expects.
// Every DTO below spells those out as strings explicitly.

// MoveDTO is a move in algebraic coordinate notation (spec.md §6).
type MoveDTO struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func moveDTO(m board.Move) MoveDTO {
	dto := MoveDTO{From: m.From.String(), To: m.To.String()}
	if m.Promotion.IsValid() {
		dto.Promotion = m.Promotion.String()
	}
	return dto
}

// PlayerDTO is one seated player's wire-visible state.
type PlayerDTO struct {
	ID           string `json:"id"`
	Color        string `json:"color"`
	BattlePoints int    `json:"battlePoints"`
}

func playerDTO(p view.PlayerView) PlayerDTO {
	return PlayerDTO{ID: p.ID, Color: p.Color.String(), BattlePoints: p.BattlePoints}
}

// DuelDTO is the pending duel as visible to one viewer.
type DuelDTO struct {
	Move               MoveDTO `json:"move"`
	AttackerColor      string  `json:"attackerColor"`
	DefenderColor      string  `json:"defenderColor"`
	AttackingPieceKind string  `json:"attackingPieceKind"`
	DefendingPieceKind string  `json:"defendingPieceKind"`
	AttackerAllocation int     `json:"attackerAllocation"`
	DefenderAllocation int     `json:"defenderAllocation"`
}

func duelDTO(d *view.DuelView) *DuelDTO {
	if d == nil {
		return nil
	}
	return &DuelDTO{
		Move:               moveDTO(d.Move),
		AttackerColor:      d.AttackerColor.String(),
		DefenderColor:      d.DefenderColor.String(),
		AttackingPieceKind: d.AttackerPiece.Kind.String(),
		DefendingPieceKind: d.DefenderPiece.Kind.String(),
		AttackerAllocation: d.AttackerAllocation,
		DefenderAllocation: d.DefenderAllocation,
	}
}

// MoveRecordDTO is one ply as visible to one viewer.
type MoveRecordDTO struct {
	Move          MoveDTO `json:"move"`
	Mover         string  `json:"mover"`
	HasDuelResult bool    `json:"hasDuelResult,omitempty"`
	AttackerAlloc int     `json:"attackerAlloc,omitempty"`
	DefenderAlloc int     `json:"defenderAlloc,omitempty"`
	AttackerWon   bool    `json:"attackerWon,omitempty"`
	HasRetreat    bool    `json:"hasRetreat,omitempty"`
	RetreatTo     string  `json:"retreatTo,omitempty"`
	RetreatCost   int     `json:"retreatCost,omitempty"`
}

func moveRecordDTO(r view.MoveRecordView) MoveRecordDTO {
	dto := MoveRecordDTO{
		Move:          moveDTO(r.Move),
		Mover:         r.Mover.String(),
		HasDuelResult: r.HasDuelResult,
		AttackerAlloc: r.AttackerAlloc,
		DefenderAlloc: r.DefenderAlloc,
		AttackerWon:   r.AttackerWon,
		HasRetreat:    r.HasRetreat,
		RetreatCost:   r.RetreatCost,
	}
	if r.HasRetreat {
		dto.RetreatTo = r.RetreatTo.String()
	}
	return dto
}

// StateDTO is the full filtered game snapshot sent as game:state /
// game:state_updated (spec.md §6).
type StateDTO struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	CurrentTurn string          `json:"currentTurn"`
	White       PlayerDTO       `json:"white"`
	Black       PlayerDTO       `json:"black"`
	PendingDuel *DuelDTO        `json:"pendingDuel,omitempty"`
	MoveHistory []MoveRecordDTO `json:"moveHistory"`
	HasBPReport bool            `json:"hasBpReport,omitempty"`
}

// SnapshotDTO converts a pkg/view.Snapshot (already filtered for one
// viewer) into its wire representation.
func SnapshotDTO(snap view.Snapshot) StateDTO {
	history := make([]MoveRecordDTO, len(snap.MoveHistory))
	for i, r := range snap.MoveHistory {
		history[i] = moveRecordDTO(r)
	}
	dto := StateDTO{
		ID:          snap.ID,
		Status:      snap.Status.String(),
		CurrentTurn: snap.CurrentTurn.String(),
		White:       playerDTO(snap.White),
		Black:       playerDTO(snap.Black),
		PendingDuel: duelDTO(snap.PendingDuel),
		MoveHistory: history,
		HasBPReport: snap.HasBPReport,
	}
	if snap.Reason != board.NoReason {
		dto.Reason = snap.Reason.String()
	}
	return dto
}

// RetreatOptionDTO is one entry in a tactical-retreat option set.
type RetreatOptionDTO struct {
	Square string `json:"square"`
	Cost   int    `json:"cost"`
}

// DuelResultDTO is a resolved duel's outcome (spec.md §3 DuelResult),
// broadcast once both allocations are public.
type DuelResultDTO struct {
	AttackerAlloc int  `json:"attackerAlloc"`
	DefenderAlloc int  `json:"defenderAlloc"`
	AttackerWon   bool `json:"attackerWon"`
}

func duelResultDTO(res gambit.Resolution) DuelResultDTO {
	return DuelResultDTO{
		AttackerAlloc: res.AttackerNominal,
		DefenderAlloc: res.DefenderNominal,
		AttackerWon:   res.Outcome == gambit.AttackerWins,
	}
}

// BPReportDTO mirrors tactics.BPCalculationReport for the mover-only
// BP_UPDATED/regeneration detail (spec.md §4.4 "delivered to the mover
// only").
type BPReportDTO struct {
	BaseTurnRegeneration int                    `json:"baseTurnRegeneration"`
	Contributions        []BPContributionDTO    `json:"contributions,omitempty"`
	Total                int                    `json:"total"`
}

type BPContributionDTO struct {
	Pattern      string `json:"pattern"`
	TargetSquare string `json:"targetSquare"`
	Amount       int    `json:"amount"`
}

func bpReportDTO(r tactics.BPCalculationReport) BPReportDTO {
	contribs := make([]BPContributionDTO, len(r.Contributions))
	for i, c := range r.Contributions {
		contribs[i] = BPContributionDTO{Pattern: c.Pattern, TargetSquare: c.TargetSquare.String(), Amount: c.Amount}
	}
	return BPReportDTO{BaseTurnRegeneration: r.BaseTurnRegeneration, Contributions: contribs, Total: r.Total}
}

// TerminalSummaryDTO is the game:ended payload.
type TerminalSummaryDTO struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Result string `json:"result"`
}

// ChatMessageDTO is a broadcast game:chat message, text already normalized
// to NFC before it is ever wrapped in an Outbound.
type ChatMessageDTO struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// payloadDTO converts an Outbound's internal payload into a wire-safe
// value. It takes no viewer: a PendingDuel, the one payload shape carrying
// sealed allocations, always goes out with both allocations Hidden, and
// the other Outbound payloads were already constructed directed-vs-broadcast
// by pkg/state and need no further filtering here.
func payloadDTO(payload any) any {
	switch v := payload.(type) {
	case state.MoveRecord:
		return moveRecordFromState(v)
	case *gambit.PendingDuel:
		return pendingDuelDTO(v)
	case gambit.Resolution:
		return duelResultDTO(v)
	case []retreatOptionSource:
		return retreatOptionsDTO(v)
	case state.TerminalSummary:
		return TerminalSummaryDTO{Status: v.Status.String(), Reason: v.Reason.String(), Result: v.Outcome.String()}
	case tactics.BPCalculationReport:
		return bpReportDTO(v)
	default:
		return payload
	}
}

func moveRecordFromState(r state.MoveRecord) MoveRecordDTO {
	dto := MoveRecordDTO{Move: moveDTO(r.Move), Mover: r.Mover.String()}
	if dr, ok := r.DuelResult.V(); ok {
		dto.HasDuelResult = true
		dto.AttackerAlloc = dr.AttackerAlloc
		dto.DefenderAlloc = dr.DefenderAlloc
		dto.AttackerWon = dr.AttackerWon
	}
	if rt, ok := r.Retreat.V(); ok {
		dto.HasRetreat = true
		dto.RetreatTo = rt.To.String()
		dto.RetreatCost = rt.Cost
	}
	return dto
}

func pendingDuelDTO(d *gambit.PendingDuel) DuelDTO {
	dto := DuelDTO{
		Move:               moveDTO(d.Move),
		AttackerColor:      d.AttackerColor.String(),
		DefenderColor:      d.DefenderColor.String(),
		AttackingPieceKind: d.AttackerPiece.Kind.String(),
		DefendingPieceKind: d.DefenderPiece.Kind.String(),
		AttackerAllocation: view.Hidden,
		DefenderAllocation: view.Hidden,
	}
	return dto
}
