package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/eventlog"
	"github.com/gambit-chess/engine/pkg/formula"
	"github.com/gambit-chess/engine/pkg/gambit"
	"github.com/gambit-chess/engine/pkg/gambiterr"
	"github.com/gambit-chess/engine/pkg/retreat"
	"github.com/gambit-chess/engine/pkg/tactics"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Outbound is one event a Machine transition produced, to be dispatched by
// the caller (pkg/transport, via pkg/view and pkg/eventlog) once the
// critical section has released — spec.md §5: "all outbound events are
// computed inside the critical section and then dispatched asynchronously."
type Outbound struct {
	Type      eventlog.EventType
	Recipient eventlog.Recipient
	Payload   any
}

func broadcast(typ eventlog.EventType, payload any) Outbound {
	return Outbound{Type: typ, Recipient: eventlog.Everyone(), Payload: payload}
}

func directed(typ eventlog.EventType, playerID string, payload any) Outbound {
	return Outbound{Type: typ, Recipient: eventlog.OnlyPlayer(playerID), Payload: payload}
}

// Machine is the exclusive owner of one GameState (spec.md §5): every
// method acquires mu, mutates a copy-on-write draft, and only commits the
// draft back to state on success, so a failed or cancelled transition never
// leaves partial mutation visible (spec.md §5 "Cancellation and timeouts").
type Machine struct {
	mu    sync.Mutex
	state *GameState
}

// New creates a Machine for a freshly created game in WAITING_FOR_PLAYERS,
// per spec.md §3's lifecycle: "A game is created (WAITING_FOR_PLAYERS)...".
func New(id string, cfg config.Config) *Machine {
	pos, turn, noprogress, fullmoves := initialPosition()
	now := time.Now()
	return &Machine{
		state: &GameState{
			ID:          id,
			Board:       board.NewBoard(pos, turn, noprogress, fullmoves),
			CurrentTurn: turn,
			Status:      WaitingForPlayers,
			Config:      cfg,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func initialPosition() (*board.Position, board.Color, int, int) {
	// Built directly rather than through pkg/board/fen to avoid a
	// state->fen->board import detour for the one position every game
	// starts from.
	var placements []board.Placement
	back := []board.Kind{board.Rook, board.Knight, board.Bishop, board.Queen, board.King, board.Bishop, board.Knight, board.Rook}
	for f, k := range back {
		placements = append(placements,
			board.Placement{Square: board.NewSquare(f, 0), Piece: board.Piece{Color: board.White, Kind: k}},
			board.Placement{Square: board.NewSquare(f, 7), Piece: board.Piece{Color: board.Black, Kind: k}},
		)
	}
	for f := 0; f < 8; f++ {
		placements = append(placements,
			board.Placement{Square: board.NewSquare(f, 1), Piece: board.Piece{Color: board.White, Kind: board.Pawn}},
			board.Placement{Square: board.NewSquare(f, 6), Piece: board.Piece{Color: board.Black, Kind: board.Pawn}},
		)
	}
	pos, err := board.NewPosition(placements, board.FullCastlingRights, 0, false)
	if err != nil {
		panic(fmt.Sprintf("state: invalid built-in initial position: %v", err))
	}
	return pos, board.White, 0, 1
}

// ID returns the game's id.
func (m *Machine) ID() string {
	return m.state.ID
}

// Snapshot returns a copy-on-write fork of the current GameState, safe for
// the caller to read (e.g. pkg/view) without holding the Machine's lock.
func (m *Machine) Snapshot() *GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Join seats playerID in the first open color slot (white, then black),
// promoting WAITING_FOR_PLAYERS to IN_PROGRESS once both are filled
// (spec.md §4.5).
func (m *Machine) Join(ctx context.Context, playerID string, initialBP int) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// An empty id is what PlayerByID receives for seatless spectators;
	// seating it would make every such viewer pass as this player.
	if playerID == "" {
		return nil, gambiterr.Validationf(gambiterr.InvalidAction, "a player id is required to join")
	}

	if m.state.Status != WaitingForPlayers {
		if _, _, ok := m.state.PlayerByID(playerID); ok {
			return nil, nil // idempotent reconnect join
		}
		return nil, gambiterr.StateConsistencyf(gambiterr.InvalidAction, "game %q is not accepting new players", m.state.ID)
	}

	draft := m.state.clone()
	switch {
	case draft.White == nil:
		draft.White = &Player{ID: playerID, Color: board.White, BattlePoints: initialBP}
	case draft.Black == nil:
		if draft.White.ID == playerID {
			return nil, gambiterr.Validationf(gambiterr.InvalidAction, "player %q already seated", playerID)
		}
		draft.Black = &Player{ID: playerID, Color: board.Black, BattlePoints: initialBP}
	default:
		return nil, gambiterr.StateConsistencyf(gambiterr.InvalidAction, "game %q is full", m.state.ID)
	}

	var out []Outbound
	if draft.White != nil && draft.Black != nil {
		draft.Status = InProgress
		out = append(out, broadcast(eventlog.PlayerConnected, playerID))
	}

	draft.UpdatedAt = time.Now()
	m.commit(draft)
	logw.Infof(ctx, "state: game %q: player %q joined", m.state.ID, playerID)
	return out, nil
}

// commit installs draft as the authoritative state. Must be called with mu
// held.
func (m *Machine) commit(draft *GameState) {
	m.state = draft
}

func (m *Machine) colorOf(playerID string) (board.Color, error) {
	_, c, ok := m.state.PlayerByID(playerID)
	if !ok {
		return 0, gambiterr.Authorizationf(gambiterr.Unauthorized, "%q is not a player in this game", playerID)
	}
	return c, nil
}

// Move accepts a MOVE input: from/to/promotion, resolved against the
// current legal move set (spec.md §4.5, §4.1).
func (m *Machine) Move(ctx context.Context, playerID string, from, to board.Square, promotion board.Kind) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status != InProgress {
		return nil, gambiterr.StateConsistencyf(gambiterr.InvalidAction, "game %q is not accepting moves in status %v", m.state.ID, m.state.Status)
	}
	color, err := m.colorOf(playerID)
	if err != nil {
		return nil, err
	}
	if color != m.state.CurrentTurn {
		return nil, gambiterr.Validationf(gambiterr.WrongTurn, "it is not %q's turn", playerID)
	}

	candidate, ok := resolveMove(m.state.Board.Position(), color, from, to, promotion)
	if !ok {
		return nil, gambiterr.Validationf(gambiterr.IllegalMove, "%v%v is not legal", from, to)
	}

	draft := m.state.clone()

	if candidate.IsCapture() {
		attackerPiece, _ := draft.Board.Position().At(from)
		defSq := to
		if candidate.Type == board.EnPassant {
			defSq = board.NewSquare(to.File(), from.Rank())
		}
		defenderPiece, _ := draft.Board.Position().At(defSq)

		draft.PendingDuel = gambit.NewPendingDuel(candidate, color, color.Opponent(), attackerPiece, defenderPiece)
		draft.Status = DuelInProgress
		draft.DrawOffer = lang.Optional[board.Color]{}
		draft.UpdatedAt = time.Now()
		m.commit(draft)

		out := []Outbound{broadcast(eventlog.DuelStarted, draft.PendingDuel)}
		logw.Infof(ctx, "state: game %q: duel opened on %v", m.state.ID, candidate)
		return out, nil
	}

	before := draft.Board.Position()
	if !draft.Board.PushMove(candidate) {
		return nil, gambiterr.Internalf(nil, "state: legal move %v rejected by board", candidate)
	}
	draft.CurrentTurn = draft.Board.Turn()
	draft.DrawOffer = lang.Optional[board.Color]{}

	record := MoveRecord{Move: candidate, Mover: color}
	out := m.finishPly(ctx, draft, &record, candidate, before)
	out = append([]Outbound{broadcast(eventlog.MoveMade, record)}, out...)
	draft.MoveHistory = append(draft.MoveHistory, record)

	m.commit(draft)
	return out, nil
}

// Allocate accepts an ALLOCATE input during a duel (spec.md §4.2).
func (m *Machine) Allocate(ctx context.Context, playerID string, amount int) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status != DuelInProgress || m.state.PendingDuel == nil {
		return nil, gambiterr.StateConsistencyf(gambiterr.NotInDuel, "game %q has no pending duel", m.state.ID)
	}
	color, err := m.colorOf(playerID)
	if err != nil {
		return nil, err
	}
	duel := m.state.PendingDuel
	if color != duel.AttackerColor && color != duel.DefenderColor {
		return nil, gambiterr.Authorizationf(gambiterr.Unauthorized, "%q is not a participant in this duel", playerID)
	}

	var piece board.Piece
	if color == duel.AttackerColor {
		piece = duel.AttackerPiece
		if _, ok := duel.AttackerAllocation.V(); ok {
			return nil, gambiterr.Validationf(gambiterr.AlreadyAllocated, "attacker has already allocated")
		}
	} else {
		piece = duel.DefenderPiece
		if _, ok := duel.DefenderAllocation.V(); ok {
			return nil, gambiterr.Validationf(gambiterr.AlreadyAllocated, "defender has already allocated")
		}
	}

	cfg := m.state.Config
	capacity := cfg.CapacityFor(piece.Kind.String())
	effective := gambit.EffectiveCost(amount, capacity, cfg.MaxPieceBattlePoints)

	player := m.state.PlayerByColor(color)
	if amount < 0 || effective > player.BattlePoints {
		return nil, gambiterr.Validationf(gambiterr.InsufficientBP, "%q cannot cover an effective bid of %d with %d BP", playerID, effective, player.BattlePoints)
	}

	draft := m.state.clone()
	if err := draft.PendingDuel.Allocate(color, amount); err != nil {
		return nil, gambiterr.Validationf(gambiterr.AlreadyAllocated, "%v", err)
	}

	out := []Outbound{directed(eventlog.AllocationSubmitted, playerID, amount)}

	if !draft.PendingDuel.Ready() {
		draft.UpdatedAt = time.Now()
		m.commit(draft)
		return out, nil
	}

	res, err := gambit.Resolve(draft.PendingDuel, cfg)
	if err != nil {
		return nil, gambiterr.Internalf(err, "state: resolve duel")
	}

	draft.White.BattlePoints -= colorDebit(res, board.White, draft.PendingDuel.AttackerColor)
	draft.Black.BattlePoints -= colorDebit(res, board.Black, draft.PendingDuel.AttackerColor)
	if draft.White.BattlePoints < 0 || draft.Black.BattlePoints < 0 {
		return nil, gambiterr.Internalf(nil, "state: duel resolution would drive a player's BP negative")
	}

	resolvedOut := []Outbound{broadcast(eventlog.DuelResolved, res)}
	duel = draft.PendingDuel
	move := duel.Move

	before := draft.Board.Position()

	if res.Outcome == gambit.AttackerWins {
		if !draft.Board.PushMove(move) {
			return nil, gambiterr.Internalf(nil, "state: attacker-won move %v rejected by board", move)
		}
		draft.CurrentTurn = draft.Board.Turn()
		draft.Status = InProgress
		draft.PendingDuel = nil
		draft.DrawOffer = lang.Optional[board.Color]{}

		record := MoveRecord{
			Move:       move,
			Mover:      duel.AttackerColor,
			DuelResult: lang.Some(DuelResult{AttackerAlloc: res.AttackerNominal, DefenderAlloc: res.DefenderNominal, AttackerWon: true}),
		}
		post := m.finishPly(ctx, draft, &record, move, before)
		resolvedOut = append(resolvedOut, post...)
		draft.MoveHistory = append(draft.MoveHistory, record)
	} else {
		opts := m.retreatOptions(draft, duel)

		if cfg.PieceLossRules.AttackerCanLosePiece {
			draft.Board.PushLoss(move.From)
			draft.CurrentTurn = draft.Board.Turn()
			draft.Status = InProgress
			draft.PendingDuel = nil
			draft.DrawOffer = lang.Optional[board.Color]{}

			record := MoveRecord{
				Move:       move,
				Mover:      duel.AttackerColor,
				DuelResult: lang.Some(DuelResult{AttackerAlloc: res.AttackerNominal, DefenderAlloc: res.DefenderNominal, AttackerWon: false}),
				Retreat:    lang.Some(RetreatRecord{To: move.From, Cost: 0, Lost: true}),
			}
			post := m.finishPly(ctx, draft, &record, board.Move{Type: board.PieceLoss, From: move.From, To: move.From}, before)
			resolvedOut = append(resolvedOut, post...)
			draft.MoveHistory = append(draft.MoveHistory, record)
		} else if len(opts) <= 1 || !cfg.TacticalRetreat.Enabled {
			// Only the origin is available (or retreats are disabled
			// outright): spec.md §4.2 step 7 "the attacker implicitly
			// returns to origin at cost 0."
			draft.Board.PushRetreat(move.From, move.From)
			draft.CurrentTurn = draft.Board.Turn()
			draft.Status = InProgress
			draft.PendingDuel = nil
			draft.DrawOffer = lang.Optional[board.Color]{}

			record := MoveRecord{
				Move:       move,
				Mover:      duel.AttackerColor,
				DuelResult: lang.Some(DuelResult{AttackerAlloc: res.AttackerNominal, DefenderAlloc: res.DefenderNominal, AttackerWon: false}),
				Retreat:    lang.Some(RetreatRecord{To: move.From, Cost: 0}),
			}
			post := m.finishPly(ctx, draft, &record, board.Move{Type: board.Retreat, From: move.From, To: move.From}, before)
			resolvedOut = append(resolvedOut, post...)
			draft.MoveHistory = append(draft.MoveHistory, record)
		} else {
			draft.Status = TacticalRetreatDecision
			attackerID := draft.PlayerByColor(duel.AttackerColor).ID
			resolvedOut = append(resolvedOut, directed(eventlog.TacticalRetreatOptions, attackerID, opts))
		}
	}

	draft.UpdatedAt = time.Now()
	m.commit(draft)
	return append(out, resolvedOut...), nil
}

// colorDebit returns the BP amount to subtract from the player of color c
// given duel resolution res, where attackerColor identifies which side of
// res's Attacker*/Defender* fields corresponds to c.
func colorDebit(res gambit.Resolution, c, attackerColor board.Color) int {
	if c == attackerColor {
		return res.AttackerNominal
	}
	return res.DefenderNominal
}

// retreatOptions computes the retreat option set for duel's attacker,
// honoring spec.md §4.3's sliding/knight geometry and
// pieceLossRules.retreatPayment's original-square-cost override.
func (m *Machine) retreatOptions(draft *GameState, duel *gambit.PendingDuel) []retreat.Option {
	cfg := draft.Config
	pos := draft.Board.Position()
	origin, target := duel.Move.From, duel.Move.To

	var opts []retreat.Option
	switch duel.AttackerPiece.Kind {
	case board.Knight:
		if cfg.TacticalRetreat.KnightsEnabled {
			opts = retreat.KnightOptions(origin, target, cfg.TacticalRetreat.Cost.UseKnightLookup)
		}
	case board.Bishop, board.Rook, board.Queen:
		if cfg.TacticalRetreat.LongRangeEnabled {
			opts = retreat.SlidingOptions(pos, origin, target, cfg.TacticalRetreat.Cost)
		}
	default:
		// Pawns and kings never reach here as duel attackers with a
		// retreat geometry; they simply return to origin at cost 0,
		// handled by the zero/one-option branch in Allocate.
	}

	// The knight oracle is position-independent; occupied squares are
	// culled here where the position is in scope. Origin always stays.
	kept := opts[:0]
	for _, o := range opts {
		if o.Square == origin || pos.IsEmpty(o.Square) {
			kept = append(kept, o)
		}
	}
	opts = kept
	if len(opts) == 0 {
		opts = []retreat.Option{{Square: origin, Cost: 0}}
	}

	if cfg.PieceLossRules.RetreatPayment.Enabled {
		for i := range opts {
			if opts[i].Square == origin {
				opts[i].Cost = cfg.PieceLossRules.RetreatPayment.OriginalSquareCost
			}
		}
	}
	return opts
}

// Retreat accepts a RETREAT input during TACTICAL_RETREAT_DECISION
// (spec.md §4.3, §4.5).
func (m *Machine) Retreat(ctx context.Context, playerID string, to board.Square) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status != TacticalRetreatDecision || m.state.PendingDuel == nil {
		return nil, gambiterr.StateConsistencyf(gambiterr.InvalidAction, "game %q has no pending retreat decision", m.state.ID)
	}
	duel := m.state.PendingDuel
	if playerID != m.state.PlayerByColor(duel.AttackerColor).ID {
		return nil, gambiterr.Authorizationf(gambiterr.Unauthorized, "%q is not the attacker owed a retreat decision", playerID)
	}

	draft := m.state.clone()
	opts := m.retreatOptions(draft, duel)

	var chosen *retreat.Option
	for i := range opts {
		if opts[i].Square == to {
			chosen = &opts[i]
			break
		}
	}
	if chosen == nil {
		return nil, gambiterr.Validationf(gambiterr.InvalidRetreat, "%v is not a valid retreat square", to)
	}

	attacker := draft.PlayerByColor(duel.AttackerColor)
	if attacker.BattlePoints < chosen.Cost {
		return nil, gambiterr.Validationf(gambiterr.InsufficientBP, "%q cannot afford a retreat cost of %d", playerID, chosen.Cost)
	}

	attacker.BattlePoints -= chosen.Cost
	if draft.Config.PieceLossRules.RetreatPayment.Enabled && draft.Config.PieceLossRules.RetreatPayment.CostToDefenderEnabled {
		share := formula.RoundHalfUp(float64(chosen.Cost) * draft.Config.PieceLossRules.RetreatPayment.CostToDefenderPercentage / 100)
		defender := draft.PlayerByColor(duel.DefenderColor)
		defender.BattlePoints += share
	}

	before := draft.Board.Position()
	draft.Board.PushRetreat(duel.Move.From, to)
	draft.CurrentTurn = draft.Board.Turn()
	draft.Status = InProgress
	draft.PendingDuel = nil
	draft.DrawOffer = lang.Optional[board.Color]{}

	// The duel itself resolved in Allocate; re-derive its resolution here so
	// the ply's single MoveRecord carries both the duel outcome and the
	// retreat that concluded it. Resolve is pure, so this matches what was
	// broadcast as DUEL_RESOLVED.
	record := MoveRecord{
		Move:    duel.Move,
		Mover:   duel.AttackerColor,
		Retreat: lang.Some(RetreatRecord{To: to, Cost: chosen.Cost}),
	}
	if res, err := gambit.Resolve(duel, draft.Config); err == nil {
		record.DuelResult = lang.Some(DuelResult{
			AttackerAlloc: res.AttackerNominal,
			DefenderAlloc: res.DefenderNominal,
			AttackerWon:   false,
		})
	}

	out := m.finishPly(ctx, draft, &record, board.Move{Type: board.Retreat, From: duel.Move.From, To: to}, before)
	out = append([]Outbound{broadcast(eventlog.TacticalRetreatMade, record)}, out...)

	draft.MoveHistory = append(draft.MoveHistory, record)
	draft.UpdatedAt = time.Now()
	m.commit(draft)
	return out, nil
}

// Resign accepts a RESIGN control event (spec.md §4.5): the resigning
// player's opponent wins immediately, regardless of phase, as long as the
// game has not already reached a terminal status.
func (m *Machine) Resign(ctx context.Context, playerID string) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status.IsTerminal() {
		return nil, gambiterr.StateConsistencyf(gambiterr.InvalidAction, "game %q has already ended", m.state.ID)
	}
	color, err := m.colorOf(playerID)
	if err != nil {
		return nil, err
	}

	draft := m.state.clone()
	draft.Status = Resigned
	draft.Reason = board.Resignation
	draft.Board.Adjudicate(board.Result{Outcome: board.Loss(color), Reason: board.Resignation})
	draft.PendingDuel = nil
	draft.DrawOffer = lang.Optional[board.Color]{}
	draft.UpdatedAt = time.Now()

	out := []Outbound{broadcast(eventlog.GameOver, TerminalSummaryPayload(draft))}
	m.commit(draft)
	logw.Infof(ctx, "state: game %q: player %q resigned", m.state.ID, playerID)
	return out, nil
}

// OfferDraw accepts an OFFER_DRAW control event (spec.md §4.5). Only one
// offer may be outstanding at a time; a later offer from the same color
// simply replaces it. The offer is implicitly withdrawn on any move
// (SPEC_FULL.md §4 "Draw-offer bookkeeping").
func (m *Machine) OfferDraw(ctx context.Context, playerID string) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status != InProgress {
		return nil, gambiterr.StateConsistencyf(gambiterr.InvalidAction, "game %q is not in a state to offer a draw", m.state.ID)
	}
	color, err := m.colorOf(playerID)
	if err != nil {
		return nil, err
	}

	draft := m.state.clone()
	draft.DrawOffer = lang.Some(color)
	draft.UpdatedAt = time.Now()

	out := []Outbound{directed(eventlog.DrawOffered, draft.PlayerByColor(color.Opponent()).ID, color)}
	m.commit(draft)
	return out, nil
}

// RespondDraw accepts a RESPOND_DRAW control event (spec.md §4.5): accept
// ends the game as a draw by agreement; decline simply clears the pending
// offer.
func (m *Machine) RespondDraw(ctx context.Context, playerID string, accept bool) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offerColor, ok := m.state.DrawOffer.V()
	if m.state.Status != InProgress || !ok {
		return nil, gambiterr.StateConsistencyf(gambiterr.InvalidAction, "game %q has no pending draw offer", m.state.ID)
	}
	color, err := m.colorOf(playerID)
	if err != nil {
		return nil, err
	}
	if color == offerColor {
		return nil, gambiterr.Validationf(gambiterr.InvalidAction, "%q cannot respond to their own draw offer", playerID)
	}

	draft := m.state.clone()
	draft.DrawOffer = lang.Optional[board.Color]{}
	draft.UpdatedAt = time.Now()

	if !accept {
		m.commit(draft)
		return nil, nil
	}

	draft.Status = Draw
	draft.Reason = board.Agreement
	draft.Board.Adjudicate(board.Result{Outcome: board.Draw, Reason: board.Agreement})
	draft.PendingDuel = nil

	out := []Outbound{broadcast(eventlog.GameOver, TerminalSummaryPayload(draft))}
	m.commit(draft)
	logw.Infof(ctx, "state: game %q: draw by agreement", m.state.ID)
	return out, nil
}

// finishPly runs the Tactics Detector & BP Regenerator (spec.md §4.4) over
// the position mover produced, applies D-2's BP ceiling if configured,
// checks terminal conditions, and returns the resulting Outbound events.
// before is the position immediately prior to move (for discovered-attack
// detection and pre-existing-pattern suppression); draft.Board already
// reflects the position after.
func (m *Machine) finishPly(ctx context.Context, draft *GameState, record *MoveRecord, move board.Move, before *board.Position) []Outbound {
	mover := record.Mover
	after := draft.Board.Position()

	findings := tactics.Detect(before, after, mover, move)

	report, err := tactics.Regenerate(draft.Config, findings)
	if err != nil {
		logw.Errorf(ctx, "state: game %q: tactics regeneration failed: %v", draft.ID, err)
		report = tactics.BPCalculationReport{BaseTurnRegeneration: draft.Config.Regeneration.BaseTurn, Total: draft.Config.Regeneration.BaseTurn}
	}

	movePlayer := draft.PlayerByColor(mover)
	movePlayer.BattlePoints += report.Total
	if cap := draft.Config.MaxPlayerBattlePoints; cap > 0 && movePlayer.BattlePoints > cap {
		movePlayer.BattlePoints = cap
	}

	record.BPRegeneration = lang.Some(report)
	draft.LastBPCalculationReport = lang.Some(report)

	out := []Outbound{
		directed(eventlog.BPUpdated, draft.White.ID, draft.White.BattlePoints),
		directed(eventlog.BPUpdated, draft.Black.ID, draft.Black.BattlePoints),
		directed(eventlog.BPCalculationReport, movePlayer.ID, report),
	}

	m.checkTerminal(ctx, draft)
	if draft.Status.IsTerminal() {
		out = append(out, broadcast(eventlog.GameOver, TerminalSummaryPayload(draft)))
	}
	return out
}

// TerminalSummary is the payload attached to a GAME_OVER event.
type TerminalSummary struct {
	Status  Status
	Reason  board.Reason
	Outcome board.Outcome
}

func TerminalSummaryPayload(draft *GameState) TerminalSummary {
	return TerminalSummary{Status: draft.Status, Reason: draft.Reason, Outcome: draft.Board.Result().Outcome}
}

// resolveMove matches a client-submitted from/to/promotion against pos's
// legal moves for color, returning the fully-typed candidate (capture kind,
// en passant, castling, ...) that Move.Equals accepts only by from/to/
// promotion.
func resolveMove(pos *board.Position, color board.Color, from, to board.Square, promotion board.Kind) (board.Move, bool) {
	want := board.Move{From: from, To: to, Promotion: promotion}
	for _, cand := range pos.LegalMoves(color) {
		if cand.Equals(want) {
			return cand, true
		}
	}
	return board.Move{}, false
}

// checkTerminal runs spec.md §4.5's post-input terminal-condition check:
// checkmate, stalemate, 50-move, threefold, insufficient material. Must be
// called with mu held, after draft.Board reflects the new position.
func (m *Machine) checkTerminal(ctx context.Context, draft *GameState) {
	if draft.Board.Result().IsTerminal() {
		res := draft.Board.Result()
		draft.Reason = res.Reason
		switch res.Reason {
		case board.Checkmate:
			draft.Status = Checkmate
		default:
			draft.Status = Draw
		}
		return
	}

	if len(draft.Board.Position().LegalMoves(draft.CurrentTurn)) == 0 {
		result := draft.Board.AdjudicateNoLegalMoves()
		draft.Reason = result.Reason
		if result.Reason == board.Checkmate {
			draft.Status = Checkmate
		} else {
			draft.Status = Stalemate
		}
	}
}
