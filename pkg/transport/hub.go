package transport

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gambit-chess/engine/pkg/board/fen"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/eventlog"
	"github.com/gambit-chess/engine/pkg/gambiterr"
	"github.com/gambit-chess/engine/pkg/state"
	"github.com/gambit-chess/engine/pkg/store"
	"github.com/gambit-chess/engine/pkg/view"
	"github.com/seekerror/logw"
)

// eventFrameType maps an eventlog.EventType to its dedicated server frame
// type per spec.md §6, falling back to the generic TypeEvent for anything
// not given its own wire name (e.g. chat, draw offers): spec.md explicitly
// lists "game:event — a typed event from the Event Log" alongside the named
// ones, which is exactly this fallback's role.
func eventFrameType(t eventlog.EventType) string {
	switch t {
	case eventlog.MoveMade:
		return TypeServerMove
	case eventlog.DuelStarted:
		return TypeDuelInitiated
	case eventlog.AllocationSubmitted:
		return TypeDuelAllocationConfirmed
	case eventlog.DuelResolved:
		return TypeDuelResolved
	case eventlog.TacticalRetreatOptions, eventlog.TacticalRetreatMade:
		return TypeServerTacticalRetreat
	case eventlog.BPUpdated:
		return TypeBattlePointsUpdated
	case eventlog.PlayerConnected:
		return TypePlayerConnected
	case eventlog.PlayerDisconnected:
		return TypePlayerDisconnected
	case eventlog.GameOver:
		return TypeEnded
	default:
		return TypeEvent
	}
}

// Room fans a game's outbound frames out to every connection currently
// attached to it (spec.md §5 "room fan-out"). One Room per live game.
type Room struct {
	mu    sync.Mutex
	conns map[*Connection]bool
}

func newRoom() *Room {
	return &Room{conns: map[*Connection]bool{}}
}

func (r *Room) join(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = true
}

func (r *Room) leave(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

func (r *Room) snapshot() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Connection, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}

// gameEntry bundles a Machine with its Room, the unit the Hub's registry
// tracks per game.
type gameEntry struct {
	machine *state.Machine
	room    *Room
}

// Hub is the process-wide registry of live games and their rooms, the
// dispatcher between pkg/state's Outbound events and per-connection wire
// frames via pkg/view, and the bridge to pkg/eventlog for reconnect replay
// and pkg/store for Live Store persistence. One Hub is shared across all
// connections.
type Hub struct {
	live    *store.LiveStore
	archive *store.ArchiveStore
	log     *eventlog.Log

	mu      sync.RWMutex
	entries map[string]*gameEntry
}

// NewHub constructs a Hub backed by the given Live/Archive Stores and Event
// Log.
func NewHub(live *store.LiveStore, archive *store.ArchiveStore, log *eventlog.Log) *Hub {
	return &Hub{live: live, archive: archive, log: log, entries: map[string]*gameEntry{}}
}

// CreateGame registers a brand-new game with the given ruleset.
func (h *Hub) CreateGame(id string, cfg config.Config) *state.Machine {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := state.New(id, cfg)
	h.entries[id] = &gameEntry{machine: m, room: newRoom()}
	return m
}

func (h *Hub) entry(id string) (*gameEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.entries[id]
	return e, ok
}

// GameSummary is one row of the game-listing REST response.
type GameSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ListGames summarizes every registered game.
func (h *Hub) ListGames() []GameSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]GameSummary, 0, len(h.entries))
	for id, e := range h.entries {
		out = append(out, GameSummary{ID: id, Status: e.machine.Snapshot().Status.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Machine returns the Machine owning gameID, if registered.
func (h *Hub) Machine(gameID string) (*state.Machine, bool) {
	e, ok := h.entry(gameID)
	if !ok {
		return nil, false
	}
	return e.machine, true
}

// Attach joins conn to gameID's room and sends it an initial filtered
// game:state snapshot (spec.md §5 "Reconnection ... re-sends a filtered
// full-state snapshot").
func (h *Hub) Attach(ctx context.Context, conn *Connection) error {
	e, ok := h.entry(conn.GameID)
	if !ok {
		return gambiterr.Validationf(gambiterr.GameNotFound, "game %q not found", conn.GameID)
	}
	e.room.join(conn)

	snap := view.Filter(e.machine.Snapshot(), conn.PlayerID)
	conn.Enqueue(ctx, newFrame(TypeState, SnapshotDTO(snap)))
	return nil
}

// Detach removes conn from its room, e.g. on disconnect.
func (h *Hub) Detach(conn *Connection) {
	e, ok := h.entry(conn.GameID)
	if !ok {
		return
	}
	e.room.leave(conn)
}

// Replay resends every event conn's viewer is entitled to since sinceSeq,
// plus a fresh filtered snapshot, for reconnect (spec.md §5 Backpressure,
// SPEC_FULL.md §4 "Reconnect snapshot + replay").
func (h *Hub) Replay(ctx context.Context, conn *Connection, sinceSeq uint64) error {
	events, err := h.log.Replay(ctx, conn.GameID, sinceSeq, conn.PlayerID)
	if err != nil {
		return gambiterr.Transientf(err, "replay game %q", conn.GameID)
	}
	for _, ev := range events {
		conn.Enqueue(ctx, ServerFrame{
			Type:      eventFrameType(ev.Type),
			Payload:   payloadDTO(ev.Payload),
			Sequence:  ev.Sequence,
			Timestamp: ev.CreatedAt,
		})
	}
	return h.Attach(ctx, conn)
}

// Dispatch delivers every Outbound a Machine transition produced to the
// game's room, appending each to the Event Log first (so replay sees the
// same events live connections just received), then pushes a fresh
// per-viewer game:state_updated snapshot to every attached connection
// (spec.md §5 "outbound events are computed inside the critical section
// and then dispatched asynchronously"; this runs after the Machine call
// has already released its lock).
func (h *Hub) Dispatch(ctx context.Context, gameID string, outs []state.Outbound) {
	e, ok := h.entry(gameID)
	if !ok {
		return
	}

	conns := e.room.snapshot()
	for _, out := range outs {
		ev := h.log.Append(ctx, gameID, out.Type, out.Recipient, out.Payload)
		frame := ServerFrame{
			Type:      eventFrameType(out.Type),
			Payload:   payloadDTO(out.Payload),
			Sequence:  ev.Sequence,
			Timestamp: ev.CreatedAt,
		}
		for _, c := range conns {
			if out.Recipient.Matches(c.PlayerID) {
				c.Enqueue(ctx, frame)
			}
		}
	}

	draft := e.machine.Snapshot()
	if err := h.live.Set(ctx, gameID, draft, draft.Status.IsTerminal()); err != nil {
		logw.Errorf(ctx, "transport: persist game %q: %v", gameID, err)
	}
	for _, c := range conns {
		snap := view.Filter(draft, c.PlayerID)
		c.Enqueue(ctx, newFrame(TypeStateUpdated, SnapshotDTO(snap)))
	}

	if draft.Status.IsTerminal() {
		h.archiveTerminal(ctx, draft)
	}
}

// archiveTerminal migrates a finished game from the Live Store to the
// Archive Store and drops its in-memory record, per the game lifecycle: a
// terminal transition atomically hands the game to durable storage. The
// Machine stays registered read-only so late get_state requests still see
// the final snapshot.
func (h *Hub) archiveTerminal(ctx context.Context, gs *state.GameState) {
	history := make([]MoveRecordDTO, len(gs.MoveHistory))
	for i, r := range gs.MoveHistory {
		history[i] = moveRecordFromState(r)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		logw.Errorf(ctx, "transport: marshal move history for game %q: %v", gs.ID, err)
		return
	}
	configJSON, err := json.Marshal(gs.Config)
	if err != nil {
		logw.Errorf(ctx, "transport: marshal config for game %q: %v", gs.ID, err)
		return
	}

	entry := store.ArchiveEntry{
		GameID:      gs.ID,
		Result:      gs.Board.Result().Outcome.String(),
		Reason:      gs.Reason.String(),
		FinalFEN:    fen.Encode(gs.Board.Position(), gs.Board.Turn(), gs.Board.NoProgress(), gs.Board.FullMoves()),
		MoveHistory: historyJSON,
		Config:      configJSON,
		CreatedAt:   gs.CreatedAt,
		EndedAt:     time.Now(),
	}
	if gs.White != nil {
		entry.WhiteID = gs.White.ID
	}
	if gs.Black != nil {
		entry.BlackID = gs.Black.ID
	}

	if err := h.archive.Save(ctx, entry); err != nil {
		logw.Errorf(ctx, "transport: archive game %q: %v", gs.ID, err)
		return
	}
	h.live.Remove(ctx, gs.ID)
	logw.Infof(ctx, "transport: game %q archived (%v, %v)", gs.ID, entry.Result, entry.Reason)
}
