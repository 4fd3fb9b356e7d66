// Package eventlog implements the append-only per-game event stream
// spec.md §4.7 and §6 describe: every accepted state-machine transition
// produces one or more Events, some broadcast to every viewer and some
// directed to a single recipient (e.g. ALLOCATION_SUBMITTED, which only the
// submitter should see). The ring buffer backing a game's recent history is
// kept in the same github.com/dgraph-io/ristretto/v2-backed cache pkg/store
// uses for GameState, under the "events:{id}" key with a 1h TTL, per
// spec.md §4.7 and SPEC_FULL.md's reconnect-replay supplement.
package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gambit-chess/engine/pkg/store"
)

// EventType identifies the kind of transition an Event records, matching
// spec.md §4.7's enumeration.
type EventType string

const (
	MoveMade              EventType = "MOVE_MADE"
	DuelStarted           EventType = "DUEL_STARTED"
	AllocationSubmitted   EventType = "ALLOCATION_SUBMITTED"
	DuelResolved          EventType = "DUEL_RESOLVED"
	TacticalRetreatOptions EventType = "TACTICAL_RETREAT_OPTIONS"
	TacticalRetreatMade   EventType = "TACTICAL_RETREAT_MADE"
	BPUpdated             EventType = "BP_UPDATED"
	GameOver              EventType = "GAME_OVER"
	PlayerConnected       EventType = "PLAYER_CONNECTED"
	PlayerDisconnected    EventType = "PLAYER_DISCONNECTED"
	ChatMessage           EventType = "CHAT_MESSAGE"
	DrawOffered           EventType = "DRAW_OFFERED"
	BPCalculationReport   EventType = "BP_CALCULATION_REPORT"
)

// Recipient identifies who should receive a copy of an Event: everyone
// (subject to the View Filter per spec.md §4.7), or a single named player.
type Recipient struct {
	Broadcast bool
	PlayerID  string
}

// Everyone builds a broadcast Recipient: every viewer gets a copy, each
// filtered through the View Filter for their own vantage point.
func Everyone() Recipient { return Recipient{Broadcast: true} }

// OnlyPlayer builds a Recipient naming a single player, e.g. for
// ALLOCATION_SUBMITTED or TACTICAL_RETREAT_OPTIONS (spec.md §4.7).
func OnlyPlayer(id string) Recipient { return Recipient{PlayerID: id} }

// Matches reports whether a viewer with the given player id (empty for a
// non-player spectator) should receive this Event.
func (r Recipient) Matches(viewerID string) bool {
	if r.Broadcast {
		return true
	}
	return viewerID != "" && viewerID == r.PlayerID
}

// Event is one entry in a game's event stream.
type Event struct {
	Sequence  uint64
	GameID    string
	Type      EventType
	Recipient Recipient
	Payload   any
	CreatedAt time.Time
}

const maxRingSize = 500

// Log is the event stream for all games, backed by a shared Live Store
// ring-buffer cache. One Log instance is shared process-wide.
type Log struct {
	live *store.LiveStore

	mu   sync.Mutex
	seqs map[string]uint64
}

// New constructs an event Log backed by the given Live Store.
func New(live *store.LiveStore) *Log {
	return &Log{live: live, seqs: map[string]uint64{}}
}

// Append records a new Event for gameID and returns it with its assigned
// sequence number. Sequence numbers are monotonic per game for the
// lifetime of this process, independent of ring-buffer truncation.
func (l *Log) Append(ctx context.Context, gameID string, typ EventType, recipient Recipient, payload any) Event {
	l.mu.Lock()
	l.seqs[gameID]++
	seq := l.seqs[gameID]
	l.mu.Unlock()

	ev := Event{
		Sequence:  seq,
		GameID:    gameID,
		Type:      typ,
		Recipient: recipient,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	existing, _ := l.live.GetEvents(ctx, gameID)
	ring := make([]store.Record, 0, len(existing)+1)
	for _, r := range existing {
		ring = append(ring, r)
	}
	ring = append(ring, store.Record(ev))
	if len(ring) > maxRingSize {
		ring = ring[len(ring)-maxRingSize:]
	}
	l.live.SetEvents(ctx, gameID, ring)

	return ev
}

// Replay returns every Event for gameID with Sequence > sinceSeq that
// viewerID (empty for a non-player spectator) is permitted to see, in
// production order, for reconnect replay (spec.md §5 Backpressure:
// "Reconnection replays events from the Event Log ring buffer").
func (l *Log) Replay(ctx context.Context, gameID string, sinceSeq uint64, viewerID string) ([]Event, error) {
	raw, ok := l.live.GetEvents(ctx, gameID)
	if !ok {
		return nil, fmt.Errorf("eventlog: no event stream for game %q (TTL expired or never created)", gameID)
	}

	var out []Event
	for _, r := range raw {
		ev, ok := r.(Event)
		if !ok {
			continue
		}
		if ev.Sequence <= sinceSeq {
			continue
		}
		if !ev.Recipient.Matches(viewerID) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// LastSequence returns the highest sequence number recorded for gameID.
func (l *Log) LastSequence(gameID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seqs[gameID]
}
