// Package transport implements the Real-Time Transport (spec.md §6): a
// bi-directional, ordered, framed message channel over WebSocket, room-based
// fan-out per game, and per-recipient filtered delivery. Adapted from
// herohde-morlock's pkg/engine/uci.Driver: a single stdin/stdout channel
// pair generalized to one read/write pump pair per connection, plus a room
// registry the UCI driver (a single local process) never needed.
package transport

import (
	"encoding/json"
	"time"
)

// Client-to-server frame types (spec.md §6).
const (
	TypeJoin             = "game:join"
	TypeMove             = "game:move"
	TypeDuelAllocation   = "game:duel_allocation"
	TypeTacticalRetreat  = "game:tactical_retreat"
	TypeGetState         = "game:get_state"
	TypeResign           = "game:resign"
	TypeOfferDraw        = "game:offer_draw"
	TypeRespondDraw      = "game:respond_draw"
	TypeChat             = "game:chat"
	TypePing             = "connection:ping"
)

// Server-to-client frame types (spec.md §6).
const (
	TypeState                    = "game:state"
	TypeStateUpdated             = "game:state_updated"
	TypeEvent                    = "game:event"
	TypeServerMove               = "game:move"
	TypeMoveInvalid              = "game:move_invalid"
	TypeDuelInitiated            = "game:duel_initiated"
	TypeDuelAllocationConfirmed  = "game:duel_allocation_confirmed"
	TypeDuelResolved             = "game:duel_resolved"
	TypeServerTacticalRetreat    = "game:tactical_retreat"
	TypeBattlePointsUpdated      = "game:battle_points_updated"
	TypePlayerConnected          = "game:player_connected"
	TypePlayerDisconnected       = "game:player_disconnected"
	TypeEnded                    = "game:ended"
	TypeError                    = "game:error"
	TypePong                     = "connection:pong"
)

// ClientFrame is one inbound message, matching spec.md §6's tagged-object
// shape: `{ type, payload, id?, timestamp, sequence? }`. Payload is decoded
// per Type by the handler, not eagerly, since its shape depends on Type.
type ClientFrame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ID        string          `json:"id,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Sequence  uint64          `json:"sequence,omitempty"`
}

// ServerFrame is one outbound message in the same tagged-object shape.
type ServerFrame struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Sequence  uint64    `json:"sequence,omitempty"`
}

func newFrame(typ string, payload any) ServerFrame {
	return ServerFrame{Type: typ, Payload: payload, Timestamp: time.Now()}
}

// MoveInput is the client:game:move payload shape.
type MoveInput struct {
	GameID    string `json:"gameId"`
	Move      struct {
		From      string `json:"from"`
		To        string `json:"to"`
		Promotion string `json:"promotion,omitempty"`
	} `json:"move"`
}

// GameIDInput covers any client payload that only carries a gameId, e.g.
// game:get_state, game:resign, game:offer_draw.
type GameIDInput struct {
	GameID string `json:"gameId"`
}

// AllocationInput is the client:game:duel_allocation payload shape.
type AllocationInput struct {
	GameID     string `json:"gameId"`
	Allocation int    `json:"allocation"`
}

// RetreatInput is the client:game:tactical_retreat payload shape.
type RetreatInput struct {
	GameID        string `json:"gameId"`
	RetreatSquare string `json:"retreatSquare"`
}

// RespondDrawInput is the client:game:respond_draw payload shape.
type RespondDrawInput struct {
	GameID string `json:"gameId"`
	Accept bool   `json:"accept"`
}

// ChatInput is the client:game:chat payload shape.
type ChatInput struct {
	GameID string `json:"gameId"`
	Text   string `json:"text"`
}

// ErrorPayload is the game:error payload: the stable code, an opaque
// request id, and a human-readable message safe to show the submitter
// (spec.md §7 "user-visible failures carry the stable code plus an opaque
// request id").
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}
