package transport

import (
	"context"
	"time"

	"github.com/gambit-chess/engine/pkg/gambiterr"
	"github.com/gorilla/websocket"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// sendQueueSize bounds a connection's outbound buffer; spec.md §5
// "Backpressure": "if a queue overflows, the slow connection is closed and
// the client must reconnect."
const sendQueueSize = 256

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Connection wraps one upgraded WebSocket with a bounded outbound queue and
// a read/write pump pair, grounded on herohde-morlock's
// pkg/engine/uci.Driver: an `in <-chan`/`out chan<-` pair plus an
// atomic.Bool closed flag and a Closed() channel, generalized from a single
// local stdin/stdout pair to one pair per network connection.
type Connection struct {
	ws *websocket.Conn

	PlayerID string // authenticated identity; spectators hold no seat in the game
	GameID   string

	send chan ServerFrame

	closed atomic.Bool
	quit   chan struct{}
}

// NewConnection wraps ws for the given game and (possibly empty) player
// identity.
func NewConnection(ws *websocket.Conn, gameID, playerID string) *Connection {
	return &Connection{
		ws:       ws,
		GameID:   gameID,
		PlayerID: playerID,
		send:     make(chan ServerFrame, sendQueueSize),
		quit:     make(chan struct{}),
	}
}

// Close closes the connection exactly once.
func (c *Connection) Close() {
	if c.closed.CAS(false, true) {
		close(c.quit)
		c.ws.Close()
	}
}

// Closed reports when the connection has been torn down, by either side.
func (c *Connection) Closed() <-chan struct{} {
	return c.quit
}

// Enqueue queues f for delivery. If the outbound buffer is full (a slow or
// stalled client), the connection is closed per spec.md §5's backpressure
// contract rather than blocking the actor dispatching the frame.
func (c *Connection) Enqueue(ctx context.Context, f ServerFrame) {
	select {
	case c.send <- f:
	default:
		logw.Errorf(ctx, "transport: connection %q send queue overflowed; closing", c.PlayerID)
		c.Close()
	}
}

// WritePump drains the send queue to the underlying WebSocket and sends
// periodic pings, until the connection closes. Must run in its own
// goroutine.
func (c *Connection) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.ws.WriteJSON(frame); err != nil {
				logw.Infof(ctx, "transport: write failed for %q: %v", c.PlayerID, err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			return
		}
	}
}

// ReadPump reads framed client messages and invokes handle for each,
// until the connection closes or a read error occurs. Must run in its own
// goroutine.
func (c *Connection) ReadPump(ctx context.Context, handle func(context.Context, *Connection, ClientFrame)) {
	defer c.Close()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame ClientFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			logw.Infof(ctx, "transport: read closed for %q: %v", c.PlayerID, err)
			return
		}
		if frame.Type == TypePing {
			c.Enqueue(ctx, newFrame(TypePong, nil))
			continue
		}
		handle(ctx, c, frame)
	}
}

// sendError enqueues a game:error frame for e, never leaking e's internal
// cause across the wire (spec.md §7).
func (c *Connection) sendError(ctx context.Context, requestID string, err error) {
	ge, ok := err.(*gambiterr.GambitError)
	if !ok {
		ge = gambiterr.Internalf(err, "unexpected error")
	}
	frame := newFrame(TypeError, ErrorPayload{Code: string(ge.Code), Message: ge.Message, RequestID: requestID})
	c.Enqueue(ctx, frame)
}
