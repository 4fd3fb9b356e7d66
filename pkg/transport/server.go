package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/eventlog"
	"github.com/gambit-chess/engine/pkg/gambiterr"
	"github.com/gambit-chess/engine/pkg/session"
	"github.com/gambit-chess/engine/pkg/state"
	"github.com/gambit-chess/engine/pkg/store"
	"github.com/gorilla/websocket"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"golang.org/x/text/unicode/norm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the process's single HTTP entrypoint: anonymous/registered
// session issuance, game creation, and the WebSocket upgrade that hands a
// connection off to a Hub-owned room, grounded on herohde-morlock's
// cmd/morlock HTTP wiring generalized from a single UCI engine process to a
// multiplayer game server.
type Server struct {
	hub      *Hub
	sessions *session.Manager
	live     *store.LiveStore
	cfg      config.Config
	version  build.Version
}

// NewServer wires a Server over the given Hub, session Manager and Live
// Store (which holds anonymous-session existence).
func NewServer(hub *Hub, sessions *session.Manager, live *store.LiveStore, cfg config.Config, version build.Version) *Server {
	return &Server{hub: hub, sessions: sessions, live: live, cfg: cfg, version: version}
}

// Routes returns the handler tree; cmd/gambit-server mounts it directly.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/sessions/anonymous", s.handleIssueAnonymous)
	mux.HandleFunc("/sessions/refresh", s.handleRefresh)
	mux.HandleFunc("/games", s.handleGames)
	mux.HandleFunc("/games/", s.handleGameWS)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   fmt.Sprintf("%v", s.version),
		"status":    "ok",
		"liveGames": s.live.Size(),
	})
}

func (s *Server) handleIssueAnonymous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fp := session.Fingerprint(r.UserAgent(), r.Header.Get("Accept-Language"), r.RemoteAddr)
	token, tok := s.sessions.IssueAnonymous(fp)
	s.live.SetSession(r.Context(), tok.SessionID, session.AnonymousTTL)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": tok.Expiry,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	access, refresh, err := s.sessions.Rotate(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, gambiterr.Authorizationf(gambiterr.Unauthorized, "refresh rejected: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accessToken": access, "refreshToken": refresh})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		id := randomGameID()
		s.hub.CreateGame(id, s.cfg)
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.hub.ListGames())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGameWS upgrades GET /games/{id}/ws to a WebSocket and attaches the
// connection to the Hub's room for that game (spec.md §5; §6 auth
// handshake).
func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	gameID, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/games/"), "/ws")
	if !ok || gameID == "" {
		http.NotFound(w, r)
		return
	}

	playerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logw.Infof(r.Context(), "transport: upgrade failed for game %q: %v", gameID, err)
		return
	}

	conn := NewConnection(ws, gameID, playerID)
	ctx := context.Background()
	if err := s.hub.Attach(ctx, conn); err != nil {
		conn.sendError(ctx, "", err)
		conn.Close()
		return
	}

	go conn.WritePump(ctx)
	conn.ReadPump(ctx, s.handleClientFrame)
	s.hub.Detach(conn)
}

// authenticate resolves the caller's player id from a bearer access token or
// an anonymous session token bound to the request's fingerprint. Missing or
// invalid credentials refuse the handshake (spec.md §6); spectators are
// authenticated identities that simply hold no seat in the game.
func (s *Server) authenticate(r *http.Request) (string, error) {
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && bearer != "" {
		return s.sessions.ValidateAccess(bearer)
	}
	if tok := r.URL.Query().Get("anonymousSessionToken"); tok != "" {
		fp := session.Fingerprint(r.UserAgent(), r.Header.Get("Accept-Language"), r.RemoteAddr)
		at, err := s.sessions.ValidateAnonymous(r.Context(), tok, fp)
		if err != nil {
			return "", err
		}
		// The token alone is not enough: the session must still exist in
		// the Live Store, and presenting it bumps lastActivity.
		if !s.live.TouchSession(r.Context(), at.SessionID, session.AnonymousTTL) {
			return "", gambiterr.Authorizationf(gambiterr.Unauthorized, "session no longer exists")
		}
		return at.SessionID, nil
	}
	return "", gambiterr.Authorizationf(gambiterr.Unauthorized, "missing credentials")
}

// handleClientFrame routes one inbound ClientFrame to the owning Machine and
// fans the resulting Outbound events out via the Hub.
func (s *Server) handleClientFrame(ctx context.Context, conn *Connection, frame ClientFrame) {
	m, ok := s.hub.Machine(conn.GameID)
	if !ok {
		conn.sendError(ctx, frame.ID, gambiterr.Validationf(gambiterr.GameNotFound, "game %q not found", conn.GameID))
		return
	}

	var (
		outs []state.Outbound
		err  error
	)
	switch frame.Type {
	case TypeJoin:
		var in struct {
			InitialBP int `json:"initialBattlePoints"`
		}
		err = decode(frame.Payload, &in)
		if err == nil {
			outs, err = m.Join(ctx, conn.PlayerID, in.InitialBP)
		}
	case TypeMove:
		var in MoveInput
		err = decode(frame.Payload, &in)
		if err == nil {
			var from, to board.Square
			from, err = board.ParseSquare(in.Move.From)
			if err == nil {
				to, err = board.ParseSquare(in.Move.To)
			}
			promo := board.NoKind
			if err == nil && in.Move.Promotion != "" {
				var ok bool
				promo, ok = board.ParseKind(rune(in.Move.Promotion[0]))
				if !ok {
					err = gambiterr.Validationf(gambiterr.IllegalMove, "unrecognized promotion kind %q", in.Move.Promotion)
				}
			}
			if err == nil {
				outs, err = m.Move(ctx, conn.PlayerID, from, to, promo)
			}
		}
	case TypeDuelAllocation:
		var in AllocationInput
		err = decode(frame.Payload, &in)
		if err == nil {
			outs, err = m.Allocate(ctx, conn.PlayerID, in.Allocation)
		}
	case TypeTacticalRetreat:
		var in RetreatInput
		err = decode(frame.Payload, &in)
		if err == nil {
			var to board.Square
			to, err = board.ParseSquare(in.RetreatSquare)
			if err == nil {
				outs, err = m.Retreat(ctx, conn.PlayerID, to)
			}
		}
	case TypeResign:
		outs, err = m.Resign(ctx, conn.PlayerID)
	case TypeOfferDraw:
		outs, err = m.OfferDraw(ctx, conn.PlayerID)
	case TypeRespondDraw:
		var in RespondDrawInput
		err = decode(frame.Payload, &in)
		if err == nil {
			outs, err = m.RespondDraw(ctx, conn.PlayerID, in.Accept)
		}
	case TypeGetState:
		// A reconnecting client passes the last sequence it saw; it gets
		// the directed events it missed, then a fresh snapshot.
		if frame.Sequence > 0 {
			err = s.hub.Replay(ctx, conn, frame.Sequence)
		} else {
			err = s.hub.Attach(ctx, conn)
		}
	case TypeChat:
		var in ChatInput
		err = decode(frame.Payload, &in)
		if err == nil {
			text := norm.NFC.String(strings.TrimSpace(in.Text))
			if text != "" {
				outs = []state.Outbound{{
					Type:      eventlog.ChatMessage,
					Recipient: eventlog.Everyone(),
					Payload:   ChatMessageDTO{Sender: conn.PlayerID, Text: text},
				}}
			}
		}
	default:
		err = gambiterr.Validationf(gambiterr.InvalidAction, "unrecognized frame type %q", frame.Type)
	}

	if err != nil {
		conn.sendError(ctx, frame.ID, err)
		return
	}
	if len(outs) > 0 {
		s.hub.Dispatch(ctx, conn.GameID, outs)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return gambiterr.Validationf(gambiterr.InvalidAction, "malformed payload: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	ge, ok := err.(*gambiterr.GambitError)
	if !ok {
		ge = gambiterr.Internalf(err, "unexpected error")
	}
	writeJSON(w, status, ErrorPayload{Code: string(ge.Code), Message: ge.Message})
}

func randomGameID() string {
	return time.Now().UTC().Format("20060102T150405.000000000")
}
