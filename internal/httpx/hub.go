package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/lobby"
)

// ---------- message envelope ----------

// Msg is a websocket message. Clients send "move", "select", "resign" and
// "leave"; the server sends "state", "moves" and "error".
type Msg struct {
	T string          `json:"t"`           // type
	M json.RawMessage `json:"m,omitempty"` // payload
}

type clientPayload struct {
	Move   string `json:"move,omitempty"`
	Square string `json:"square,omitempty"`
}

const pingInterval = 15 * time.Second

// ---------- client / hub ----------

type client struct {
	id    string
	room  string
	token string
	send  chan []byte
}

// Hub relays room updates to websocket subscribers.
type Hub struct {
	lobby        *lobby.Lobby
	allowOrigins map[string]bool

	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // room -> subscribers
}

// NewHub creates a hub. An empty origin list accepts any origin.
func NewHub(l *lobby.Lobby, allow []string) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{
		lobby:        l,
		allowOrigins: m,
		clients:      map[string]map[*client]struct{}{},
	}
}

// Broadcast sends a room view to every subscriber of the room. Slow clients
// miss updates rather than block the room.
func (h *Hub) Broadcast(view lobby.View) {
	b := encode("state", view)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[view.Room] {
		select {
		case c.send <- b:
		default:
		}
	}
}

// Subscribers returns the number of clients watching a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[roomID])
}

// ---------- websockets ----------

// ServeWS upgrades /ws?room=ID[&token=T]. Without a token the client only
// watches the room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && len(h.allowOrigins) > 0 && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	view, err := h.lobby.Get(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	cl := &client{
		id:    uuid.NewString(),
		room:  view.Room,
		token: r.URL.Query().Get("token"),
		send:  make(chan []byte, 64),
	}
	h.add(cl)
	log.Debug().Str("client", cl.id).Str("room", cl.room).Msg("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cl.send <- encode("state", view)

	// writer
	done := make(chan struct{})
	go func() {
		defer close(done)
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case msg := <-cl.send:
				if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
					cancel()
					return
				}
			case <-ping.C:
				_ = c.Ping(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	// reader
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		var m Msg
		if err := json.Unmarshal(data, &m); err != nil {
			h.reply(cl, "error", map[string]string{"error": "invalid json"})
			continue
		}
		h.handle(cl, m)
	}

	cancel()
	<-done
	h.remove(cl)
	_ = c.Close(websocket.StatusNormalClosure, "bye")
	log.Debug().Str("client", cl.id).Str("room", cl.room).Msg("client disconnected")
}

// handle runs one client message. Accepted changes reach every subscriber
// through Broadcast; errors go to the sender only.
func (h *Hub) handle(cl *client, m Msg) {
	var p clientPayload
	if len(m.M) > 0 {
		if err := json.Unmarshal(m.M, &p); err != nil {
			h.reply(cl, "error", map[string]string{"error": "invalid payload"})
			return
		}
	}

	var err error
	switch m.T {
	case "move":
		var mv board.Move
		if mv, err = board.ParseMove(p.Move); err == nil {
			_, err = h.lobby.Move(cl.room, cl.token, mv)
		}

	case "select":
		var sq board.Square
		if sq, err = board.ParseSquare(strings.TrimSpace(p.Square)); err == nil {
			var moves []board.Move
			if moves, err = h.lobby.LegalMoves(cl.room, sq); err == nil {
				if moves == nil {
					moves = []board.Move{}
				}
				h.reply(cl, "moves", map[string]any{"square": sq, "moves": moves})
			}
		}

	case "resign":
		_, err = h.lobby.Resign(cl.room, cl.token)

	case "leave":
		err = h.lobby.Leave(cl.room, cl.token)

	case "ping", "pong":
		// ignore

	default:
		h.reply(cl, "error", map[string]string{"error": "unknown message type " + m.T})
		return
	}

	if err != nil {
		h.reply(cl, "error", map[string]any{"error": err.Error(), "status": statusFor(err)})
	}
}

// ---------- helpers ----------

func encode(t string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("type", t).Msg("encode message")
		raw = nil
	}
	b, _ := json.Marshal(Msg{T: t, M: raw})
	return b
}

func (h *Hub) reply(cl *client, t string, payload any) {
	select {
	case cl.send <- encode(t, payload):
	default:
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[cl.room] == nil {
		h.clients[cl.room] = map[*client]struct{}{}
	}
	h.clients[cl.room][cl] = struct{}{}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[cl.room], cl)
	if len(h.clients[cl.room]) == 0 {
		delete(h.clients, cl.room)
	}
}
