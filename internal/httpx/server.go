// Package httpx exposes the lobby over a JSON API and a websocket relay.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/game"
	"github.com/hailam/checkersplay/internal/lobby"
	"github.com/hailam/checkersplay/internal/storage"
)

// StatsSource reads stored player statistics.
type StatsSource interface {
	LoadStats(player string) (*storage.GameStats, error)
	AllStats() ([]*storage.GameStats, error)
}

// Server wires the HTTP layer to the lobby.
type Server struct {
	lobby *lobby.Lobby
	stats StatsSource
	hub   *Hub

	srvMu sync.Mutex
	srv   *http.Server
}

const (
	maxJSONBodyBytes int64 = 1 << 16
	apiCSP                 = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
)

// NewServer builds a Server and subscribes its hub to lobby updates.
// stats may be nil.
func NewServer(l *lobby.Lobby, stats StatsSource, allowedOrigins []string) *Server {
	s := &Server{
		lobby: l,
		stats: stats,
		hub:   NewHub(l, allowedOrigins),
	}
	l.OnUpdate = s.hub.Broadcast
	return s
}

// Listen starts the HTTP server.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	log.Info().Str("addr", addr).Msg("HTTP listening")
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown of the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Routes configures the ServeMux with the JSON API and the websocket endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/rooms", s.withJSON(s.handleList))
	mux.HandleFunc("POST /api/rooms", s.withJSON(s.handleCreate))
	mux.HandleFunc("GET /api/rooms/{id}", s.withJSON(s.handleState))
	mux.HandleFunc("POST /api/rooms/{id}/join", s.withJSON(s.handleJoin))
	mux.HandleFunc("GET /api/rooms/{id}/moves", s.withJSON(s.handleMoves))
	mux.HandleFunc("POST /api/rooms/{id}/move", s.withJSON(s.handleMove))
	mux.HandleFunc("POST /api/rooms/{id}/resign", s.withJSON(s.handleResign))
	mux.HandleFunc("POST /api/rooms/{id}/leave", s.withJSON(s.handleLeave))
	mux.HandleFunc("GET /api/stats", s.withJSON(s.handleStats))

	mux.HandleFunc("GET /ws", s.hub.ServeWS)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ---- JSON helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applyAPISecurityHeaders(w.Header())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg})
}

// writeLobbyError maps lobby and game errors to HTTP status codes.
func writeLobbyError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, lobby.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, lobby.ErrNotSeated):
		return http.StatusForbidden
	case errors.Is(err, lobby.ErrRoomFull),
		errors.Is(err, lobby.ErrNotStarted),
		errors.Is(err, lobby.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, game.ErrGameOver):
		return http.StatusGone
	case errors.Is(err, game.ErrIllegalMove),
		errors.Is(err, game.ErrChainInProgress),
		errors.Is(err, game.ErrNoLegalMoves):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func applyAPISecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", apiCSP)
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// decodeBody decodes the request body into v, writing the error response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// ---- API: rooms ----

type createBody struct {
	Player string `json:"player"`
	Bot    bool   `json:"bot"`
}

type seatBody struct {
	Token string `json:"token"`
}

type moveBody struct {
	Token string `json:"token"`
	Move  string `json:"move"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"rooms": s.lobby.List()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if !decodeBody(w, r, &body) {
		return
	}
	ticket, err := s.lobby.Create(body.Player, body.Bot)
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, ticket)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if !decodeBody(w, r, &body) {
		return
	}
	ticket, err := s.lobby.Join(r.PathValue("id"), body.Player)
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	writeJSON(w, ticket)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	view, err := s.lobby.Get(r.PathValue("id"))
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	sq, err := board.ParseSquare(strings.TrimSpace(r.URL.Query().Get("square")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid square")
		return
	}
	moves, err := s.lobby.LegalMoves(r.PathValue("id"), sq)
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	if moves == nil {
		moves = []board.Move{}
	}
	writeJSON(w, map[string]any{"square": sq, "moves": moves})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body moveBody
	if !decodeBody(w, r, &body) {
		return
	}
	m, err := board.ParseMove(body.Move)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.lobby.Move(r.PathValue("id"), body.Token, m)
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	var body seatBody
	if !decodeBody(w, r, &body) {
		return
	}
	view, err := s.lobby.Resign(r.PathValue("id"), body.Token)
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var body seatBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.lobby.Leave(r.PathValue("id"), body.Token); err != nil {
		writeLobbyError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// ---- API: stats ----

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "statistics are disabled")
		return
	}

	if player := strings.TrimSpace(r.URL.Query().Get("player")); player != "" {
		stats, err := s.stats.LoadStats(player)
		if err != nil {
			log.Error().Err(err).Str("player", player).Msg("load stats")
			writeError(w, http.StatusInternalServerError, "stats unavailable")
			return
		}
		writeJSON(w, stats)
		return
	}

	all, err := s.stats.AllStats()
	if err != nil {
		log.Error().Err(err).Msg("load stats")
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	if all == nil {
		all = []*storage.GameStats{}
	}
	writeJSON(w, map[string]any{"players": all})
}
