// Package lobby hosts networked games: players host a room, share its invite
// code, and an opponent joins. Every room owns one game.Session behind its own
// mutex, so at most one mutation runs per game.
package lobby

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/engine"
	"github.com/hailam/checkersplay/internal/game"
	"github.com/hailam/checkersplay/internal/storage"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNotSeated    = errors.New("player is not seated in this room")
	ErrNotStarted   = errors.New("waiting for an opponent")
	ErrNotYourTurn  = errors.New("not your turn")
)

// BotName is the seat name of the random opponent.
const BotName = "bot"

const inviteCodeLen = 6

// Recorder stores finished games.
type Recorder interface {
	RecordGame(result storage.GameResult) error
}

// Ticket identifies a seated player. The token is the player's secret.
type Ticket struct {
	Room  string       `json:"room"`
	Seat  board.Player `json:"seat"`
	Token string       `json:"token"`
}

// View is the public state of a room.
type View struct {
	Room    string     `json:"room"`
	Red     string     `json:"red"`
	Black   string     `json:"black"`
	Bot     bool       `json:"bot"`
	Started bool       `json:"started"`
	Result  string     `json:"result,omitempty"`
	State   game.State `json:"state"`
}

// Summary is a room entry in List.
type Summary struct {
	Room    string `json:"room"`
	Host    string `json:"host"`
	Open    bool   `json:"open"`
	Over    bool   `json:"over"`
	Created string `json:"created"`
}

type room struct {
	mu       sync.Mutex
	id       string
	session  *game.Session
	names    [2]string
	tokens   [2]string
	bot      bool
	created  time.Time
	started  time.Time
	recorded bool
}

// Lobby is the registry of rooms.
type Lobby struct {
	rules    game.Rules
	engine   *engine.Engine
	recorder Recorder

	mu    sync.RWMutex
	rooms map[string]*room

	// OnUpdate is called with the new view after every accepted change.
	// It runs while the room is locked, so it must not call back into the lobby.
	OnUpdate func(View)
}

// New creates a lobby. recorder may be nil.
func New(rules game.Rules, eng *engine.Engine, recorder Recorder) *Lobby {
	if eng == nil {
		eng = engine.NewEngine()
	}
	return &Lobby{
		rules:    rules,
		engine:   eng,
		recorder: recorder,
		rooms:    make(map[string]*room),
	}
}

// Create hosts a new room. The host plays Red. With bot set, Black is the
// random opponent and the game starts at once.
func (l *Lobby) Create(name string, bot bool) (Ticket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Ticket{}, errors.New("player name required")
	}

	r := &room{
		session: game.NewGame(l.rules),
		created: time.Now(),
		bot:     bot,
	}
	r.names[board.Red] = name
	r.tokens[board.Red] = uuid.NewString()
	if bot {
		r.names[board.Black] = BotName
		r.started = r.created
	}

	l.mu.Lock()
	for {
		r.id = newInviteCode()
		if _, taken := l.rooms[r.id]; !taken {
			break
		}
	}
	l.rooms[r.id] = r
	l.mu.Unlock()

	log.Info().Str("room", r.id).Str("player", name).Bool("bot", bot).Msg("room created")
	return Ticket{Room: r.id, Seat: board.Red, Token: r.tokens[board.Red]}, nil
}

// Join takes the free Black seat of a room and starts the game.
func (l *Lobby) Join(roomID, name string) (Ticket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Ticket{}, errors.New("player name required")
	}
	r, err := l.room(roomID)
	if err != nil {
		return Ticket{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[board.Black] != "" {
		return Ticket{}, ErrRoomFull
	}
	r.names[board.Black] = name
	r.tokens[board.Black] = uuid.NewString()
	r.started = time.Now()

	log.Info().Str("room", r.id).Str("player", name).Msg("player joined")
	l.notify(r)
	return Ticket{Room: r.id, Seat: board.Black, Token: r.tokens[board.Black]}, nil
}

// Get returns the current view of a room.
func (l *Lobby) Get(roomID string) (View, error) {
	r, err := l.room(roomID)
	if err != nil {
		return View{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view(), nil
}

// LegalMoves returns the moves of the piece on sq for the player to move.
func (l *Lobby) LegalMoves(roomID string, sq board.Square) ([]board.Move, error) {
	r, err := l.room(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.LegalMoves(sq), nil
}

// Move applies a move for the player holding token. In a bot room the bot
// answers before Move returns.
func (l *Lobby) Move(roomID, token string, m board.Move) (View, error) {
	r, err := l.room(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seat, err := r.seat(token)
	if err != nil {
		return r.view(), err
	}
	if r.started.IsZero() {
		return r.view(), ErrNotStarted
	}
	if over, _ := r.session.IsTerminal(); !over && r.session.Turn() != seat {
		return r.view(), ErrNotYourTurn
	}
	if err := r.session.ApplyMove(m); err != nil {
		return r.view(), err
	}
	log.Debug().Str("room", r.id).Str("player", r.names[seat]).Stringer("move", m).Msg("move")

	if r.bot && r.session.Turn() == board.Black {
		if over, _ := r.session.IsTerminal(); !over {
			played, err := l.engine.PlayTurn(r.session)
			if err != nil {
				log.Error().Err(err).Str("room", r.id).Msg("bot move failed")
			}
			log.Debug().Str("room", r.id).Str("moves", board.FormatMoves(played)).Msg("bot moved")
		}
	}

	l.finishIfOver(r)
	l.notify(r)
	return r.view(), nil
}

// Resign ends the game in favour of the other seat.
func (l *Lobby) Resign(roomID, token string) (View, error) {
	r, err := l.room(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seat, err := r.seat(token)
	if err != nil {
		return r.view(), err
	}
	if r.started.IsZero() {
		return r.view(), ErrNotStarted
	}
	if err := r.session.Resign(seat); err != nil {
		return r.view(), err
	}

	log.Info().Str("room", r.id).Str("player", r.names[seat]).Msg("resigned")
	l.finishIfOver(r)
	l.notify(r)
	return r.view(), nil
}

// Leave removes a player. Leaving a running game forfeits it; a host leaving
// before anyone joined closes the room.
func (l *Lobby) Leave(roomID, token string) error {
	r, err := l.room(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	seat, err := r.seat(token)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	if r.started.IsZero() {
		r.mu.Unlock()
		l.mu.Lock()
		delete(l.rooms, r.id)
		l.mu.Unlock()
		log.Info().Str("room", r.id).Msg("room closed")
		return nil
	}

	if over, _ := r.session.IsTerminal(); !over {
		_ = r.session.Resign(seat)
		log.Info().Str("room", r.id).Str("player", r.names[seat]).Msg("left, game forfeited")
		l.finishIfOver(r)
		l.notify(r)
	}
	r.mu.Unlock()
	return nil
}

// List returns every room, newest first.
func (l *Lobby) List() []Summary {
	l.mu.RLock()
	rooms := make([]*room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	l.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].created.After(rooms[j].created) })

	list := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		over, _ := r.session.IsTerminal()
		list = append(list, Summary{
			Room:    r.id,
			Host:    r.names[board.Red],
			Open:    r.names[board.Black] == "",
			Over:    over,
			Created: r.created.Format(time.RFC3339),
		})
		r.mu.Unlock()
	}
	return list
}

func (l *Lobby) room(id string) (*room, error) {
	l.mu.RLock()
	r, ok := l.rooms[strings.ToUpper(strings.TrimSpace(id))]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return r, nil
}

// finishIfOver records a finished game once. The room must be locked.
func (l *Lobby) finishIfOver(r *room) {
	over, _ := r.session.IsTerminal()
	if !over || r.recorded {
		return
	}
	r.recorded = true

	log.Info().Str("room", r.id).Str("result", r.session.Result()).Msg("game over")
	if l.recorder == nil {
		return
	}

	black := r.names[board.Black]
	if r.bot {
		black = ""
	}
	for _, result := range storage.ResultsFor(r.session, r.names[board.Red], black, time.Since(r.started)) {
		if err := l.recorder.RecordGame(result); err != nil {
			log.Error().Err(err).Str("room", r.id).Str("player", result.Player).Msg("record game")
		}
	}
}

func (l *Lobby) notify(r *room) {
	if l.OnUpdate != nil {
		l.OnUpdate(r.view())
	}
}

func (r *room) seat(token string) (board.Player, error) {
	if token != "" {
		for _, p := range []board.Player{board.Red, board.Black} {
			if r.tokens[p] == token {
				return p, nil
			}
		}
	}
	return board.NoPlayer, ErrNotSeated
}

func (r *room) view() View {
	return View{
		Room:    r.id,
		Red:     r.names[board.Red],
		Black:   r.names[board.Black],
		Bot:     r.bot,
		Started: !r.started.IsZero(),
		Result:  r.session.Result(),
		State:   r.session.Snapshot(),
	}
}

func newInviteCode() string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return code[:inviteCodeLen]
}
