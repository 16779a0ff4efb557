package game

import "github.com/hailam/checkersplay/internal/board"

// State is a serializable view of a session for transports and renderers.
type State struct {
	FEN       string       `json:"fen"`
	Turn      board.Player `json:"turn"`
	Phase     Phase        `json:"phase"`
	Forced    board.Square `json:"forced"`
	Selected  board.Square `json:"selected"`
	Selection []board.Move `json:"selection,omitempty"`
	LastMove  board.Move   `json:"lastMove"`
	Plies     int          `json:"plies"`
	Red       int          `json:"red"`
	Black     int          `json:"black"`
	Over      bool         `json:"over"`
	Winner    board.Player `json:"winner"`
	Reason    EndReason    `json:"reason,omitempty"`
	Rules     Rules        `json:"rules"`
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() State {
	return State{
		FEN:       s.board.FEN(s.turn),
		Turn:      s.turn,
		Phase:     s.Phase(),
		Forced:    s.forced,
		Selected:  s.selected,
		Selection: append([]board.Move(nil), s.selection...),
		LastMove:  s.lastMove,
		Plies:     s.plies,
		Red:       s.board.Count(board.Red),
		Black:     s.board.Count(board.Black),
		Over:      s.over,
		Winner:    s.winner,
		Reason:    s.reason,
		Rules:     s.rules,
	}
}

// Result returns a human readable result, or "" while the game is running.
func (s *Session) Result() string {
	if !s.over {
		return ""
	}
	if s.winner == board.NoPlayer {
		return "Draw by " + s.reason.String()
	}
	return s.winner.String() + " wins by " + s.reason.String()
}
