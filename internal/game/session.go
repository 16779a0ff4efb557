// Package game implements the checkers turn controller: one Session value
// per game, threaded explicitly through every call.
package game

import (
	"fmt"

	"github.com/hailam/checkersplay/internal/board"
)

// Phase is the state of the turn controller.
type Phase uint8

const (
	AwaitingSelection Phase = iota
	AwaitingDestination
	ChainContinuation
	GameOver
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case AwaitingSelection:
		return "awaiting-selection"
	case AwaitingDestination:
		return "awaiting-destination"
	case ChainContinuation:
		return "chain-continuation"
	case GameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := AwaitingSelection; candidate <= GameOver; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid phase: %s", text)
}

// EndReason tells why a game ended.
type EndReason uint8

const (
	NotEnded EndReason = iota
	NoMovesLeft
	Resignation
	Repetition
	QuietMoves
)

// String returns the reason name.
func (r EndReason) String() string {
	switch r {
	case NoMovesLeft:
		return "no-moves"
	case Resignation:
		return "resignation"
	case Repetition:
		return "repetition"
	case QuietMoves:
		return "quiet-moves"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r EndReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *EndReason) UnmarshalText(text []byte) error {
	for candidate := NotEnded; candidate <= QuietMoves; candidate++ {
		if candidate.String() == string(text) {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid end reason: %s", text)
}

// Session is the state of one game. It is not safe for concurrent use;
// callers serialize Select/ApplyMove calls.
type Session struct {
	board *board.Board
	turn  board.Player
	rules Rules

	// Selection (AwaitingDestination)
	selected  board.Square
	selection []board.Move

	// Square of the piece that must keep jumping (ChainContinuation)
	forced board.Square

	// Terminal state
	over   bool
	winner board.Player
	reason EndReason

	// Move bookkeeping
	plies      int
	quietPlies int
	lastMove   board.Move
	seen       map[uint64]int
}

// NewGame creates a session at the standard starting position, Red to move.
func NewGame(rules Rules) *Session {
	return newSession(board.NewBoard(), board.Red, rules)
}

// NewGameFromFEN creates a session from a position in board.ParseFEN notation.
// A position where the side to move is already stuck starts as GameOver.
func NewGameFromFEN(fen string, rules Rules) (*Session, error) {
	b, turn, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return newSession(b, turn, rules), nil
}

func newSession(b *board.Board, turn board.Player, rules Rules) *Session {
	s := &Session{
		board:    b,
		turn:     turn,
		rules:    rules,
		selected: board.NoSquare,
		forced:   board.NoSquare,
		winner:   board.NoPlayer,
		lastMove: board.NoMove,
		seen:     make(map[uint64]int),
	}
	s.startTurn()
	return s
}

// Board returns a copy of the current board.
func (s *Session) Board() *board.Board {
	return s.board.Copy()
}

// Turn returns the player to move.
func (s *Session) Turn() board.Player {
	return s.turn
}

// Rules returns the rules the session was created with.
func (s *Session) Rules() Rules {
	return s.rules
}

// Phase returns the current state of the turn controller.
func (s *Session) Phase() Phase {
	switch {
	case s.over:
		return GameOver
	case s.forced != board.NoSquare:
		return ChainContinuation
	case s.selected != board.NoSquare:
		return AwaitingDestination
	default:
		return AwaitingSelection
	}
}

// ForcedSquare returns the square that must continue jumping, or NoSquare.
func (s *Session) ForcedSquare() board.Square {
	return s.forced
}

// Selected returns the selected square and its legal moves.
func (s *Session) Selected() (board.Square, []board.Move) {
	return s.selected, s.selection
}

// LastMove returns the last applied move, or board.NoMove.
func (s *Session) LastMove() board.Move {
	return s.lastMove
}

// Plies returns the number of moves (jump steps included) applied so far.
func (s *Session) Plies() int {
	return s.plies
}

// IsTerminal reports whether the game is over and who won.
// The winner is board.NoPlayer for a draw.
func (s *Session) IsTerminal() (bool, board.Player) {
	return s.over, s.winner
}

// EndReason returns why the game ended, or NotEnded.
func (s *Session) EndReason() EndReason {
	return s.reason
}

// LegalMoves returns the moves the piece on sq may make right now.
// It is empty for an empty square, an opponent piece, a piece other than the
// one completing a jump chain, or after the game has ended.
func (s *Session) LegalMoves(sq board.Square) []board.Move {
	if s.over {
		return nil
	}
	if s.forced != board.NoSquare {
		if sq != s.forced {
			return nil
		}
		return s.board.JumpsFrom(sq)
	}
	if s.board.Get(sq).Owner() != s.turn {
		return nil
	}
	return s.board.MovesFrom(sq, s.rules.Capture)
}

// AllLegalMoves returns every move available to the player to move.
func (s *Session) AllLegalMoves() []board.Move {
	if s.over {
		return nil
	}
	if s.forced != board.NoSquare {
		return s.board.JumpsFrom(s.forced)
	}
	return s.board.GenerateMoves(s.turn, s.rules.Capture)
}

// Select picks the piece on sq and returns its legal moves. Selecting a
// square with nothing to do clears the selection and returns ErrNoLegalMoves.
func (s *Session) Select(sq board.Square) ([]board.Move, error) {
	if s.over {
		return nil, ErrGameOver
	}
	if s.forced != board.NoSquare && sq != s.forced {
		return nil, fmt.Errorf("%w: continue from %s", ErrChainInProgress, s.forced)
	}

	moves := s.LegalMoves(sq)
	if len(moves) == 0 {
		s.Deselect()
		return nil, fmt.Errorf("%w: %s", ErrNoLegalMoves, sq)
	}

	s.selected = sq
	s.selection = moves
	return moves, nil
}

// Deselect clears the current selection. The forced square of a jump chain stays.
func (s *Session) Deselect() {
	s.selected = board.NoSquare
	s.selection = nil
}

// ApplyMove validates m against the legal moves of its piece and applies it.
// Rejected moves leave the session untouched.
func (s *Session) ApplyMove(m board.Move) error {
	if s.over {
		return ErrGameOver
	}
	if s.forced != board.NoSquare && m.From != s.forced {
		return fmt.Errorf("%w: continue from %s", ErrChainInProgress, s.forced)
	}
	if !board.ContainsMove(s.LegalMoves(m.From), m) {
		if s.forced != board.NoSquare {
			return fmt.Errorf("%w: %s does not continue the chain", ErrChainInProgress, m)
		}
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	mover := s.board.Get(m.From)
	promoted := s.board.MakeMove(m)

	s.plies++
	s.lastMove = m
	if m.IsJump() || mover.Rank() == board.Man {
		s.quietPlies = 0
	} else {
		s.quietPlies++
	}
	s.Deselect()

	if m.IsJump() && !(promoted && s.rules.PromotionEndsChain) && len(s.board.JumpsFrom(m.To)) > 0 {
		s.forced = m.To
		return nil
	}

	s.forced = board.NoSquare
	s.turn = s.turn.Other()
	s.startTurn()
	return nil
}

// Resign ends the game in favour of the opponent of p.
func (s *Session) Resign(p board.Player) error {
	if s.over {
		return ErrGameOver
	}
	if p >= board.NoPlayer {
		return fmt.Errorf("invalid player %d", p)
	}
	s.finish(p.Other(), Resignation)
	return nil
}

// startTurn runs the terminal checks for the player now to move.
func (s *Session) startTurn() {
	if !s.board.HasMoves(s.turn) {
		s.finish(s.turn.Other(), NoMovesLeft)
		return
	}

	h := s.board.Hash(s.turn)
	s.seen[h]++
	if s.rules.RepetitionLimit > 0 && s.seen[h] >= s.rules.RepetitionLimit {
		s.finish(board.NoPlayer, Repetition)
		return
	}
	if s.rules.MaxQuietPlies > 0 && s.quietPlies >= s.rules.MaxQuietPlies {
		s.finish(board.NoPlayer, QuietMoves)
	}
}

func (s *Session) finish(winner board.Player, reason EndReason) {
	s.over = true
	s.winner = winner
	s.reason = reason
	s.forced = board.NoSquare
	s.Deselect()
}
