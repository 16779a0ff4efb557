// Package engine provides a non-authoritative opponent that picks uniformly
// among the legal moves, plus perft node counting for move generation checks.
package engine

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/game"
)

// Engine chooses moves for a session. It never validates anything itself:
// the chosen move still goes through Session.ApplyMove.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine seeded from the clock.
func NewEngine() *Engine {
	return NewSeeded(uint64(time.Now().UnixNano()))
}

// NewSeeded creates an engine with a reproducible move sequence.
func NewSeeded(seed uint64) *Engine {
	return &Engine{rng: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// Choose returns a random legal move for the player to move, or
// game.ErrNoLegalMoves when there is none.
func (e *Engine) Choose(s *game.Session) (board.Move, error) {
	moves := s.AllLegalMoves()
	if len(moves) == 0 {
		if over, _ := s.IsTerminal(); over {
			return board.NoMove, game.ErrGameOver
		}
		return board.NoMove, game.ErrNoLegalMoves
	}

	e.mu.Lock()
	i := e.rng.IntN(len(moves))
	e.mu.Unlock()
	return moves[i], nil
}

// PlayTurn applies random moves until the turn passes to the other player or
// the game ends. Every step of a jump chain is returned in order.
func (e *Engine) PlayTurn(s *game.Session) ([]board.Move, error) {
	turn := s.Turn()
	var played []board.Move
	for {
		m, err := e.Choose(s)
		if err != nil {
			return played, err
		}
		if err := s.ApplyMove(m); err != nil {
			return played, err
		}
		played = append(played, m)

		if over, _ := s.IsTerminal(); over || s.Turn() != turn {
			return played, nil
		}
	}
}

// Perft counts the leaf nodes of the move tree to the given depth. Each jump
// step is one ply; during a chain the same player keeps moving the same piece.
func Perft(b *board.Board, turn board.Player, rules game.Rules, depth int) uint64 {
	return perft(b, turn, board.NoSquare, rules, depth)
}

// Divide returns the perft count below each root move.
func Divide(b *board.Board, turn board.Player, rules game.Rules, depth int) map[board.Move]uint64 {
	result := make(map[board.Move]uint64)
	if depth < 1 {
		return result
	}
	for _, m := range b.GenerateMoves(turn, rules.Capture) {
		child := b.Copy()
		next, forced := play(child, m, turn, rules)
		result[m] = perft(child, next, forced, rules, depth-1)
	}
	return result
}

func perft(b *board.Board, turn board.Player, forced board.Square, rules game.Rules, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var moves []board.Move
	if forced != board.NoSquare {
		moves = b.JumpsFrom(forced)
	} else {
		moves = b.GenerateMoves(turn, rules.Capture)
	}
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		child := b.Copy()
		next, nextForced := play(child, m, turn, rules)
		nodes += perft(child, next, nextForced, rules, depth-1)
	}
	return nodes
}

// play applies m and returns who moves next and the square that must keep jumping.
func play(b *board.Board, m board.Move, turn board.Player, rules game.Rules) (board.Player, board.Square) {
	promoted := b.MakeMove(m)
	if m.IsJump() && !(promoted && rules.PromotionEndsChain) && len(b.JumpsFrom(m.To)) > 0 {
		return turn, m.To
	}
	return turn.Other(), board.NoSquare
}
