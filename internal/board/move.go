package board

import (
	"fmt"
	"strings"
)

// Move is either a simple move (Captured == NoSquare) or a single jump step
// over the opposing piece on Captured.
type Move struct {
	From     Square
	To       Square
	Captured Square
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Captured: NoSquare}

// NewStep creates a simple (non-capturing) move.
func NewStep(from, to Square) Move {
	return Move{From: from, To: to, Captured: NoSquare}
}

// NewJump creates a jump from one square over captured onto to.
func NewJump(from, to, captured Square) Move {
	return Move{From: from, To: to, Captured: captured}
}

// IsJump returns true if this move captures a piece.
func (m Move) IsJump() bool {
	return m.Captured != NoSquare
}

// IsNull returns true for NoMove.
func (m Move) IsNull() bool {
	return m == NoMove
}

// String returns the move in "e3-d4" or "e3xc5" form.
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	sep := "-"
	if m.IsJump() {
		sep = "x"
	}
	return m.From.String() + sep + m.To.String()
}

// ParseMove parses "e3-d4" or "e3xc5". A jump's captured square is derived
// from the geometry; the result still has to be checked against the legal move set.
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[3:5])
	if err != nil {
		return NoMove, err
	}

	dr, dc := to.Row()-from.Row(), to.Col()-from.Col()
	switch s[2] {
	case '-':
		if abs(dr) != 1 || abs(dc) != 1 {
			return NoMove, fmt.Errorf("not a diagonal step: %s", s)
		}
		return NewStep(from, to), nil
	case 'x', ':':
		if abs(dr) != 2 || abs(dc) != 2 {
			return NoMove, fmt.Errorf("not a diagonal jump: %s", s)
		}
		return NewJump(from, to, from.Offset(dr/2, dc/2)), nil
	default:
		return NoMove, fmt.Errorf("invalid move separator %q in %s", s[2], s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Move) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Move) UnmarshalText(text []byte) error {
	if string(text) == "0000" {
		*m = NoMove
		return nil
	}
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ContainsMove returns true if the list contains the move.
func ContainsMove(moves []Move, m Move) bool {
	for _, candidate := range moves {
		if candidate == m {
			return true
		}
	}
	return false
}

// FindMove returns the move from src to dst in the list, or NoMove.
func FindMove(moves []Move, src, dst Square) Move {
	for _, m := range moves {
		if m.From == src && m.To == dst {
			return m
		}
	}
	return NoMove
}

// FormatMoves joins moves with spaces.
func FormatMoves(moves []Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
