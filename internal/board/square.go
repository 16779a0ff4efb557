// Package board implements the checkers board, its pieces and move generation.
package board

import "fmt"

// Square represents a square on the board (0-63).
// Squares are indexed row*8+col, row 0 being Black's back rank and row 7 Red's.
type Square uint8

// NoSquare marks the absence of a square (e.g. the captured square of a simple move).
const NoSquare Square = 64

// BoardSize is the number of rows and columns.
const BoardSize = 8

// NewSquare creates a square from row and column (0-indexed).
func NewSquare(row, col int) Square {
	return Square(row*BoardSize + col)
}

// Row returns the row of the square (0-7).
func (sq Square) Row() int {
	return int(sq) >> 3
}

// Col returns the column of the square (0-7).
func (sq Square) Col() int {
	return int(sq) & 7
}

// IsValid returns true if the square is on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// IsPlayable returns true for the dark squares, where (row+col) is odd.
func (sq Square) IsPlayable() bool {
	return sq.IsValid() && (sq.Row()+sq.Col())&1 == 1
}

// Offset returns the square dr rows and dc columns away, or NoSquare when it falls off the board.
func (sq Square) Offset(dr, dc int) Square {
	r, c := sq.Row()+dr, sq.Col()+dc
	if r < 0 || r >= BoardSize || c < 0 || c >= BoardSize {
		return NoSquare
	}
	return NewSquare(r, c)
}

// String returns the algebraic name of the square (e.g. "e3" for row 5, column 4).
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.Col(), '0'+BoardSize-sq.Row())
}

// ParseSquare parses algebraic notation (e.g. "e3") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	col := int(s[0]) - 'a'
	rank := int(s[1]) - '0'

	if col < 0 || col >= BoardSize || rank < 1 || rank > BoardSize {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(BoardSize-rank, col), nil
}

// MarshalText implements encoding.TextMarshaler.
func (sq Square) MarshalText() ([]byte, error) {
	return []byte(sq.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (sq *Square) UnmarshalText(text []byte) error {
	if string(text) == "-" || len(text) == 0 {
		*sq = NoSquare
		return nil
	}
	parsed, err := ParseSquare(string(text))
	if err != nil {
		return err
	}
	*sq = parsed
	return nil
}
