package board

import (
	"math/bits"
	"strings"
)

// Bitboard represents a 64-bit board where each bit corresponds to a square.
// Bit 0 = row 0 col 0, bit 7 = row 0 col 7, bit 63 = row 7 col 7.
type Bitboard uint64

// Column masks
const (
	ColA Bitboard = 0x0101010101010101
	ColH Bitboard = 0x8080808080808080

	NotColA Bitboard = ^ColA
	NotColH Bitboard = ^ColH
)

// Row masks
const (
	Row0 Bitboard = 0x00000000000000FF
	Row7 Bitboard = 0xFF00000000000000
)

// Special masks
const (
	Empty Bitboard = 0

	// Playable holds the dark squares, where (row+col) is odd.
	Playable Bitboard = 0x55AA55AA55AA55AA
)

// RowMask returns the row mask for a given row (0-7).
var RowMask = [8]Bitboard{Row0, Row0 << 8, Row0 << 16, Row0 << 24, Row0 << 32, Row0 << 40, Row0 << 48, Row7}

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

// Set sets a bit at the given square.
func (b Bitboard) Set(sq Square) Bitboard {
	return b | (1 << sq)
}

// Clear clears a bit at the given square.
func (b Bitboard) Clear(sq Square) Bitboard {
	return b &^ (1 << sq)
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	return sq < NoSquare && b&(1<<sq) != 0
}

// PopCount returns the number of set bits.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the least significant bit (lowest square index).
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes and returns the least significant bit.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

// Shift operations for move generation. "Up" is toward row 0 (Red's direction of travel).

// UpLeft shifts the bitboard one square toward row 0, column 0.
func (b Bitboard) UpLeft() Bitboard {
	return (b >> 9) & NotColH
}

// UpRight shifts the bitboard one square toward row 0, column 7.
func (b Bitboard) UpRight() Bitboard {
	return (b >> 7) & NotColA
}

// DownLeft shifts the bitboard one square toward row 7, column 0.
func (b Bitboard) DownLeft() Bitboard {
	return (b << 7) & NotColH
}

// DownRight shifts the bitboard one square toward row 7, column 7.
func (b Bitboard) DownRight() Bitboard {
	return (b << 9) & NotColA
}

// String returns a visual representation of the bitboard.
func (b Bitboard) String() string {
	var sb strings.Builder
	for row := 0; row < BoardSize; row++ {
		sb.WriteByte(byte('0' + BoardSize - row))
		sb.WriteByte(' ')
		for col := 0; col < BoardSize; col++ {
			if b.IsSet(NewSquare(row, col)) {
				sb.WriteString("1 ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

// ForEach calls the function for each set square.
func (b Bitboard) ForEach(f func(Square)) {
	for b != 0 {
		f(b.PopLSB())
	}
}

// Squares returns a slice of all squares that are set.
func (b Bitboard) Squares() []Square {
	squares := make([]Square, 0, b.PopCount())
	for b != 0 {
		squares = append(squares, b.PopLSB())
	}
	return squares
}
