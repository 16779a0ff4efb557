package board

import (
	"fmt"
	"strings"
)

// Board holds the piece placement. It is a flat arena indexed by Square,
// with occupancy bitboards cached per player.
type Board struct {
	squares [64]Piece

	// Occupancy bitboards (cached for move generation)
	occupied [2]Bitboard
	kings    Bitboard
}

// NewBoard creates the standard starting position:
// Black men on the dark squares of rows 0-2, Red men on rows 5-7.
func NewBoard() *Board {
	b := EmptyBoard()
	for sq := Square(0); sq < NoSquare; sq++ {
		if !sq.IsPlayable() {
			continue
		}
		switch {
		case sq.Row() < 3:
			b.Place(sq, BlackMan)
		case sq.Row() > 4:
			b.Place(sq, RedMan)
		}
	}
	return b
}

// EmptyBoard creates a board without pieces.
func EmptyBoard() *Board {
	return &Board{}
}

// Copy creates a deep copy of the board.
func (b *Board) Copy() *Board {
	nb := *b
	return &nb
}

// Get returns the piece at the given square, or NoPiece if empty or off the board.
func (b *Board) Get(sq Square) Piece {
	if !sq.IsValid() {
		return NoPiece
	}
	return b.squares[sq]
}

// IsEmpty returns true if the square is on the board and holds no piece.
func (b *Board) IsEmpty(sq Square) bool {
	return sq.IsValid() && b.squares[sq] == NoPiece
}

// Place puts a piece on a square, replacing whatever was there.
// The caller guarantees the square is playable.
func (b *Board) Place(sq Square, pc Piece) {
	b.Remove(sq)
	if pc == NoPiece {
		return
	}
	b.squares[sq] = pc
	b.occupied[pc.Owner()] |= SquareBB(sq)
	if pc.IsKing() {
		b.kings |= SquareBB(sq)
	}
}

// Remove clears a square and returns the piece that stood there.
func (b *Board) Remove(sq Square) Piece {
	pc := b.Get(sq)
	if pc == NoPiece {
		return NoPiece
	}
	bb := SquareBB(sq)
	b.squares[sq] = NoPiece
	b.occupied[pc.Owner()] &^= bb
	b.kings &^= bb
	return pc
}

// Promote crowns the man on sq. It returns false when the square is empty
// or already holds a king, leaving the board unchanged.
func (b *Board) Promote(sq Square) bool {
	pc := b.Get(sq)
	if pc == NoPiece || pc.IsKing() {
		return false
	}
	b.squares[sq] = pc.Crowned()
	b.kings |= SquareBB(sq)
	return true
}

// Pieces returns the occupancy bitboard of a player.
func (b *Board) Pieces(p Player) Bitboard {
	if p >= NoPlayer {
		return Empty
	}
	return b.occupied[p]
}

// Kings returns the bitboard of crowned pieces of a player.
func (b *Board) Kings(p Player) Bitboard {
	return b.kings & b.Pieces(p)
}

// Occupied returns the bitboard of all pieces.
func (b *Board) Occupied() Bitboard {
	return b.occupied[Red] | b.occupied[Black]
}

// Count returns the number of pieces a player has on the board.
func (b *Board) Count(p Player) int {
	return b.Pieces(p).PopCount()
}

// Total returns the number of pieces on the board.
func (b *Board) Total() int {
	return b.Occupied().PopCount()
}

// MarshalBinary returns one byte per square, in square order.
func (b *Board) MarshalBinary() ([]byte, error) {
	out := make([]byte, len(b.squares))
	for i, pc := range b.squares {
		out[i] = byte(pc)
	}
	return out, nil
}

// Validate checks the board invariants: pieces only on playable squares,
// at most 12 per side and no man resting on its own promotion row.
func (b *Board) Validate() error {
	if b.Occupied()&^Playable != 0 {
		return fmt.Errorf("pieces on non-playable squares: %v", (b.Occupied() &^ Playable).Squares())
	}
	for _, p := range []Player{Red, Black} {
		if n := b.Count(p); n > 12 {
			return fmt.Errorf("%s has %d pieces, at most 12 allowed", p, n)
		}
		men := b.Pieces(p) &^ b.kings
		if men&RowMask[PromotionRow(p)] != 0 {
			return fmt.Errorf("%s men cannot stand on row %d", p, PromotionRow(p))
		}
	}
	return nil
}

// String returns a visual representation of the board.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for row := 0; row < BoardSize; row++ {
		fmt.Fprintf(&sb, "%d  ", BoardSize-row)
		for col := 0; col < BoardSize; col++ {
			sb.WriteString(b.Get(NewSquare(row, col)).String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n")
	return sb.String()
}
