package board

import (
	"fmt"
	"strings"
)

// StartFEN is the notation for the starting position, Red to move.
const StartFEN = "r:1b1b1b1b/b1b1b1b1/1b1b1b1b/8/8/r1r1r1r1/1r1r1r1r/r1r1r1r1"

// ParseFEN parses a position in "<turn>:<rows>" form. Rows run from row 0
// (Black's back rank) to row 7, separated by '/'; digits count empty squares,
// r/b are men and R/B kings.
func ParseFEN(fen string) (*Board, Player, error) {
	turnStr, placement, ok := strings.Cut(strings.TrimSpace(fen), ":")
	if !ok {
		return nil, NoPlayer, fmt.Errorf("invalid FEN: missing ':' separator")
	}

	turn, ok := ParsePlayer(turnStr)
	if !ok {
		return nil, NoPlayer, fmt.Errorf("invalid side to move: %s", turnStr)
	}

	b := EmptyBoard()
	if err := parsePlacement(b, placement); err != nil {
		return nil, NoPlayer, err
	}
	if err := b.Validate(); err != nil {
		return nil, NoPlayer, fmt.Errorf("invalid FEN: %w", err)
	}

	return b, turn, nil
}

// parsePlacement parses the piece placement section of a FEN string.
func parsePlacement(b *Board, placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != BoardSize {
		return fmt.Errorf("invalid piece placement: need %d rows, got %d", BoardSize, len(rows))
	}

	for row, rowStr := range rows {
		col := 0

		for _, c := range rowStr {
			if col >= BoardSize {
				return fmt.Errorf("too many squares in row %d", row)
			}

			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}

			pc := PieceFromChar(byte(c))
			if pc == NoPiece {
				return fmt.Errorf("invalid piece character: %c", c)
			}
			sq := NewSquare(row, col)
			if !sq.IsPlayable() {
				return fmt.Errorf("piece on non-playable square %s", sq)
			}
			b.Place(sq, pc)
			col++
		}

		if col != BoardSize {
			return fmt.Errorf("invalid number of squares in row %d: got %d", row, col)
		}
	}

	return nil
}

// FEN returns the notation of the board with the given side to move.
func (b *Board) FEN(turn Player) string {
	var sb strings.Builder
	sb.WriteString(turn.String()[:1])
	sb.WriteByte(':')

	for row := 0; row < BoardSize; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < BoardSize; col++ {
			pc := b.Get(NewSquare(row, col))
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}

	return sb.String()
}
