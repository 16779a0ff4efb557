package board

// Player represents the owner of a piece, or the side to move.
type Player uint8

const (
	Red Player = iota
	Black
	NoPlayer Player = 2
)

// Other returns the opponent.
func (p Player) Other() Player {
	return p ^ 1
}

// String returns the player name.
func (p Player) String() string {
	switch p {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// ParsePlayer converts "red"/"r" or "black"/"b" to a Player.
func ParsePlayer(s string) (Player, bool) {
	switch s {
	case "red", "r", "Red":
		return Red, true
	case "black", "b", "Black":
		return Black, true
	default:
		return NoPlayer, false
	}
}

// Forward returns the row delta a man of this player advances by.
func (p Player) Forward() int {
	if p == Red {
		return -1
	}
	return 1
}

// PromotionRow returns the row on which a man of this player becomes a king.
func PromotionRow(p Player) int {
	if p == Red {
		return 0
	}
	return BoardSize - 1
}

// MarshalText implements encoding.TextMarshaler.
func (p Player) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Player) UnmarshalText(text []byte) error {
	parsed, ok := ParsePlayer(string(text))
	if !ok {
		parsed = NoPlayer
	}
	*p = parsed
	return nil
}

// Rank is the rank of a piece.
type Rank uint8

const (
	Man Rank = iota
	King
)

// String returns the rank name.
func (r Rank) String() string {
	switch r {
	case Man:
		return "man"
	case King:
		return "king"
	default:
		return "none"
	}
}

// Piece combines Player and Rank into a single value.
// Encoded as 1 + rank + player*2 so that the zero value is an empty square.
type Piece uint8

const (
	NoPiece   Piece = 0
	RedMan    Piece = 1 + Piece(Man) + Piece(Red)*2
	RedKing   Piece = 1 + Piece(King) + Piece(Red)*2
	BlackMan  Piece = 1 + Piece(Man) + Piece(Black)*2
	BlackKing Piece = 1 + Piece(King) + Piece(Black)*2
)

// NewPiece creates a Piece from Player and Rank.
func NewPiece(p Player, r Rank) Piece {
	if p >= NoPlayer || r > King {
		return NoPiece
	}
	return 1 + Piece(r) + Piece(p)*2
}

// Owner returns the player owning the piece.
func (pc Piece) Owner() Player {
	if pc == NoPiece || pc > BlackKing {
		return NoPlayer
	}
	return Player((pc - 1) / 2)
}

// Rank returns the rank of the piece.
func (pc Piece) Rank() Rank {
	return Rank((pc - 1) % 2)
}

// IsKing returns true for a crowned piece.
func (pc Piece) IsKing() bool {
	return pc != NoPiece && pc.Rank() == King
}

// Crowned returns the king of the same owner.
func (pc Piece) Crowned() Piece {
	if pc == NoPiece {
		return NoPiece
	}
	return NewPiece(pc.Owner(), King)
}

// String returns the notation character: lowercase for men, uppercase for kings.
func (pc Piece) String() string {
	switch pc {
	case RedMan:
		return "r"
	case RedKing:
		return "R"
	case BlackMan:
		return "b"
	case BlackKing:
		return "B"
	default:
		return "."
	}
}

// PieceFromChar converts a notation character to a Piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'r':
		return RedMan
	case 'R':
		return RedKing
	case 'b':
		return BlackMan
	case 'B':
		return BlackKing
	default:
		return NoPiece
	}
}
