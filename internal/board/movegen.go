package board

import "fmt"

// CaptureRule selects how the mandatory-capture rule is enforced.
type CaptureRule uint8

const (
	// CapturePerPiece forces jumps only for the piece that has one.
	// Other pieces of the same player may still make simple moves.
	CapturePerPiece CaptureRule = iota
	// CaptureMandatory forbids every simple move while any piece of the
	// player to move can jump.
	CaptureMandatory
)

// String returns the rule name.
func (r CaptureRule) String() string {
	switch r {
	case CapturePerPiece:
		return "per-piece"
	case CaptureMandatory:
		return "mandatory"
	default:
		return "unknown"
	}
}

// ParseCaptureRule parses "per-piece" or "mandatory".
func ParseCaptureRule(s string) (CaptureRule, error) {
	switch s {
	case "per-piece", "piece", "":
		return CapturePerPiece, nil
	case "mandatory", "strict", "global":
		return CaptureMandatory, nil
	default:
		return CapturePerPiece, fmt.Errorf("invalid capture rule: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r CaptureRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *CaptureRule) UnmarshalText(text []byte) error {
	parsed, err := ParseCaptureRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// direction is a diagonal unit step.
type direction struct {
	dr, dc int
}

var (
	upDirections   = []direction{{-1, -1}, {-1, 1}}
	downDirections = []direction{{1, -1}, {1, 1}}
	allDirections  = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// directions returns the diagonals a piece may move or capture along.
func directions(pc Piece) []direction {
	switch pc.Rank() {
	case King:
		return allDirections
	case Man:
		if pc.Owner() == Red {
			return upDirections
		}
		return downDirections
	}
	return nil
}

// JumpsFrom returns every single jump available to the piece on sq.
func (b *Board) JumpsFrom(sq Square) []Move {
	pc := b.Get(sq)
	if pc == NoPiece {
		return nil
	}

	var moves []Move
	for _, d := range directions(pc) {
		over := sq.Offset(d.dr, d.dc)
		to := sq.Offset(2*d.dr, 2*d.dc)
		if to == NoSquare || !b.IsEmpty(to) {
			continue
		}
		if victim := b.Get(over); victim != NoPiece && victim.Owner() != pc.Owner() {
			moves = append(moves, NewJump(sq, to, over))
		}
	}
	return moves
}

// StepsFrom returns the simple moves available to the piece on sq, ignoring captures.
func (b *Board) StepsFrom(sq Square) []Move {
	pc := b.Get(sq)
	if pc == NoPiece {
		return nil
	}

	var moves []Move
	for _, d := range directions(pc) {
		to := sq.Offset(d.dr, d.dc)
		if to != NoSquare && b.IsEmpty(to) {
			moves = append(moves, NewStep(sq, to))
		}
	}
	return moves
}

// MovesFrom returns the legal moves of the piece on sq for its owner.
// A piece that can jump is offered only its jumps. Under CaptureMandatory a
// piece that cannot jump gets nothing while another piece of its owner can.
func (b *Board) MovesFrom(sq Square, rule CaptureRule) []Move {
	pc := b.Get(sq)
	if pc == NoPiece {
		return nil
	}

	if jumps := b.JumpsFrom(sq); len(jumps) > 0 {
		return jumps
	}
	if rule == CaptureMandatory && b.HasJump(pc.Owner()) {
		return nil
	}
	return b.StepsFrom(sq)
}

// GenerateMoves returns all legal moves for the player.
func (b *Board) GenerateMoves(p Player, rule CaptureRule) []Move {
	var moves []Move
	if rule == CaptureMandatory && b.HasJump(p) {
		b.Pieces(p).ForEach(func(sq Square) {
			moves = append(moves, b.JumpsFrom(sq)...)
		})
		return moves
	}

	b.Pieces(p).ForEach(func(sq Square) {
		moves = append(moves, b.MovesFrom(sq, CapturePerPiece)...)
	})
	return moves
}

// HasJump returns true if any piece of the player can capture.
// Men are shifted toward their owner's forward direction only; kings both ways.
func (b *Board) HasJump(p Player) bool {
	us := b.Pieces(p)
	if us == 0 {
		return false
	}
	them := b.Pieces(p.Other())
	empty := Playable &^ b.Occupied()
	kings := us & b.kings

	up, down := us, kings
	if p == Black {
		up, down = kings, us
	}

	return (up.UpLeft()&them).UpLeft()&empty != 0 ||
		(up.UpRight()&them).UpRight()&empty != 0 ||
		(down.DownLeft()&them).DownLeft()&empty != 0 ||
		(down.DownRight()&them).DownRight()&empty != 0
}

// HasMoves returns true if the player has at least one legal move.
// The capture rule does not matter here: a forced jump is itself a move.
func (b *Board) HasMoves(p Player) bool {
	if b.HasJump(p) {
		return true
	}

	us := b.Pieces(p)
	empty := Playable &^ b.Occupied()
	kings := us & b.kings

	up, down := us, kings
	if p == Black {
		up, down = kings, us
	}

	return (up.UpLeft()|up.UpRight())&empty != 0 ||
		(down.DownLeft()|down.DownRight())&empty != 0
}

// MakeMove applies a move that is already known to be legal, capturing and
// promoting as needed. It returns true if the moving piece was crowned.
func (b *Board) MakeMove(m Move) bool {
	pc := b.Remove(m.From)
	if pc == NoPiece {
		return false
	}
	if m.IsJump() {
		b.Remove(m.Captured)
	}
	b.Place(m.To, pc)

	if m.To.Row() == PromotionRow(pc.Owner()) {
		return b.Promote(m.To)
	}
	return false
}
