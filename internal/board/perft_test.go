package board

import "testing"

// perft counts the number of leaf nodes at the given depth.
// Each jump step of a multi-jump chain counts as one ply.
func perft(b *Board, turn Player, chain Square, depth int, rule CaptureRule) int64 {
	var moves []Move
	if chain != NoSquare {
		moves = b.JumpsFrom(chain)
	} else {
		moves = b.GenerateMoves(turn, rule)
	}
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	for _, m := range moves {
		next := b.Copy()
		next.MakeMove(m)
		if m.IsJump() && len(next.JumpsFrom(m.To)) > 0 {
			nodes += perft(next, turn, m.To, depth-1, rule)
			continue
		}
		nodes += perft(next, turn.Other(), NoSquare, depth-1, rule)
	}
	return nodes
}

// TestPerftMandatoryCapture checks the standard English draughts counts.
func TestPerftMandatoryCapture(t *testing.T) {
	b := NewBoard()

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 7},
		{2, 49},
		{3, 302},
		{4, 1469},
		// Depth 5 takes longer, enable for thorough testing:
		// {5, 7361},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(b, Red, NoSquare, tc.depth, CaptureMandatory)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftPerPieceCapture lets pieces without a jump keep moving, so the
// counts exceed the standard ones from depth 3 on.
func TestPerftPerPieceCapture(t *testing.T) {
	b := NewBoard()

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 7},
		{2, 49},
		{3, 369},
		{4, 2675},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(b, Red, NoSquare, tc.depth, CapturePerPiece)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// walk visits every position reachable within depth plies.
func walk(b *Board, turn Player, depth int, visit func(*Board, Player)) {
	visit(b, turn)
	if depth == 0 {
		return
	}
	for _, m := range b.GenerateMoves(turn, CapturePerPiece) {
		next := b.Copy()
		next.MakeMove(m)
		walk(next, turn.Other(), depth-1, visit)
	}
}

// TestBitboardGeneratorsAgree cross-checks the bitboard shortcuts against
// square-by-square generation on every position up to depth 4.
func TestBitboardGeneratorsAgree(t *testing.T) {
	walk(NewBoard(), Red, 4, func(b *Board, turn Player) {
		for _, p := range []Player{Red, Black} {
			jumps, steps := 0, 0
			b.Pieces(p).ForEach(func(sq Square) {
				jumps += len(b.JumpsFrom(sq))
				steps += len(b.StepsFrom(sq))
			})
			if b.HasJump(p) != (jumps > 0) {
				t.Fatalf("HasJump(%s) = %v with %d jumps\n%s", p, b.HasJump(p), jumps, b)
			}
			if b.HasMoves(p) != (jumps+steps > 0) {
				t.Fatalf("HasMoves(%s) = %v with %d moves\n%s", p, b.HasMoves(p), jumps+steps, b)
			}
		}
		if b.Total() > 24 {
			t.Fatalf("piece count grew to %d", b.Total())
		}
	})
}
