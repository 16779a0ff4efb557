package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	b := NewBoard()

	assert.Equal(t, 12, b.Count(Red))
	assert.Equal(t, 12, b.Count(Black))
	assert.Zero(t, b.Occupied()&^Playable, "pieces on light squares")
	require.NoError(t, b.Validate())

	for sq := Square(0); sq < NoSquare; sq++ {
		pc := b.Get(sq)
		switch {
		case pc == NoPiece:
		case pc.Owner() == Black:
			assert.Less(t, sq.Row(), 3, "black piece on %s", sq)
		case pc.Owner() == Red:
			assert.Greater(t, sq.Row(), 4, "red piece on %s", sq)
		}
		if pc != NoPiece {
			assert.Equal(t, Man, pc.Rank())
		}
	}
}

func TestSquareNotation(t *testing.T) {
	tests := []struct {
		row, col int
		name     string
		playable bool
	}{
		{5, 4, "e3", true},
		{0, 1, "b8", true},
		{7, 0, "a1", true},
		{0, 0, "a8", false},
		{7, 7, "h1", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sq := NewSquare(tc.row, tc.col)
			assert.Equal(t, tc.name, sq.String())
			assert.Equal(t, tc.playable, sq.IsPlayable())

			parsed, err := ParseSquare(tc.name)
			require.NoError(t, err)
			assert.Equal(t, sq, parsed)
		})
	}

	for _, bad := range []string{"", "i1", "a0", "a9", "e33"} {
		_, err := ParseSquare(bad)
		assert.Error(t, err, bad)
	}
}

func TestOffsetOffBoard(t *testing.T) {
	assert.Equal(t, NoSquare, NewSquare(0, 1).Offset(-1, 1))
	assert.Equal(t, NoSquare, NewSquare(3, 0).Offset(1, -1))
	assert.Equal(t, NewSquare(4, 3), NewSquare(5, 4).Offset(-1, -1))
}

func TestPieceEncoding(t *testing.T) {
	for _, p := range []Player{Red, Black} {
		for _, r := range []Rank{Man, King} {
			pc := NewPiece(p, r)
			assert.Equal(t, p, pc.Owner())
			assert.Equal(t, r, pc.Rank())
			assert.Equal(t, pc, PieceFromChar(pc.String()[0]))
		}
	}
	assert.Equal(t, NoPlayer, NoPiece.Owner())
	assert.False(t, NoPiece.IsKing())
}

func TestPlaceRemove(t *testing.T) {
	b := EmptyBoard()
	sq := NewSquare(2, 3)

	assert.Equal(t, NoPiece, b.Get(sq))
	assert.Equal(t, NoPiece, b.Get(NoSquare))

	b.Place(sq, BlackKing)
	assert.Equal(t, BlackKing, b.Get(sq))
	assert.True(t, b.Kings(Black).IsSet(sq))
	assert.Equal(t, 1, b.Count(Black))

	b.Place(sq, RedMan)
	assert.Equal(t, 0, b.Count(Black), "replacing must clear the previous owner")
	assert.False(t, b.Kings(Black).IsSet(sq))

	assert.Equal(t, RedMan, b.Remove(sq))
	assert.Equal(t, 0, b.Total())
	assert.Equal(t, NoPiece, b.Remove(sq))
}

func TestPromoteIdempotent(t *testing.T) {
	b := EmptyBoard()
	sq := NewSquare(0, 1)
	b.Place(sq, RedMan)

	assert.True(t, b.Promote(sq))
	assert.Equal(t, RedKing, b.Get(sq))

	before := *b
	assert.False(t, b.Promote(sq))
	assert.Equal(t, RedKing, b.Get(sq))
	assert.Equal(t, before, *b)

	assert.False(t, b.Promote(NewSquare(0, 3)), "empty square")
}

func TestPromotionRow(t *testing.T) {
	assert.Equal(t, 0, PromotionRow(Red))
	assert.Equal(t, 7, PromotionRow(Black))
}

func TestMarshalBinary(t *testing.T) {
	b := NewBoard()
	data, err := b.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 64)
	assert.Equal(t, byte(BlackMan), data[NewSquare(0, 1)])
	assert.Equal(t, byte(RedMan), data[NewSquare(7, 0)])
	assert.Equal(t, byte(NoPiece), data[NewSquare(4, 3)])
}

func TestHashTracksSideAndPieces(t *testing.T) {
	b := NewBoard()
	assert.NotEqual(t, b.Hash(Red), b.Hash(Black))

	c := b.Copy()
	c.MakeMove(NewStep(NewSquare(5, 0), NewSquare(4, 1)))
	assert.NotEqual(t, b.Hash(Red), c.Hash(Red))

	c.MakeMove(NewStep(NewSquare(4, 1), NewSquare(5, 0)))
	assert.Equal(t, b.Hash(Red), c.Hash(Red))
}
