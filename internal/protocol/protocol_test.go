package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/checkersplay/internal/engine"
	"github.com/hailam/checkersplay/internal/game"
)

func run(t *testing.T, p *Protocol, script ...string) []string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, p.Run(strings.NewReader(strings.Join(script, "\n")), &out))
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func newProtocol() *Protocol {
	return New(engine.NewSeeded(1), game.DefaultRules())
}

func TestMovesAndSelect(t *testing.T) {
	lines := run(t, newProtocol(),
		"moves c3",
		"select b6",
		"select c3",
		"moves d4",
	)

	assert.Equal(t, []string{
		"moves c3-b4 c3-d4",
		"error no legal moves for this selection: b6",
		"moves c3-b4 c3-d4",
		"moves",
	}, lines)
}

func TestMoveAndGameOver(t *testing.T) {
	winners := 0
	p := newProtocol()
	p.OnGameOver = func(s *game.Session) { winners++ }

	lines := run(t, p,
		"position fen r:8/8/8/8/3b4/4r3/8/8",
		"move e3-f4",
		"move e3xc5",
		"move c5-b6",
		"status",
	)

	require.Len(t, lines, 5)
	assert.Equal(t, "ok", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "error illegal move"), lines[1])
	assert.Equal(t, "gameover winner red", lines[2])
	assert.Equal(t, "error game already over", lines[3])
	assert.Equal(t, "status gameover red wins by no-moves", lines[4])
	assert.Equal(t, 1, winners)
}

func TestChainContinue(t *testing.T) {
	lines := run(t, newProtocol(),
		"position fen r:7b/8/8/4b3/8/2b5/1r6/6r1",
		"move b2xd4",
		"moves",
		"move g1-h2",
		"move d4xf6",
	)

	assert.Equal(t, []string{
		"ok",
		"continue d4",
		"moves d4xf6",
		"error jump chain in progress: continue from d4",
		"ok turn black",
	}, lines)
}

func TestPositionWithMoves(t *testing.T) {
	p := newProtocol()
	lines := run(t, p, "position startpos moves c3-d4 f6-e5", "status")

	assert.Equal(t, "ok", lines[0])
	assert.Equal(t, "status turn red phase awaiting-selection red 12 black 12 plies 2", lines[1])
	assert.Equal(t, 2, p.Session().Plies())
}

func TestStrictAndPerft(t *testing.T) {
	lines := run(t, newProtocol(),
		"perft 3",
		"strict on",
		"newgame",
		"perft 3",
	)

	assert.Equal(t, []string{
		"nodes 369",
		"ok capture mandatory",
		"ok",
		"nodes 302",
	}, lines)
}

func TestRandomAndResign(t *testing.T) {
	lines := run(t, newProtocol(), "random", "resign", "bogus", "quit", "status")

	require.Len(t, lines, 4, "nothing runs after quit")
	assert.True(t, strings.HasPrefix(lines[0], "played c3-") ||
		strings.HasPrefix(lines[0], "played a3-") ||
		strings.HasPrefix(lines[0], "played e3-") ||
		strings.HasPrefix(lines[0], "played g3-"), lines[0])
	assert.Equal(t, "ok turn black", lines[1])
	assert.Equal(t, "gameover winner red", lines[2], "black resigns on its turn")
	assert.Equal(t, "error unknown command bogus", lines[3])
}

func TestBoardDump(t *testing.T) {
	lines := run(t, newProtocol(), "d")
	assert.Equal(t, "fen r:1b1b1b1b/b1b1b1b1/1b1b1b1b/8/8/r1r1r1r1/1r1r1r1r/r1r1r1r1", lines[len(lines)-1])
}
