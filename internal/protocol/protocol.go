// Package protocol implements a line based text protocol for driving a game
// session from a terminal or another program.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/engine"
	"github.com/hailam/checkersplay/internal/game"
)

// errQuit stops the read loop.
var errQuit = errors.New("quit")

// Protocol reads one command per line and answers with single lines.
type Protocol struct {
	engine  *engine.Engine
	rules   game.Rules
	session *game.Session
	out     io.Writer

	// OnGameOver is called once per finished game.
	OnGameOver func(s *game.Session)
}

// New creates a protocol handler with a fresh game under the given rules.
func New(eng *engine.Engine, rules game.Rules) *Protocol {
	return &Protocol{
		engine:  eng,
		rules:   rules,
		session: game.NewGame(rules),
		out:     io.Discard,
	}
}

// Session returns the current game.
func (p *Protocol) Session() *game.Session {
	return p.session
}

// Run executes commands from r until EOF or "quit", writing responses to w.
func (p *Protocol) Run(r io.Reader, w io.Writer) error {
	p.out = w
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if err := p.Execute(parts[0], parts[1:]); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			log.Debug().Err(err).Str("cmd", line).Msg("command failed")
			p.println("error", err.Error())
		}
	}
	return scanner.Err()
}

// Execute runs a single command.
func (p *Protocol) Execute(cmd string, args []string) error {
	switch cmd {
	case "newgame":
		p.session = game.NewGame(p.rules)
		p.println("ok")
	case "strict":
		return p.handleStrict(args)
	case "position":
		return p.handlePosition(args)
	case "select":
		return p.handleSelect(args)
	case "moves":
		return p.handleMoves(args)
	case "move":
		return p.handleMove(args)
	case "random":
		return p.handleRandom()
	case "resign":
		return p.handleResign(args)
	case "status":
		p.printStatus()
	case "d":
		p.printBoard()
	case "perft":
		return p.handlePerft(args)
	case "quit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %s", cmd)
	}
	return nil
}

// handleStrict switches the capture rule used by the next game.
//   - strict on
//   - strict off
func (p *Protocol) handleStrict(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: strict on|off")
	}
	switch args[0] {
	case "on":
		p.rules.Capture = board.CaptureMandatory
	case "off":
		p.rules.Capture = board.CapturePerPiece
	default:
		return errors.New("usage: strict on|off")
	}
	p.println("ok", "capture", p.rules.Capture.String())
	return nil
}

// handlePosition sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e3-d4 b6-c5
//   - position fen <fen>
//   - position fen <fen> moves e3xc5
func (p *Protocol) handlePosition(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: position startpos|fen <fen> [moves ...]")
	}

	var s *game.Session
	var rest []string

	switch args[0] {
	case "startpos":
		s = game.NewGame(p.rules)
		rest = args[1:]
	case "fen":
		if len(args) < 2 {
			return errors.New("missing FEN")
		}
		var err error
		s, err = game.NewGameFromFEN(args[1], p.rules)
		if err != nil {
			return err
		}
		rest = args[2:]
	default:
		return fmt.Errorf("unknown position type %s", args[0])
	}

	if len(rest) > 0 {
		if rest[0] != "moves" {
			return fmt.Errorf("unexpected %s", rest[0])
		}
		for _, moveStr := range rest[1:] {
			m, err := board.ParseMove(moveStr)
			if err != nil {
				return err
			}
			if err := s.ApplyMove(m); err != nil {
				return err
			}
		}
	}

	p.session = s
	p.println("ok")
	return nil
}

func (p *Protocol) handleSelect(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: select <square>")
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		return err
	}
	moves, err := p.session.Select(sq)
	if err != nil {
		return err
	}
	p.printMoves(moves)
	return nil
}

func (p *Protocol) handleMoves(args []string) error {
	if len(args) == 0 {
		p.printMoves(p.session.AllLegalMoves())
		return nil
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		return err
	}
	p.printMoves(p.session.LegalMoves(sq))
	return nil
}

func (p *Protocol) handleMove(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: move <e3-d4|e3xc5>")
	}
	m, err := board.ParseMove(args[0])
	if err != nil {
		return err
	}
	if err := p.session.ApplyMove(m); err != nil {
		return err
	}
	p.afterMove()
	return nil
}

func (p *Protocol) handleRandom() error {
	played, err := p.engine.PlayTurn(p.session)
	if err != nil {
		return err
	}
	p.println("played", board.FormatMoves(played))
	p.afterMove()
	return nil
}

func (p *Protocol) handleResign(args []string) error {
	player := p.session.Turn()
	if len(args) > 0 {
		var ok bool
		if player, ok = board.ParsePlayer(args[0]); !ok {
			return fmt.Errorf("invalid player %s", args[0])
		}
	}
	if err := p.session.Resign(player); err != nil {
		return err
	}
	p.afterMove()
	return nil
}

// handlePerft counts move tree leaves from the current position.
//   - perft 4
//   - perft 4 divide
func (p *Protocol) handlePerft(args []string) error {
	depth := 4
	if len(args) > 0 {
		var err error
		if depth, err = strconv.Atoi(args[0]); err != nil || depth < 0 {
			return fmt.Errorf("invalid depth %s", args[0])
		}
	}

	b := p.session.Board()
	turn := p.session.Turn()
	rules := p.session.Rules()
	start := time.Now()

	if len(args) > 1 && args[1] == "divide" {
		counts := engine.Divide(b, turn, rules, depth)
		moves := make([]board.Move, 0, len(counts))
		for m := range counts {
			moves = append(moves, m)
		}
		slices.SortFunc(moves, func(x, y board.Move) int {
			return strings.Compare(x.String(), y.String())
		})
		for _, m := range moves {
			p.println(m.String(), strconv.FormatUint(counts[m], 10))
		}
	}

	nodes := engine.Perft(b, turn, rules, depth)
	log.Debug().Uint64("nodes", nodes).Dur("elapsed", time.Since(start)).Int("depth", depth).Msg("perft")
	p.println("nodes", strconv.FormatUint(nodes, 10))
	return nil
}

// afterMove reports the state reached by a move: a finished game, a chain
// that must continue, or the next player's turn.
func (p *Protocol) afterMove() {
	if over, winner := p.session.IsTerminal(); over {
		if winner == board.NoPlayer {
			p.println("gameover", "draw", p.session.EndReason().String())
		} else {
			p.println("gameover", "winner", winner.String())
		}
		if p.OnGameOver != nil {
			p.OnGameOver(p.session)
		}
		return
	}
	if sq := p.session.ForcedSquare(); sq != board.NoSquare {
		p.println("continue", sq.String())
		return
	}
	p.println("ok", "turn", p.session.Turn().String())
}

func (p *Protocol) printStatus() {
	st := p.session.Snapshot()
	if st.Over {
		p.println("status", "gameover", p.session.Result())
		return
	}
	p.println("status", "turn", st.Turn.String(), "phase", st.Phase.String(),
		"red", strconv.Itoa(st.Red), "black", strconv.Itoa(st.Black),
		"plies", strconv.Itoa(st.Plies))
}

func (p *Protocol) printBoard() {
	b := p.session.Board()
	fmt.Fprint(p.out, b.String())
	p.println("fen", b.FEN(p.session.Turn()))
}

func (p *Protocol) printMoves(moves []board.Move) {
	if len(moves) == 0 {
		p.println("moves")
		return
	}
	p.println("moves", board.FormatMoves(moves))
}

func (p *Protocol) println(fields ...string) {
	fmt.Fprintln(p.out, strings.Join(fields, " "))
}
