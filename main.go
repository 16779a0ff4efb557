// CheckersPlay - checkers rule engine with a lobby server and a text protocol front-end
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/config"
	"github.com/hailam/checkersplay/internal/engine"
	"github.com/hailam/checkersplay/internal/game"
	"github.com/hailam/checkersplay/internal/httpx"
	"github.com/hailam/checkersplay/internal/lobby"
	"github.com/hailam/checkersplay/internal/logx"
	"github.com/hailam/checkersplay/internal/protocol"
	"github.com/hailam/checkersplay/internal/storage"
)

func main() {
	// Initialize logger; reconfigured once the settings are loaded
	logx.Configure("info", true)

	app := &cli.App{
		Name:  "checkersplay",
		Usage: "checkers rule engine, lobby server and text protocol",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with CHECKERS_* settings"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
			&cli.BoolFlag{Name: "log-pretty", Usage: "human readable logs"},
			&cli.StringFlag{Name: "data-dir", Usage: "directory for the statistics database"},
			&cli.BoolFlag{Name: "strict", Usage: "any available capture is mandatory for every piece"},
			&cli.BoolFlag{Name: "promotion-ends-chain", Usage: "a man crowned by a jump stops jumping"},
			&cli.IntFlag{Name: "max-quiet-plies", Usage: "draw after this many plies without capture or man move (0 = off)"},
			&cli.IntFlag{Name: "repetition-limit", Usage: "draw when a position occurs this many times (0 = off)"},
		},
		Action: func(*cli.Context) error {
			fmt.Println("--help for more information.")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP and websocket lobby server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "listen address"},
				},
				Action: serve,
			},
			{
				Name:  "play",
				Usage: "Play through the text protocol on stdin/stdout",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "player name stored in preferences"},
					&cli.StringFlag{Name: "color", Usage: "side you play: red or black"},
				},
				Action: play,
			},
			{
				Name:   "stats",
				Usage:  "Print stored player statistics",
				Action: printStats,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("checkersplay")
	}
}

// loadConfig reads defaults, the dotenv file and the environment, then applies
// the flags given on the command line.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-pretty") {
		cfg.LogPretty = c.Bool("log-pretty")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("strict") {
		cfg.StrictCapture = c.Bool("strict")
	}
	if c.IsSet("promotion-ends-chain") {
		cfg.PromotionEndsChain = c.Bool("promotion-ends-chain")
	}
	if c.IsSet("max-quiet-plies") {
		cfg.MaxQuietPlies = c.Int("max-quiet-plies")
	}
	if c.IsSet("repetition-limit") {
		cfg.RepetitionLimit = c.Int("repetition-limit")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logx.Configure(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if first, err := store.IsFirstLaunch(); err == nil && first {
		log.Info().Msg("first launch, statistics database created")
		if err := store.MarkFirstLaunchComplete(); err != nil {
			log.Warn().Err(err).Msg("mark first launch")
		}
	}

	rules := cfg.Rules()
	log.Info().Stringer("capture", rules.Capture).Bool("promotionEndsChain", rules.PromotionEndsChain).
		Int("maxQuietPlies", rules.MaxQuietPlies).Int("repetitionLimit", rules.RepetitionLimit).Msg("rules")

	l := lobby.New(rules, engine.NewEngine(), store)
	srv := httpx.NewServer(l, store, cfg.AllowedOrigins)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.Addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Close(shutdownCtx)
	}
}

func play(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.LoadPreferences()
	if err != nil {
		return err
	}
	if c.IsSet("name") {
		prefs.Username = c.String("name")
	}
	if c.IsSet("color") {
		color, ok := board.ParsePlayer(c.String("color"))
		if !ok {
			return fmt.Errorf("invalid color %q", c.String("color"))
		}
		prefs.PlayerColor = color
	}
	prefs.Rules = cfg.Rules()
	if err := store.SavePreferences(prefs); err != nil {
		return err
	}

	p := protocol.New(engine.NewEngine(), prefs.Rules)
	started := time.Now()
	p.OnGameOver = func(s *game.Session) {
		red, black := prefs.Username, ""
		if prefs.PlayerColor == board.Black {
			red, black = "", prefs.Username
		}
		for _, result := range storage.ResultsFor(s, red, black, time.Since(started)) {
			if err := store.RecordGame(result); err != nil {
				log.Error().Err(err).Msg("record game")
			}
		}
		started = time.Now()
	}

	return p.Run(os.Stdin, os.Stdout)
}

func printStats(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	all, err := store.AllStats()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No games recorded yet.")
		return nil
	}

	fmt.Printf("%-16s %6s %5s %6s %5s %8s %7s\n", "PLAYER", "GAMES", "WINS", "LOSSES", "DRAWS", "WIN %", "STREAK")
	for _, s := range all {
		fmt.Printf("%-16s %6d %5d %6d %5d %7.1f%% %7d\n",
			s.Player, s.GamesPlayed, s.Wins, s.Losses, s.Draws, s.GetWinRate(), s.LongestWinStrk)
	}
	return nil
}
