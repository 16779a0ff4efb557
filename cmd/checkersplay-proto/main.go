package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/rs/zerolog/log"

	"github.com/hailam/checkersplay/internal/config"
	"github.com/hailam/checkersplay/internal/engine"
	"github.com/hailam/checkersplay/internal/logx"
	"github.com/hailam/checkersplay/internal/protocol"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	envFile    = flag.String("env", ".env", "dotenv file with CHECKERS_* settings")
	strict     = flag.Bool("strict", false, "start with mandatory capture for every piece")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logx.Configure("info", true)
		log.Fatal().Err(err).Msg("load config")
	}
	// stdout carries the protocol; logs always go to stderr
	logx.Configure(cfg.LogLevel, cfg.LogPretty)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	if *strict {
		cfg.StrictCapture = true
	}

	p := protocol.New(engine.NewEngine(), cfg.Rules())
	if err := p.Run(os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("read commands")
	}
}
