// Package config loads server and game settings from defaults, an optional
// .env file and CHECKERS_* environment variables. Command line flags are
// applied on top by the binaries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/game"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "CHECKERS_"

// Config holds every runtime setting.
type Config struct {
	Addr               string
	DataDir            string
	LogLevel           string
	LogPretty          bool
	StrictCapture      bool
	PromotionEndsChain bool
	MaxQuietPlies      int
	RepetitionLimit    int
	AllowedOrigins     []string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
	}
}

// Load reads envFile (missing files are ignored) and then the process
// environment. Process variables win over the file.
func Load(envFile string) (Config, error) {
	cfg := Default()

	values := map[string]string{}
	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read %s: %w", envFile, err)
		}
		for k, v := range fileEnv {
			values[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			values[k] = v
		}
	}

	if err := cfg.apply(values); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) apply(values map[string]string) error {
	get := func(name string) (string, bool) {
		v, ok := values[EnvPrefix+name]
		return strings.TrimSpace(v), ok
	}

	if v, ok := get("ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := get("DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := get("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"LOG_PRETTY", &c.LogPretty},
		{"STRICT_CAPTURE", &c.StrictCapture},
		{"PROMOTION_ENDS_CHAIN", &c.PromotionEndsChain},
	}
	for _, b := range bools {
		if v, ok := get(b.name); ok && v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
			}
			*b.dst = parsed
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MAX_QUIET_PLIES", &c.MaxQuietPlies},
		{"REPETITION_LIMIT", &c.RepetitionLimit},
	}
	for _, n := range ints {
		if v, ok := get(n.name); ok && v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, n.name, err)
			}
			*n.dst = parsed
		}
	}

	return c.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.MaxQuietPlies < 0 {
		return fmt.Errorf("max quiet plies must not be negative: %d", c.MaxQuietPlies)
	}
	if c.RepetitionLimit < 0 || c.RepetitionLimit == 1 {
		return fmt.Errorf("repetition limit must be 0 (off) or at least 2: %d", c.RepetitionLimit)
	}
	return nil
}

// Rules returns the game rules described by the configuration.
func (c Config) Rules() game.Rules {
	rules := game.DefaultRules()
	if c.StrictCapture {
		rules.Capture = board.CaptureMandatory
	}
	rules.PromotionEndsChain = c.PromotionEndsChain
	rules.MaxQuietPlies = c.MaxQuietPlies
	rules.RepetitionLimit = c.RepetitionLimit
	return rules
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
