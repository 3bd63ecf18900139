// Package config loads knolstudy settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: KNOLSTUDY_DEFAULTS__DAILY_NEW sets defaults.daily_new.
const EnvPrefix = "KNOLSTUDY_"

// Config is the process configuration.
type Config struct {
	DB         string              `koanf:"db" validate:"required"`
	ReposDir   string              `koanf:"repos_dir" validate:"required"`
	Listen     string              `koanf:"listen" validate:"required,hostname_port"`
	LogLevel   string              `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string              `koanf:"log_format" validate:"oneof=text json"`
	FlushDelay time.Duration       `koanf:"flush_delay" validate:"gt=0"`
	DailyGoal  int                 `koanf:"daily_goal" validate:"gt=0"`
	Metrics    bool                `koanf:"metrics"`
	Watch      bool                `koanf:"watch"`
	Defaults   domain.DeckSettings `koanf:"defaults"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:         "knolstudy.db",
		ReposDir:   "repos",
		Listen:     "localhost:8080",
		LogLevel:   "info",
		LogFormat:  "text",
		FlushDelay: time.Second,
		DailyGoal:  30,
		Metrics:    true,
		Defaults:   domain.DefaultDeckSettings(),
	}
}

// flagKeys maps flag names whose config key is not the flag name with
// dashes turned into underscores.
var flagKeys = map[string]string{
	"daily-new":  "defaults.daily_new",
	"weekly-new": "defaults.weekly_new",
	"period":     "defaults.period",
}

// RegisterFlags adds the configuration flags to flags, with the built-in
// defaults as flag defaults.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.String("db", d.DB, "Path to the SQLite database file")
	flags.String("repos-dir", d.ReposDir, "Directory for git deck checkouts")
	flags.String("listen", d.Listen, "HTTP listen address")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", d.LogFormat, "Log format: text or json")
	flags.Duration("flush-delay", d.FlushDelay, "Quiet period before study progress is written")
	flags.Int("daily-goal", d.DailyGoal, "Reviews per day counted as reaching the goal")
	flags.Bool("metrics", d.Metrics, "Serve Prometheus metrics on /metrics")
	flags.Bool("watch", d.Watch, "Re-sync local decks when their files change")
	flags.Int("daily-new", d.Defaults.DailyNew, "Default new cards per day for unconfigured decks")
	flags.Int("weekly-new", d.Defaults.WeeklyNew, "Default new cards per week for unconfigured decks")
	flags.String("period", string(d.Defaults.Period), "Default new-card period: daily or weekly")
}

// Load reads the configuration. flags must have been set up with
// RegisterFlags and parsed. A --config file that does not exist is an error; without
// --config no file is read.
func Load(flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	path, _ := flags.GetString("config")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("config file %s not found", path)
			}
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	// Flags left at their default only fill keys no other source set.
	err = k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		return key, posflag.FlagVal(flags, f)
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field constraint of cfg.
func Validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Logger builds the process logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	// Validated values always parse.
	_ = level.UnmarshalText([]byte(c.LogLevel))
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
