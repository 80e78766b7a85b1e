package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	toml "github.com/pelletier/go-toml/v2"

	"recipebook/internal/logging"
	"recipebook/internal/store"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultAPIURL         = "http://127.0.0.1:8000"
	DefaultLogFileName    = "recipebook.log"
	appDirName            = "recipebook"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Search  string `toml:"search"`
	Add     string `toml:"add"`
	Edit    string `toml:"edit"`
	Delete  string `toml:"delete"`
	Plan    string `toml:"plan"`
	Reload  string `toml:"reload"`
	Dismiss string `toml:"dismiss"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
	Next    string `toml:"next"`
	Prev    string `toml:"prev"`
}

type Config struct {
	APIURL         string `toml:"api_url"`
	LogPath        string `toml:"log_path"`
	LogLevel       string `toml:"log_level"`
	StaleResponses string `toml:"stale_responses"`
	Keys           Keymap `toml:"keys"`
}

// envOverrides are read after the file; unset variables keep file values.
type envOverrides struct {
	APIURL         string `env:"RECIPEBOOK_API_URL"`
	LogPath        string `env:"RECIPEBOOK_LOG_PATH"`
	LogLevel       string `env:"RECIPEBOOK_LOG_LEVEL"`
	StaleResponses string `env:"RECIPEBOOK_STALE_RESPONSES"`
}

// ResolveConfigPath honours RECIPEBOOK_CONFIG, then the user config dir,
// then the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("RECIPEBOOK_CONFIG")); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads path, writing the defaults there first if it does not
// exist, then applies environment overrides and validates the result.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	fillDefaults(&cfg, path)
	return cfg, cfg.Validate()
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q: want an absolute http(s) url", c.APIURL)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := store.ParseStalePolicy(c.StaleResponses); err != nil {
		return fmt.Errorf("stale_responses: %w", err)
	}
	return nil
}

// StalePolicy returns the parsed stale_responses setting.
func (c Config) StalePolicy() store.StalePolicy {
	p, _ := store.ParseStalePolicy(c.StaleResponses)
	return p
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("decode environment: %w", err)
	}
	if env.APIURL != "" {
		cfg.APIURL = env.APIURL
	}
	if env.LogPath != "" {
		cfg.LogPath = env.LogPath
	}
	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
	if env.StaleResponses != "" {
		cfg.StaleResponses = env.StaleResponses
	}
	return nil
}

func fillDefaults(cfg *Config, path string) {
	def := defaultConfig(path)
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.StaleResponses == "" {
		cfg.StaleResponses = def.StaleResponses
	}
	keys := []struct{ got, def *string }{
		{&cfg.Keys.Quit, &def.Keys.Quit},
		{&cfg.Keys.Up, &def.Keys.Up},
		{&cfg.Keys.Down, &def.Keys.Down},
		{&cfg.Keys.Search, &def.Keys.Search},
		{&cfg.Keys.Add, &def.Keys.Add},
		{&cfg.Keys.Edit, &def.Keys.Edit},
		{&cfg.Keys.Delete, &def.Keys.Delete},
		{&cfg.Keys.Plan, &def.Keys.Plan},
		{&cfg.Keys.Reload, &def.Keys.Reload},
		{&cfg.Keys.Dismiss, &def.Keys.Dismiss},
		{&cfg.Keys.Confirm, &def.Keys.Confirm},
		{&cfg.Keys.Cancel, &def.Keys.Cancel},
		{&cfg.Keys.Next, &def.Keys.Next},
		{&cfg.Keys.Prev, &def.Keys.Prev},
	}
	for _, k := range keys {
		if *k.got == "" {
			*k.got = *k.def
		}
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(path string) Config {
	return Config{
		APIURL:         DefaultAPIURL,
		LogPath:        filepath.Join(filepath.Dir(path), DefaultLogFileName),
		LogLevel:       "info",
		StaleResponses: "drop",
		Keys:           DefaultKeymap(),
	}
}

func DefaultKeymap() Keymap {
	return Keymap{
		Quit:    "q",
		Up:      "k",
		Down:    "j",
		Search:  "/",
		Add:     "a",
		Edit:    "e",
		Delete:  "d",
		Plan:    "p",
		Reload:  "r",
		Dismiss: "x",
		Confirm: "enter",
		Cancel:  "esc",
		Next:    "tab",
		Prev:    "shift+tab",
	}
}
