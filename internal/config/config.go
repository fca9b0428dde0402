package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration for tts, stored in ~/.tts/config.toml.
type Config struct {
	// Timezone is the IANA zone times are entered and displayed in. Empty
	// falls back to $TZ, then UTC.
	Timezone string `toml:"timezone"`
	LogLevel string `toml:"log_level"`
	// User is the id of the acting user for CLI commands.
	User      string          `toml:"user"`
	Storage   StorageConfig   `toml:"storage"`
	Firestore FirestoreConfig `toml:"firestore"`
	S3        S3Config        `toml:"s3"`
	Server    ServerConfig    `toml:"server"`
}

// StorageConfig selects the local store. Type determines which other fields
// are relevant.
type StorageConfig struct {
	Type       string `toml:"type"` // "file" or "sqlite"
	Dir        string `toml:"dir,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// FirestoreConfig points at the Firestore database exports can read from.
type FirestoreConfig struct {
	ProjectID string `toml:"project_id"`
	Database  string `toml:"database"`
	// EmulatorHost ("localhost:8080") talks plain HTTP without auth.
	EmulatorHost string `toml:"emulator_host,omitempty"`
	TokenFile    string `toml:"token_file"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
}

// S3Config is the bucket exports are uploaded to with --s3.
type S3Config struct {
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint,omitempty"`
	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`
}

// ServerConfig configures tts serve.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// CacheTTL returns the directory cache lifetime.
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"

	DefaultLogLevel          = "info"
	DefaultFirestoreDatabase = "(default)"
	DefaultAuthURL           = "https://accounts.google.com/o/oauth2/auth"
	DefaultTokenURL          = "https://oauth2.googleapis.com/token"
	DefaultServerAddr        = "127.0.0.1:8080"
	DefaultCacheSize         = 16
	DefaultCacheTTLSeconds   = 60
)

// configTemplate is the annotated config written on first run.
const configTemplate = `# tts configuration - ~/.tts/config.toml
#
# All settings are optional; the defaults work for a single-machine setup
# with JSON files under ~/.tts/data.

# IANA timezone for entering and displaying times, e.g. "Europe/Berlin".
# Leave empty to use $TZ or UTC. Override per command with --timezone.
timezone = ""

# debug, info, warn or error.
log_level = "info"

# Id of the user commands act as. Override with --as.
user = ""

[storage]
# "file" keeps one JSON document per day; "sqlite" uses a single database file.
type = "file"
# dir = "~/.tts/data"
# sqlite_path = "~/.tts/tts.db"

[firestore]
# Read-only source for: tts export --source firestore
project_id = ""
database = "(default)"
# emulator_host = "localhost:8080"
token_file = ""
client_id = ""
client_secret = ""

[s3]
# Target for: tts export --s3
bucket = ""
prefix = "timesheets"
region = ""
# endpoint = "http://localhost:9000"

[server]
# Listen address of: tts serve
addr = "127.0.0.1:8080"
cache_size = 16
cache_ttl_seconds = 60
`

// BaseDir returns ~/.tts.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tts"), nil
}

// DefaultPath returns ~/.tts/config.toml.
func DefaultPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.toml"), nil
}

// Read decodes a Config from r without applying defaults.
func Read(r io.Reader) (Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load reads the config at path, creating it from the annotated template on
// first run. Relative defaults are resolved against the directory holding
// the config file.
func Load(path string) (Config, error) {
	base := filepath.Dir(path)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		cfg, err := Read(strings.NewReader(configTemplate))
		return applyDefaults(cfg, base), err
	}
	if err != nil {
		return applyDefaults(Config{}, base), fmt.Errorf("reading config file %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return applyDefaults(Config{}, base), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	return applyDefaults(cfg, base), nil
}

// applyDefaults fills zero-value fields so callers always get a usable Config
// even if the file is only partially filled in.
func applyDefaults(cfg Config, base string) Config {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageFile
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = filepath.Join(base, "data")
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(base, "tts.db")
	}
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Storage.SQLitePath = expandHome(cfg.Storage.SQLitePath)

	if cfg.Firestore.Database == "" {
		cfg.Firestore.Database = DefaultFirestoreDatabase
	}
	if cfg.Firestore.TokenFile == "" {
		cfg.Firestore.TokenFile = filepath.Join(base, "firestore-token.json")
	}
	cfg.Firestore.TokenFile = expandHome(cfg.Firestore.TokenFile)
	if cfg.Firestore.AuthURL == "" {
		cfg.Firestore.AuthURL = DefaultAuthURL
	}
	if cfg.Firestore.TokenURL == "" {
		cfg.Firestore.TokenURL = DefaultTokenURL
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.CacheSize <= 0 {
		cfg.Server.CacheSize = DefaultCacheSize
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
	return cfg
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// SlogLevel parses LogLevel, defaulting to info for unknown values.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
