// Package config persists mug's configuration as a flat JSON object and mirrors it
// into the process environment.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment and JSON keys.
const (
	KeyOpenAIAPIKey       = "OPENAI_API_KEY"
	KeyAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	KeyAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	KeySessionLogName     = "SESSION_LOG_NAME"
	KeyBucketName         = "BUCKET_NAME"
	KeyNoAWS              = "NO_AWS"
)

const fileName = "config.json"

// ErrNotFound is returned by Load when no config file exists.
var ErrNotFound = errors.New("config file not found")

// Flag is a boolean persisted as the string "true" or "false".
// The zero value is unset.
type Flag struct {
	Value bool
	Set   bool
	// Unknown holds a stored value that is neither true nor false. The flag is then unset.
	Unknown string
}

// NewFlag returns a set flag.
func NewFlag(v bool) Flag {
	return Flag{Value: v, Set: true}
}

// String renders the flag the way it is stored.
func (f Flag) String() string {
	if f.Value {
		return "true"
	}
	return "false"
}

// MarshalJSON writes the flag as a string. An unset flag is written as "true".
func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte(`"true"`), nil
	}
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts "true"/"false", a JSON boolean, or null. Any other value
// leaves the flag unset and is kept in Unknown.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = Flag{}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = NewFlag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = Flag{Unknown: string(data)}
		return nil
	}
	parsed, err := parseFlag(s)
	if err != nil {
		*f = Flag{Unknown: s}
		return nil
	}
	*f = parsed
	return nil
}

func parseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Flag{}, nil
	case "true":
		return NewFlag(true), nil
	case "false":
		return NewFlag(false), nil
	default:
		return Flag{}, fmt.Errorf("%s: invalid value %q", KeyNoAWS, s)
	}
}

// Config is the persisted configuration.
type Config struct {
	OpenAIAPIKey       string `json:"OPENAI_API_KEY" yaml:"OPENAI_API_KEY"`
	AWSAccessKeyID     string `json:"AWS_ACCESS_KEY_ID" yaml:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `json:"AWS_SECRET_ACCESS_KEY" yaml:"AWS_SECRET_ACCESS_KEY"`
	SessionLogName     string `json:"SESSION_LOG_NAME" yaml:"SESSION_LOG_NAME"`
	BucketName         string `json:"BUCKET_NAME" yaml:"BUCKET_NAME"`
	NoAWS              Flag   `json:"NO_AWS" yaml:"-"`
}

// Valid reports whether all five required keys are non-empty.
func (c Config) Valid() bool {
	return len(c.Missing()) == 0
}

// Missing lists the required keys that are empty.
func (c Config) Missing() []string {
	var missing []string
	for _, kv := range []struct {
		key   string
		value string
	}{
		{KeyOpenAIAPIKey, c.OpenAIAPIKey},
		{KeyAWSAccessKeyID, c.AWSAccessKeyID},
		{KeyAWSSecretAccessKey, c.AWSSecretAccessKey},
		{KeySessionLogName, c.SessionLogName},
		{KeyBucketName, c.BucketName},
	} {
		if strings.TrimSpace(kv.value) == "" {
			missing = append(missing, kv.key)
		}
	}
	return missing
}

// LocalOnly reports whether the config runs without object storage.
// An unset flag counts as local-only.
func (c Config) LocalOnly() bool {
	return !c.NoAWS.Set || c.NoAWS.Value
}

// SetLocalOnly switches to local-only mode and clears the storage credentials and bucket.
func (c *Config) SetLocalOnly() {
	c.NoAWS = NewFlag(true)
	c.AWSAccessKeyID = ""
	c.AWSSecretAccessKey = ""
	c.BucketName = ""
}

// Normalize trims whitespace from all values.
func Normalize(cfg Config) Config {
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.AWSAccessKeyID = strings.TrimSpace(cfg.AWSAccessKeyID)
	cfg.AWSSecretAccessKey = strings.TrimSpace(cfg.AWSSecretAccessKey)
	cfg.SessionLogName = strings.TrimSpace(cfg.SessionLogName)
	cfg.BucketName = strings.TrimSpace(cfg.BucketName)
	return cfg
}

// Masked returns a copy with secrets shortened for display.
func (c Config) Masked() Config {
	c.OpenAIAPIKey = mask(c.OpenAIAPIKey)
	c.AWSAccessKeyID = mask(c.AWSAccessKeyID)
	c.AWSSecretAccessKey = mask(c.AWSSecretAccessKey)
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// FromEnv reads the config keys from the process environment.
func FromEnv() Config {
	cfg := Config{
		OpenAIAPIKey:       os.Getenv(KeyOpenAIAPIKey),
		AWSAccessKeyID:     os.Getenv(KeyAWSAccessKeyID),
		AWSSecretAccessKey: os.Getenv(KeyAWSSecretAccessKey),
		SessionLogName:     os.Getenv(KeySessionLogName),
		BucketName:         os.Getenv(KeyBucketName),
	}
	if flag, err := parseFlag(os.Getenv(KeyNoAWS)); err == nil {
		cfg.NoAWS = flag
	}
	return Normalize(cfg)
}

// ApplyEnv writes the config into the process environment.
func ApplyEnv(cfg Config) error {
	pairs := [][2]string{
		{KeyOpenAIAPIKey, cfg.OpenAIAPIKey},
		{KeyAWSAccessKeyID, cfg.AWSAccessKeyID},
		{KeyAWSSecretAccessKey, cfg.AWSSecretAccessKey},
		{KeySessionLogName, cfg.SessionLogName},
		{KeyBucketName, cfg.BucketName},
	}
	if cfg.NoAWS.Set {
		pairs = append(pairs, [2]string{KeyNoAWS, cfg.NoAWS.String()})
	}
	for _, kv := range pairs {
		if err := os.Setenv(kv[0], kv[1]); err != nil {
			return fmt.Errorf("set %s: %w", kv[0], err)
		}
	}
	return nil
}

// DefaultDir returns ~/.mug, or $MUG_HOME when set.
func DefaultDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("MUG_HOME")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".mug"), nil
}

// Store reads and writes the config file inside Dir.
type Store struct {
	Dir string
}

// Path returns the config file path.
func (s Store) Path() string {
	return filepath.Join(s.Dir, fileName)
}

// Load reads the config file. It returns ErrNotFound when the file does not exist.
func (s Store) Load() (Config, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return Config{}, ErrNotFound
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", s.Path(), err)
	}
	return Normalize(cfg), nil
}

// Save writes the config file and returns its path.
func (s Store) Save(cfg Config) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return s.Path(), nil
}
