package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func fullConfig() Config {
	return Config{
		OpenAIAPIKey:       "sk-test-1234567890",
		AWSAccessKeyID:     "AKIAEXAMPLE",
		AWSSecretAccessKey: "secret-example-key",
		SessionLogName:     "session_log_1.txt",
		BucketName:         "mug-logs",
		NoAWS:              NewFlag(false),
	}
}

func TestSaveLoadRoundTripIsValid(t *testing.T) {
	store := Store{Dir: t.TempDir()}
	path, err := store.Save(fullConfig())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != store.Path() {
		t.Fatalf("expected path %q, got %q", store.Path(), path)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Valid() {
		t.Fatalf("expected loaded config to be valid, missing %v", loaded.Missing())
	}
	if loaded != fullConfig() {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestMissingAnyRequiredKeyIsInvalid(t *testing.T) {
	clears := map[string]func(*Config){
		KeyOpenAIAPIKey:       func(c *Config) { c.OpenAIAPIKey = "" },
		KeyAWSAccessKeyID:     func(c *Config) { c.AWSAccessKeyID = "" },
		KeyAWSSecretAccessKey: func(c *Config) { c.AWSSecretAccessKey = "" },
		KeySessionLogName:     func(c *Config) { c.SessionLogName = "" },
		KeyBucketName:         func(c *Config) { c.BucketName = "  " },
	}
	for key, clear := range clears {
		t.Run(key, func(t *testing.T) {
			cfg := fullConfig()
			clear(&cfg)
			if cfg.Valid() {
				t.Fatalf("expected config without %s to be invalid", key)
			}
			missing := cfg.Missing()
			if len(missing) != 1 || missing[0] != key {
				t.Fatalf("expected missing [%s], got %v", key, missing)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Store{Dir: t.TempDir()}.Load()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadAcceptsNullsAndBooleanFlag(t *testing.T) {
	dir := t.TempDir()
	raw := `{"OPENAI_API_KEY": null, "AWS_ACCESS_KEY_ID": null, "AWS_SECRET_ACCESS_KEY": null,
"SESSION_LOG_NAME": "session_log_2.txt", "BUCKET_NAME": null, "NO_AWS": true}`
	if err := os.WriteFile(Store{Dir: dir}.Path(), []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Store{Dir: dir}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Valid() {
		t.Fatal("expected config with null keys to be invalid")
	}
	if !cfg.LocalOnly() || cfg.SessionLogName != "session_log_2.txt" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestFlagMarshalsAsString(t *testing.T) {
	tests := []struct {
		name string
		flag Flag
		want string
	}{
		{"unset defaults to true", Flag{}, `"true"`},
		{"false", NewFlag(false), `"false"`},
		{"true", NewFlag(true), `"true"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.flag)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Fatalf("got %s, want %s", b, tt.want)
			}
		})
	}
}

func TestLoadKeepsConfigWithUnknownFlag(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"unknown string", `"maybe"`, "maybe"},
		{"number", `1`, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			raw := `{"OPENAI_API_KEY": "sk-file", "SESSION_LOG_NAME": "session_log_1.txt", "NO_AWS": ` + tt.raw + `}`
			if err := os.WriteFile(Store{Dir: dir}.Path(), []byte(raw), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			cfg, err := Store{Dir: dir}.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.OpenAIAPIKey != "sk-file" {
				t.Fatalf("expected key to survive, got %+v", cfg)
			}
			if cfg.NoAWS.Set || cfg.NoAWS.Unknown != tt.want {
				t.Fatalf("expected unset flag with unknown %q, got %+v", tt.want, cfg.NoAWS)
			}
		})
	}
}

func TestSetLocalOnlyClearsStorageFields(t *testing.T) {
	cfg := fullConfig()
	cfg.SetLocalOnly()
	if !cfg.LocalOnly() || !cfg.NoAWS.Value {
		t.Fatal("expected local-only flag to be true")
	}
	if cfg.AWSAccessKeyID != "" || cfg.AWSSecretAccessKey != "" || cfg.BucketName != "" {
		t.Fatalf("expected storage fields cleared, got %+v", cfg)
	}
}

func TestApplyEnvAndFromEnv(t *testing.T) {
	for _, key := range []string{KeyOpenAIAPIKey, KeyAWSAccessKeyID, KeyAWSSecretAccessKey, KeySessionLogName, KeyBucketName, KeyNoAWS} {
		t.Setenv(key, "")
	}
	if err := ApplyEnv(fullConfig()); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if os.Getenv(KeyNoAWS) != "false" {
		t.Fatalf("expected NO_AWS=false, got %q", os.Getenv(KeyNoAWS))
	}
	if got := FromEnv(); got != fullConfig() {
		t.Fatalf("FromEnv mismatch: %+v", got)
	}
}

func TestMaskedHidesSecrets(t *testing.T) {
	masked := fullConfig().Masked()
	if strings.Contains(masked.OpenAIAPIKey, "1234567") {
		t.Fatalf("api key not masked: %q", masked.OpenAIAPIKey)
	}
	if masked.SessionLogName != "session_log_1.txt" || masked.BucketName != "mug-logs" {
		t.Fatalf("non-secret fields should be unchanged: %+v", masked)
	}
	if got := mask("short"); got != "*****" {
		t.Fatalf("expected fully masked short secret, got %q", got)
	}
}

func TestDefaultDirHonorsMugHome(t *testing.T) {
	t.Setenv("MUG_HOME", "/tmp/mug-home")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if dir != "/tmp/mug-home" {
		t.Fatalf("expected MUG_HOME override, got %q", dir)
	}
}
