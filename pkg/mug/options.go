package mug

import (
	"context"
	"strings"

	"github.com/minhyannv/mug/pkg/credentials"
	"github.com/minhyannv/mug/pkg/llm"
	loggerpkg "github.com/minhyannv/mug/pkg/logger"
	"github.com/minhyannv/mug/pkg/storage"
)

// Options holds the runtime settings read from the environment.
type Options struct {
	// Dir holds config.json and the local session logs. Empty means config.DefaultDir().
	Dir string
	// SharedCredentialsPath is the AWS credentials file consulted before prompting.
	SharedCredentialsPath string

	Model   string
	BaseURL string
	Stream  bool
	Verbose bool

	Region   string
	Endpoint string
}

// DefaultOptions returns a baseline configuration without side effects.
func DefaultOptions() Options {
	return Options{
		Model:                 llm.DefaultModel,
		SharedCredentialsPath: credentials.DefaultSharedPath(),
	}
}

// Normalize trims values and applies defaults.
func Normalize(opts Options) Options {
	opts.Dir = strings.TrimSpace(opts.Dir)
	opts.SharedCredentialsPath = strings.TrimSpace(opts.SharedCredentialsPath)
	opts.Model = strings.TrimSpace(opts.Model)
	opts.BaseURL = strings.TrimSpace(opts.BaseURL)
	opts.Region = strings.TrimSpace(opts.Region)
	opts.Endpoint = strings.TrimSpace(opts.Endpoint)
	if opts.Model == "" {
		opts.Model = llm.DefaultModel
	}
	return opts
}

// Asker answers one question with the session log as context.
type Asker interface {
	Ask(ctx context.Context, question, sessionLog string) (llm.Answer, error)
}

// StoreFactory opens object storage with resolved credentials.
type StoreFactory func(ctx context.Context, creds credentials.StorageCredentials) (storage.Store, error)

// AskerFactory builds an Asker bound to apiKey.
type AskerFactory func(apiKey string) Asker

// Option configures optional runtime dependencies for App.
type Option func(*appDeps)

type appDeps struct {
	logger   loggerpkg.Logger
	newStore StoreFactory
	newAsker AskerFactory
	verifier credentials.KeyVerifier
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(d *appDeps) {
		d.logger = l
	}
}

// WithStoreFactory replaces the S3 store constructor.
func WithStoreFactory(f StoreFactory) Option {
	return func(d *appDeps) {
		d.newStore = f
	}
}

// WithAskerFactory replaces the OpenAI client constructor used by Ask.
func WithAskerFactory(f AskerFactory) Option {
	return func(d *appDeps) {
		d.newAsker = f
	}
}

// WithKeyVerifier replaces the live API key check.
func WithKeyVerifier(v credentials.KeyVerifier) Option {
	return func(d *appDeps) {
		d.verifier = v
	}
}
