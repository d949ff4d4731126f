// Package mug dispatches the start, end and question commands.
package mug

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minhyannv/mug/pkg/config"
	"github.com/minhyannv/mug/pkg/credentials"
	"github.com/minhyannv/mug/pkg/llm"
	loggerpkg "github.com/minhyannv/mug/pkg/logger"
	"github.com/minhyannv/mug/pkg/prompt"
	"github.com/minhyannv/mug/pkg/selector"
	"github.com/minhyannv/mug/pkg/sessionlog"
	"github.com/minhyannv/mug/pkg/storage"
)

// App wires the config store, credential resolver, selector and LLM client.
type App struct {
	opts     Options
	ui       *prompt.Prompter
	configs  config.Store
	logger   loggerpkg.Logger
	newStore StoreFactory
	newAsker AskerFactory
	verifier credentials.KeyVerifier
}

// New builds an App that reads answers from in and prints to out.
func New(opts Options, in io.Reader, out io.Writer, options ...Option) (*App, error) {
	opts = Normalize(opts)
	if opts.Dir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		opts.Dir = dir
	}

	deps := appDeps{}
	for _, o := range options {
		if o != nil {
			o(&deps)
		}
	}
	if deps.logger == nil {
		deps.logger = loggerpkg.NopLogger{}
	}
	if deps.newStore == nil {
		deps.newStore = func(ctx context.Context, creds credentials.StorageCredentials) (storage.Store, error) {
			return storage.NewS3Store(ctx, storage.S3Options{
				AccessKeyID:     creds.AccessKeyID,
				SecretAccessKey: creds.SecretAccessKey,
				Region:          opts.Region,
				Endpoint:        opts.Endpoint,
			})
		}
	}
	if deps.newAsker == nil {
		deps.newAsker = func(apiKey string) Asker {
			return llm.New(opts.llmOptions(apiKey, out))
		}
	}
	if deps.verifier == nil {
		deps.verifier = llm.New(opts.llmOptions("", out))
	}

	return &App{
		opts:     opts,
		ui:       prompt.New(in, out),
		configs:  config.Store{Dir: opts.Dir},
		logger:   deps.logger,
		newStore: deps.newStore,
		newAsker: deps.newAsker,
		verifier: deps.verifier,
	}, nil
}

func (o Options) llmOptions(apiKey string, out io.Writer) llm.Options {
	return llm.Options{
		APIKey:       apiKey,
		BaseURL:      o.BaseURL,
		Model:        o.Model,
		Stream:       o.Stream,
		StreamWriter: out,
	}
}

// Start resolves credentials and a session log, then saves the config.
func (a *App) Start(ctx context.Context) error {
	existing, found := a.loadConfig()
	if found {
		a.printConfig(existing)
		if existing.Valid() {
			if a.ui.Confirm("Would you like to use the existing configuration? [y/n]: ") {
				if err := config.ApplyEnv(existing); err != nil {
					a.ui.Errorf("An error occurred while setting the environment: %v", err)
					return err
				}
				a.ui.Infof("Using existing configuration.")
				return nil
			}
		} else {
			a.ui.Warnf("Existing configuration in `%s` is not valid. Some keys have empty values: %s.", a.opts.Dir, strings.Join(existing.Missing(), ", "))
		}
	}

	resolver := credentials.NewResolver(a.ui, a.verifier, a.opts.SharedCredentialsPath, a.logger, a.opts.Verbose)

	var cfg config.Config
	cfg.OpenAIAPIKey = resolver.ResolveAPIKey(ctx, firstNonEmpty(os.Getenv(config.KeyOpenAIAPIKey), existing.OpenAIAPIKey))

	creds, remote := resolver.ResolveStorage(ctx)
	var store storage.Store
	var err error
	if remote {
		store, err = a.newStore(ctx, creds)
		if err != nil {
			a.ui.Errorf("An error occurred while connecting to S3: %v", err)
			remote = false
		}
	}

	sel := selector.New(store, a.ui, a.opts.Dir, a.logger, a.opts.Verbose)
	var res selector.Result
	if remote {
		res, err = sel.Run(ctx)
	} else {
		res, err = sel.LocalOnly()
	}
	if err != nil {
		a.ui.Errorf("An error occurred while preparing the session log: %v", err)
		return err
	}

	if res.LocalOnly {
		cfg.SetLocalOnly()
	} else {
		cfg.AWSAccessKeyID = creds.AccessKeyID
		cfg.AWSSecretAccessKey = creds.SecretAccessKey
		cfg.BucketName = res.Bucket
		cfg.NoAWS = config.NewFlag(false)
	}
	cfg.SessionLogName = res.SessionLog

	if err := config.ApplyEnv(cfg); err != nil {
		a.ui.Errorf("An error occurred while setting the environment: %v", err)
	}
	path, err := a.configs.Save(cfg)
	if err != nil {
		a.ui.Errorf("An error occurred while saving the config file: %v", err)
		return err
	}
	a.ui.Infof("Config file saved to: %s", path)
	loggerpkg.Info(a.logger, "config saved", map[string]any{"path": path, "local_only": cfg.LocalOnly(), "session_log": cfg.SessionLogName})
	return nil
}

// loadConfig reads the config file. found is false when there is no usable file.
func (a *App) loadConfig() (cfg config.Config, found bool) {
	cfg, err := a.configs.Load()
	switch {
	case errors.Is(err, config.ErrNotFound):
		loggerpkg.Debug(a.opts.Verbose, a.logger, "no config file", map[string]any{"path": a.configs.Path()})
		return config.Config{}, false
	case err != nil:
		a.ui.Errorf("An error occurred while reading the config file: %v", err)
		loggerpkg.Error(a.logger, "read config failed", map[string]any{"path": a.configs.Path(), "error": err})
		return config.Config{}, false
	}
	if raw := cfg.NoAWS.Unknown; raw != "" {
		a.ui.Warnf("Ignoring unrecognized %s value %q in %s.", config.KeyNoAWS, raw, a.configs.Path())
		loggerpkg.Warn(a.logger, "unrecognized flag value", map[string]any{"key": config.KeyNoAWS, "value": raw})
	}
	return cfg, true
}

func (a *App) printConfig(cfg config.Config) {
	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		loggerpkg.Debug(a.opts.Verbose, a.logger, "render config failed", map[string]any{"error": err})
		return
	}
	a.ui.Title("Current configuration:")
	a.ui.Println(strings.TrimRight(string(data), "\n"))
	a.ui.Println(fmt.Sprintf("%s: %t", config.KeyNoAWS, cfg.LocalOnly()))
}

// End closes the session.
func (a *App) End() {
	a.ui.Println("Ending session.")
}

// Ask sends question with the current session log to the model and prints the answer.
func (a *App) Ask(ctx context.Context, question string) error {
	cfg, _ := a.loadConfig()

	apiKey := firstNonEmpty(os.Getenv(config.KeyOpenAIAPIKey), cfg.OpenAIAPIKey)
	if apiKey == "" {
		a.ui.Println("OpenAI API Key not found. Please configure it using 'mug start'.")
		return nil
	}

	sessionLog := ""
	if name := firstNonEmpty(cfg.SessionLogName, os.Getenv(config.KeySessionLogName)); name != "" {
		content, err := sessionlog.Read(a.opts.Dir, name)
		if err != nil {
			a.ui.Warnf("Could not read session log %s: %v", name, err)
		} else {
			sessionLog = content
		}
	}
	loggerpkg.Debug(a.opts.Verbose, a.logger, "ask", map[string]any{"question": question, "context_bytes": len(sessionLog)})

	answer, err := a.newAsker(apiKey).Ask(ctx, question, sessionLog)
	if err != nil {
		a.ui.Errorf("An error occurred while asking the question: %v", err)
		loggerpkg.Error(a.logger, "ask failed", map[string]any{"error": err})
		return err
	}
	if !answer.Streamed {
		a.ui.Println(answer.Content)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
