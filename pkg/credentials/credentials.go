// Package credentials resolves object-storage keys and the OpenAI API key.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	loggerpkg "github.com/minhyannv/mug/pkg/logger"
	"github.com/minhyannv/mug/pkg/prompt"
)

const sharedProfile = "default"

// ErrIncomplete reports a credentials file that is missing or lacks keys.
var ErrIncomplete = errors.New("credentials file not found or incomplete")

// StorageCredentials are the static object-storage keys.
type StorageCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// KeyVerifier checks an API key with a live round trip.
type KeyVerifier interface {
	Verify(ctx context.Context, key string) (bool, error)
}

// DefaultSharedPath returns ~/.aws/credentials, or $MUG_AWS_CREDENTIALS_FILE when set.
func DefaultSharedPath() string {
	if p := strings.TrimSpace(os.Getenv("MUG_AWS_CREDENTIALS_FILE")); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "credentials")
}

// LoadShared reads the [default] profile keys from the credentials file at path.
func LoadShared(ctx context.Context, path string) (StorageCredentials, error) {
	if path == "" {
		return StorageCredentials{}, ErrIncomplete
	}
	if _, err := os.Stat(path); err != nil {
		return StorageCredentials{}, ErrIncomplete
	}
	shared, err := awsconfig.LoadSharedConfigProfile(ctx, sharedProfile, func(o *awsconfig.LoadSharedConfigOptions) {
		o.CredentialsFiles = []string{path}
		o.ConfigFiles = []string{}
	})
	if err != nil {
		return StorageCredentials{}, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	creds := StorageCredentials{
		AccessKeyID:     strings.TrimSpace(shared.Credentials.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(shared.Credentials.SecretAccessKey),
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return StorageCredentials{}, ErrIncomplete
	}
	return creds, nil
}

// Resolver obtains credentials from files or the user.
type Resolver struct {
	ui         *prompt.Prompter
	verifier   KeyVerifier
	sharedPath string
	logger     loggerpkg.Logger
	verbose    bool
}

// NewResolver builds a Resolver. sharedPath is the storage credentials file.
func NewResolver(ui *prompt.Prompter, verifier KeyVerifier, sharedPath string, logger loggerpkg.Logger, verbose bool) *Resolver {
	if logger == nil {
		logger = loggerpkg.NopLogger{}
	}
	return &Resolver{ui: ui, verifier: verifier, sharedPath: sharedPath, logger: logger, verbose: verbose}
}

// ResolveStorage returns storage keys from the credentials file or from the user.
// ok is false when the user escaped with 'q', which means local-only mode.
func (r *Resolver) ResolveStorage(ctx context.Context) (StorageCredentials, bool) {
	creds, err := LoadShared(ctx, r.sharedPath)
	if err == nil {
		r.ui.Infof("Using AWS credentials from %s", r.sharedPath)
		return creds, true
	}
	loggerpkg.Debug(r.verbose, r.logger, "shared credentials unavailable", map[string]any{"path": r.sharedPath, "error": err})
	r.ui.Warnf("AWS credentials file not found or incomplete.")

	accessKey, ok := r.askStorageKey("Please enter your AWS Access Key (or 'q' to quit): ")
	if !ok {
		r.ui.Println("Exiting without setting the AWS Access Key.")
		return StorageCredentials{}, false
	}
	secretKey, ok := r.askStorageKey("Please enter your AWS Secret Key (or 'q' to quit): ")
	if !ok {
		r.ui.Println("Exiting without setting the AWS Secret Key.")
		return StorageCredentials{}, false
	}
	r.ui.Infof("The AWS credentials have been set.")
	return StorageCredentials{AccessKeyID: accessKey, SecretAccessKey: secretKey}, true
}

func (r *Resolver) askStorageKey(label string) (string, bool) {
	for {
		answer, err := r.ui.Ask(label)
		if err != nil || prompt.IsQuit(answer) {
			return "", false
		}
		if answer != "" {
			return answer, true
		}
		r.ui.Warnf("Invalid input. The key cannot be empty.")
	}
}

// ResolveAPIKey returns a key confirmed by the verifier. An existing valid key is
// offered first. When the user quits, the existing key is returned if it was valid,
// otherwise "".
func (r *Resolver) ResolveAPIKey(ctx context.Context, existing string) string {
	existing = strings.TrimSpace(existing)
	existingValid := false
	if existing != "" {
		existingValid = r.verify(ctx, existing)
		if existingValid {
			if r.ui.Confirm("An OpenAI API key is already set. Would you like to use it? [y/n]: ") {
				r.ui.Infof("Using existing OpenAI API Key.")
				return existing
			}
			r.ui.Println("Existing API Key will not be used. Please provide a new API Key.")
		} else {
			r.ui.Warnf("The existing OpenAI API Key is invalid. Please provide a new API Key.")
		}
	}

	for {
		key, err := r.ui.Ask("Please enter your OpenAI API Key (or 'q' to quit): ")
		if err != nil || prompt.IsQuit(key) {
			r.ui.Println("Exiting without setting the API key.")
			if existingValid {
				return existing
			}
			return ""
		}
		if r.verify(ctx, key) {
			r.ui.Infof("The OpenAI API Key has been set.")
			return key
		}
		r.ui.Warnf("Invalid API Key. Please try again.")
	}
}

func (r *Resolver) verify(ctx context.Context, key string) bool {
	if r.verifier == nil || strings.TrimSpace(key) == "" {
		return false
	}
	ok, err := r.verifier.Verify(ctx, key)
	if err != nil {
		r.ui.Errorf("Could not verify the OpenAI API Key: %v", err)
		loggerpkg.Warn(r.logger, "api key verification failed", map[string]any{"error": err})
		return false
	}
	return ok
}
