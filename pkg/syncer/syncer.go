// Package syncer copies a single session log between the local disk and a bucket.
//
// Failures are reported to the user and logged, never returned. Results only tell the
// caller whether the copy happened.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	loggerpkg "github.com/minhyannv/mug/pkg/logger"
	"github.com/minhyannv/mug/pkg/prompt"
	"github.com/minhyannv/mug/pkg/storage"
)

// PullResult is the outcome of a Pull.
type PullResult int

const (
	// PullSynced means the local file now holds the remote content.
	PullSynced PullResult = iota
	// PullMissing means the key does not exist remotely; the local file is untouched.
	PullMissing
	// PullFailed means the transfer failed; the remote copy may be newer than the local one.
	PullFailed
)

// Engine pushes and pulls session logs.
type Engine struct {
	store   storage.Store
	ui      *prompt.Prompter
	logger  loggerpkg.Logger
	verbose bool
}

// New builds an Engine. A nil logger discards log output.
func New(store storage.Store, ui *prompt.Prompter, logger loggerpkg.Logger, verbose bool) *Engine {
	if logger == nil {
		logger = loggerpkg.NopLogger{}
	}
	return &Engine{store: store, ui: ui, logger: logger, verbose: verbose}
}

// Push uploads localPath to bucket/key, overwriting the remote object.
func (e *Engine) Push(ctx context.Context, bucket, localPath, key string) bool {
	loggerpkg.Debug(e.verbose, e.logger, "push", map[string]any{"bucket": bucket, "key": key, "path": localPath})
	f, err := os.Open(localPath)
	if err != nil {
		e.fail("syncing local file to S3", err)
		return false
	}
	defer f.Close()

	if err := e.store.Put(ctx, bucket, key, f); err != nil {
		e.fail("syncing local file to S3", err)
		return false
	}
	e.ui.Infof("Synced local file '%s' to S3 bucket '%s' as '%s'.", localPath, bucket, key)
	return true
}

// Pull replaces localPath with the content of bucket/key.
func (e *Engine) Pull(ctx context.Context, bucket, key, localPath string) PullResult {
	loggerpkg.Debug(e.verbose, e.logger, "pull", map[string]any{"bucket": bucket, "key": key, "path": localPath})
	body, err := e.store.Get(ctx, bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		e.ui.Warnf("The file '%s' does not exist in the S3 bucket '%s'.", key, bucket)
		loggerpkg.Warn(e.logger, "remote session log missing", map[string]any{"bucket": bucket, "key": key})
		return PullMissing
	}
	if err != nil {
		e.fail("syncing S3 file to local", err)
		return PullFailed
	}
	defer body.Close()

	if err := writeAtomic(localPath, body); err != nil {
		e.fail("syncing S3 file to local", err)
		return PullFailed
	}
	e.ui.Infof("Synced S3 file '%s' from bucket '%s' to local file '%s'.", key, bucket, localPath)
	return PullSynced
}

func (e *Engine) fail(action string, err error) {
	e.ui.Errorf("An error occurred while %s: %v", action, err)
	loggerpkg.Error(e.logger, "sync failed", map[string]any{"action": action, "error": err})
}

func writeAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pull-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
