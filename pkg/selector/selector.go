// Package selector lets the user pick a bucket and session log, or fall back to
// local-only operation.
package selector

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	loggerpkg "github.com/minhyannv/mug/pkg/logger"
	"github.com/minhyannv/mug/pkg/prompt"
	"github.com/minhyannv/mug/pkg/sessionlog"
	"github.com/minhyannv/mug/pkg/storage"
	"github.com/minhyannv/mug/pkg/syncer"
)

// Result is where the session log lives after selection.
type Result struct {
	LocalOnly  bool
	Bucket     string
	SessionLog string
}

// Selector runs the interactive bucket and session menu.
type Selector struct {
	store   storage.Store
	sync    *syncer.Engine
	ui      *prompt.Prompter
	logDir  string
	logger  loggerpkg.Logger
	verbose bool
}

// New builds a Selector. logDir holds local session logs.
func New(store storage.Store, ui *prompt.Prompter, logDir string, logger loggerpkg.Logger, verbose bool) *Selector {
	if logger == nil {
		logger = loggerpkg.NopLogger{}
	}
	return &Selector{
		store:   store,
		sync:    syncer.New(store, ui, logger, verbose),
		ui:      ui,
		logDir:  logDir,
		logger:  logger,
		verbose: verbose,
	}
}

// Run lists buckets and resolves the user's choice.
func (s *Selector) Run(ctx context.Context) (Result, error) {
	buckets := s.listBuckets(ctx)
	if len(buckets) == 0 {
		s.ui.Warnf("No S3 buckets found.")
		for {
			choice, err := s.ui.Ask("You can use 'n' option to create a new bucket or use the 'q' option to use local storage: ")
			if err != nil {
				return s.LocalOnly()
			}
			switch strings.ToLower(choice) {
			case "n":
				name, ok := s.createBucket(ctx)
				if !ok {
					continue
				}
				return s.UseBucket(ctx, name)
			case "q":
				s.ui.Println("Exiting without selecting a bucket.")
				return s.LocalOnly()
			default:
				s.ui.Warnf("Invalid choice. Please try again.")
			}
		}
	}

	for {
		label := fmt.Sprintf(`"s" for show mode, "n" for new bucket, "q" for not selecting, 1~%d to select: `, len(buckets))
		choice, err := s.ui.Ask(label)
		if err != nil {
			return s.LocalOnly()
		}
		switch lower := strings.ToLower(choice); {
		case lower == "s":
			s.showMode(ctx, buckets)
		case lower == "n":
			name, ok := s.createBucket(ctx)
			if !ok {
				continue
			}
			return s.UseBucket(ctx, name)
		case lower == "q":
			s.ui.Println("No bucket selected.")
			return s.LocalOnly()
		default:
			idx, ok := pickIndex(choice, len(buckets))
			if !ok {
				s.ui.Warnf("Invalid choice. Please try again.")
				continue
			}
			s.ui.Infof("Selected bucket: %s", buckets[idx])
			return s.UseBucket(ctx, buckets[idx])
		}
	}
}

func (s *Selector) listBuckets(ctx context.Context) []string {
	buckets, err := s.store.ListBuckets(ctx)
	if err != nil {
		s.ui.Errorf("An error occurred: %v", err)
		loggerpkg.Warn(s.logger, "list buckets failed", map[string]any{"error": err})
		return nil
	}
	if len(buckets) > 0 {
		s.printBuckets(buckets)
	}
	return buckets
}

func (s *Selector) printBuckets(buckets []string) {
	s.ui.Title("S3 Buckets:")
	for i, name := range buckets {
		s.ui.Println(fmt.Sprintf("%d. %s", i+1, name))
	}
}

// showMode lists the contents of one bucket, then returns to the main menu.
func (s *Selector) showMode(ctx context.Context, buckets []string) {
	for {
		s.printBuckets(buckets)
		choice, err := s.ui.Ask(fmt.Sprintf("Which bucket's contents would you like to list? Please select a number between 1 and %d ('q' to go back): ", len(buckets)))
		if err != nil || prompt.IsQuit(choice) {
			return
		}
		idx, ok := pickIndex(choice, len(buckets))
		if !ok {
			s.ui.Warnf("Invalid bucket number.")
			continue
		}
		s.listContents(ctx, buckets[idx])
		return
	}
}

func (s *Selector) listContents(ctx context.Context, bucket string) {
	keys, err := s.store.ListKeys(ctx, bucket)
	if err != nil {
		s.ui.Errorf("An error occurred: %v", err)
		return
	}
	if len(keys) == 0 {
		s.ui.Println(fmt.Sprintf("The bucket '%s' is empty.", bucket))
		return
	}
	s.ui.Title(fmt.Sprintf("Contents of bucket '%s':", bucket))
	for _, key := range keys {
		s.ui.Println("  " + key)
	}
}

// createBucket prompts for a name and creates it. ok is false when creation failed.
func (s *Selector) createBucket(ctx context.Context) (string, bool) {
	for {
		name, err := s.ui.Ask("Enter the new bucket name: ")
		if err != nil {
			return "", false
		}
		if name == "" {
			s.ui.Warnf("Bucket name cannot be empty.")
			continue
		}
		if err := s.store.CreateBucket(ctx, name); err != nil {
			s.ui.Errorf("An error occurred while creating the bucket: %v", err)
			loggerpkg.Error(s.logger, "create bucket failed", map[string]any{"bucket": name, "error": err})
			return "", false
		}
		s.ui.Infof("Bucket '%s' created successfully.", name)
		return name, true
	}
}

// remoteLogs returns the session log keys in bucket; listing errors yield none.
func (s *Selector) remoteLogs(ctx context.Context, bucket string) []string {
	keys, err := s.store.ListKeys(ctx, bucket)
	if err != nil {
		s.ui.Errorf("An error occurred while listing session logs: %v", err)
		loggerpkg.Warn(s.logger, "list session logs failed", map[string]any{"bucket": bucket, "error": err})
		return nil
	}
	return sessionlog.Filter(keys)
}

// UseBucket resumes an existing remote session log or starts a new one in bucket.
// A resumed log whose download failed is not uploaded, so the remote copy survives.
func (s *Selector) UseBucket(ctx context.Context, bucket string) (Result, error) {
	logs := s.remoteLogs(ctx, bucket)
	loggerpkg.Debug(s.verbose, s.logger, "use bucket", map[string]any{"bucket": bucket, "session_logs": len(logs)})

	number, resume := 0, false
	if len(logs) == 0 {
		number = sessionlog.Next(nil)
		s.ui.Infof("No session logs found. `%s` has been created.", sessionlog.Name(number))
	} else {
		number, resume = s.chooseLog(logs)
	}

	name := sessionlog.Name(number)
	localPath := filepath.Join(s.logDir, name)
	if resume {
		if s.sync.Pull(ctx, bucket, name, localPath) == syncer.PullFailed {
			s.ui.Warnf("Skipping upload of '%s' so the copy in '%s' is not overwritten.", name, bucket)
			return Result{Bucket: bucket, SessionLog: name}, nil
		}
	} else {
		path, err := sessionlog.Create(s.logDir, name, sessionlog.Placeholder)
		if err != nil {
			return Result{}, err
		}
		s.ui.Infof("Created local log file: %s", path)
	}
	s.sync.Push(ctx, bucket, localPath, name)

	return Result{Bucket: bucket, SessionLog: name}, nil
}

// chooseLog asks which listed log to resume. resume is false for a new log.
func (s *Selector) chooseLog(logs []string) (number int, resume bool) {
	s.ui.Println("Session logs available: " + strings.Join(logs, ", "))
	for {
		choice, err := s.ui.Ask("You can continue with an existing log or create a new one. Enter the log number (`session_log_{number}.txt`) to continue or 'n' for a new log: ")
		if err != nil || strings.EqualFold(choice, "n") {
			return sessionlog.Next(logs), false
		}
		n, convErr := strconv.Atoi(choice)
		if convErr == nil && containsLog(logs, n) {
			return n, true
		}
		s.ui.Warnf("Invalid choice. Enter one of the listed log numbers or 'n'.")
	}
}

// LocalOnly allocates the next local session log and creates it empty.
func (s *Selector) LocalOnly() (Result, error) {
	number, err := sessionlog.NextLocal(s.logDir)
	if err != nil {
		return Result{}, err
	}
	name := sessionlog.Name(number)
	path, err := sessionlog.Create(s.logDir, name, "")
	if err != nil {
		return Result{}, err
	}
	s.ui.Infof("Using local storage. Session log: %s", path)
	return Result{LocalOnly: true, SessionLog: name}, nil
}

func containsLog(logs []string, n int) bool {
	for _, name := range logs {
		if got, ok := sessionlog.Number(name); ok && got == n {
			return true
		}
	}
	return false
}

func pickIndex(choice string, count int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}
