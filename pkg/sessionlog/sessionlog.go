// Package sessionlog names, numbers and locates session log files.
package sessionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Placeholder is written to a fresh remote-backed log before its first upload.
const Placeholder = "This is a session log.\n"

var namePattern = regexp.MustCompile(`^session_log_(\d+)\.txt$`)

// Name formats the log name for number n.
func Name(n int) string {
	return fmt.Sprintf("session_log_%d.txt", n)
}

// Number extracts the numeric suffix from a log name.
func Number(name string) (int, bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Filter keeps the names that match the log naming pattern, sorted by number.
func Filter(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := Number(name); ok {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := Number(out[i])
		b, _ := Number(out[j])
		return a < b
	})
	return out
}

// Next returns one plus the largest number among names, or 1 when none match.
func Next(names []string) int {
	highest := 0
	for _, name := range names {
		if n, ok := Number(name); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// ListLocal returns the log names found in dir, creating dir when missing.
func ListLocal(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return Filter(names), nil
}

// NextLocal returns the next free log number in dir.
func NextLocal(dir string) (int, error) {
	names, err := ListLocal(dir)
	if err != nil {
		return 0, err
	}
	return Next(names), nil
}

// Create writes content to the log file for name in dir, truncating any existing file.
func Create(dir, name, content string) (string, error) {
	path, err := Resolve(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write session log: %w", err)
	}
	return path, nil
}

// Read returns the log content, or "" when the file does not exist.
func Read(dir, name string) (string, error) {
	path, err := Resolve(dir, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session log: %w", err)
	}
	return string(data), nil
}

// Resolve joins name onto dir and rejects names that would escape dir.
func Resolve(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("session log name cannot be empty")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("session log name must be relative: %s", name)
	}
	clean := filepath.Clean(name)
	if hasParentTraversal(clean) {
		return "", fmt.Errorf("path traversal not allowed: %s", name)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid log directory: %w", err)
	}
	abs := filepath.Join(root, clean)
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("session log outside %s: %s", root, name)
	}
	return abs, nil
}

func hasParentTraversal(cleanPath string) bool {
	if cleanPath == ".." {
		return true
	}
	for _, part := range strings.Split(cleanPath, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	return false
}
