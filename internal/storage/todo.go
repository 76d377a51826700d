package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TodoLedger is the room-level list of session directories awaiting batch
// analysis. Entries are absolute paths, one per line, appended when a session
// ends and removed once analysis succeeds.
type TodoLedger struct {
	path string
}

// NewTodoLedger returns the ledger for a room directory.
func NewTodoLedger(roomDir string) *TodoLedger {
	return &TodoLedger{path: filepath.Join(roomDir, TodoFile)}
}

// Path returns the ledger file path.
func (l *TodoLedger) Path() string { return l.path }

// Add registers a session directory for later analysis. Adding a directory
// already present is a no-op, so signal replay never duplicates entries.
func (l *TodoLedger) Add(sessionDir string) error {
	abs, err := filepath.Abs(sessionDir)
	if err != nil {
		return fmt.Errorf("todo add: %w", err)
	}
	existing, err := l.List()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e == abs {
			return nil
		}
	}
	return appendLine(l.path, []byte(abs))
}

// List returns the registered session directories. A missing ledger file is
// an empty list, not an error.
func (l *TodoLedger) List() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("todo list: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("todo list: %w", err)
	}
	return out, nil
}

// Remove drops the given session directories from the ledger, rewriting it
// with the remaining entries. The ledger file is deleted once it would be
// empty.
func (l *TodoLedger) Remove(sessionDirs []string) error {
	existing, err := l.List()
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(sessionDirs))
	for _, d := range sessionDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return fmt.Errorf("todo remove: %w", err)
		}
		drop[abs] = true
	}

	var remaining []string
	for _, e := range existing {
		if !drop[e] {
			remaining = append(remaining, e)
		}
	}
	if len(remaining) == 0 {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("todo remove: %w", err)
		}
		return nil
	}
	return os.WriteFile(l.path, []byte(strings.Join(remaining, "\n")+"\n"), 0o644)
}
