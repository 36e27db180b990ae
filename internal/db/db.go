// Package db opens the per-workspace SQLite database. Each workspace
// keeps its state under a .concord directory next to the annotated
// texts, so one machine can hold many independent projects.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	workspaceDir = ".concord"
	fileName     = "concord.db"
)

type Config struct {
	Workspace string
}

func root(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, workspaceDir)
}

// EnsureWorkspace creates the workspace state directory if it does not
// exist and returns its path.
func EnsureWorkspace(workspace string) (string, error) {
	path := root(workspace)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create workspace dir %s: %w", path, err)
	}
	return path, nil
}

// Open opens the workspace database, creating the state directory on
// first use. Foreign keys are enforced and writers wait out short
// lock contention instead of failing, since several cc invocations
// may share one workspace.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	path := Path(cfg.Workspace)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return conn, nil
}

// Path returns the database file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(root(workspace), fileName)
}
