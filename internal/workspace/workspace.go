package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
)

const (
	// DirName is the workspace directory under the base directory.
	DirName = "next2gas-work"
	// ProjectDir holds the working copy of the source project.
	ProjectDir = "next-project"
	// StagingDir holds the bundle before it is copied to the destination.
	StagingDir = "gas"
	// MarkerFile is created once the working copy has been transformed.
	MarkerFile = ".next2gas-transformed"
)

// Manager handles the workspace directory.
type Manager struct {
	root string
	keep bool
}

// NewManager returns a manager for baseDir/next2gas-work. An empty baseDir
// means the system temp directory. With keep set, Cleanup leaves the
// directory in place.
func NewManager(baseDir string, keep bool) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{root: filepath.Join(baseDir, DirName), keep: keep}
}

// GetPath returns the workspace directory.
func (m *Manager) GetPath() string {
	return m.root
}

// ProjectPath returns the working copy location.
func (m *Manager) ProjectPath() string {
	return filepath.Join(m.root, ProjectDir)
}

// StagingPath returns the bundle staging location.
func (m *Manager) StagingPath() string {
	return filepath.Join(m.root, StagingDir)
}

// Reset deletes whatever a previous run left behind and recreates an empty
// workspace.
func (m *Manager) Reset() error {
	if err := os.RemoveAll(m.root); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to clear workspace").
			WithContext("path", m.root).Build()
	}
	if err := os.MkdirAll(m.root, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create workspace").
			WithContext("path", m.root).Build()
	}
	slog.Info("Reset workspace", logfields.Path(m.root))
	return nil
}

// CreateSubdir creates a subdirectory within the workspace.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if _, err := os.Stat(m.root); err != nil {
		return "", fmt.Errorf("workspace not created: %w", err)
	}
	subdir := filepath.Join(m.root, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return subdir, nil
}

// Claim marks the working copy as transformed. It fails if the marker is
// already present, which means the copy was not reset since the last run.
func (m *Manager) Claim() error {
	marker := filepath.Join(m.root, MarkerFile)
	f, err := os.OpenFile(marker, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ferrors.ValidationError("working copy was already transformed; reset the workspace first").
				WithContext("path", m.root).Build()
		}
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to mark workspace").
			WithContext("path", marker).Build()
	}
	return f.Close()
}

// Claimed reports whether the working copy carries the transformation marker.
func (m *Manager) Claimed() bool {
	_, err := os.Stat(filepath.Join(m.root, MarkerFile))
	return err == nil
}

// Cleanup removes the workspace unless the manager keeps it.
func (m *Manager) Cleanup() error {
	if m.keep {
		slog.Info("Keeping workspace", logfields.Path(m.root))
		return nil
	}
	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.root))
	return nil
}
