// Package shell manages the host shell binary in the data directory.
package shell

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/logging"
)

// ErrCannotMoveFile is returned when the current binary cannot be moved
// aside for an update, usually because the shell still has it loaded.
var ErrCannotMoveFile = errors.New("cannot move the current shell binary")

// Binary is the shell binary and the copy it is moved to while an update is
// pending a restart.
type Binary struct {
	path    string
	oldPath string
	logger  *zap.Logger
}

// NewBinary returns the binary layout of paths.
func NewBinary(paths config.Paths, logger *zap.Logger) *Binary {
	return &Binary{
		path:    paths.ShellBinaryPath(),
		oldPath: paths.ShellOldBinaryPath(),
		logger:  logging.OrNop(logger),
	}
}

// Path returns the binary path.
func (b *Binary) Path() string {
	return b.path
}

// OldPath returns the path of the previous binary.
func (b *Binary) OldPath() string {
	return b.oldPath
}

// Exists reports whether the binary is present.
func (b *Binary) Exists() bool {
	return exists(b.path)
}

// UpdatePending reports whether a new binary was staged and the shell has
// not restarted since.
func (b *Binary) UpdatePending() bool {
	return exists(b.oldPath)
}

// CleanupOld removes the previous binary left by an applied update. It is
// expected to fail while the old binary is still loaded.
func (b *Binary) CleanupOld() error {
	if !exists(b.oldPath) {
		return nil
	}
	if err := os.Remove(b.oldPath); err != nil {
		b.logger.Warn("failed to remove old shell binary", zap.String("path", b.oldPath), zap.Error(err))
		return err
	}
	return nil
}

// StageUpdate moves the current binary to the old path, replacing an older
// copy, so a new binary can be written in its place.
func (b *Binary) StageUpdate() error {
	if !exists(b.path) {
		return nil
	}
	if exists(b.oldPath) {
		if err := os.Remove(b.oldPath); err != nil {
			return fmt.Errorf("%w: %v", ErrCannotMoveFile, err)
		}
	}
	if err := os.Rename(b.path, b.oldPath); err != nil {
		return fmt.Errorf("%w: %v", ErrCannotMoveFile, err)
	}
	return nil
}

// Install writes data as the new binary.
func (b *Binary) Install(data []byte) error {
	if err := config.WriteFileAtomic(b.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write shell binary: %w", err)
	}
	return nil
}

// Rollback restores the staged binary when no new one was written.
func (b *Binary) Rollback() error {
	if exists(b.path) || !exists(b.oldPath) {
		return nil
	}
	if err := os.Rename(b.oldPath, b.path); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
