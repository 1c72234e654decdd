// Package settings owns the shell's settings document (<data>/config.json):
// typed load/save, raw dot-path edits that keep the on-disk key order, and the
// session helpers the settings surfaces use.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/logging"
)

// SaveError reports a failed write of the settings document.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save settings %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// ErrInvalidDocument is returned by the raw path helpers when the file on
// disk is not valid JSON.
var ErrInvalidDocument = errors.New("settings document is not valid JSON")

var prettyOptions = &pretty.Options{Width: 80, Indent: "    "}

// Store reads and writes one settings document.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a Store for the document at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logging.OrNop(logger)}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings document. A missing, unreadable or corrupt file
// yields an empty document; the failure is logged, never returned.
func (s *Store) Load() *Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read settings", zap.String("path", s.path), zap.Error(err))
		}
		return NewDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("failed to parse settings", zap.String("path", s.path), zap.Error(err))
		return NewDocument()
	}
	return &doc
}

// Save writes doc pretty-printed with 4-space indentation, replacing the file
// atomically. Keys already in the file keep their order, and explicit empty
// values of known keys are kept. Failures are returned as *SaveError.
func (s *Store) Save(doc *Document) error {
	if doc == nil {
		doc = NewDocument()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return &SaveError{Path: s.path, Err: err}
	}
	if base, err := s.readRaw(); err == nil {
		merged, err := mergeRaw(base, data, "")
		if err != nil {
			s.logger.Warn("failed to merge settings, rewriting", zap.String("path", s.path), zap.Error(err))
		} else {
			data = merged
		}
	}
	return s.write(data)
}

// GetPath reads the raw value at a dot path. A missing file yields a
// non-existent result.
func (s *Store) GetPath(path string) (gjson.Result, error) {
	data, err := s.readRaw()
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(data, path), nil
}

// SetPath writes value at a dot path in the raw document, creating
// intermediate objects. Every other key keeps its position in the file.
func (s *Store) SetPath(path string, value any) error {
	data, err := s.readRaw()
	if err != nil {
		return err
	}
	data, err = sjson.SetBytes(data, path, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return s.write(data)
}

// DeletePath removes the value at a dot path from the raw document.
func (s *Store) DeletePath(path string) error {
	data, err := s.readRaw()
	if err != nil {
		return err
	}
	data, err = sjson.DeleteBytes(data, path)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return s.write(data)
}

// Raw returns the document as stored, or "{}" when the file does not exist.
func (s *Store) Raw() ([]byte, error) {
	return s.readRaw()
}

func (s *Store) readRaw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte("{}"), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDocument
	}
	return data, nil
}

func (s *Store) write(data []byte) error {
	data = pretty.PrettyOptions(data, prettyOptions)
	if err := config.WriteFileAtomic(s.path, data, 0644); err != nil {
		s.logger.Error("failed to save settings", zap.String("path", s.path), zap.Error(err))
		return &SaveError{Path: s.path, Err: err}
	}
	return nil
}
