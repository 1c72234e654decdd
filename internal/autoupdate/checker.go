package autoupdate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/logging"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/shell"
)

// Checker handles update checking logic
type Checker struct {
	reconciler   *reconcile.Reconciler
	binary       *shell.Binary
	shellVersion string
	logger       *zap.Logger
}

// NewChecker creates a new update checker. shellVersion is the version of
// the running shell.
func NewChecker(r *reconcile.Reconciler, b *shell.Binary, shellVersion string, logger *zap.Logger) *Checker {
	return &Checker{
		reconciler:   r,
		binary:       b,
		shellVersion: shellVersion,
		logger:       logging.OrNop(logger),
	}
}

// Check loads the index of the selected source and compares it with the
// running shell and the installed plugins. A shell update is any version
// string that differs from the running one.
func (c *Checker) Check(ctx context.Context) (*CheckResult, error) {
	idx, err := c.reconciler.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin index: %w", err)
	}

	result := &CheckResult{
		Source:        c.reconciler.Source().Name,
		Shell:         c.CheckShell(idx),
		Plugins:       []UpdateInfo{},
		UpdatePending: c.UpdatePending(),
		Errors:        []error{},
	}

	plugins, err := c.CheckPlugins(ctx, idx)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	result.Plugins = plugins
	result.HasAnyUpdate = result.TotalUpdates() > 0
	return result, nil
}

// UpdatePending reports whether a staged shell update waits for a restart.
func (c *Checker) UpdatePending() bool {
	return c.binary.UpdatePending()
}

// CheckShell compares the running shell with the index release. An unknown
// running version never reports an update.
func (c *Checker) CheckShell(idx *marketplace.Index) UpdateInfo {
	return UpdateInfo{
		Type:       UpdateTypeShell,
		Name:       "shell",
		CurrentVer: c.shellVersion,
		RemoteVer:  idx.Shell.Version,
		HasUpdate:  c.shellVersion != "" && c.shellVersion != idx.Shell.Version,
		Direction:  Compare(c.shellVersion, idx.Shell.Version),
		Path:       idx.Shell.Path,
	}
}

// CheckPlugins returns the installed plugins of idx that have an update, in
// index order.
func (c *Checker) CheckPlugins(ctx context.Context, idx *marketplace.Index) ([]UpdateInfo, error) {
	statuses, err := c.reconciler.Refresh(ctx, idx)
	if err != nil {
		return []UpdateInfo{}, err
	}

	updates := []UpdateInfo{}
	for _, rec := range idx.Plugins {
		st := statuses[rec.Name]
		if !st.HasUpdate {
			continue
		}
		updates = append(updates, UpdateInfo{
			Type:       UpdateTypePlugin,
			Name:       rec.Name,
			CurrentVer: st.LocalVersion,
			RemoteVer:  rec.Version,
			HasUpdate:  true,
			Direction:  Compare(st.LocalVersion, rec.Version),
			Path:       rec.Path,
		})
	}
	c.logger.Debug("plugin update check finished", zap.Int("updates", len(updates)))
	return updates, nil
}
