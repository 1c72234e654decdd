package autoupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/logging"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/shell"
)

// Spinner characters
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner represents a terminal spinner
type Spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
}

// NewSpinner creates a new spinner with a message
func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start starts the spinner animation
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r  %s %s ", spinnerFrames[i%len(spinnerFrames)], s.message)
			s.mu.Unlock()
			i++
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the spinner and shows the result
func (s *Spinner) Stop(success bool) {
	close(s.stop)
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		fmt.Fprintf(s.out, "\r  ✓ %s\n", s.message)
	} else {
		fmt.Fprintf(s.out, "\r  ✗ %s\n", s.message)
	}
}

// Downloader fetches release files.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Updater handles applying updates
type Updater struct {
	reconciler *reconcile.Reconciler
	binary     *shell.Binary
	downloader Downloader
	out        io.Writer
	logger     *zap.Logger
}

// NewUpdater creates a new updater writing progress to out.
func NewUpdater(r *reconcile.Reconciler, b *shell.Binary, d Downloader, out io.Writer, logger *zap.Logger) *Updater {
	if out == nil {
		out = io.Discard
	}
	return &Updater{
		reconciler: r,
		binary:     b,
		downloader: d,
		out:        out,
		logger:     logging.OrNop(logger),
	}
}

// ApplyShell stages the running binary and downloads the new release in its
// place. The staged binary is restored if the download fails.
func (u *Updater) ApplyShell(ctx context.Context, info UpdateInfo) error {
	if !info.HasUpdate {
		return nil
	}
	if err := u.binary.StageUpdate(); err != nil {
		return err
	}

	url := marketplace.ResolveURL(u.reconciler.Source().BaseURL, info.Path)
	data, err := u.downloader.Download(ctx, url)
	if err == nil {
		err = u.binary.Install(data)
	}
	if err != nil {
		if rbErr := u.binary.Rollback(); rbErr != nil {
			u.logger.Error("failed to restore shell binary", zap.Error(rbErr))
		}
		return fmt.Errorf("failed to update shell: %w", err)
	}

	u.logger.Info("shell update staged", zap.String("version", info.RemoteVer))
	return nil
}

// ApplyPlugin reinstalls one plugin from the selected source.
func (u *Updater) ApplyPlugin(ctx context.Context, info UpdateInfo) error {
	idx, err := u.reconciler.LoadIndex(ctx)
	if err != nil {
		return err
	}
	rec := idx.FindPlugin(info.Name)
	if rec == nil {
		return fmt.Errorf("plugin %s is no longer in the index", info.Name)
	}
	_, err = u.reconciler.Install(ctx, *rec, u.reconciler.Source().BaseURL)
	if errors.Is(err, reconcile.ErrInstallInFlight) {
		return nil
	}
	return err
}

// ApplyUpdates applies all available updates from the check result
func (u *Updater) ApplyUpdates(ctx context.Context, result *CheckResult) error {
	if !result.HasAnyUpdate {
		return nil
	}

	fmt.Fprintln(u.out, i18n.T("status.updating", nil))
	fmt.Fprintln(u.out)

	var updateErrors []error

	if result.Shell.HasUpdate {
		spinner := NewSpinner(u.out, i18n.T("update.shell_available", map[string]any{
			"current": result.Shell.CurrentVer,
			"remote":  result.Shell.RemoteVer,
		}))
		spinner.Start()

		err := u.ApplyShell(ctx, result.Shell)
		spinner.Stop(err == nil)

		if err != nil {
			updateErrors = append(updateErrors, err)
		}
	}

	for _, p := range result.Plugins {
		if !p.HasUpdate {
			continue
		}

		spinner := NewSpinner(u.out, fmt.Sprintf("%s %s (%s -> %s)", i18n.T("update.type_plugin", nil), p.Name, p.CurrentVer, p.RemoteVer))
		spinner.Start()

		err := u.ApplyPlugin(ctx, p)
		spinner.Stop(err == nil)

		if err != nil {
			updateErrors = append(updateErrors, err)
		}
	}

	fmt.Fprintln(u.out)

	if len(updateErrors) > 0 {
		fmt.Fprintln(u.out, i18n.T("update.partial_success", nil))
	} else {
		fmt.Fprintln(u.out, i18n.T("update.complete", nil))
	}
	if result.Shell.HasUpdate && len(updateErrors) == 0 {
		fmt.Fprintln(u.out, i18n.T("update.staged", nil))
	}

	return errors.Join(updateErrors...)
}
