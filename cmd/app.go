package cmd

import (
	"os"

	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/autoupdate"
	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/menu"
	"github.com/egoavara/shellconf/internal/plugin"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/sdk"
	"github.com/egoavara/shellconf/internal/settings"
	"github.com/egoavara/shellconf/internal/shell"
)

// application holds the services of one invocation, built from the
// resolved options after flag parsing.
type application struct {
	opts       config.Options
	paths      config.Paths
	logger     *zap.Logger
	store      *settings.Store
	session    *settings.Session
	dir        *plugin.Directory
	client     *marketplace.Client
	reconciler *reconcile.Reconciler
	binary     *shell.Binary
	checker    *autoupdate.Checker
	updater    *autoupdate.Updater
	host       *sdk.Host
}

var app *application

func newApp(opts config.Options, logger *zap.Logger) *application {
	a := &application{
		opts:   opts,
		paths:  opts.Paths(),
		logger: logger,
	}
	a.store = settings.NewStore(a.paths.SettingsPath(), logger)
	a.session = settings.NewSession(a.store, logger)
	a.dir = plugin.NewDirectory(a.paths.ScriptsDir(), logger)
	a.client = marketplace.NewClient(
		marketplace.WithTimeout(opts.Timeout),
		marketplace.WithLogger(logger),
	)
	a.reconciler = reconcile.New(a.dir, a.client,
		reconcile.WithSource(a.source()),
		reconcile.WithLogger(logger),
	)
	a.binary = shell.NewBinary(a.paths, logger)
	a.checker = autoupdate.NewChecker(a.reconciler, a.binary, opts.ShellVersion, logger)
	a.updater = autoupdate.NewUpdater(a.reconciler, a.binary, a.client, os.Stdout, logger)
	a.host = sdk.NewHost(a.paths.PluginConfigRoot(),
		sdk.WithLogger(logger),
		sdk.WithCatalog(i18n.Default()),
	)
	return a
}

// source picks the --source override, then the settings document, then
// the default source.
func (a *application) source() marketplace.Source {
	name := a.opts.Source
	if name == "" {
		name = a.session.Document().EffectiveSource()
	}
	src, err := marketplace.LookupSource(name)
	if err != nil {
		a.logger.Warn("unknown plugin source, using default",
			zap.String("source", name), zap.String("default", marketplace.DefaultSource))
		src, _ = marketplace.LookupSource(marketplace.DefaultSource)
	}
	return src
}

func (a *application) menuBuilder() *menu.Builder {
	return &menu.Builder{
		Session:    a.session,
		Dir:        a.dir,
		Reconciler: a.reconciler,
		Checker:    a.checker,
		Updater:    a.updater,
		Catalog:    i18n.Default(),
		PluginMenu: a.host.Hooks().Items,
		Logger:     a.logger,
	}
}

func (a *application) Close() {
	a.host.Close()
	if err := a.reconciler.Close(); err != nil {
		a.logger.Debug("reconciler close", zap.Error(err))
	}
}
