// Package app wires configuration, storage, plugins, sessions and the HTTP
// server into the running service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/ayusman/formcheck/internal/config"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/plugin"
	"github.com/ayusman/formcheck/internal/server"
	"github.com/ayusman/formcheck/internal/session"
	"github.com/ayusman/formcheck/internal/store"
)

const (
	metricsNamespace = "formcheck"
	metricsSubsystem = "service"

	minReapInterval = time.Second
	maxReapInterval = time.Minute
)

// App is the assembled service.
type App struct {
	cfg        *config.Config
	registry   *prometheus.Registry
	metrics    *metrics.Manager
	store      *store.Store
	plugins    *plugin.Manager
	dispatcher *plugin.Dispatcher
	sessions   *session.Manager
	server     *server.Server
}

// New opens the store, discovers plugins and builds the server. Close
// releases everything New acquired.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.NewManager(metricsNamespace, metricsSubsystem, a.registry)

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st
	log.Debugf("using database: %s", st.Path())

	a.plugins = plugin.NewManager(cfg.PluginDir)
	if err := a.plugins.Discover(); err != nil {
		st.Close()
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	log.Infof("loaded %d plugins from %s", len(a.plugins.List()), a.plugins.PluginDir())
	a.dispatcher = plugin.NewDispatcher(a.plugins, plugin.NewExecutor(cfg.PluginTimeout()), a.metrics, 0)

	a.sessions = session.NewManager(SessionConfig(cfg), a.metrics,
		session.NewRecorder(st),
		session.PluginHook(a.dispatcher),
	)

	a.server = server.New(server.Config{
		Sessions:  a.sessions,
		Store:     st,
		Metrics:   a.metrics,
		Gatherer:  a.registry,
		StaticDir: cfg.StaticDir,
	})
	return a, nil
}

// SessionConfig maps the service configuration to the session pipeline.
func SessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		Recognizer:     cfg.Recognizer(),
		Fatigue:        cfg.Fatigue(),
		FatigueWarning: cfg.FatigueWarning,
	}
}

func (a *App) Handler() http.Handler {
	return a.server
}

func (a *App) Sessions() *session.Manager {
	return a.sessions
}

func (a *App) Plugins() *plugin.Manager {
	return a.plugins
}

// Run serves HTTP and reaps idle sessions until ctx is done. The App is
// closed before Run returns.
func (a *App) Run(ctx context.Context) error {
	reaperCtx, stopReaper := context.WithCancel(ctx)
	idle := a.cfg.SessionIdleTimeout.Duration
	var reaperDone <-chan struct{}
	if idle > 0 {
		reaperDone = a.sessions.StartReaper(reaperCtx, reapInterval(idle), idle)
	}

	serveErr := a.server.Serve(ctx, a.cfg.Addr())

	stopReaper()
	if reaperDone != nil {
		<-reaperDone
	}
	return multierr.Append(serveErr, a.Close(context.WithoutCancel(ctx)))
}

// Close ends every live session, waits for running plugins and closes the
// store.
func (a *App) Close(ctx context.Context) error {
	a.sessions.Close(ctx)
	a.dispatcher.Close()
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	log.Debugln("app closed")
	return nil
}

func reapInterval(idle time.Duration) time.Duration {
	return min(max(idle/4, minReapInterval), maxReapInterval)
}
