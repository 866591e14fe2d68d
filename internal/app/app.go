package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/specialistvlad/taskgrid/internal/changefeed"
	"github.com/specialistvlad/taskgrid/internal/claude"
	"github.com/specialistvlad/taskgrid/internal/config"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/inmemorystore"
	"github.com/specialistvlad/taskgrid/internal/planning"
	"github.com/specialistvlad/taskgrid/internal/sqlitestore"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/suggest"
	"github.com/specialistvlad/taskgrid/internal/taskgraph"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	outW   io.Writer
	logger *slog.Logger
	config *config.Model

	store     store.Store
	feed      changefeed.Publisher
	suggester suggest.Suggester
	graph     *taskgraph.Service
	planner   *planning.Planner
	session   *planning.Session

	closers    []io.Closer
	httpServer *http.Server
	now        func() time.Time
}

// NewApp loads configuration through loader and wires every component.
// Startup failures are returned, never panicked.
func NewApp(ctx context.Context, outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	// A provisional logger covers config loading; it is replaced once the
	// file settings are known.
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	cfgModel, err := loader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.LogLevel != "" {
		cfgModel.Log.Level = appConfig.LogLevel
	}
	if appConfig.LogFormat != "" {
		cfgModel.Log.Format = appConfig.LogFormat
	}

	logger = newLogger(cfgModel.Log.Level, cfgModel.Log.Format, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	return build(ctx, outW, cfgModel)
}

// NewFromModel wires an App from an already loaded model.
func NewFromModel(ctx context.Context, outW io.Writer, cfgModel *config.Model) (*App, error) {
	if err := cfgModel.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newLogger(cfgModel.Log.Level, cfgModel.Log.Format, outW)
	return build(ctxlog.WithLogger(ctx, logger), outW, cfgModel)
}

func build(ctx context.Context, outW io.Writer, cfgModel *config.Model) (*App, error) {
	a := &App{
		ctx:    ctx,
		outW:   outW,
		logger: ctxlog.FromContext(ctx),
		config: cfgModel,
		now:    time.Now,
	}

	st, err := openStore(cfgModel.Storage)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, st)
	a.logger.Debug("Store opened.", "driver", cfgModel.Storage.Driver)

	a.suggester, err = a.newSuggester(cfgModel.Suggest)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.feed = a.newFeed(cfgModel.ChangeFeed)
	a.graph = taskgraph.New(a.store, a.feed, cfgModel.Window)
	a.planner = planning.NewPlanner(a.store, cfgModel.Window, a.feed)
	a.session, err = planning.NewSession(a.planner, a.suggester, timegrid.FormatDay(a.now()))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.logger.Debug("Application wired.", "window", cfgModel.Window.String(), "suggest", cfgModel.Suggest.Provider)
	return a, nil
}

func openStore(cfg config.Storage) (store.Store, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return inmemorystore.New(), nil
	case config.StorageSQLite:
		st, err := sqlitestore.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *App) newSuggester(cfg config.Suggest) (suggest.Suggester, error) {
	switch cfg.Provider {
	case config.SuggestNone, "":
		a.logger.Debug("No suggester configured; optimize requests will report no suggestion.")
		return nil, nil
	case config.SuggestFile:
		return suggest.FileSuggester{Path: cfg.File}, nil
	case config.SuggestClaude:
		c, err := claude.NewClient(claude.Options{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			Timeout:    cfg.Timeout,
			MaxRetries: -1,
		})
		if err != nil {
			return nil, fmt.Errorf("configure claude suggester: %w", err)
		}
		a.closers = append(a.closers, c)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown suggest provider %q", cfg.Provider)
	}
}

// newFeed connects the change feed. A hub that cannot be reached degrades to
// no notifications rather than failing startup.
func (a *App) newFeed(cfg config.ChangeFeed) changefeed.Publisher {
	if cfg.URL == "" {
		return changefeed.Nop{}
	}
	feed, err := changefeed.DialSocketIO(a.ctx, changefeed.SocketIOOptions{
		URL:                cfg.URL,
		Namespace:          cfg.Namespace,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ConnectTimeout:     cfg.ConnectTimeout,
	})
	if err != nil {
		a.logger.Warn("Change feed unavailable, continuing without it.", "error", err)
		return changefeed.Nop{}
	}
	a.closers = append(a.closers, feed)
	return feed
}

// Context returns the application context carrying the configured logger.
func (a *App) Context() context.Context { return a.ctx }

// Logger returns the configured logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Config returns the loaded configuration model.
func (a *App) Config() *config.Model { return a.config }

// Store returns the persistence collaborator.
func (a *App) Store() store.Store { return a.store }

// Graph returns the dependency mutation service.
func (a *App) Graph() *taskgraph.Service { return a.graph }

// Planner returns the manual placement service.
func (a *App) Planner() *planning.Planner { return a.planner }

// Session returns the suggestion session.
func (a *App) Session() *planning.Session { return a.session }

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
