package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/config"
	"github.com/lezoo/keep/internal/kv"
	"github.com/lezoo/keep/internal/resource"
	"github.com/lezoo/keep/internal/session"
	"github.com/lezoo/keep/internal/state"
)

// Options configure the keep application.
type Options struct {
	ConfigPath string
	Config     *config.Config // overrides ConfigPath when set
	LogToFile  bool           // write logs to cfg.LogFile instead of LogOutput
	LogOutput  io.Writer      // defaults to stderr
	HTTPClient api.Option     // optional transport override
}

// App is the composition root: one session, one snapshot store and the three
// resource managers sharing them.
type App struct {
	Config     config.Config
	Log        *logrus.Logger
	Store      kv.Store
	Client     *api.Client
	Session    *session.Session
	Categories *resource.CategoryManager
	Notes      *resource.NoteManager
	Tasks      *resource.TaskManager
	State      *state.Store

	closeLog func() error
}

// New wires every component from configuration and restores a persisted
// session when one exists.
func New(ctx context.Context, opts Options) (*App, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	logger, closeLog, err := newLogger(cfg, opts)
	if err != nil {
		return nil, err
	}

	store, err := kv.Open(kv.Options{
		Backend:  cfg.CacheBackend,
		Path:     cfg.CachePath,
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	clientOpts := []api.Option{api.WithLogger(logger)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, opts.HTTPClient)
	}
	client, err := api.NewClient(cfg.BaseURL, clientOpts...)
	if err != nil {
		_ = store.Close()
		_ = closeLog()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	sess := session.New(store, client, logger)
	if _, err := sess.Restore(ctx); err != nil {
		logger.WithError(err).Warn("could not restore session")
	}

	withLog := resource.WithLogger(logger)
	categories := resource.NewCategoryManager(client, sess, store, withLog)
	a := &App{
		Config:     cfg,
		Log:        logger,
		Store:      store,
		Client:     client,
		Session:    sess,
		Categories: categories,
		Notes:      resource.NewNoteManager(client, sess, categories, store, withLog),
		Tasks:      resource.NewTaskManager(client, sess, store, withLog),
		State:      &state.Store{},
		closeLog:   closeLog,
	}
	return a, nil
}

// Close releases the snapshot store and the log file.
func (a *App) Close() error {
	return errors.Join(a.Store.Close(), a.closeLog())
}

// Sync refreshes categories, then notes once categories are known, then
// tasks, and publishes the result to the state store. A signed-out session
// still runs every refresh so each manager applies its own policy.
func (a *App) Sync(ctx context.Context) error {
	var errs []error
	if err := a.Categories.Refresh(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(a.Categories.List()) > 0 || !a.Session.Authenticated() {
		if err := a.Notes.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Tasks.Refresh(ctx); err != nil {
		errs = append(errs, err)
	}

	err := joinSyncErrors(errs)
	data := a.data()
	a.State.Update(&data, err)
	return err
}

// Publish copies the managers' current collections into the state store
// without contacting the API.
func (a *App) Publish() {
	a.State.SetData(a.data())
}

func (a *App) data() state.Data {
	return state.Data{
		Categories: a.Categories.List(),
		Notes:      a.Notes.List(),
		Tasks:      a.Tasks.List(),
	}
}

// joinSyncErrors collapses repeated ErrNotAuthenticated into one.
func joinSyncErrors(errs []error) error {
	out := make([]error, 0, len(errs))
	unauth := false
	for _, err := range errs {
		if errors.Is(err, resource.ErrNotAuthenticated) {
			if unauth {
				continue
			}
			unauth = true
		}
		out = append(out, err)
	}
	return errors.Join(out...)
}

// PollInterval returns the configured sync cadence.
func (a *App) PollInterval() time.Duration {
	if a.Config.PollInterval <= 0 {
		return defaultPollInterval
	}
	return a.Config.PollInterval
}

func newLogger(cfg config.Config, opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	noop := func() error { return nil }
	if !opts.LogToFile {
		out := opts.LogOutput
		if out == nil {
			out = os.Stderr
		}
		logger.SetOutput(out)
		return logger, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(file)
	return logger, file.Close, nil
}
