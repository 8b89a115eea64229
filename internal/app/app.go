package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/specialistvlad/nicauth/internal/authapi"
	"github.com/specialistvlad/nicauth/internal/config"
	"github.com/specialistvlad/nicauth/internal/ctxlog"
	"github.com/specialistvlad/nicauth/internal/form"
	"github.com/specialistvlad/nicauth/internal/tokenstore"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	config    *config.Config
	store     tokenstore.Store
	api       *authapi.Client
	closers   []io.Closer

	// screen overrides the terminal used by the ui command.
	screen tcell.Screen
}

// NewApp is the constructor for the main application. Command output goes to
// outW and logs to logW, except for the ui command, which logs to
// appConfig.LogFile so the terminal stays clean.
func NewApp(ctx context.Context, outW, logW io.Writer, appConfig *Config) (*App, error) {
	a := &App{outW: outW, appConfig: appConfig}

	if appConfig.Command == CommandUI && appConfig.LogFile != "" {
		f, err := openLogFile(appConfig.LogFile)
		if err != nil {
			return nil, err
		}
		logW = f
		a.closers = append(a.closers, f)
	}
	a.logger = newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Logger configured successfully.")

	cfg, err := config.Load(ctx, config.Sources{
		File:         appConfig.ConfigFile,
		FileOptional: appConfig.ConfigOptional,
		EnvFile:      appConfig.EnvFile,
		Overrides:    appConfig.Overrides,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = cfg

	store, err := tokenstore.Open(ctx, cfg.Storage)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to open token storage: %w", err)
	}
	a.store = store
	a.logger.Debug("Token storage opened.", "backend", cfg.Storage.Backend)

	a.api = authapi.New(cfg.BaseURL, authapi.NewHTTPClient(cfg.Timeout))
	a.logger.Debug("Auth API client ready.", "base_url", a.api.BaseURL(), "timeout", cfg.Timeout)

	return a, nil
}

// Config returns the resolved configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Close releases the token store, idle connections and the log file.
func (a *App) Close() error {
	var errs []error
	if a.api != nil {
		a.api.Close()
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (a *App) deps() form.Deps {
	return form.Deps{
		API:      a.api,
		Store:    a.store,
		TokenKey: a.config.TokenKey,
	}
}
