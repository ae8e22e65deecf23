package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/minepilot/minepilot/internal/config"
	"github.com/minepilot/minepilot/internal/database"
	"github.com/minepilot/minepilot/internal/memory"
	"github.com/minepilot/minepilot/internal/middleware"
	"github.com/minepilot/minepilot/internal/repository"
)

type App struct {
	log        *logrus.Logger
	cfg        *config.Config
	router     *http.ServeMux
	db         *pgxpool.Pool
	repo       *repository.Queries
	cookies    *config.Cookies
	ws         *config.WebSocket
	mem        *memory.Pool
	migrations fs.FS
}

func New(log *logrus.Logger, cfg *config.Config, migrations fs.FS) *App {
	return &App{
		log:        log,
		cfg:        cfg,
		router:     http.NewServeMux(),
		migrations: migrations,
	}
}

// setup wires storage and the decision engine. Postgres is optional:
// without it the memory document lives in a local file and the
// player-account routes are not registered.
func (a *App) setup(ctx context.Context) error {
	var factory memory.StoreFactory
	if a.cfg.Postgres.Enabled() {
		db, _, err := database.ConnectAndMigrate(ctx, a.cfg.Postgres, a.migrations)
		if err != nil {
			return fmt.Errorf("unable to connect to db: %w", err)
		}
		a.db = db
		a.repo = repository.New(db)
		factory = func(owner string) memory.Store {
			return memory.NewPostgresStore(a.repo, owner)
		}

		jwt, err := config.NewJWT(a.cfg.Jwt)
		if err != nil {
			a.log.WithError(err).Warn("jwt keys unavailable, auth disabled")
		} else {
			a.cookies = config.NewCookies(a.cfg, jwt)
		}
	} else {
		a.log.WithField("path", a.cfg.MemoryFile).Info("postgres not configured, using file memory")
		// A single file holds the shared document: without accounts
		// there is nothing to partition by.
		factory = func(string) memory.Store {
			return memory.NewFileStore(a.cfg.MemoryFile)
		}
	}

	a.ws = config.NewWebSocket(a.cfg)
	a.mem = memory.NewPool(a.log, factory)

	a.loadRoutes()
	return nil
}

func (a *App) Start(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	defer func() {
		if a.db != nil {
			a.db.Close()
		}
	}()

	mws := []middleware.Middleware{
		middleware.Logging(a.log),
		middleware.Cors(a.cfg.Domain),
	}
	if a.cookies != nil {
		mws = append(mws, middleware.Auth(a.log, a.cookies))
	}

	server := &http.Server{
		Addr:    a.cfg.Addr,
		Handler: middleware.Wrap(a.router, mws...),
	}

	done := make(chan struct{})
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("unable to listen and serve")
		}
		close(done)
	}()

	a.log.WithFields(a.cfg.Fields()).Info("server listening")
	select {
	case <-done:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.WithError(err).Error("unable to shut down server")
		}
		cancel()
	}

	return nil
}
