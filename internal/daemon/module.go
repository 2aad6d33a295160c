package daemon

import (
	"context"

	"github.com/matheus3301/tgscan/internal/api"
	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/config"
	"github.com/matheus3301/tgscan/internal/journal"
	"github.com/matheus3301/tgscan/internal/lock"
	"github.com/matheus3301/tgscan/internal/logging"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/secrets"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/status"
	"github.com/matheus3301/tgscan/internal/store"
	"github.com/matheus3301/tgscan/internal/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the command-line configuration passed to the fx module.
type Params struct {
	Session    string // --session override; empty = resolve from config
	SocketPath string // optional override for testing; empty = use default
	Debug      bool
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideSessionStore,
			provideSelector,
			provideSecrets,
			provideTelegram,
			provideController,
			provideRecorder,
			provideScanService,
			provideSessionService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	if err := session.EnsureDir(); err != nil {
		return nil, err
	}
	return config.Load(session.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(), p.Debug)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	l, err := lock.Acquire(session.LockPath())
	if err != nil {
		return nil, err
	}
	logger.Info("daemon lock acquired", zap.String("path", session.LockPath()))
	return l, nil
}

func provideStore(_ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath()
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("journal initialized", zap.String("path", dbPath))
	return db, nil
}

func provideSessionStore() *session.Store {
	return session.NewStore(session.SessionsDir())
}

func provideSelector(p Params, cfg *config.Config, st *session.Store, m *status.Machine, b *bus.Bus, logger *zap.Logger) *session.Selector {
	name := session.Resolve(p.Session, cfg, st)
	if !st.Exists(name) {
		logger.Warn("active session has no session file; run tgscanctl login", zap.String("session", name))
	}
	logger.Info("active session", zap.String("session", name))
	return session.NewSelector(st, m, b, name)
}

func provideSecrets(cfg *config.Config) *secrets.Store {
	return secrets.NewStore(secrets.Credentials{APIID: cfg.APIID, APIHash: cfg.APIHash})
}

func provideTelegram(cfg *config.Config, st *session.Store, creds *secrets.Store, logger *zap.Logger) *telegram.Client {
	return telegram.New(telegram.Options{
		Store:        st,
		Credentials:  creds,
		HistoryBatch: cfg.HistoryBatch,
		Logger:       logger.Named("mtproto"),
	})
}

func provideController(tc *telegram.Client, m *status.Machine, sel *session.Selector, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *scan.Controller {
	return scan.NewController(tc, m, sel, b, logger.Named("scan"), scan.Options{MinInterval: cfg.MinInterval()})
}

func provideRecorder(db *store.DB, b *bus.Bus, logger *zap.Logger) *journal.Recorder {
	return journal.NewRecorder(db, b, logger.Named("journal"), journal.DefaultProgressInterval)
}

func provideScanService(ctrl *scan.Controller, sel *session.Selector, db *store.DB, b *bus.Bus, logger *zap.Logger) *api.ScanService {
	return api.NewScanService(ctrl, sel, db, b, logger)
}

func provideSessionService(p Params, st *session.Store, sel *session.Selector, m *status.Machine, sd fx.Shutdowner, logger *zap.Logger) *api.SessionService {
	return api.NewSessionService(api.SessionServiceParams{
		Store:      st,
		Selector:   sel,
		Machine:    m,
		SocketPath: socketPath(p),
		Shutdown:   func() error { return sd.Shutdown() },
		Logger:     logger,
	})
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, scanSvc *api.ScanService, lk *lock.Lock, db *store.DB, rec *journal.Recorder, ctrl *scan.Controller, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Journal first so no scan event is missed.
			rec.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := ctrl.Shutdown(ctx); err != nil {
				logger.Warn("scan did not stop in time", zap.Error(err))
			}
			scanSvc.Close()
			srv.Stop(ctx)
			rec.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing journal", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
