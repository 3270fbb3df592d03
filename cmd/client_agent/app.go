package clientagent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ride-hail-realtime/internal/domain/user"
	"ride-hail-realtime/internal/general/cache"
	"ride-hail-realtime/internal/general/config"
	"ride-hail-realtime/internal/general/httpapi"
	"ride-hail-realtime/internal/general/jwt"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/mqtt"
	"ride-hail-realtime/internal/general/postgres"
	"ride-hail-realtime/internal/general/rabbitmq"
	"ride-hail-realtime/internal/general/tracing"
	"ride-hail-realtime/internal/general/uistate"
	"ride-hail-realtime/internal/general/websocket"
	"ride-hail-realtime/internal/ports"
	"ride-hail-realtime/internal/software/realtime/broker"
	"ride-hail-realtime/internal/software/realtime/credential"
	"ride-hail-realtime/internal/software/realtime/dispatch"
	"ride-hail-realtime/internal/software/realtime/handler"
	"ride-hail-realtime/internal/software/realtime/service"
	statushandler "ride-hail-realtime/internal/software/statusboard/handler"
	statusservice "ride-hail-realtime/internal/software/statusboard/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Options select the config file and an optional role override.
type Options struct {
	ConfigPath string
	Role       string
}

// Run wires the realtime client agent and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// set up a new logger with a static request ID for startup logs
	logger := logger.New("client-agent")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(opts.ConfigPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, map[string]any{"path": opts.ConfigPath})
		return err
	}
	if opts.Role != "" {
		cfg.Identity.Role = opts.Role
	}
	role, err := user.ParseRole(cfg.Identity.Role)
	if err != nil {
		logger.Error(ctx, "role_invalid", "Invalid identity role", err, nil)
		return err
	}

	var traceOut io.Writer
	if cfg.Telemetry.TraceStdout {
		traceOut = os.Stdout
	}
	shutdownTracer, err := tracing.InitTracer("client-agent", traceOut)
	if err != nil {
		logger.Error(ctx, "tracer_init_failed", "Failed to initialize tracing", err, nil)
		return err
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shCtx)
	}()

	// REST client for credentials and reconciliation reads
	api, err := httpapi.New(cfg.API.BaseURL, cfg.API.Timeout, logger, httpapi.WithBearer(func() string { return cfg.API.Token }))
	if err != nil {
		logger.Error(ctx, "api_client_failed", "Failed to build API client", err, nil)
		return err
	}

	// client-side state
	store := cache.New()
	flags := uistate.NewSet(store)

	manager := broker.NewManager(dialerFor(cfg.Broker.Kind), cfg.Broker.URL, cfg.Broker.Username, logger)
	bridge := websocket.NewBridge(logger, flags, manager.State)
	flags.Observe(bridge.PublishFlag)

	// optional durable dedupe journal
	var journal ports.EnvelopeJournal
	var pool *pgxpool.Pool
	if cfg.Journal.Enabled {
		pool, err = postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
			return err
		}
		defer pool.Close()

		j := postgres.NewJournal(pool, cfg.Identity.ID)
		if err := j.EnsureSchema(ctx); err != nil {
			logger.Error(ctx, "journal_schema_failed", "Failed to prepare envelope journal", err, nil)
			return err
		}
		journal = j
	}

	chat := service.NewChatSync(api, store, logger)
	handlers := handler.NewSet(handler.Deps{
		Role:     role,
		Cache:    store,
		Flags:    flags.Ports(),
		Notifier: bridge,
		Chat:     chat,
		Logger:   logger,
	})
	queue := dispatch.New(handlers, dispatch.NewEmitter(manager, logger), logger,
		dispatch.WithDepthWarning(cfg.Dispatch.DepthWarning),
		dispatch.WithDedupe(cfg.Dispatch.DedupeWindow, journal),
	)

	supplier := credential.NewSupplier(api, cfg.Credential.RefreshInterval, logger)
	reconciler := service.NewReconciler(api, api, store, chat, logger)
	// an invalidated active ride stays readable while it is refetched
	store.Refetch(ports.KeyActiveRide, func() {
		go func() { _ = reconciler.Reconcile(ctx, service.TriggerInvalidated) }()
	})
	session := service.NewSession(service.SessionDeps{
		Identity:   cfg.Identity.ID,
		Supplier:   supplier,
		Manager:    manager,
		Queue:      queue,
		Reconciler: reconciler,
		Logger:     logger,
	})
	session.OnStateChange(bridge.PublishConnection)
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn(ctx, "session_close_failed", "Failed to close realtime session", map[string]any{"error": err.Error()})
		}
	}()

	// status board and UI bridge
	var auth *jwt.Manager
	if cfg.JWT.SecretKey != "" {
		if auth, err = jwt.NewManager(cfg.JWT.SecretKey, time.Hour); err != nil {
			logger.Error(ctx, "jwt_init_failed", "Failed to set up JWT manager", err, nil)
			return err
		}
	}
	boardOpts := statushandler.Options{Auth: auth, Identity: cfg.Identity.ID}
	if cfg.UIBridge.Enabled {
		boardOpts.Bridge = bridge
		boardOpts.UIPath = cfg.UIBridge.Path
	}
	board := statushandler.NewStatusHTTPHandler(statusservice.NewStatusService(statusservice.Sources{
		Identity:        cfg.Identity.ID,
		State:           manager.State,
		QueueDepth:      queue.Depth,
		CredentialReady: supplier.IsReady,
		Flags:           flags,
		Cache:           store,
	}), logger, boardOpts)

	srv := &http.Server{
		Addr:              cfg.Telemetry.ListenAddr,
		Handler:           board.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started", fmt.Sprintf("Client agent started for %s %s", role, cfg.Identity.ID), map[string]any{
		"broker":      cfg.Broker.Kind,
		"listen_addr": cfg.Telemetry.ListenAddr,
		"journal":     cfg.Journal.Enabled,
		"ui_bridge":   cfg.UIBridge.Enabled,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"addr": cfg.Telemetry.ListenAddr})
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
		return nil
	})

	g.Go(func() error {
		if err := session.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(ctx, "session_start_failed", "Failed to start realtime session", err, nil)
			return err
		}
		return nil
	})

	g.Go(func() error {
		watchLifecycle(gctx, session.Lifecycle(), logger)
		return nil
	})

	if j, ok := journal.(*postgres.Journal); ok {
		g.Go(func() error {
			pruneJournal(gctx, j, cfg.Journal.Retention, logger)
			return nil
		})
	}

	return g.Wait()
}

func dialerFor(kind string) ports.TransportDialer {
	if kind == config.BrokerAMQP {
		return rabbitmq.Dial
	}
	return mqtt.Dial
}

// watchLifecycle maps SIGUSR1 to backgrounding and SIGUSR2 to foregrounding.
func watchLifecycle(ctx context.Context, lc *service.Lifecycle, logger *logger.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			var err error
			if sig == syscall.SIGUSR1 {
				err = lc.Background(ctx)
			} else {
				err = lc.Foreground(ctx)
			}
			if err != nil {
				logger.Warn(ctx, "lifecycle_signal_failed", "Lifecycle transition failed", map[string]any{"signal": sig.String(), "error": err.Error()})
			}
		}
	}
}

func pruneJournal(ctx context.Context, j *postgres.Journal, retention time.Duration, logger *logger.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := j.Prune(ctx, retention)
			if err != nil {
				logger.Warn(ctx, "journal_prune_failed", "Failed to prune envelope journal", map[string]any{"error": err.Error()})
				continue
			}
			logger.Debug(ctx, "journal_pruned", "Pruned envelope journal", map[string]any{"removed": n})
		}
	}
}
