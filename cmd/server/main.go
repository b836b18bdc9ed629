package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-collab-server/admin"
	"github.com/jrsteele09/go-collab-server/auth"
	"github.com/jrsteele09/go-collab-server/internal/config"
	"github.com/jrsteele09/go-collab-server/internal/logging"
	"github.com/jrsteele09/go-collab-server/kvstore"
	"github.com/jrsteele09/go-collab-server/metrics"
	"github.com/jrsteele09/go-collab-server/ratelimit"
	"github.com/jrsteele09/go-collab-server/server"
	"github.com/jrsteele09/go-collab-server/sessions"
	"github.com/jrsteele09/go-collab-server/token"
	"github.com/jrsteele09/go-collab-server/users"
	"github.com/jrsteele09/go-collab-server/users/mongorepo"
	"github.com/jrsteele09/go-collab-server/users/postgresrepo"
	fakeuserrepo "github.com/jrsteele09/go-collab-server/users/repofake"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("stack", string(debug.Stack())).Msgf("Recovered from panic: %v", r)
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return errors.Wrap(err, "[run] loading config")
	}
	logging.Init(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret, err := c.GetJWTSecret()
	if err != nil {
		return errors.Wrap(err, "[run] JWT secret is not available")
	}
	signer, err := token.NewHMACSigner(secret)
	if err != nil {
		return err
	}
	issuer, err := token.NewIssuer(signer, token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()))
	if err != nil {
		return err
	}

	repo, closeRepo, err := openUserRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	store, err := kvstore.NewRedisStore(ctx, kvstore.RedisOptions{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	sessionManager := sessions.NewManager(store, c.GetSessionTTL())
	limiter := ratelimit.New(store, ratelimit.WithRecorder(m))
	revoked := token.NewKVRevokedTokenCache(store)

	authService, err := auth.NewAuthService(auth.Repos{Users: repo}, issuer, sessionManager, limiter,
		auth.WithLoginRateLimit(c.GetLoginRateLimitWindow()),
		auth.WithPasswordChangeRateLimit(c.GetPasswordChangeRateLimitWindow()),
		auth.WithRevokedTokenCache(revoked),
		auth.WithRecorder(m),
	)
	if err != nil {
		return err
	}
	resetService, err := auth.NewPasswordResetService(repo, store, limiter, c.GetBaseURL(),
		auth.WithResetTTL(c.GetResetTokenTTL()),
		auth.WithMailer(auth.NewLogMailer(c.GetEnv())),
	)
	if err != nil {
		return err
	}
	adminService, err := admin.NewAdminService(repo)
	if err != nil {
		return err
	}

	handler, err := server.New(c, server.Deps{
		Auth:          authService,
		PasswordReset: resetService,
		Admin:         adminService,
		Tokens:        issuer,
		Sessions:      sessionManager,
		Revoked:       revoked,
		Metrics:       m,
		HealthChecks: map[string]server.HealthCheck{
			"kvstore": store.Ping,
			"users":   repo.Ping,
		},
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	return g.Wait()
}

// openUserRepo connects the account store selected by STORE_DRIVER
func openUserRepo(ctx context.Context, c config.Config) (users.Repo, func(), error) {
	switch c.GetStoreDriver() {
	case config.StorePostgres:
		db, err := postgresrepo.Open(ctx, c.GetDatabaseDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := postgresrepo.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Msg("Using postgres account store")
		return postgresrepo.New(db), func() { _ = db.Close() }, nil

	case config.StoreMemory:
		log.Warn().Msg("Using in-memory account store, accounts are lost on restart")
		return fakeuserrepo.NewFakeUserRepo(), func() {}, nil

	default:
		// Connect also ensures the unique indexes
		repo, err := mongorepo.Connect(ctx, c.GetMongoURI(), c.GetMongoDatabase())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("database", c.GetMongoDatabase()).Msg("Using mongo account store")
		return repo, func() { _ = repo.Close(context.Background()) }, nil
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
