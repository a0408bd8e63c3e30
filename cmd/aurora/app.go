package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aurora-backend/aurora/internal/db"
	"github.com/aurora-backend/aurora/internal/handlers"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/repository/postgres"
	"github.com/aurora-backend/aurora/internal/service/auth"
	"github.com/aurora-backend/aurora/internal/service/auth/session"
	"github.com/aurora-backend/aurora/internal/service/auth/sweeper"
	"github.com/aurora-backend/aurora/internal/service/auth/tokenmanager"
	"github.com/aurora-backend/aurora/internal/service/mailer"
	"github.com/aurora-backend/aurora/internal/service/transaction"
	"github.com/aurora-backend/aurora/internal/service/user"
	"github.com/aurora-backend/aurora/internal/sessionstore"
	"github.com/aurora-backend/aurora/internal/sessionstore/memory"
	redisstore "github.com/aurora-backend/aurora/internal/sessionstore/redis"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	sweeper *sweeper.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Sessions live in redis when configured, in process memory otherwise
	var sessionStore sessionstore.Store
	switch c.RedisURL {
	case "":
		log.Warn("REDIS_URL not set, sessions will not survive a restart")
		sessionStore = memory.New()
	default:
		client, err := redisstore.Connect(ctx, c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		sessionStore = redisstore.NewStore(client)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	sessionSweeper, err := sweeper.New(sweeper.Config{}, sessionStore, tokenManager, log)
	if err != nil {
		return nil, fmt.Errorf("error while creating session sweeper. Err: %w", err)
	}

	sessionManager, err := session.NewManager(session.Config{
		SweepTrigger: sessionSweeper.Trigger,
	}, sessionStore, tokenManager, log)
	if err != nil {
		return nil, fmt.Errorf("error while creating session manager. Err: %w", err)
	}

	var notifier mailer.Notifier = mailer.LogNotifier{Logger: log}
	if c.PostmarkToken != "" {
		notifier = mailer.NewPostmarkNotifier(c.PostmarkToken, c.EmailFrom)
	}

	userService := user.NewService(auth.DefaultHasher, storage, sessionManager, notifier, log)
	transactionService := transaction.NewService(storage)
	authService, err := auth.NewService(auth.Config{}, tokenManager, sessionManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	mux := handlers.NewRouter(authService, userService, transactionService, log)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     log,
		sweeper:    sessionSweeper,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	idleConnsClosed := make(chan struct{})
	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}
