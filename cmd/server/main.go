package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-login-server/internal/config"
	"github.com/jrsteele09/go-login-server/internal/logging"
	"github.com/jrsteele09/go-login-server/login"
	"github.com/jrsteele09/go-login-server/server"
	"github.com/jrsteele09/go-login-server/token"
	"github.com/jrsteele09/go-login-server/users"
	"github.com/jrsteele09/go-login-server/users/postgres"
	fakeuserrepo "github.com/jrsteele09/go-login-server/users/repofake"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Init(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	ctx := context.Background()
	userRepo, closeRepo, err := newUserRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := server.SeedUser(ctx, c, userRepo); err != nil {
		return err
	}

	signer, err := token.NewHMACSigner(c.GetJWTSecret())
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}
	tokens := token.New(signer, token.WithExpiry(c.GetTokenExpiry()), token.WithIssuer(c.GetAppName()))

	loginService, err := login.NewService(userRepo, tokens)
	if err != nil {
		return err
	}
	handler, err := server.New(c, loginService)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newUserRepo returns a postgres repo when DATABASE_URL is set and an
// in-memory one otherwise.
func newUserRepo(ctx context.Context, c config.Config) (users.UserRepo, func(), error) {
	databaseURL := c.GetDatabaseURL()
	if databaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, users are kept in memory")
		return fakeuserrepo.NewFakeUserRepo(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database ping: %w", err)
	}

	repo := postgres.NewUserRepo(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, pool.Close, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
