// Command api serves the reimbursement HTTP API.
//
//	@title						Reimbursement API
//	@version					1.0
//	@description				Expense reimbursement submission, approval and user administration.
//	@host						localhost:8585
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/expenseflow/reimbursement/internal/api"
	"github.com/expenseflow/reimbursement/internal/api/handler"
	"github.com/expenseflow/reimbursement/internal/core/ports"
	"github.com/expenseflow/reimbursement/internal/core/service"
	"github.com/expenseflow/reimbursement/internal/infrastructure/db/redis"
	"github.com/expenseflow/reimbursement/internal/pkg/config"
	"github.com/expenseflow/reimbursement/pkg/logger"
)

const appName = "reimbursement"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServer(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: appName,
	})

	displayAppname(appName)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("close storage")
		}
	}()
	log.Info().Str("storage", cfg.Storage).Msg("storage ready")

	checks := store.checks
	var revoker ports.TokenRevoker
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		revoker = redis.NewTokenRevoker(rdb)
		checks = append(checks, handler.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token revocation enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, logout will not revoke tokens")
	}

	authSvc := service.NewAuthService(store.users, revoker, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	userSvc := service.NewUserService(store.users, logger.Component("users"))
	reimbursementSvc := service.NewReimbursementService(store.reimbursements, store.users, logger.Component("reimbursements"))

	if err := userSvc.EnsureAdmin(ctx, ports.UserInput{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}); err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Auth:           authSvc,
		Reimbursements: reimbursementSvc,
		Users:          userSvc,
		Checks:         checks,
		Logger:         logger.Component("http"),
		RequestLog:     true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	return shutdown(server, log)
}

func shutdown(server *http.Server, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(name string) {
	myFigure := figure.NewFigure(name, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
