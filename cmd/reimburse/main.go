// Command reimburse is the terminal client for the reimbursement API.
//
// Configuration comes from the environment: REIMBURSE_API_URL,
// REIMBURSE_SESSION_FILE, REIMBURSE_TIMEOUT and LOG_LEVEL.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/expenseflow/reimbursement/internal/cli"
	"github.com/expenseflow/reimbursement/internal/pkg/config"
	"github.com/expenseflow/reimbursement/pkg/logger"
	"github.com/expenseflow/reimbursement/pkg/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reimburse: %v\n", err)
		return cli.ExitError
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Output:  os.Stderr,
		Service: "reimburse",
	})

	app := cli.New(cli.Config{
		APIURL:     cfg.APIURL,
		Store:      session.NewFileStore(cfg.SessionFile),
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Logger:     log,
	})
	return app.Run(ctx, os.Args[1:])
}
