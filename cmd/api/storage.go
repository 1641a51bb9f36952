package main

import (
	"context"
	"fmt"

	"github.com/expenseflow/reimbursement/internal/api/handler"
	"github.com/expenseflow/reimbursement/internal/core/ports"
	"github.com/expenseflow/reimbursement/internal/infrastructure/db/memory"
	"github.com/expenseflow/reimbursement/internal/infrastructure/db/mongo"
	"github.com/expenseflow/reimbursement/internal/infrastructure/db/postgres"
	"github.com/expenseflow/reimbursement/internal/pkg/config"
)

// storage is the repository pair of one backend plus its readiness probe.
type storage struct {
	users          ports.UserRepository
	reimbursements ports.ReimbursementRepository
	checks         []handler.DependencyCheck
	close          func(context.Context) error
}

func openStorage(ctx context.Context, cfg *config.ServerConfig) (*storage, error) {
	switch cfg.Storage {
	case config.StorageMongo:
		s, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &storage{
			users:          s.Users,
			reimbursements: s.Reimbursements,
			checks:         []handler.DependencyCheck{{Name: "mongodb", Ping: s.Ping}},
			close:          s.Close,
		}, nil

	case config.StoragePostgres:
		s, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return &storage{
			users:          s.Users,
			reimbursements: s.Reimbursements,
			checks:         []handler.DependencyCheck{{Name: "postgres", Ping: s.Ping}},
			close:          s.Close,
		}, nil

	case config.StorageMemory:
		return &storage{
			users:          memory.NewUserRepository(),
			reimbursements: memory.NewReimbursementRepository(),
			close:          func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}
