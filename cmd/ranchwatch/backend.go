package main

import (
	"context"
	"fmt"

	"github.com/FranksOps/ranchwatch/internal/config"
	"github.com/FranksOps/ranchwatch/internal/storage"
	"github.com/FranksOps/ranchwatch/internal/storage/csvbackend"
	"github.com/FranksOps/ranchwatch/internal/storage/jsonbackend"
	"github.com/FranksOps/ranchwatch/internal/storage/postgres"
	"github.com/FranksOps/ranchwatch/internal/storage/redisbackend"
	"github.com/FranksOps/ranchwatch/internal/storage/sqlite"
	"github.com/FranksOps/ranchwatch/internal/storage/textbackend"
)

func openBackend(ctx context.Context, s config.Storage) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch s.Backend {
	case config.StorageText:
		b, err = textbackend.New(s.DSN)
	case config.StorageJSONL:
		b, err = jsonbackend.New(s.DSN)
	case config.StorageCSV:
		b, err = csvbackend.New(s.DSN)
	case config.StorageSQLite:
		b, err = sqlite.New(s.DSN)
	case config.StoragePostgres:
		b, err = postgres.New(ctx, s.DSN)
	case config.StorageRedis:
		b, err = redisbackend.New(ctx, s.DSN, redisbackend.DefaultKey)
	default:
		return nil, &config.Error{Key: "storage", Problem: fmt.Sprintf("unknown backend %q", s.Backend)}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", s.Backend, err)
	}
	return b, nil
}
