package main

import (
	"context"
	"fmt"

	config "github.com/davicafu/hexacrud/internal/config"
	"github.com/davicafu/hexacrud/internal/infra/db/mongodb"
	"github.com/davicafu/hexacrud/internal/infra/db/postgres"
	"github.com/davicafu/hexacrud/internal/infra/db/sqlite"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	taskDomain "github.com/davicafu/hexacrud/internal/task/domain"
	userDomain "github.com/davicafu/hexacrud/internal/user/domain"
	"go.uber.org/zap"
)

const (
	tasksTable = "tasks"
	usersTable = "users"
)

// storage agrupa los repositorios de un backend y su cierre.
type storage struct {
	tasks  sharedDomain.Repository[taskDomain.Task]
	users  sharedDomain.Repository[userDomain.User]
	outbox sharedDomain.OutboxRepository
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := sqlite.InitSQLite(ctx, db, tasksTable, usersTable); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		tasks, err := sqlite.NewDocumentRepo[taskDomain.Task](db, tasksTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		users, err := sqlite.NewDocumentRepo[userDomain.User](db, usersTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info("🗄️ SQLite listo", zap.String("path", cfg.SQLitePath))
		return &storage{
			tasks:  tasks,
			users:  users,
			outbox: sqlite.NewOutboxRepoSQLite(db),
			close:  func() { db.Close() },
		}, nil

	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.InitPostgres(ctx, db, tasksTable, usersTable); err != nil {
			db.Close()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		tasks, err := postgres.NewDocumentRepo[taskDomain.Task](db, tasksTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		users, err := postgres.NewDocumentRepo[userDomain.User](db, usersTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info("🐘 Postgres listo")
		return &storage{
			tasks:  tasks,
			users:  users,
			outbox: postgres.NewOutboxRepoPostgres(db),
			close:  func() { db.Close() },
		}, nil

	case config.StorageMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		log.Info("🍃 MongoDB listo", zap.String("db", cfg.MongoDB))
		return &storage{
			tasks:  mongodb.NewDocumentRepo[taskDomain.Task](client, cfg.MongoDB, tasksTable),
			users:  mongodb.NewDocumentRepo[userDomain.User](client, cfg.MongoDB, usersTable),
			outbox: mongodb.NewOutboxRepoMongoDB(client, cfg.MongoDB),
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
	return nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
}
