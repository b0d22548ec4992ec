package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/gateways/database/repositories"
	"github.com/pokepacks/pokepacks/internal/gateways/mongostore"
	"github.com/pokepacks/pokepacks/pokebot"
	"github.com/pokepacks/pokepacks/pokebot/database"
	"github.com/pokepacks/pokepacks/pokebot/logger"
	"github.com/pokepacks/pokepacks/pokebot/migration"
)

// Copies the catalog snapshot between the configured Postgres and Mongo
// stores, e.g. go run ./pokebot/cmd/migrate -from mongo -to postgres
func main() {
	path := flag.String("config", "config.toml", "path to config")
	from := flag.String("from", pokebot.DriverMongo, "source store (postgres or mongo)")
	to := flag.String("to", pokebot.DriverPostgres, "destination store (postgres or mongo)")
	batchSize := flag.Int("batch-size", 1000, "records written per batch")
	sleep := flag.Duration("sleep", 0, "pause between batches")
	flag.Parse()

	cfg, err := pokebot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))

	if *from == *to {
		slog.Error("Source and destination are the same store", slog.String("store", *from))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	src, closeSrc, err := open(ctx, cfg, *from)
	if err != nil {
		slog.Error("Failed to open source store", slog.String("store", *from), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSrc()

	dst, closeDst, err := open(ctx, cfg, *to)
	if err != nil {
		slog.Error("Failed to open destination store", slog.String("store", *to), slog.Any("error", err))
		closeSrc()
		os.Exit(1)
	}
	defer closeDst()

	migrator := migration.NewMigrator(src, dst)
	migrator.SetBatchSize(*batchSize)
	migrator.SetSleepBetween(*sleep)

	if err := migrator.MigrateAll(ctx); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		closeDst()
		closeSrc()
		os.Exit(1)
	}

	slog.Info("Migration completed successfully!")
}

func open(ctx context.Context, cfg *pokebot.Config, driver string) (catalog.SnapshotStore, func(), error) {
	switch driver {
	case pokebot.DriverPostgres:
		db, err := database.New(ctx, cfg.DB.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitializeSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repositories.NewSnapshotRepository(db.BunDB()), db.Close, nil

	case pokebot.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.DB.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		closer := func() { _ = client.Disconnect(context.Background()) }
		return mongostore.New(client.Database(cfg.DB.Mongo.Database)), closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", driver)
	}
}
