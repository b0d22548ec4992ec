package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/packs"
	"github.com/pokepacks/pokepacks/internal/domain/store"
	"github.com/pokepacks/pokepacks/internal/gateways/database/repositories"
	"github.com/pokepacks/pokepacks/internal/gateways/mongostore"
	"github.com/pokepacks/pokepacks/internal/gateways/pokemontcg"
	"github.com/pokepacks/pokepacks/pokebot"
	"github.com/pokepacks/pokepacks/pokebot/commands"
	"github.com/pokepacks/pokepacks/pokebot/config"
	"github.com/pokepacks/pokepacks/pokebot/database"
	"github.com/pokepacks/pokepacks/pokebot/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := pokebot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))
	slog.Info("Starting PokePacks",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	b := pokebot.New(*cfg, version, commit)

	client := pokemontcg.NewClient(pokemontcg.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		APIKey:            cfg.Catalog.APIKey,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Timeout:           cfg.Catalog.RequestTimeout.Duration,
		MaxRetries:        cfg.Catalog.MaxRetries,
	})
	cards := catalog.NewCardCache(catalog.CacheConfig{
		RefreshAfter: cfg.Cache.RefreshAfter.Duration,
		Jitter:       cfg.Cache.Jitter.Duration,
		Retention:    cfg.Cache.Retention.Duration,
	})
	sets := catalog.NewSetCache(cfg.Cache.SetCacheSize)

	b.Catalog = catalog.NewService(client, cards, sets, packs.NewGenerator(nil, nil), catalog.ServiceConfig{
		ChunkSize:    cfg.Catalog.ChunkSize,
		FetchTimeout: cfg.Catalog.FetchTimeout.Duration,
	})
	refresher := catalog.NewRefresher(client, cards, catalog.RefresherConfig{
		Interval:     cfg.Cache.RefreshInterval.Duration,
		ChunkSize:    cfg.Catalog.ChunkSize,
		MaxRetries:   cfg.Cache.RefreshRetries,
		Backoff:      cfg.Cache.RefreshBackoff.Duration,
		Concurrency:  cfg.Cache.Concurrency,
		FetchTimeout: cfg.Catalog.FetchTimeout.Duration,
	})

	closeStore, err := openSnapshotStore(cfg, b, refresher)
	if err != nil {
		slog.Error("Failed to open snapshot store",
			slog.String("type", "sys"),
			slog.String("driver", cfg.DB.Driver),
			slog.Any("error", err))
		os.Exit(-1)
	}
	defer closeStore()

	warmCtx, warmCancel := context.WithTimeout(context.Background(), config.WarmTimeout)
	if err := b.Catalog.Warm(warmCtx); err != nil {
		// a cold cache only costs remote calls
		slog.Warn("Failed to warm catalog cache",
			slog.String("type", "sys"),
			slog.Any("error", err))
	}
	warmCancel()

	jobs, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	refresher.Start(jobs)

	b.Store = store.New(b.Catalog, nil, nil)
	stockCtx, stockCancel := context.WithTimeout(context.Background(), config.StartupTimeout)
	if _, err := b.Store.Restock(stockCtx); err != nil {
		slog.Warn("Initial store restock failed, retrying on the next check",
			slog.String("type", "sys"),
			slog.Any("error", err))
	}
	stockCancel()
	b.Store.StartResetJob(jobs, store.DefaultCheckInterval)

	h := handler.New()
	commands.Register(h, b)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...", slog.String("type", "sys"))
}

// openSnapshotStore attaches the configured snapshot store to the service
// and the refresher, and the ledger when Postgres is used.
func openSnapshotStore(cfg *pokebot.Config, b *pokebot.Bot, refresher *catalog.Refresher) (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.StartupTimeout)
	defer cancel()

	var snapshots catalog.SnapshotStore
	closer := func() {}

	switch cfg.DB.Driver {
	case pokebot.DriverPostgres:
		start := time.Now()
		db, err := database.New(ctx, cfg.DB.Postgres)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("Database connected successfully",
			slog.String("type", "sys"),
			slog.String("database", cfg.DB.Postgres.Database),
			slog.Duration("took", time.Since(start)))

		snapshots = repositories.NewSnapshotRepository(db.BunDB())
		b.Ledger = repositories.NewLedgerRepository(db.BunDB())
		closer = db.Close

	case pokebot.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.DB.Mongo.URI)
		if err != nil {
			return nil, err
		}
		snapshots = mongostore.New(client.Database(cfg.DB.Mongo.Database))
		closer = func() {
			ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
			defer cancel()
			_ = client.Disconnect(ctx)
		}

	default:
		slog.Info("No snapshot store configured, caches live in memory only", slog.String("type", "sys"))
		return closer, nil
	}

	b.Catalog.SetSnapshotStore(snapshots)
	refresher.SetSnapshotStore(snapshots)
	return closer, nil
}
