package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pokepacks/pokepacks/internal/domain/logger"
	"github.com/pokepacks/pokepacks/internal/gateways/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	schemaVersion        = 1 // bump when schema changes
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password" env:"POKEPACKS_DB_PASSWORD"`
	Database     string `toml:"database"`
	SSLMode      string `toml:"ssl_mode"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	if err := waitForServer(ctx, cfg); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.ConnConfig.ConnectTimeout = defaultConnTimeout
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	return createDB(ctx, poolConfig, cfg)
}

// waitForServer dials the server a few times before giving up, so a
// database that is still starting does not kill the bot.
func waitForServer(ctx context.Context, cfg DBConfig) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := net.Dialer{Timeout: defaultConnTimeout}

	var err error
	for i := 0; i < defaultMaxRetries; i++ {
		var conn net.Conn
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(defaultRetryInterval):
		}
	}
	return fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
}

func buildConnString(cfg DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

func createDB(ctx context.Context, poolConfig *pgxpool.Config, cfg DBConfig) (*DB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(buildConnString(cfg)),
		pgdriver.WithDialTimeout(defaultConnTimeout),
	))
	return &DB{pool: pool, bunDB: bun.NewDB(sqldb, pgdialect.New())}, nil
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ql := logger.NewQueryLogger("exec", sql, args...)
	result, err := db.pool.Exec(ctx, sql, args...)
	ql.Log(err, result.RowsAffected())
	return result, err
}

// InitializeSchema creates the catalog snapshot and ledger tables.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []any{
		(*models.CatalogSet)(nil),
		(*models.CatalogCard)(nil),
		(*models.OpenedPack)(nil),
		(*models.PlayerCard)(nil),
	}
	for _, model := range tables {
		if _, err := db.bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_catalog_cards_set_id ON catalog_cards(set_id)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_cards_last_priced ON catalog_cards(last_priced)`,
		`CREATE INDEX IF NOT EXISTS idx_opened_packs_user_id ON opened_packs(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_player_cards_card_id ON player_cards(card_id)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecWithLog(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.ensureAppMeta(ctx); err != nil {
		return err
	}
	if err := db.setAppMeta(ctx, "schema_version", strconv.Itoa(schemaVersion)); err != nil {
		slog.Warn("Failed to record schema version",
			slog.String("type", "db"),
			slog.Any("error", err))
	}
	return nil
}

func (db *DB) ensureAppMeta(ctx context.Context) error {
	_, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`)
	return err
}

func (db *DB) setAppMeta(ctx context.Context, key, value string) error {
	_, err := db.ExecWithLog(ctx, `INSERT INTO app_meta(key, value) VALUES($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}

func (db *DB) Close() {
	if db.bunDB != nil {
		_ = db.bunDB.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
}
