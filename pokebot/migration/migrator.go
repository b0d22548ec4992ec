package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
)

const defaultBatchSize = 1000

// TableStats counts what moved for one kind of record.
type TableStats struct {
	Read    int
	Written int
	Batches int
}

type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	Duration  time.Duration
}

func (s MigrationStats) table(name string) *TableStats {
	t, ok := s.Tables[name]
	if !ok {
		t = &TableStats{}
		s.Tables[name] = t
	}
	return t
}

// Migrator copies a catalog snapshot from one store to another, for example
// when moving a deployment from Mongo to Postgres.
type Migrator struct {
	from, to     catalog.SnapshotStore
	batchSize    int
	sleepBetween time.Duration
	stats        MigrationStats
}

func NewMigrator(from, to catalog.SnapshotStore) *Migrator {
	return &Migrator{
		from:      from,
		to:        to,
		batchSize: defaultBatchSize,
		stats: MigrationStats{
			Tables: make(map[string]*TableStats),
		},
	}
}

// SetBatchSize overrides the number of records written per call.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetSleepBetween pauses between batches to go easy on a shared server.
func (m *Migrator) SetSleepBetween(d time.Duration) {
	if d > 0 {
		m.sleepBetween = d
	}
}

func (m *Migrator) Stats() MigrationStats {
	return m.stats
}

// MigrateAll copies sets first so card rows never point at a missing set.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	m.stats.StartTime = time.Now()
	defer func() { m.stats.Duration = time.Since(m.stats.StartTime) }()

	if err := m.migrateSets(ctx); err != nil {
		return err
	}
	if err := m.migrateCards(ctx); err != nil {
		return err
	}

	slog.Info("Snapshot migration finished",
		slog.String("type", "db"),
		slog.Int("sets", m.stats.table("sets").Written),
		slog.Int("cards", m.stats.table("cards").Written),
		slog.Duration("took", time.Since(m.stats.StartTime)))
	return nil
}

func (m *Migrator) migrateSets(ctx context.Context) error {
	sets, err := m.from.LoadSets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sets: %w", err)
	}
	return copyBatches(ctx, m, "sets", sets, m.to.SaveSets)
}

func (m *Migrator) migrateCards(ctx context.Context) error {
	cards, err := m.from.LoadCards(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	return copyBatches(ctx, m, "cards", cards, m.to.SaveCards)
}

func copyBatches[T any](ctx context.Context, m *Migrator, table string, items []T, save func(context.Context, []T) error) error {
	stats := m.stats.table(table)
	stats.Read += len(items)

	for start := 0; start < len(items); start += m.batchSize {
		if start > 0 && m.sleepBetween > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.sleepBetween):
			}
		}

		end := min(start+m.batchSize, len(items))
		if err := save(ctx, items[start:end]); err != nil {
			return fmt.Errorf("failed to save %s batch at offset %d: %w", table, start, err)
		}
		stats.Written += end - start
		stats.Batches++

		slog.Debug("Migrated batch",
			slog.String("type", "db"),
			slog.String("table", table),
			slog.Int("written", stats.Written),
			slog.Int("total", len(items)))
	}
	return nil
}
