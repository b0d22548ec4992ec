package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/logger"
	"github.com/pokepacks/pokepacks/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

const (
	defaultTimeout = 10 * time.Second
	maxBatchSize   = 1000
)

// SnapshotRepository keeps the catalog caches in Postgres so a restart does
// not have to refetch every card.
type SnapshotRepository struct {
	db  *bun.DB
	now func() time.Time
}

var _ catalog.SnapshotStore = (*SnapshotRepository)(nil)

func NewSnapshotRepository(db *bun.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

func (r *SnapshotRepository) LoadCards(ctx context.Context) ([]catalog.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ql := logger.NewQueryLogger("load cards", "SELECT catalog_cards")
	var rows []*models.CatalogCard
	err := r.db.NewSelect().
		Model(&rows).
		Order("id ASC").
		Scan(ctx)
	ql.Log(err, int64(len(rows)))
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	cards := make([]catalog.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, row.ToDomain())
	}
	return cards, nil
}

func (r *SnapshotRepository) SaveCards(ctx context.Context, cards []catalog.Card) error {
	if len(cards) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.now()
	for i := 0; i < len(cards); i += maxBatchSize {
		end := min(i+maxBatchSize, len(cards))
		batch := make([]*models.CatalogCard, 0, end-i)
		for _, c := range cards[i:end] {
			batch = append(batch, models.NewCatalogCard(c, now))
		}

		ql := logger.NewQueryLogger("save cards", "UPSERT catalog_cards", "batch", len(batch))
		res, err := upsertCardsQuery(r.db, batch).Exec(ctx)
		ql.Log(err, rowsAffected(res))
		if err != nil {
			return fmt.Errorf("failed to save cards: %w", err)
		}
	}
	return nil
}

func (r *SnapshotRepository) DeleteCards(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ql := logger.NewQueryLogger("delete cards", "DELETE catalog_cards", "ids", len(ids))
	res, err := deleteCardsQuery(r.db, ids).Exec(ctx)
	ql.Log(err, rowsAffected(res))
	if err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) LoadSets(ctx context.Context) ([]catalog.Set, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ql := logger.NewQueryLogger("load sets", "SELECT catalog_sets")
	var rows []*models.CatalogSet
	err := r.db.NewSelect().
		Model(&rows).
		Order("release_date ASC", "id ASC").
		Scan(ctx)
	ql.Log(err, int64(len(rows)))
	if err != nil {
		return nil, fmt.Errorf("failed to load sets: %w", err)
	}

	sets := make([]catalog.Set, 0, len(rows))
	for _, row := range rows {
		sets = append(sets, row.ToDomain())
	}
	return sets, nil
}

func (r *SnapshotRepository) SaveSets(ctx context.Context, sets []catalog.Set) error {
	if len(sets) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.now()
	rows := make([]*models.CatalogSet, 0, len(sets))
	for _, s := range sets {
		rows = append(rows, models.NewCatalogSet(s, now))
	}

	ql := logger.NewQueryLogger("save sets", "UPSERT catalog_sets", "sets", len(rows))
	res, err := upsertSetsQuery(r.db, rows).Exec(ctx)
	ql.Log(err, rowsAffected(res))
	if err != nil {
		return fmt.Errorf("failed to save sets: %w", err)
	}
	return nil
}

// upsertCardsQuery overwrites every column but the id of cards already stored.
func upsertCardsQuery(db bun.IDB, batch []*models.CatalogCard) *bun.InsertQuery {
	return db.NewInsert().
		Model(&batch).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("number = EXCLUDED.number").
		Set("rarity = EXCLUDED.rarity").
		Set("price = EXCLUDED.price").
		Set("image_url = EXCLUDED.image_url").
		Set("set_id = EXCLUDED.set_id").
		Set("set = EXCLUDED.set").
		Set("last_priced = EXCLUDED.last_priced").
		Set("updated_at = EXCLUDED.updated_at")
}

func deleteCardsQuery(db bun.IDB, ids []string) *bun.DeleteQuery {
	return db.NewDelete().
		Model((*models.CatalogCard)(nil)).
		Where("id IN (?)", bun.In(ids))
}

func upsertSetsQuery(db bun.IDB, rows []*models.CatalogSet) *bun.InsertQuery {
	return db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("series = EXCLUDED.series").
		Set("printed = EXCLUDED.printed").
		Set("total = EXCLUDED.total").
		Set("logo_url = EXCLUDED.logo_url").
		Set("symbol_url = EXCLUDED.symbol_url").
		Set("release_date = EXCLUDED.release_date").
		Set("updated_at = EXCLUDED.updated_at")
}
