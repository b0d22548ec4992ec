package repositories

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/gateways/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// newQueryDB only formats queries; it never connects.
func newQueryDB(t *testing.T) *bun.DB {
	t.Helper()
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBuiltQueries(t *testing.T) {
	db := newQueryDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	set := catalog.Set{ID: "sv3", Name: "Obsidian Flames", Total: 230}

	tests := []struct {
		name  string
		query interface{ String() string }
		want  []string
	}{
		{
			name: "UpsertCards",
			query: upsertCardsQuery(db, []*models.CatalogCard{
				models.NewCatalogCard(catalog.Card{ID: "sv3-1", Name: "Oddish", Set: set, Price: 0.1}, now),
				models.NewCatalogCard(catalog.Card{ID: "sv3-2", Name: "Gloom", Set: set, Price: 0.2}, now),
			}),
			want: []string{
				`INSERT INTO "catalog_cards"`,
				`'sv3-1'`,
				`'sv3-2'`,
				`ON CONFLICT (id) DO UPDATE SET`,
				`price = EXCLUDED.price`,
				`last_priced = EXCLUDED.last_priced`,
				`updated_at = EXCLUDED.updated_at`,
			},
		},
		{
			name:  "DeleteCards",
			query: deleteCardsQuery(db, []string{"sv3-1", "sv3-2"}),
			want: []string{
				`DELETE FROM "catalog_cards"`,
				`id IN ('sv3-1', 'sv3-2')`,
			},
		},
		{
			name:  "UpsertSets",
			query: upsertSetsQuery(db, []*models.CatalogSet{models.NewCatalogSet(set, now)}),
			want: []string{
				`INSERT INTO "catalog_sets"`,
				`'sv3'`,
				`ON CONFLICT (id) DO UPDATE SET`,
				`total = EXCLUDED.total`,
				`release_date = EXCLUDED.release_date`,
			},
		},
		{
			name: "InsertOpening",
			query: insertOpeningQuery(db, &models.OpenedPack{
				ID:       "0b6f1c1e-7d0a-4d8e-9a51-1f4b3c2d9e10",
				UserID:   "42",
				SetID:    "sv3",
				Count:    1,
				CardIDs:  []string{"sv3-1"},
				OpenedAt: now,
			}),
			want: []string{
				`INSERT INTO "opened_packs"`,
				`'0b6f1c1e-7d0a-4d8e-9a51-1f4b3c2d9e10'`,
			},
		},
		{
			name: "AddPlayerCard",
			query: addPlayerCardQuery(db, &models.PlayerCard{
				UserID:    "42",
				CardID:    "sv3-1",
				Amount:    3,
				Obtained:  now,
				UpdatedAt: now,
			}),
			want: []string{
				`INSERT INTO "player_cards" AS "pc"`,
				`ON CONFLICT (user_id, card_id) DO UPDATE SET`,
				`amount = "pc".amount + EXCLUDED.amount`,
				`updated_at = EXCLUDED.updated_at`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.query.String()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("query %q\nmissing %q", got, want)
				}
			}
		})
	}
}

func TestUpsertCardsQuery_OneRowPerCard(t *testing.T) {
	db := newQueryDB(t)
	now := time.Now()

	batch := make([]*models.CatalogCard, 3)
	for i, id := range []string{"a", "b", "c"} {
		batch[i] = models.NewCatalogCard(catalog.Card{ID: id}, now)
	}
	got := upsertCardsQuery(db, batch).String()
	values := got[strings.Index(got, "VALUES"):strings.Index(got, "ON CONFLICT")]
	if n := strings.Count(values, "), ("); n != 2 {
		t.Errorf("query has %d row separators, want 2: %s", n, got)
	}
}
