package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/logger"
	"github.com/pokepacks/pokepacks/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

// LedgerRepository records who opened what.
type LedgerRepository struct {
	db  *bun.DB
	now func() time.Time
}

func NewLedgerRepository(db *bun.DB) *LedgerRepository {
	return &LedgerRepository{db: db, now: time.Now}
}

// RecordOpening stores the opening and adds every pulled card to the
// player's collection in one transaction.
func (r *LedgerRepository) RecordOpening(ctx context.Context, userID string, opening catalog.PackOpening) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pulls := countPulls(opening.Cards)
	now := r.now()

	ql := logger.NewQueryLogger("record opening", "INSERT opened_packs; UPSERT player_cards",
		"user_id", userID, "opening_id", opening.ID, "distinct_cards", len(pulls))
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		cardIDs := make([]string, 0, len(opening.Cards))
		for _, c := range opening.Cards {
			cardIDs = append(cardIDs, c.ID)
		}
		openedAt := opening.OpenedAt
		if openedAt.IsZero() {
			openedAt = now
		}

		_, err := insertOpeningQuery(tx, &models.OpenedPack{
			ID:       opening.ID,
			UserID:   userID,
			SetID:    opening.SetID,
			Count:    opening.Count,
			CardIDs:  cardIDs,
			OpenedAt: openedAt,
		}).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert opened pack: %w", err)
		}

		for _, p := range pulls {
			_, err := addPlayerCardQuery(tx, &models.PlayerCard{
				UserID:    userID,
				CardID:    p.cardID,
				Amount:    p.amount,
				Obtained:  now,
				UpdatedAt: now,
			}).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to add card %s: %w", p.cardID, err)
			}
		}
		return nil
	})
	ql.Log(err, int64(len(pulls)))
	return err
}

// Amount reports how many copies of a card a player holds.
func (r *LedgerRepository) Amount(ctx context.Context, userID, cardID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var amount int64
	err := r.db.NewSelect().
		Model((*models.PlayerCard)(nil)).
		Column("amount").
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Scan(ctx, &amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get card amount: %w", err)
	}
	return amount, nil
}

func insertOpeningQuery(db bun.IDB, row *models.OpenedPack) *bun.InsertQuery {
	return db.NewInsert().Model(row)
}

// addPlayerCardQuery adds the pulled copies to what the player already holds.
// The conflicting row is addressed through the alias bun gives the target table.
func addPlayerCardQuery(db bun.IDB, row *models.PlayerCard) *bun.InsertQuery {
	return db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, card_id) DO UPDATE").
		Set("amount = ?TableAlias.amount + EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at")
}

type pull struct {
	cardID string
	amount int64
}

// countPulls folds duplicate pulls into one row per card, ordered by id so
// concurrent openings lock rows in the same order.
func countPulls(cards []catalog.Card) []pull {
	counts := make(map[string]int64, len(cards))
	for _, c := range cards {
		counts[c.ID]++
	}
	pulls := make([]pull, 0, len(counts))
	for id, n := range counts {
		pulls = append(pulls, pull{cardID: id, amount: n})
	}
	sort.Slice(pulls, func(i, j int) bool { return pulls[i].cardID < pulls[j].cardID })
	return pulls
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
