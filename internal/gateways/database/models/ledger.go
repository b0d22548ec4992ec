package models

import (
	"time"

	"github.com/uptrace/bun"
)

// OpenedPack records one /openpack call.
type OpenedPack struct {
	bun.BaseModel `bun:"table:opened_packs,alias:op"`

	ID       string    `bun:"id,pk,type:uuid"`
	UserID   string    `bun:"user_id,notnull"`
	SetID    string    `bun:"set_id,notnull"`
	Count    int       `bun:"count,notnull"`
	CardIDs  []string  `bun:"card_ids,type:jsonb"`
	OpenedAt time.Time `bun:"opened_at,notnull,default:current_timestamp"`
}

type PlayerCard struct {
	bun.BaseModel `bun:"table:player_cards,alias:pc"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull,unique:player_cards_user_card"`
	CardID    string    `bun:"card_id,notnull,unique:player_cards_user_card"`
	Amount    int64     `bun:"amount,notnull,default:1"`
	Obtained  time.Time `bun:"obtained,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
