package models

import (
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/uptrace/bun"
)

// SetInfo is the copy of a card's set kept alongside the card row.
type SetInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Series      string    `json:"series"`
	Printed     int       `json:"printed"`
	Total       int       `json:"total"`
	LogoURL     string    `json:"logo_url"`
	SymbolURL   string    `json:"symbol_url"`
	ReleaseDate time.Time `json:"release_date"`
}

type CatalogCard struct {
	bun.BaseModel `bun:"table:catalog_cards,alias:cc"`

	ID         string    `bun:"id,pk,type:text"`
	Name       string    `bun:"name,notnull"`
	Number     string    `bun:"number,type:text"`
	Rarity     string    `bun:"rarity,notnull"`
	Price      float64   `bun:"price,notnull,type:double precision"`
	ImageURL   string    `bun:"image_url,type:text"`
	SetID      string    `bun:"set_id,notnull"`
	Set        SetInfo   `bun:"set,type:jsonb"`
	LastPriced time.Time `bun:"last_priced,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type CatalogSet struct {
	bun.BaseModel `bun:"table:catalog_sets,alias:cs"`

	ID          string    `bun:"id,pk,type:text"`
	Name        string    `bun:"name,notnull"`
	Series      string    `bun:"series"`
	Printed     int       `bun:"printed,notnull,default:0"`
	Total       int       `bun:"total,notnull,default:0"`
	LogoURL     string    `bun:"logo_url,type:text"`
	SymbolURL   string    `bun:"symbol_url,type:text"`
	ReleaseDate time.Time `bun:"release_date"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func NewCatalogCard(c catalog.Card, now time.Time) *CatalogCard {
	return &CatalogCard{
		ID:         c.ID,
		Name:       c.Name,
		Number:     c.Number,
		Rarity:     c.Rarity,
		Price:      c.Price,
		ImageURL:   c.ImageURL,
		SetID:      c.Set.ID,
		Set:        SetInfo(c.Set),
		LastPriced: c.LastPriced,
		UpdatedAt:  now,
	}
}

func (m *CatalogCard) ToDomain() catalog.Card {
	set := catalog.Set(m.Set)
	if set.ID == "" {
		set.ID = m.SetID
	}
	return catalog.Card{
		ID:         m.ID,
		Name:       m.Name,
		Set:        set,
		Number:     m.Number,
		Price:      m.Price,
		ImageURL:   m.ImageURL,
		Rarity:     m.Rarity,
		LastPriced: m.LastPriced,
	}
}

func NewCatalogSet(s catalog.Set, now time.Time) *CatalogSet {
	return &CatalogSet{
		ID:          s.ID,
		Name:        s.Name,
		Series:      s.Series,
		Printed:     s.Printed,
		Total:       s.Total,
		LogoURL:     s.LogoURL,
		SymbolURL:   s.SymbolURL,
		ReleaseDate: s.ReleaseDate,
		UpdatedAt:   now,
	}
}

func (m *CatalogSet) ToDomain() catalog.Set {
	return catalog.Set{
		ID:          m.ID,
		Name:        m.Name,
		Series:      m.Series,
		Printed:     m.Printed,
		Total:       m.Total,
		LogoURL:     m.LogoURL,
		SymbolURL:   m.SymbolURL,
		ReleaseDate: m.ReleaseDate,
	}
}
