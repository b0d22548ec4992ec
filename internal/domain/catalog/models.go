package catalog

import (
	"fmt"
	"math"
	"time"
)

const (
	basePackPrice      = 3.75
	packPriceInflation = 1.1
	releaseDateLayout  = "2006/01/02"
)

// Identifiable is anything addressed by a catalog id.
type Identifiable interface {
	Identity() string
}

// HasSet is anything that belongs to a card set.
type HasSet interface {
	SetID() string
}

type Set struct {
	ID          string
	Name        string
	Series      string
	Printed     int
	Total       int
	LogoURL     string
	SymbolURL   string
	ReleaseDate time.Time
}

func (s Set) Identity() string {
	return s.ID
}

// PackPrice returns the price of one booster of this set at now. Packs get
// 10% more expensive for every full year since release.
func (s Set) PackPrice(now time.Time) float64 {
	return PackPriceForAge(YearsSince(s.ReleaseDate, now))
}

// PackPriceForAge rounds 3.75 * 1.1^years to cents.
func PackPriceForAge(years int) float64 {
	if years < 0 {
		years = 0
	}
	return roundCents(basePackPrice * math.Pow(packPriceInflation, float64(years)))
}

// YearsSince counts whole anniversaries of from that have passed at now.
func YearsSince(from, now time.Time) int {
	if from.IsZero() {
		return 0
	}
	from, now = from.UTC(), now.UTC()
	years := now.Year() - from.Year()
	if now.Month() < from.Month() || (now.Month() == from.Month() && now.Day() < from.Day()) {
		years--
	}
	return max(years, 0)
}

// ParseReleaseDate parses the catalog's yyyy/mm/dd release dates.
func ParseReleaseDate(s string) (time.Time, error) {
	t, err := time.Parse(releaseDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid release date %q: %w", s, err)
	}
	return t, nil
}

type Card struct {
	ID         string
	Name       string
	Set        Set
	Number     string
	Price      float64
	ImageURL   string
	Rarity     string
	LastPriced time.Time
}

func (c Card) Identity() string {
	return c.ID
}

// RarityLabel makes cards drawable by the pack generator.
func (c Card) RarityLabel() string {
	return c.Rarity
}

func (c Card) SetID() string {
	return c.Set.ID
}

// Equal compares cards by id only.
func (c Card) Equal(other Card) bool {
	return c.ID == other.ID
}

// OwnedCard is a card together with how many copies a player holds.
type OwnedCard struct {
	Card
	Amount int64
}

// PackOpening is the result of opening one or more packs of a set.
type PackOpening struct {
	ID       string
	SetID    string
	Count    int
	Cards    []Card
	OpenedAt time.Time
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
