package catalog

import "context"

//go:generate mockgen -destination=mock/client.go -package=mock . Client,SnapshotStore

// Client is the contract of the remote card catalog. Search methods return
// every page of results.
type Client interface {
	SearchCards(ctx context.Context, query string) ([]Card, error)
	GetCard(ctx context.Context, id string) (Card, error)
	SearchSets(ctx context.Context, query string) ([]Set, error)
	GetSet(ctx context.Context, id string) (Set, error)
}

// SnapshotStore persists cache contents across restarts.
type SnapshotStore interface {
	LoadCards(ctx context.Context) ([]Card, error)
	SaveCards(ctx context.Context, cards []Card) error
	DeleteCards(ctx context.Context, ids []string) error
	LoadSets(ctx context.Context) ([]Set, error)
	SaveSets(ctx context.Context, sets []Set) error
}
