package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/domain/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDatabase = "poketcg"
	cardsCollection = "cards"
	setsCollection  = "sets"
	defaultTimeout  = 10 * time.Second
)

type setDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Series      string    `bson:"series"`
	Printed     int       `bson:"printed"`
	Total       int       `bson:"total"`
	LogoURL     string    `bson:"logo_url"`
	SymbolURL   string    `bson:"symbol_url"`
	ReleaseDate time.Time `bson:"release_date"`
}

type cardDoc struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Set        setDoc    `bson:"set"`
	Number     string    `bson:"number"`
	Price      float64   `bson:"price"`
	ImageURL   string    `bson:"image_url"`
	Rarity     string    `bson:"rarity"`
	LastPriced time.Time `bson:"last_priced"`
}

func toSetDoc(s catalog.Set) setDoc {
	return setDoc(s)
}

func (d setDoc) toDomain() catalog.Set {
	return catalog.Set(d)
}

func toCardDoc(c catalog.Card) cardDoc {
	return cardDoc{
		ID:         c.ID,
		Name:       c.Name,
		Set:        toSetDoc(c.Set),
		Number:     c.Number,
		Price:      c.Price,
		ImageURL:   c.ImageURL,
		Rarity:     c.Rarity,
		LastPriced: c.LastPriced,
	}
}

func (d cardDoc) toDomain() catalog.Card {
	return catalog.Card{
		ID:         d.ID,
		Name:       d.Name,
		Set:        d.Set.toDomain(),
		Number:     d.Number,
		Price:      d.Price,
		ImageURL:   d.ImageURL,
		Rarity:     d.Rarity,
		LastPriced: d.LastPriced,
	}
}

// Store is a catalog snapshot store backed by a MongoDB database.
type Store struct {
	cards *mongo.Collection
	sets  *mongo.Collection
}

var _ catalog.SnapshotStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		cards: db.Collection(cardsCollection),
		sets:  db.Collection(setsCollection),
	}
}

// Connect dials uri and checks the deployment answers before returning.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func (s *Store) LoadCards(ctx context.Context) ([]catalog.Card, error) {
	var docs []cardDoc
	if err := s.findAll(ctx, s.cards, &docs); err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	cards := make([]catalog.Card, 0, len(docs))
	for _, d := range docs {
		cards = append(cards, d.toDomain())
	}
	return cards, nil
}

func (s *Store) SaveCards(ctx context.Context, cards []catalog.Card) error {
	docs := make([]any, 0, len(cards))
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		docs = append(docs, toCardDoc(c))
		ids = append(ids, c.ID)
	}
	if err := s.upsert(ctx, s.cards, ids, docs); err != nil {
		return fmt.Errorf("failed to save cards: %w", err)
	}
	return nil
}

func (s *Store) DeleteCards(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ql := logger.NewQueryLogger("delete cards", "cards.deleteMany", "ids", len(ids))
	res, err := s.cards.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	var deleted int64
	if res != nil {
		deleted = res.DeletedCount
	}
	ql.Log(err, deleted)
	if err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}
	return nil
}

func (s *Store) LoadSets(ctx context.Context) ([]catalog.Set, error) {
	var docs []setDoc
	if err := s.findAll(ctx, s.sets, &docs); err != nil {
		return nil, fmt.Errorf("failed to load sets: %w", err)
	}
	sets := make([]catalog.Set, 0, len(docs))
	for _, d := range docs {
		sets = append(sets, d.toDomain())
	}
	return sets, nil
}

func (s *Store) SaveSets(ctx context.Context, sets []catalog.Set) error {
	docs := make([]any, 0, len(sets))
	ids := make([]string, 0, len(sets))
	for _, set := range sets {
		docs = append(docs, toSetDoc(set))
		ids = append(ids, set.ID)
	}
	if err := s.upsert(ctx, s.sets, ids, docs); err != nil {
		return fmt.Errorf("failed to save sets: %w", err)
	}
	return nil
}

func (s *Store) findAll(ctx context.Context, coll *mongo.Collection, out any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ql := logger.NewQueryLogger("find all", coll.Name()+".find")
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		ql.Log(err, 0)
		return err
	}
	defer cur.Close(ctx)

	err = cur.All(ctx, out)
	ql.Log(err, 0)
	return err
}

// upsert replaces each document by id, inserting the ones not stored yet.
func (s *Store) upsert(ctx context.Context, coll *mongo.Collection, ids []string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(docs))
	for i, doc := range docs {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": ids[i]}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	ql := logger.NewQueryLogger("upsert", coll.Name()+".bulkWrite", "docs", len(docs))
	res, err := coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	var affected int64
	if res != nil {
		affected = res.ModifiedCount + res.UpsertedCount
	}
	ql.Log(err, affected)
	return err
}
