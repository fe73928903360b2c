package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

const (
	DefaultDataSource     = "Cluster0"
	DefaultDatabase       = "GridStrikeDb"
	DefaultCollection     = "Cards"
	DefaultDeckCollection = "Decks"
)

type DataAPIConfig struct {
	BaseURL    string
	APIKey     string
	DataSource string
	Database   string
	Collection string
	// DeckCollection holds decks; cards stay in Collection.
	DeckCollection string
	Timeout        time.Duration
}

// DataAPIStore talks to a MongoDB Atlas Data API endpoint. Documents carry
// their identity in _id; cards and decks carry it in id. The mapping happens
// here and nowhere else.
type DataAPIStore struct {
	client         *resty.Client
	target         map[string]any
	cardCollection string
	deckCollection string
}

func NewDataAPIStore(cfg DataAPIConfig) (*DataAPIStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("data api url is required")
	}
	if cfg.DataSource == "" {
		cfg.DataSource = DefaultDataSource
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.DeckCollection == "" {
		cfg.DeckCollection = DefaultDeckCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("api-key", cfg.APIKey)
	return &DataAPIStore{
		client: client,
		target: map[string]any{
			"dataSource": cfg.DataSource,
			"database":   cfg.Database,
		},
		cardCollection: cfg.Collection,
		deckCollection: cfg.DeckCollection,
	}, nil
}

func (s *DataAPIStore) action(ctx context.Context, name string, body map[string]any) (gjson.Result, error) {
	return s.actionOn(ctx, s.cardCollection, name, body)
}

func (s *DataAPIStore) actionOn(ctx context.Context, collection, name string, body map[string]any) (gjson.Result, error) {
	payload := make(map[string]any, len(s.target)+len(body)+1)
	for k, v := range s.target {
		payload[k] = v
	}
	payload["collection"] = collection
	for k, v := range body {
		payload[k] = v
	}
	resp, err := s.client.R().SetContext(ctx).SetBody(payload).Post("/action/" + name)
	if err != nil {
		return gjson.Result{}, persistErr(name, err)
	}
	if resp.IsError() {
		return gjson.Result{}, persistErr(name, fmt.Errorf("data api returned %s", resp.Status()))
	}
	return gjson.ParseBytes(resp.Body()), nil
}

func byID(id string) map[string]any {
	return map[string]any{"_id": map[string]any{"$oid": id}}
}

// documentID reads _id in either relaxed ("abc") or canonical
// ({"$oid": "abc"}) form.
func documentID(doc gjson.Result) string {
	id := doc.Get("_id")
	if oid := id.Get("$oid"); oid.Exists() {
		return oid.String()
	}
	return id.String()
}

func fromDocument(doc gjson.Result) (card.Card, error) {
	var c card.Card
	if err := json.Unmarshal([]byte(doc.Raw), &c); err != nil {
		return card.Card{}, persistErr("decode document", err)
	}
	c.ID = documentID(doc)
	return c.Clone(), nil
}

// toDocument renders c without any identity key; the server owns _id.
func toDocument(c card.Card) (map[string]any, error) {
	c.ID = ""
	b, err := json.Marshal(c)
	if err != nil {
		return nil, persistErr("encode card", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, persistErr("encode card", err)
	}
	delete(doc, "id")
	return doc, nil
}

func (s *DataAPIStore) GetAll(ctx context.Context) ([]card.Card, error) {
	res, err := s.action(ctx, "find", map[string]any{"filter": map[string]any{}})
	if err != nil {
		return nil, err
	}
	out := []card.Card{}
	for _, doc := range res.Get("documents").Array() {
		c, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *DataAPIStore) Get(ctx context.Context, id string) (card.Card, error) {
	res, err := s.action(ctx, "findOne", map[string]any{"filter": byID(id)})
	if err != nil {
		return card.Card{}, err
	}
	doc := res.Get("document")
	if !doc.Exists() || doc.Type == gjson.Null {
		return card.Card{}, notFound("card", id)
	}
	return fromDocument(doc)
}

func (s *DataAPIStore) Create(ctx context.Context, c card.Card) (card.Card, error) {
	doc, err := toDocument(c)
	if err != nil {
		return card.Card{}, err
	}
	res, err := s.action(ctx, "insertOne", map[string]any{"document": doc})
	if err != nil {
		return card.Card{}, err
	}
	id := res.Get("insertedId")
	if oid := id.Get("$oid"); oid.Exists() {
		id = oid
	}
	if id.String() == "" {
		return card.Card{}, persistErr("insertOne", fmt.Errorf("no insertedId in response"))
	}
	out := c.Clone()
	out.ID = id.String()
	return out, nil
}

func (s *DataAPIStore) Update(ctx context.Context, id string, c card.Card) (card.Card, error) {
	doc, err := toDocument(c)
	if err != nil {
		return card.Card{}, err
	}
	res, err := s.action(ctx, "updateOne", map[string]any{
		"filter": byID(id),
		"update": map[string]any{"$set": doc},
	})
	if err != nil {
		return card.Card{}, err
	}
	if res.Get("matchedCount").Int() == 0 {
		return card.Card{}, notFound("card", id)
	}
	out := c.Clone()
	out.ID = id
	return out, nil
}

func (s *DataAPIStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.action(ctx, "deleteOne", map[string]any{"filter": byID(id)})
	if err != nil {
		return false, err
	}
	return res.Get("deletedCount").Int() > 0, nil
}

func fromDeckDocument(doc gjson.Result) (deck.Deck, error) {
	var d deck.Deck
	if err := json.Unmarshal([]byte(doc.Raw), &d); err != nil {
		return deck.Deck{}, persistErr("decode document", err)
	}
	d.ID = documentID(doc)
	return d.Clone(), nil
}

func toDeckDocument(d deck.Deck) (map[string]any, error) {
	d.ID = ""
	b, err := json.Marshal(d.Clone())
	if err != nil {
		return nil, persistErr("encode deck", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, persistErr("encode deck", err)
	}
	delete(doc, "id")
	return doc, nil
}

// deckFilter renders f as a Data API filter. Names match as a literal,
// case-insensitive substring.
func deckFilter(f deck.Filters) map[string]any {
	filter := map[string]any{}
	if f.Faction != "" {
		filter["faction"] = f.Faction
	}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Name != "" {
		filter["name"] = map[string]any{"$regex": regexp.QuoteMeta(f.Name), "$options": "i"}
	}
	return filter
}

func (s *DataAPIStore) findDecks(ctx context.Context, filter map[string]any) ([]deck.Deck, error) {
	res, err := s.actionOn(ctx, s.deckCollection, "find", map[string]any{"filter": filter})
	if err != nil {
		return nil, err
	}
	out := []deck.Deck{}
	for _, doc := range res.Get("documents").Array() {
		d, err := fromDeckDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *DataAPIStore) GetAllDecks(ctx context.Context) ([]deck.Deck, error) {
	return s.findDecks(ctx, map[string]any{})
}

func (s *DataAPIStore) FindDecks(ctx context.Context, f deck.Filters) ([]deck.Deck, error) {
	return s.findDecks(ctx, deckFilter(f))
}

func (s *DataAPIStore) GetDeck(ctx context.Context, id string) (deck.Deck, error) {
	res, err := s.actionOn(ctx, s.deckCollection, "findOne", map[string]any{"filter": byID(id)})
	if err != nil {
		return deck.Deck{}, err
	}
	doc := res.Get("document")
	if !doc.Exists() || doc.Type == gjson.Null {
		return deck.Deck{}, notFound("deck", id)
	}
	return fromDeckDocument(doc)
}

func (s *DataAPIStore) CreateDeck(ctx context.Context, d deck.Deck) (deck.Deck, error) {
	doc, err := toDeckDocument(d)
	if err != nil {
		return deck.Deck{}, err
	}
	res, err := s.actionOn(ctx, s.deckCollection, "insertOne", map[string]any{"document": doc})
	if err != nil {
		return deck.Deck{}, err
	}
	id := res.Get("insertedId")
	if oid := id.Get("$oid"); oid.Exists() {
		id = oid
	}
	if id.String() == "" {
		return deck.Deck{}, persistErr("insertOne", fmt.Errorf("no insertedId in response"))
	}
	out := d.Clone()
	out.ID = id.String()
	return out, nil
}

func (s *DataAPIStore) UpdateDeck(ctx context.Context, id string, d deck.Deck) (deck.Deck, error) {
	doc, err := toDeckDocument(d)
	if err != nil {
		return deck.Deck{}, err
	}
	res, err := s.actionOn(ctx, s.deckCollection, "updateOne", map[string]any{
		"filter": byID(id),
		"update": map[string]any{"$set": doc},
	})
	if err != nil {
		return deck.Deck{}, err
	}
	if res.Get("matchedCount").Int() == 0 {
		return deck.Deck{}, notFound("deck", id)
	}
	out := d.Clone()
	out.ID = id
	return out, nil
}

func (s *DataAPIStore) DeleteDeck(ctx context.Context, id string) (bool, error) {
	res, err := s.actionOn(ctx, s.deckCollection, "deleteOne", map[string]any{"filter": byID(id)})
	if err != nil {
		return false, err
	}
	return res.Get("deletedCount").Int() > 0, nil
}
