package store

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

func sampleCard(name string) card.Card {
	c := card.NewCard()
	c.CardName = name
	c.Faction = "Green"
	c.EnergyCost = 2
	c.Keywords = []string{"Regenerate 1"}
	c.Abilities = []card.Ability{{Title: "Root", Passive: true}}
	return c
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("Should assign ids and ignore client ids", func(t *testing.T) {
		in := sampleCard("Moss Wall")
		in.ID = "client-chosen"
		created, err := s.Create(ctx, in)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.NotEqual(t, "client-chosen", created.ID)
		assert.Equal(t, "Moss Wall", created.CardName)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})
	t.Run("Should list in insertion order", func(t *testing.T) {
		_, err := s.Create(ctx, sampleCard("Thorn Elk"))
		require.NoError(t, err)
		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Moss Wall", all[0].CardName)
		assert.Equal(t, "Thorn Elk", all[1].CardName)
	})
	t.Run("Should update in place", func(t *testing.T) {
		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		target := all[0]
		target.EnergyCost = 4
		updated, err := s.Update(ctx, target.ID, target)
		require.NoError(t, err)
		assert.Equal(t, 4, updated.EnergyCost)
		assert.Equal(t, target.ID, updated.ID)

		got, err := s.Get(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.EnergyCost)
	})
	t.Run("Should report unknown ids", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Update(ctx, "missing", sampleCard("Ghost"))
		assert.ErrorIs(t, err, ErrNotFound)
		deleted, err := s.Delete(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
	t.Run("Should delete", func(t *testing.T) {
		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		deleted, err := s.Delete(ctx, all[0].ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		all, err = s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Thorn Elk", all[0].CardName)
	})
}

func sampleDeck(name, faction string) deck.Deck {
	return deck.Deck{Name: name, Faction: faction, UserID: "u1", CardIDs: []string{"a", "a", "b"}}
}

// exerciseDecks runs the deck behaviour every backend shares.
func exerciseDecks(t *testing.T, s DeckStore) {
	ctx := context.Background()

	t.Run("Should assign deck ids and list in insertion order", func(t *testing.T) {
		in := sampleDeck("Ember Rush", "Red")
		in.ID = "client-chosen"
		created, err := s.CreateDeck(ctx, in)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.NotEqual(t, "client-chosen", created.ID)

		got, err := s.GetDeck(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		_, err = s.CreateDeck(ctx, sampleDeck("Tidal Control", "Blue"))
		require.NoError(t, err)
		all, err := s.GetAllDecks(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Ember Rush", all[0].Name)
		assert.Equal(t, []string{"a", "a", "b"}, all[0].CardIDs)
	})
	t.Run("Should find decks by faction, name and user", func(t *testing.T) {
		red, err := s.FindDecks(ctx, deck.Filters{Faction: "Red"})
		require.NoError(t, err)
		require.Len(t, red, 1)
		assert.Equal(t, "Ember Rush", red[0].Name)

		named, err := s.FindDecks(ctx, deck.Filters{Name: "tidal"})
		require.NoError(t, err)
		require.Len(t, named, 1)
		assert.Equal(t, "Blue", named[0].Faction)

		literal, err := s.FindDecks(ctx, deck.Filters{Name: "R.sh"})
		require.NoError(t, err)
		assert.Empty(t, literal)

		none, err := s.FindDecks(ctx, deck.Filters{Faction: "Red", UserID: "u2"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
	t.Run("Should update and delete decks", func(t *testing.T) {
		all, err := s.GetAllDecks(ctx)
		require.NoError(t, err)
		target := all[1]
		target.CardIDs = append(target.CardIDs, "c")
		updated, err := s.UpdateDeck(ctx, target.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target.ID, updated.ID)

		got, err := s.GetDeck(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a", "b", "c"}, got.CardIDs)

		deleted, err := s.DeleteDeck(ctx, all[0].ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		all, err = s.GetAllDecks(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Tidal Control", all[0].Name)
	})
	t.Run("Should report unknown deck ids", func(t *testing.T) {
		_, err := s.GetDeck(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "deck missing")
		_, err = s.UpdateDeck(ctx, "missing", sampleDeck("Ghost", "Black"))
		assert.ErrorIs(t, err, ErrNotFound)
		deleted, err := s.DeleteDeck(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
	exerciseDecks(t, NewMemoryStore())

	t.Run("Should not alias stored cards", func(t *testing.T) {
		s := NewMemoryStore()
		created, err := s.Create(context.Background(), sampleCard("Sprout"))
		require.NoError(t, err)
		created.Keywords[0] = "changed"
		got, err := s.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Regenerate 1", got.Keywords[0])
	})
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "cards.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	exerciseDecks(t, s)

	t.Run("Should reload what it wrote", func(t *testing.T) {
		reopened, err := NewFileStore(path)
		require.NoError(t, err)
		all, err := reopened.GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Thorn Elk", all[0].CardName)
		decks, err := reopened.GetAllDecks(context.Background())
		require.NoError(t, err)
		require.Len(t, decks, 1)
		assert.Equal(t, "Tidal Control", decks[0].Name)
	})
	t.Run("Should load a library written without decks", func(t *testing.T) {
		old := filepath.Join(t.TempDir(), "cards.json")
		require.NoError(t, os.WriteFile(old, []byte(`{"cards":[{"id":"x1","cardName":"Relic","faction":"White"}]}`), 0o644))
		reopened, err := NewFileStore(old)
		require.NoError(t, err)
		decks, err := reopened.GetAllDecks(context.Background())
		require.NoError(t, err)
		assert.Empty(t, decks)
		c, err := reopened.Get(context.Background(), "x1")
		require.NoError(t, err)
		assert.Equal(t, "Relic", c.CardName)
	})
	t.Run("Should wrap unreadable files", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "cards.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
		_, err := NewFileStore(bad)
		assert.ErrorIs(t, err, ErrPersistence)
	})
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cards.db")
	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	exerciseStore(t, s)
	exerciseDecks(t, s)
	require.NoError(t, s.Close())

	t.Run("Should migrate an existing database idempotently", func(t *testing.T) {
		reopened, err := OpenSQLite(ctx, path)
		require.NoError(t, err)
		defer reopened.Close()
		all, err := reopened.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, []card.Ability{{Title: "Root", Passive: true}}, all[0].Abilities)
		decks, err := reopened.GetAllDecks(ctx)
		require.NoError(t, err)
		require.Len(t, decks, 1)
	})
}

// fakeDataAPI is an in-memory stand-in for the Atlas Data API actions.
// Cards live in docs and decks in decks, chosen by the request collection.
type fakeDataAPI struct {
	mu      sync.Mutex
	docs    []map[string]any
	decks   []map[string]any
	next    int
	apiKeys []string
	bodies  []map[string]any
	fail    bool
}

func (f *fakeDataAPI) target(body map[string]any) *[]map[string]any {
	if body["collection"] == DefaultDeckCollection {
		return &f.decks
	}
	return &f.docs
}

func indexOf(docs []map[string]any, id string) int {
	for i, d := range docs {
		if d["_id"] == id {
			return i
		}
	}
	return -1
}

func filterID(body map[string]any) string {
	filter, _ := body["filter"].(map[string]any)
	ref, _ := filter["_id"].(map[string]any)
	id, _ := ref["$oid"].(string)
	return id
}

// matches applies the equality and $regex filters the store sends.
func matches(doc, filter map[string]any) bool {
	for k, want := range filter {
		got, _ := doc[k].(string)
		switch w := want.(type) {
		case string:
			if got != w {
				return false
			}
		case map[string]any:
			pattern, _ := w["$regex"].(string)
			if opts, _ := w["$options"].(string); strings.Contains(opts, "i") {
				pattern = "(?i)" + pattern
			}
			if !regexp.MustCompile(pattern).MatchString(got) {
				return false
			}
		}
	}
	return true
}

func (f *fakeDataAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.bodies = append(f.bodies, body)
	docs := f.target(body)

	reply := map[string]any{}
	switch r.URL.Path {
	case "/action/find":
		filter, _ := body["filter"].(map[string]any)
		found := []map[string]any{}
		for _, d := range *docs {
			if matches(d, filter) {
				found = append(found, d)
			}
		}
		reply["documents"] = found
	case "/action/findOne":
		if i := indexOf(*docs, filterID(body)); i >= 0 {
			reply["document"] = (*docs)[i]
		} else {
			reply["document"] = nil
		}
	case "/action/insertOne":
		sent, _ := body["document"].(map[string]any)
		doc := maps.Clone(sent)
		if doc == nil {
			doc = map[string]any{}
		}
		f.next++
		id := fmt.Sprintf("64f0000000000000000000%02d", f.next)
		doc["_id"] = id
		*docs = append(*docs, doc)
		reply["insertedId"] = id
	case "/action/updateOne":
		i := indexOf(*docs, filterID(body))
		if i < 0 {
			reply["matchedCount"] = 0
			break
		}
		update, _ := body["update"].(map[string]any)
		set, _ := update["$set"].(map[string]any)
		for k, v := range set {
			(*docs)[i][k] = v
		}
		reply["matchedCount"] = 1
		reply["modifiedCount"] = 1
	case "/action/deleteOne":
		i := indexOf(*docs, filterID(body))
		if i < 0 {
			reply["deletedCount"] = 0
			break
		}
		*docs = append((*docs)[:i], (*docs)[i+1:]...)
		reply["deletedCount"] = 1
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func newTestDataAPI(t *testing.T, api *fakeDataAPI) *DataAPIStore {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	s, err := NewDataAPIStore(DataAPIConfig{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	return s
}

func TestDataAPIStore(t *testing.T) {
	api := &fakeDataAPI{}
	exerciseStore(t, newTestDataAPI(t, api))

	t.Run("Should map _id to id and never send identity keys", func(t *testing.T) {
		for _, doc := range api.docs {
			assert.NotContains(t, doc, "id")
			assert.Contains(t, doc, "_id")
		}
		for _, body := range api.bodies {
			if doc, ok := body["document"].(map[string]any); ok {
				assert.NotContains(t, doc, "id")
				assert.NotContains(t, doc, "_id")
			}
			assert.Equal(t, DefaultDataSource, body["dataSource"])
			assert.Equal(t, DefaultDatabase, body["database"])
			assert.Equal(t, DefaultCollection, body["collection"])
		}
		assert.Equal(t, "secret", api.apiKeys[0])
	})
	t.Run("Should keep decks in their own collection", func(t *testing.T) {
		decksAPI := &fakeDataAPI{}
		exerciseDecks(t, newTestDataAPI(t, decksAPI))
		assert.Empty(t, decksAPI.docs)
		for _, body := range decksAPI.bodies {
			assert.Equal(t, DefaultDeckCollection, body["collection"])
		}
		for _, doc := range decksAPI.decks {
			assert.NotContains(t, doc, "id")
			assert.Contains(t, doc, "_id")
		}
	})
	t.Run("Should send deck searches as filters", func(t *testing.T) {
		decksAPI := &fakeDataAPI{}
		_, err := newTestDataAPI(t, decksAPI).FindDecks(context.Background(), deck.Filters{Name: "a+b", Faction: "Red"})
		require.NoError(t, err)
		require.Len(t, decksAPI.bodies, 1)
		filter := decksAPI.bodies[0]["filter"].(map[string]any)
		assert.Equal(t, "Red", filter["faction"])
		assert.Equal(t, map[string]any{"$regex": `a\+b`, "$options": "i"}, filter["name"])
		assert.NotContains(t, filter, "userId")
	})
	t.Run("Should read canonical object ids", func(t *testing.T) {
		api := &fakeDataAPI{docs: []map[string]any{
			{"_id": map[string]any{"$oid": "abc123"}, "cardName": "Relic", "faction": "White"},
		}}
		all, err := newTestDataAPI(t, api).GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "abc123", all[0].ID)
		assert.Equal(t, "Relic", all[0].CardName)
		assert.NotNil(t, all[0].Weapons)
	})
	t.Run("Should wrap server failures", func(t *testing.T) {
		s := newTestDataAPI(t, &fakeDataAPI{fail: true})
		_, err := s.GetAll(context.Background())
		assert.ErrorIs(t, err, ErrPersistence)
		_, err = s.Create(context.Background(), sampleCard("x"))
		assert.ErrorIs(t, err, ErrPersistence)
	})
	t.Run("Should require a url", func(t *testing.T) {
		_, err := NewDataAPIStore(DataAPIConfig{})
		require.Error(t, err)
	})
}
