package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

// FileStore keeps the library in a single JSON file, rewritten on every
// change. A failed write leaves the in-memory state untouched.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	state *fileCollections
}

type fileState struct {
	Cards []card.Card `json:"cards"`
	Decks []deck.Deck `json:"decks,omitempty"`
}

type fileCollections struct {
	cards *collection[card.Card]
	decks *collection[deck.Deck]
}

func (fc *fileCollections) clone() *fileCollections {
	return &fileCollections{cards: fc.cards.clone(), decks: fc.decks.clone()}
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, persistErr("create data dir", err)
	}
	s := &FileStore{path: path, state: &fileCollections{
		cards: newCollection(cardEntry, nil),
		decks: newCollection(deckEntry, nil),
	}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return persistErr("read "+s.path, err)
	}
	var st fileState
	if err := json.Unmarshal(b, &st); err != nil {
		return persistErr("parse "+s.path, err)
	}
	s.state = &fileCollections{
		cards: newCollection(cardEntry, st.Cards),
		decks: newCollection(deckEntry, st.Decks),
	}
	return nil
}

func (s *FileStore) save(fc *fileCollections) error {
	b, err := json.MarshalIndent(fileState{Cards: fc.cards.all(), Decks: fc.decks.all()}, "", "  ")
	if err != nil {
		return persistErr("encode", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return persistErr("write "+tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return persistErr("replace "+s.path, err)
	}
	return nil
}

// mutate applies fn to a copy of the collections and keeps it only when it
// was written to disk.
func (s *FileStore) mutate(fn func(fc *fileCollections) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if !fn(next) {
		return false, nil
	}
	if err := s.save(next); err != nil {
		return false, err
	}
	s.state = next
	return true, nil
}

func (s *FileStore) GetAll(context.Context) ([]card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.cards.all(), nil
}

func (s *FileStore) Get(_ context.Context, id string) (card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.cards.get(id)
	if !ok {
		return card.Card{}, notFound("card", id)
	}
	return c, nil
}

func (s *FileStore) Create(_ context.Context, c card.Card) (card.Card, error) {
	var out card.Card
	_, err := s.mutate(func(fc *fileCollections) bool {
		out = fc.cards.create(c)
		return true
	})
	if err != nil {
		return card.Card{}, err
	}
	return out, nil
}

func (s *FileStore) Update(_ context.Context, id string, c card.Card) (card.Card, error) {
	var out card.Card
	ok, err := s.mutate(func(fc *fileCollections) bool {
		var found bool
		out, found = fc.cards.update(id, c)
		return found
	})
	if err != nil {
		return card.Card{}, err
	}
	if !ok {
		return card.Card{}, notFound("card", id)
	}
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, id string) (bool, error) {
	return s.mutate(func(fc *fileCollections) bool {
		return fc.cards.delete(id)
	})
}

func (s *FileStore) GetAllDecks(context.Context) ([]deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.decks.all(), nil
}

func (s *FileStore) GetDeck(_ context.Context, id string) (deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.decks.get(id)
	if !ok {
		return deck.Deck{}, notFound("deck", id)
	}
	return d, nil
}

func (s *FileStore) CreateDeck(_ context.Context, d deck.Deck) (deck.Deck, error) {
	var out deck.Deck
	_, err := s.mutate(func(fc *fileCollections) bool {
		out = fc.decks.create(d)
		return true
	})
	if err != nil {
		return deck.Deck{}, err
	}
	return out, nil
}

func (s *FileStore) UpdateDeck(_ context.Context, id string, d deck.Deck) (deck.Deck, error) {
	var out deck.Deck
	ok, err := s.mutate(func(fc *fileCollections) bool {
		var found bool
		out, found = fc.decks.update(id, d)
		return found
	})
	if err != nil {
		return deck.Deck{}, err
	}
	if !ok {
		return deck.Deck{}, notFound("deck", id)
	}
	return out, nil
}

func (s *FileStore) DeleteDeck(_ context.Context, id string) (bool, error) {
	return s.mutate(func(fc *fileCollections) bool {
		return fc.decks.delete(id)
	})
}

func (s *FileStore) FindDecks(_ context.Context, f deck.Filters) ([]deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deck.Filter(s.state.decks.all(), f), nil
}
