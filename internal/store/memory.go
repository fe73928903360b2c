package store

import (
	"context"
	"sync"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

// MemoryStore keeps cards and decks in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	col   *collection[card.Card]
	decks *collection[deck.Deck]
}

func NewMemoryStore(seed ...card.Card) *MemoryStore {
	return &MemoryStore{
		col:   newCollection(cardEntry, seed),
		decks: newCollection(deckEntry, nil),
	}
}

func (s *MemoryStore) GetAll(context.Context) ([]card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.all(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.col.get(id)
	if !ok {
		return card.Card{}, notFound("card", id)
	}
	return c, nil
}

func (s *MemoryStore) Create(_ context.Context, c card.Card) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.create(c), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, c card.Card) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.col.update(id, c)
	if !ok {
		return card.Card{}, notFound("card", id)
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.delete(id), nil
}

func (s *MemoryStore) GetAllDecks(context.Context) ([]deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decks.all(), nil
}

func (s *MemoryStore) GetDeck(_ context.Context, id string) (deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decks.get(id)
	if !ok {
		return deck.Deck{}, notFound("deck", id)
	}
	return d, nil
}

func (s *MemoryStore) CreateDeck(_ context.Context, d deck.Deck) (deck.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decks.create(d), nil
}

func (s *MemoryStore) UpdateDeck(_ context.Context, id string, d deck.Deck) (deck.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.decks.update(id, d)
	if !ok {
		return deck.Deck{}, notFound("deck", id)
	}
	return out, nil
}

func (s *MemoryStore) DeleteDeck(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decks.delete(id), nil
}

func (s *MemoryStore) FindDecks(_ context.Context, f deck.Filters) ([]deck.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deck.Filter(s.decks.all(), f), nil
}
