// Package store persists the card library and its decks. Every backend
// assigns ids on create, keeps insertion order for listings, and wraps
// backend failures in ErrPersistence.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

var (
	ErrPersistence = errors.New("persistence failure")
	ErrNotFound    = errors.New("not found")
)

type Store interface {
	GetAll(ctx context.Context) ([]card.Card, error)
	Get(ctx context.Context, id string) (card.Card, error)
	// Create stores c under a new id and returns the stored card. Any id on c
	// is ignored.
	Create(ctx context.Context, c card.Card) (card.Card, error)
	Update(ctx context.Context, id string, c card.Card) (card.Card, error)
	// Delete reports whether a card was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// DeckStore persists decks. Backends that implement Store implement it too,
// keeping decks in their own collection or table.
type DeckStore interface {
	GetAllDecks(ctx context.Context) ([]deck.Deck, error)
	GetDeck(ctx context.Context, id string) (deck.Deck, error)
	CreateDeck(ctx context.Context, d deck.Deck) (deck.Deck, error)
	UpdateDeck(ctx context.Context, id string, d deck.Deck) (deck.Deck, error)
	DeleteDeck(ctx context.Context, id string) (bool, error)
	// FindDecks lists the decks f matches in insertion order.
	FindDecks(ctx context.Context, f deck.Filters) ([]deck.Deck, error)
}

// Library is a backend holding both cards and decks.
type Library interface {
	Store
	DeckStore
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

func newID() string {
	return uuid.NewString()
}

// entry describes how a collection reads, replaces and copies the identity
// of the values it holds.
type entry[T any] struct {
	id     func(T) string
	withID func(T, string) T
	clone  func(T) T
}

var cardEntry = entry[card.Card]{
	id:     func(c card.Card) string { return c.ID },
	withID: func(c card.Card, id string) card.Card { c.ID = id; return c },
	clone:  card.Card.Clone,
}

var deckEntry = entry[deck.Deck]{
	id:     func(d deck.Deck) string { return d.ID },
	withID: func(d deck.Deck, id string) deck.Deck { d.ID = id; return d },
	clone:  deck.Deck.Clone,
}

// collection is an ordered id -> value map shared by the in-process backends.
type collection[T any] struct {
	kind  entry[T]
	order []string
	byID  map[string]T
}

func newCollection[T any](kind entry[T], items []T) *collection[T] {
	col := &collection[T]{kind: kind, byID: make(map[string]T, len(items))}
	for _, v := range items {
		id := kind.id(v)
		if id == "" {
			id = newID()
			v = kind.withID(v, id)
		}
		if _, dup := col.byID[id]; dup {
			continue
		}
		col.order = append(col.order, id)
		col.byID[id] = kind.clone(v)
	}
	return col
}

func (col *collection[T]) clone() *collection[T] {
	return newCollection(col.kind, col.all())
}

func (col *collection[T]) all() []T {
	out := make([]T, 0, len(col.order))
	for _, id := range col.order {
		out = append(out, col.kind.clone(col.byID[id]))
	}
	return out
}

func (col *collection[T]) get(id string) (T, bool) {
	v, ok := col.byID[id]
	if !ok {
		var zero T
		return zero, false
	}
	return col.kind.clone(v), true
}

func (col *collection[T]) create(v T) T {
	v = col.kind.withID(col.kind.clone(v), newID())
	id := col.kind.id(v)
	col.order = append(col.order, id)
	col.byID[id] = v
	return col.kind.clone(v)
}

func (col *collection[T]) update(id string, v T) (T, bool) {
	if _, ok := col.byID[id]; !ok {
		var zero T
		return zero, false
	}
	v = col.kind.withID(col.kind.clone(v), id)
	col.byID[id] = v
	return col.kind.clone(v), true
}

func (col *collection[T]) delete(id string) bool {
	if _, ok := col.byID[id]; !ok {
		return false
	}
	delete(col.byID, id)
	for i, v := range col.order {
		if v == id {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return true
}
