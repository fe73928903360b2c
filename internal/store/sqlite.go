package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps each card and deck as a JSON document in a SQLite
// table, with the listing columns broken out.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, persistErr("open sqlite", err)
	}
	// One connection: SQLite has a single writer and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, persistErr("set busy timeout", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return persistErr("load migrations", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return persistErr("prepare migrations", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return persistErr("apply migrations", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeRow(id, body string) (card.Card, error) {
	var c card.Card
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return card.Card{}, persistErr("decode card "+id, err)
	}
	c.ID = id
	return c.Clone(), nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]card.Card, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, body FROM cards ORDER BY position")
	if err != nil {
		return nil, persistErr("list cards", err)
	}
	defer rows.Close()

	out := []card.Card{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, persistErr("scan card", err)
		}
		c, err := decodeRow(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list cards", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (card.Card, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM cards WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return card.Card{}, notFound("card", id)
	}
	if err != nil {
		return card.Card{}, persistErr("get card "+id, err)
	}
	return decodeRow(id, body)
}

func encodeBody(c card.Card) (string, error) {
	c.ID = ""
	b, err := json.Marshal(c)
	if err != nil {
		return "", persistErr("encode card", err)
	}
	return string(b), nil
}

func (s *SQLiteStore) Create(ctx context.Context, c card.Card) (card.Card, error) {
	c = c.Clone()
	body, err := encodeBody(c)
	if err != nil {
		return card.Card{}, err
	}
	c.ID = newID()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (id, position, card_name, card_type, faction, body)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM cards), ?, ?, ?, ?)`,
		c.ID, c.CardName, c.CardType, c.Faction, body)
	if err != nil {
		return card.Card{}, persistErr("insert card", err)
	}
	return c, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, c card.Card) (card.Card, error) {
	c = c.Clone()
	body, err := encodeBody(c)
	if err != nil {
		return card.Card{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards SET card_name = ?, card_type = ?, faction = ?, body = ?, updated_at = ?
		WHERE id = ?`,
		c.CardName, c.CardType, c.Faction, body, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return card.Card{}, persistErr("update card "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return card.Card{}, persistErr("update card "+id, err)
	}
	if n == 0 {
		return card.Card{}, notFound("card", id)
	}
	c.ID = id
	return c, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return false, persistErr("delete card "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("delete card "+id, err)
	}
	return n > 0, nil
}

func decodeDeckRow(id, body string) (deck.Deck, error) {
	var d deck.Deck
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return deck.Deck{}, persistErr("decode deck "+id, err)
	}
	d.ID = id
	return d.Clone(), nil
}

func encodeDeckBody(d deck.Deck) (string, error) {
	d.ID = ""
	b, err := json.Marshal(d)
	if err != nil {
		return "", persistErr("encode deck", err)
	}
	return string(b), nil
}

func (s *SQLiteStore) queryDecks(ctx context.Context, where string, args ...any) ([]deck.Deck, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, body FROM decks"+where+" ORDER BY position", args...)
	if err != nil {
		return nil, persistErr("list decks", err)
	}
	defer rows.Close()

	out := []deck.Deck{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, persistErr("scan deck", err)
		}
		d, err := decodeDeckRow(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list decks", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetAllDecks(ctx context.Context) ([]deck.Deck, error) {
	return s.queryDecks(ctx, "")
}

func (s *SQLiteStore) GetDeck(ctx context.Context, id string) (deck.Deck, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM decks WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return deck.Deck{}, notFound("deck", id)
	}
	if err != nil {
		return deck.Deck{}, persistErr("get deck "+id, err)
	}
	return decodeDeckRow(id, body)
}

func (s *SQLiteStore) CreateDeck(ctx context.Context, d deck.Deck) (deck.Deck, error) {
	d = d.Clone()
	body, err := encodeDeckBody(d)
	if err != nil {
		return deck.Deck{}, err
	}
	d.ID = newID()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decks (id, position, name, faction, user_id, body)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM decks), ?, ?, ?, ?)`,
		d.ID, d.Name, d.Faction, d.UserID, body)
	if err != nil {
		return deck.Deck{}, persistErr("insert deck", err)
	}
	return d, nil
}

func (s *SQLiteStore) UpdateDeck(ctx context.Context, id string, d deck.Deck) (deck.Deck, error) {
	d = d.Clone()
	body, err := encodeDeckBody(d)
	if err != nil {
		return deck.Deck{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE decks SET name = ?, faction = ?, user_id = ?, body = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Faction, d.UserID, body, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return deck.Deck{}, persistErr("update deck "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return deck.Deck{}, persistErr("update deck "+id, err)
	}
	if n == 0 {
		return deck.Deck{}, notFound("deck", id)
	}
	d.ID = id
	return d, nil
}

func (s *SQLiteStore) DeleteDeck(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM decks WHERE id = ?", id)
	if err != nil {
		return false, persistErr("delete deck "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("delete deck "+id, err)
	}
	return n > 0, nil
}

// FindDecks narrows by the indexed columns in SQL and matches names in Go,
// so every backend agrees on what a name search finds.
func (s *SQLiteStore) FindDecks(ctx context.Context, f deck.Filters) ([]deck.Deck, error) {
	var conds []string
	var args []any
	if f.Faction != "" {
		conds = append(conds, "faction = ?")
		args = append(args, f.Faction)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	decks, err := s.queryDecks(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	return deck.Filter(decks, f), nil
}
