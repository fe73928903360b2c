package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

type deckRequest struct {
	Name        string   `json:"name" binding:"required"`
	Faction     string   `json:"faction" binding:"required,oneof=Red Green Black White Blue Colorless"`
	Description string   `json:"description"`
	UserID      string   `json:"userId"`
	CardIDs     []string `json:"cardIds"`
}

func (s *Server) library(ctx context.Context) (map[string]card.Card, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]card.Card, len(all))
	for _, c := range all {
		out[c.ID] = c
	}
	return out, nil
}

// bindDeck decodes a deck body and rejects card ids the library does not hold.
func (s *Server) bindDeck(c *gin.Context) (deck.Deck, bool) {
	var req deckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return deck.Deck{}, false
	}
	lib, err := s.library(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return deck.Deck{}, false
	}
	var unknown []string
	for _, id := range req.CardIDs {
		if _, ok := lib[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown card ids", "cardIds": unknown})
		return deck.Deck{}, false
	}
	return deck.Deck{
		Name:        req.Name,
		Faction:     req.Faction,
		Description: req.Description,
		UserID:      req.UserID,
		CardIDs:     req.CardIDs,
	}.Clone(), true
}

func (s *Server) listDecks(c *gin.Context) {
	out, err := s.decks.FindDecks(c.Request.Context(), deck.Filters{
		Name:    c.Query("search"),
		Faction: c.Query("faction"),
		UserID:  c.Query("userId"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "decks": out})
}

func (s *Server) createDeck(c *gin.Context) {
	in, ok := s.bindDeck(c)
	if !ok {
		return
	}
	created, err := s.decks.CreateDeck(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getDeck(c *gin.Context) {
	got, err := s.decks.GetDeck(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

func (s *Server) updateDeck(c *gin.Context) {
	in, ok := s.bindDeck(c)
	if !ok {
		return
	}
	updated, err := s.decks.UpdateDeck(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteDeck(c *gin.Context) {
	deleted, err := s.decks.DeleteDeck(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "deck not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// checkDeck reports the construction rules a stored deck breaks.
func (s *Server) checkDeck(c *gin.Context) {
	d, err := s.decks.GetDeck(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	lib, err := s.library(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	problems := deck.Problems(d, lib)
	if problems == nil {
		problems = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"legal": len(problems) == 0, "problems": problems})
}
