package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/importer"
	"github.com/arcanaland/gridsmith/internal/normalize"
	"github.com/arcanaland/gridsmith/internal/validator"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// violations returns the balance violations carried by err, if any.
func violations(err error) ([]validator.Violation, bool) {
	var verr *validator.ViolationError
	if errors.As(err, &verr) {
		return verr.Violations, true
	}
	return nil, false
}

func (s *Server) generateCard(c *gin.Context) {
	var req struct {
		Prompt   string `json:"prompt" binding:"required"`
		CardType string `json:"cardType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	generated, err := s.generator.GenerateFull(c.Request.Context(), req.Prompt, req.CardType)
	if v, ok := violations(err); ok {
		c.JSON(http.StatusOK, gin.H{"card": generated, "violations": v})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": generated})
}

func (s *Server) generateField(c *gin.Context) {
	var req struct {
		Field string    `json:"field" binding:"required"`
		Card  card.Card `json:"card"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	value, err := s.generator.GenerateField(c.Request.Context(), req.Field, req.Card)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func (s *Server) generateWeaponField(c *gin.Context) {
	var req struct {
		Field  string      `json:"field" binding:"required"`
		Weapon card.Weapon `json:"weapon"`
		Card   card.Card   `json:"card"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	value, err := s.generator.GenerateWeaponField(c.Request.Context(), req.Field, req.Weapon, req.Card)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func (s *Server) generateAbilityField(c *gin.Context) {
	var req struct {
		Field   string       `json:"field" binding:"required"`
		Ability card.Ability `json:"ability"`
		Card    card.Card    `json:"card"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	value, err := s.generator.GenerateAbilityField(c.Request.Context(), req.Field, req.Ability, req.Card)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func (s *Server) improveDescription(c *gin.Context) {
	var req struct {
		Description string    `json:"description" binding:"required"`
		Card        card.Card `json:"card"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	value, err := s.generator.ImproveAbilityDescription(c.Request.Context(), req.Description, req.Card)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

type cardRequest struct {
	Card card.Card `json:"card"`
}

func (s *Server) generateWeapon(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	weapon, err := s.generator.GenerateWeapon(c.Request.Context(), req.Card)
	if v, ok := violations(err); ok {
		c.JSON(http.StatusOK, gin.H{"weapon": weapon, "violations": v})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weapon": weapon})
}

func (s *Server) generateAbility(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ability, err := s.generator.GenerateAbility(c.Request.Context(), req.Card)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ability": ability})
}

func (s *Server) generateEnergyCost(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cost, err := s.generator.EnergyCostOrDefault(c.Request.Context(), req.Card)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"energyCost": cost})
}

func (s *Server) getContext(c *gin.Context) {
	c.JSON(http.StatusOK, s.generator.ContextConfig())
}

func (s *Server) putContext(c *gin.Context) {
	var req struct {
		UseContext      *bool `json:"useContext"`
		MaxContextCards *int  `json:"maxContextCards"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	current := s.generator.ContextConfig()
	if req.UseContext != nil {
		current.UseContext = *req.UseContext
	}
	if req.MaxContextCards != nil {
		if *req.MaxContextCards < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxContextCards must not be negative"})
			return
		}
		current.MaxContextCards = *req.MaxContextCards
	}
	s.generator.SetContextConfig(current.UseContext, current.MaxContextCards)
	c.JSON(http.StatusOK, s.generator.ContextConfig())
}

func (s *Server) listCards(c *gin.Context) {
	all, err := s.store.GetAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := card.Filter(all, card.FilterOptions{
		Factions: c.QueryArray("faction"),
		Types:    c.QueryArray("type"),
		Search:   c.Query("search"),
	})
	if by := c.Query("sort"); by != "" {
		card.Sort(out, by)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "cards": out})
}

// bindCard decodes the request body through the normalizer so it accepts
// the same key spellings as an import.
func (s *Server) bindCard(c *gin.Context) (card.Card, bool) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return card.Card{}, false
	}
	decoded, err := normalize.Decode(normalize.Normalize(raw), normalize.DecodeOptions{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return card.Card{}, false
	}
	decoded, found := validator.CorrectCard(decoded)
	if len(found) > 0 {
		s.fail(c, &validator.ViolationError{Violations: found})
		return card.Card{}, false
	}
	if err := s.validator.Check(decoded); err != nil {
		s.fail(c, err)
		return card.Card{}, false
	}
	return decoded, true
}

func (s *Server) createCard(c *gin.Context) {
	in, ok := s.bindCard(c)
	if !ok {
		return
	}
	created, err := s.store.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getCard(c *gin.Context) {
	got, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

func (s *Server) updateCard(c *gin.Context) {
	in, ok := s.bindCard(c)
	if !ok {
		return
	}
	updated, err := s.store.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteCard(c *gin.Context) {
	deleted, err := s.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// importCards takes an import document as the request body. Numeric strings
// are coerced unless ?strict=true.
func (s *Server) importCards(c *gin.Context) {
	strict, _ := strconv.ParseBool(c.DefaultQuery("strict", "false"))
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	im := importer.New(s.store, s.validator, importer.Options{Coerce: !strict}, s.log)
	res, err := im.ImportDocument(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) exportCards(c *gin.Context) {
	all, err := s.store.GetAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="cards.json"`)
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Status(http.StatusOK)
	if err := importer.Export(c.Writer, all); err != nil {
		s.log.Error("export failed", "error", err)
	}
}
