// Package generator drafts card content with a language model. Every result
// passes through extraction, normalization and the balance corrector before
// it is returned; nothing here mutates caller state.
package generator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/extract"
	"github.com/arcanaland/gridsmith/internal/llm"
	"github.com/arcanaland/gridsmith/internal/logging"
	"github.com/arcanaland/gridsmith/internal/normalize"
	"github.com/arcanaland/gridsmith/internal/validator"
)

const (
	DefaultMaxContextCards   = 8
	DefaultMaxEnergyCost     = 10
	DefaultEnergyCost        = 3
	fieldContextCards        = 5
	abilityDescriptionTokens = 150
)

// CardSource supplies the library used for few-shot context.
type CardSource interface {
	GetAll(ctx context.Context) ([]card.Card, error)
}

type Config struct {
	UseContext        bool
	MaxContextCards   int
	MaxEnergyCost     int
	DefaultEnergyCost int
	Rules             string
}

func DefaultConfig() Config {
	return Config{
		UseContext:        true,
		MaxContextCards:   DefaultMaxContextCards,
		MaxEnergyCost:     DefaultMaxEnergyCost,
		DefaultEnergyCost: DefaultEnergyCost,
		Rules:             DefaultRules(),
	}
}

// ContextConfig reports how much library context goes into each prompt.
type ContextConfig struct {
	UseContext                bool `json:"useContext"`
	MaxContextCards           int  `json:"maxContextCards"`
	EstimatedTokensPerRequest int  `json:"estimatedTokensPerRequest"`
}

type Generator struct {
	transport llm.Transport
	cards     CardSource
	log       logging.Logger

	mu            sync.RWMutex
	useContext    bool
	maxCards      int
	rules         string
	maxEnergy     int
	defaultEnergy int
}

func New(transport llm.Transport, cards CardSource, cfg Config, log logging.Logger) *Generator {
	if log == nil {
		log = logging.Discard()
	}
	if cfg.MaxContextCards < 0 {
		cfg.MaxContextCards = 0
	}
	if cfg.MaxEnergyCost < 1 {
		cfg.MaxEnergyCost = DefaultMaxEnergyCost
	}
	if cfg.DefaultEnergyCost < 1 {
		cfg.DefaultEnergyCost = DefaultEnergyCost
	}
	return &Generator{
		transport:     transport,
		cards:         cards,
		log:           log.With("component", "generator"),
		useContext:    cfg.UseContext,
		maxCards:      cfg.MaxContextCards,
		rules:         cfg.Rules,
		maxEnergy:     cfg.MaxEnergyCost,
		defaultEnergy: validator.ClampEnergyCost(cfg.DefaultEnergyCost, cfg.MaxEnergyCost),
	}
}

func (g *Generator) ContextConfig() ContextConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cfg := ContextConfig{UseContext: g.useContext, MaxContextCards: g.maxCards}
	if g.useContext {
		cfg.EstimatedTokensPerRequest = g.maxCards * tokensPerExample
	}
	return cfg
}

func (g *Generator) SetContextConfig(useContext bool, maxCards int) {
	g.mu.Lock()
	g.useContext = useContext
	g.maxCards = max(maxCards, 0)
	g.mu.Unlock()
	g.log.Info("context updated", "enabled", useContext, "max_cards", maxCards)
}

// SetGameRules replaces the rules text sent with every prompt. An empty
// string sends no rules.
func (g *Generator) SetGameRules(rules string) {
	g.mu.Lock()
	g.rules = rules
	g.mu.Unlock()
	g.log.Info("game rules updated", "chars", len(rules))
}

func (g *Generator) GameRules() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rules
}

func (g *Generator) complete(ctx context.Context, op string, req llm.Request) (string, error) {
	text, err := g.transport.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	g.log.Debug("model replied", "op", op, "chars", len(text))
	return text, nil
}

// GenerateFull drafts a whole card of cardType from a free-form prompt.
// Abilities are corrected to the action point rules. When a weapon breaks a
// rule that has no automatic fix, the corrected card is returned together
// with a *validator.ViolationError so the caller can decide whether to keep it.
func (g *Generator) GenerateFull(ctx context.Context, prompt, cardType string) (card.Card, error) {
	if strings.TrimSpace(cardType) == "" {
		cardType = card.TypeUnit
	}
	req := llm.Request{
		System:      fullCardPrompt(g.GameRules(), cardType, g.examples(ctx, cardType, g.ContextConfig().MaxContextCards)),
		User:        fmt.Sprintf("Create a %s card: %s", cardType, prompt),
		Temperature: 0.8,
		MaxTokens:   1000,
	}
	text, err := g.complete(ctx, "generate card", req)
	if err != nil {
		return card.Card{}, err
	}
	obj, err := extract.Object(text)
	if err != nil {
		g.log.Error("card reply had no usable JSON", "error", err)
		return card.Card{}, fmt.Errorf("generate card: %w", err)
	}
	rec := normalize.Normalize(obj)
	if s, _ := rec["cardType"].(string); s == "" {
		rec["cardType"] = cardType
	}
	c, err := normalize.Decode(rec, normalize.DecodeOptions{Coerce: true})
	if err != nil {
		return card.Card{}, fmt.Errorf("generate card: %w", err)
	}

	corrected, violations := validator.CorrectCard(c)
	if len(violations) > 0 {
		g.log.Warn("generated card breaks weapon rules", "card", corrected.CardName, "violations", len(violations))
		return corrected, &validator.ViolationError{Violations: violations}
	}
	return corrected, nil
}

// GenerateField suggests a new value for one top-level card field.
func (g *Generator) GenerateField(ctx context.Context, fieldName string, current card.Card) (string, error) {
	cardType := current.CardType
	if cardType == "" {
		cardType = card.TypeUnit
	}
	limit := min(fieldContextCards, g.ContextConfig().MaxContextCards)
	req := llm.Request{
		System:      fieldPrompt(g.GameRules(), fieldName, current, g.examples(ctx, cardType, limit)),
		User:        fmt.Sprintf("Improve the %s for this card.", fieldName),
		Temperature: 0.7,
		MaxTokens:   100,
	}
	text, err := g.complete(ctx, "generate field "+fieldName, req)
	if err != nil {
		return "", err
	}
	return extract.CleanField(text), nil
}

// GenerateWeaponField suggests a new value for one field of weapon.
func (g *Generator) GenerateWeaponField(ctx context.Context, fieldName string, weapon card.Weapon, current card.Card) (string, error) {
	req := llm.Request{
		System:      weaponFieldPrompt(g.GameRules(), fieldName, weapon, current),
		User:        fmt.Sprintf("Generate the %s for this weapon.", fieldName),
		Temperature: 0.7,
		MaxTokens:   50,
	}
	text, err := g.complete(ctx, "generate weapon field "+fieldName, req)
	if err != nil {
		return "", err
	}
	return extract.CleanField(text), nil
}

// GenerateAbilityField suggests a new value for one field of ability.
func (g *Generator) GenerateAbilityField(ctx context.Context, fieldName string, ability card.Ability, current card.Card) (string, error) {
	tokens := 50
	if fieldName == "description" {
		tokens = abilityDescriptionTokens
	}
	req := llm.Request{
		System:      abilityFieldPrompt(g.GameRules(), fieldName, ability, current),
		User:        fmt.Sprintf("Generate the %s for this ability.", fieldName),
		Temperature: 0.7,
		MaxTokens:   tokens,
	}
	text, err := g.complete(ctx, "generate ability field "+fieldName, req)
	if err != nil {
		return "", err
	}
	return extract.CleanField(text), nil
}

// ImproveAbilityDescription rewrites an ability description for clarity.
func (g *Generator) ImproveAbilityDescription(ctx context.Context, description string, current card.Card) (string, error) {
	req := llm.Request{
		System:      describePrompt(g.GameRules()),
		User:        fmt.Sprintf("Current description: %q\nCard context: %s", description, indentJSON(current)),
		Temperature: 0.6,
		MaxTokens:   abilityDescriptionTokens,
	}
	text, err := g.complete(ctx, "improve description", req)
	if err != nil {
		return "", err
	}
	return extract.CleanField(text), nil
}

// structured extracts an object from a reply. Replies without one are not
// an error for the single-item generators: the caller just gets nothing.
func (g *Generator) structured(op, text string) (map[string]any, bool) {
	obj, err := extract.Object(text)
	if err != nil {
		g.log.Warn("reply had no usable JSON", "op", op, "error", err)
		return nil, false
	}
	return obj, true
}

// GenerateWeapon drafts one weapon for current. It returns nil when the
// reply holds no weapon. A weapon whose damage is not dice notation is
// returned along with a *validator.ViolationError.
func (g *Generator) GenerateWeapon(ctx context.Context, current card.Card) (*card.Weapon, error) {
	req := llm.Request{
		System:      weaponPrompt,
		User:        "Card: " + compactJSON(current),
		Temperature: 0.8,
		MaxTokens:   200,
	}
	text, err := g.complete(ctx, "generate weapon", req)
	if err != nil {
		return nil, err
	}
	obj, ok := g.structured("generate weapon", text)
	if !ok {
		return nil, nil
	}
	w, err := normalize.DecodeWeapon(normalize.NormalizeWeapon(obj), normalize.DecodeOptions{Coerce: true})
	if err != nil {
		g.log.Warn("weapon reply did not decode", "error", err)
		return nil, nil
	}
	if err := validator.CheckWeapon(w); err != nil {
		return &w, fmt.Errorf("generate weapon: %w", err)
	}
	return &w, nil
}

// GenerateAbility drafts one ability for current, corrected to the action
// point rules. It returns nil when the reply holds no ability.
func (g *Generator) GenerateAbility(ctx context.Context, current card.Card) (*card.Ability, error) {
	req := llm.Request{
		System:      abilityPrompt,
		User:        "Card: " + compactJSON(current),
		Temperature: 0.8,
		MaxTokens:   200,
	}
	text, err := g.complete(ctx, "generate ability", req)
	if err != nil {
		return nil, err
	}
	obj, ok := g.structured("generate ability", text)
	if !ok {
		return nil, nil
	}
	a, err := normalize.DecodeAbility(normalize.NormalizeAbility(obj), normalize.DecodeOptions{Coerce: true})
	if err != nil {
		g.log.Warn("ability reply did not decode", "error", err)
		return nil, nil
	}
	a = validator.CorrectAbility(a)
	return &a, nil
}

var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// ParseEnergyCost reads the leading integer of text and clamps it to
// [1, upper]. It returns nil when text does not start with a number.
func ParseEnergyCost(text string, upper int) *int {
	m := leadingInt.FindString(strings.TrimSpace(text))
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	n = validator.ClampEnergyCost(n, upper)
	return &n
}

// GenerateEnergyCost asks for a balanced energy cost. The result is nil when
// the model did not answer with a number.
func (g *Generator) GenerateEnergyCost(ctx context.Context, current card.Card) (*int, error) {
	req := llm.Request{
		System:      energyCostPrompt(g.GameRules(), g.maxEnergy),
		User:        "Card: " + indentJSON(current),
		Temperature: 0.5,
		MaxTokens:   50,
	}
	text, err := g.complete(ctx, "generate energy cost", req)
	if err != nil {
		return nil, err
	}
	cost := ParseEnergyCost(text, g.maxEnergy)
	if cost == nil {
		g.log.Warn("energy cost reply was not a number", "reply", text)
	}
	return cost, nil
}

// EnergyCostOrDefault is GenerateEnergyCost with the configured fallback in
// place of nil.
func (g *Generator) EnergyCostOrDefault(ctx context.Context, current card.Card) (int, error) {
	cost, err := g.GenerateEnergyCost(ctx, current)
	if err != nil {
		return 0, err
	}
	if cost == nil {
		return g.defaultEnergy, nil
	}
	return *cost, nil
}
