package generator

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arcanaland/gridsmith/internal/card"
)

//go:embed rules.txt
var defaultRules string

// DefaultRules returns the built-in GridStrike rules summary.
func DefaultRules() string {
	return defaultRules
}

const formattingRules = `IMPORTANT FORMATTING RULES:
- Damage MUST be in dice format: "1d4", "1d6", "2d6", "1d8+2", etc. NEVER just numbers like "2" or "3"
- Status effects MUST include numbers: "burn 1", "poison 2", "slow 3", NOT just "burn" or "poison"
- Action Point Rules: Units have 2 AP max per activation
- 0 AP abilities MUST be passive (passive: true)
- Active abilities cost 1 or 2 AP only (NEVER 3+)`

const cardStructure = `CARD STRUCTURE:
{
  "cardName": "string",
  "cardType": "Unit|Spell|Equipment|Terrain",
  "faction": "Red|Blue|Green|White|Black|Colorless",
  "energyCost": number,
  "rarity": "Common|Rare|Legendary",
  "size": "string (e.g., Medium, Large)",
  "keywords": ["array", "of", "strings"],
  "hp": number (Units only),
  "ac": number (Units only),
  "move": number (Units only),
  "type": "string (e.g., Beast, Humanoid - Units only)",
  "weapons": [{"name": "string", "type": "Melee|Ranged", "attackBonus": number, "damage": "1d6 format", "keywords": "string", "range": "string"}],
  "abilities": [{"title": "string", "description": "string", "passive": boolean, "cost": number}],
  "effect": "string (Spells/Equipment/Terrain)",
  "spellType": "Instant|Sorcery (Spells only)",
  "range": "string (Spells only)",
  "auraType": "string (Terrain only)"
}`

func rulesSection(rules string) string {
	if strings.TrimSpace(rules) == "" {
		return ""
	}
	return "GAME RULES DOCUMENT:\n" + rules + "\n"
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func examplesSection(cardType string, examples []Example) string {
	if len(examples) == 0 {
		return "No existing cards for reference - be creative but balanced."
	}
	return fmt.Sprintf("SIMILAR CARDS FOR BALANCE REFERENCE (%ss prioritized):\n%s", cardType, indentJSON(examples))
}

func fullCardPrompt(rules, cardType string, examples []Example) string {
	return fmt.Sprintf(`You are a card game designer for GridStrike, a tactical card game.

%s

GAME CONTEXT:
- GridStrike is a tactical combat card game with Units, Spells, Equipment, and Terrain
- Units have stats: HP (health), AC (armor class), Move (movement speed)
- Energy Cost determines how expensive the card is to play
- Factions: Red (aggressive), Blue (control), Green (nature), White (order), Black (dark), Colorless (neutral)
- Rarities: Common, Rare, Legendary
- Keywords add special abilities (examples: Flying, Trample, First Strike, Defender)

%s

%s

%s

Return ONLY valid JSON. Do not include any explanatory text before or after the JSON.`,
		rulesSection(rules), formattingRules, examplesSection(cardType, examples), cardStructure)
}

func fieldPrompt(rules, fieldName string, current card.Card, examples []Example) string {
	return fmt.Sprintf(`You are helping design a GridStrike card. Respond with ONLY the requested value, never explanations, quotes or extra words.

%sCURRENT CARD: %s

SIMILAR CARDS:
%s

Generate only the %s value.`, rulesSection(rules), indentJSON(current), indentJSON(examples), fieldName)
}

func weaponFieldPrompt(rules, fieldName string, weapon card.Weapon, current card.Card) string {
	return fmt.Sprintf(`You are helping design a weapon for a GridStrike card. Generate ONLY the new value for the specified weapon field.

%s
WEAPON FORMATTING RULES:
- Damage MUST be in dice format: "1d4", "1d6", "2d6", "1d8+2", etc. NEVER just numbers
- Attack bonus format: "+1", "+2", "+3", etc.
- Keywords are lowercase with numbers: "piercing", "burn 1", "poison 2"

CURRENT WEAPON: %s
FULL CARD CONTEXT: %s

Generate only the %s value for this weapon.`, rulesSection(rules), indentJSON(weapon), indentJSON(current), fieldName)
}

func abilityFieldPrompt(rules, fieldName string, ability card.Ability, current card.Card) string {
	return fmt.Sprintf(`You are helping design an ability for a GridStrike card. Generate ONLY the new value for the specified ability field.

%s
ABILITY FORMATTING RULES:
- Cost should be action point numbers like "0", "1", "2" (never more than 2)
- Title should be short and descriptive
- Description should explain the effect clearly and include proper formatting for damage/effects

CURRENT ABILITY: %s
FULL CARD CONTEXT: %s

Generate only the %s value for this ability.`, rulesSection(rules), indentJSON(ability), indentJSON(current), fieldName)
}

const weaponPrompt = `Generate a weapon for this GridStrike card.

IMPORTANT: Damage MUST use dice format. Status effects MUST include numbers.
Return only JSON. Example: {"name":"Slash","type":"Melee","attackBonus":2,"damage":"1d6","keywords":"none","range":"melee"}`

const abilityPrompt = `Generate an ability for this GridStrike card.

IMPORTANT: Damage MUST use dice format. Status effects MUST include numbers.
0 AP abilities MUST be passive. Active abilities cost 1 or 2 AP.
Return only JSON. Example: {"title":"Blaze","description":"Deal 1d6 fire damage and apply burn 1.","passive":false,"cost":1}`

func energyCostPrompt(rules string, upper int) string {
	return fmt.Sprintf("Analyze this GridStrike card and suggest a balanced energy cost.\n\n%sReturn ONLY a single number (1-%d).",
		rulesSection(rules), upper)
}

func describePrompt(rules string) string {
	return fmt.Sprintf("Improve this ability description to be clear and consistent with GridStrike.\n\n%sReturn ONLY the improved description text.",
		rulesSection(rules))
}
