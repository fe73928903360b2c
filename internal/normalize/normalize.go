// Package normalize maps external card records, whatever their key casing,
// onto the canonical card field names. It never fails: anything it cannot
// read falls back to the zero value of the field's type.
package normalize

import (
	"fmt"
	"strings"
	"unicode"
)

// Record is a card-shaped map keyed by canonical field names. Values keep
// the type they arrived with; see Decode for conversion.
type Record map[string]any

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
)

type field struct {
	name    string
	kind    kind
	aliases []string
}

var cardFields = []field{
	{name: "cardName", aliases: []string{"Name", "name"}},
	{name: "cardType"},
	{name: "faction"},
	{name: "rarity"},
	{name: "energyCost", kind: kindInt},
	{name: "size"},
	{name: "token", kind: kindBool},
	{name: "hp", kind: kindInt, aliases: []string{"HP"}},
	{name: "ac", kind: kindInt, aliases: []string{"AC"}},
	{name: "move", kind: kindInt},
	{name: "type"},
	{name: "spellType"},
	{name: "range"},
	{name: "effect"},
	{name: "auraType"},
}

var weaponFields = []field{
	{name: "name"},
	{name: "type"},
	{name: "attackBonus", kind: kindInt},
	{name: "damage"},
	{name: "range"},
	{name: "keywords"},
}

var abilityFields = []field{
	{name: "title"},
	{name: "description"},
	{name: "passive", kind: kindBool},
	{name: "cost", kind: kindInt},
}

func (k kind) zero() any {
	switch k {
	case kindInt:
		return 0
	case kindBool:
		return false
	default:
		return ""
	}
}

func pascal(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// probe looks name up as PascalCase, then camelCase, then by alias.
func probe(raw map[string]any, name string, aliases ...string) (any, bool) {
	keys := append([]string{pascal(name), name}, aliases...)
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func normalizeFields(raw map[string]any, fields []field) Record {
	out := make(Record, len(fields)+3)
	for _, f := range fields {
		if v, ok := probe(raw, f.name, f.aliases...); ok {
			out[f.name] = v
			continue
		}
		out[f.name] = f.kind.zero()
	}
	return out
}

// Normalize produces a canonical record from raw. Identity keys are dropped;
// the store assigns identity.
func Normalize(raw map[string]any) Record {
	if raw == nil {
		raw = map[string]any{}
	}
	out := normalizeFields(raw, cardFields)

	keywords, _ := probe(raw, "keywords")
	out["keywords"] = normalizeKeywords(keywords)

	weapons, _ := probe(raw, "weapons")
	out["weapons"] = normalizeList(weapons, weaponFields)

	abilities, _ := probe(raw, "abilities")
	out["abilities"] = normalizeList(abilities, abilityFields)

	return out
}

// NormalizeWeapon maps a single weapon-shaped value.
func NormalizeWeapon(raw any) Record {
	m, _ := raw.(map[string]any)
	return normalizeFields(m, weaponFields)
}

// NormalizeAbility maps a single ability-shaped value.
func NormalizeAbility(raw any) Record {
	m, _ := raw.(map[string]any)
	return normalizeFields(m, abilityFields)
}

func normalizeList(v any, fields []field) []Record {
	items, ok := v.([]any)
	if !ok {
		return []Record{}
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		out = append(out, normalizeFields(m, fields))
	}
	return out
}

// normalizeKeywords accepts a list of strings or {name} objects, or a comma
// separated string. Blank entries are dropped; order and case are kept.
func normalizeKeywords(v any) []string {
	out := []string{}
	switch kw := v.(type) {
	case string:
		for _, part := range strings.Split(kw, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range kw {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range kw {
			if s := keywordName(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func keywordName(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return v
	case map[string]any:
		name, _ := probe(v, "name")
		return keywordName(name)
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// Identifier returns a best-effort human name for a raw record, used when
// reporting import failures.
func Identifier(raw map[string]any, index int) string {
	if v, ok := probe(raw, "cardName", "Name", "name"); ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fmt.Sprintf("record %d", index+1)
}
