package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/arcanaland/gridsmith/internal/card"
)

// DecodeOptions controls how a record's values become typed card fields.
type DecodeOptions struct {
	// Coerce converts compatible scalar types, such as "2" into an integer
	// field. Without it a string in a numeric field is an error.
	Coerce bool
}

// wholeNumbers refuses to truncate a fractional number into an integer
// field, in either decode mode.
func wholeNumbers(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.Float32 && from != reflect.Float64 {
		return data, nil
	}
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", data)
	}
	return data, nil
}

func decodeInto(rec any, out any, opts DecodeOptions) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: opts.Coerce,
		DecodeHook:       mapstructure.DecodeHookFuncKind(wholeNumbers),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(rec)
}

// Decode converts a normalized record into a Card. Empty card type and
// rarity take the editor defaults; faction is never defaulted.
func Decode(rec Record, opts DecodeOptions) (card.Card, error) {
	var c card.Card
	if err := decodeInto(map[string]any(rec), &c, opts); err != nil {
		return card.Card{}, fmt.Errorf("decode card: %w", err)
	}
	fillDefaults(&c)
	return c, nil
}

// DecodeWeapon converts a normalized weapon record.
func DecodeWeapon(rec Record, opts DecodeOptions) (card.Weapon, error) {
	var w card.Weapon
	if err := decodeInto(map[string]any(rec), &w, opts); err != nil {
		return card.Weapon{}, fmt.Errorf("decode weapon: %w", err)
	}
	return w, nil
}

// DecodeAbility converts a normalized ability record.
func DecodeAbility(rec Record, opts DecodeOptions) (card.Ability, error) {
	var a card.Ability
	if err := decodeInto(map[string]any(rec), &a, opts); err != nil {
		return card.Ability{}, fmt.Errorf("decode ability: %w", err)
	}
	return a, nil
}

func fillDefaults(c *card.Card) {
	defaults := card.NewCard()
	if c.CardType == "" {
		c.CardType = defaults.CardType
	}
	if c.Rarity == "" {
		c.Rarity = defaults.Rarity
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	if c.Weapons == nil {
		c.Weapons = []card.Weapon{}
	}
	if c.Abilities == nil {
		c.Abilities = []card.Ability{}
	}
}

// FromCard renders c in the export shape: the canonical JSON field names
// with the values a JSON reader would see.
func FromCard(c card.Card) (map[string]any, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
