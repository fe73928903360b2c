package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructured(t *testing.T) {
	t.Run("Should extract an object wrapped in prose", func(t *testing.T) {
		v, err := Structured(`Sure, here you go: {"a":1} thanks`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, v)
	})
	t.Run("Should return clean input unchanged", func(t *testing.T) {
		v, err := Structured("  {\"cardName\":\"Bolt\",\"keywords\":[\"Haste\"]}\n")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"cardName": "Bolt", "keywords": []any{"Haste"}}, v)

		arr, err := Structured(`[{"a":1},{"a":2}]`)
		require.NoError(t, err)
		assert.Len(t, arr, 2)
	})
	t.Run("Should pick the first balanced top-level object", func(t *testing.T) {
		v, err := Structured("first {\"outer\":{\"inner\":true}} then {\"second\":1}")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"outer": map[string]any{"inner": true}}, v)
	})
	t.Run("Should fail with no structured content on unbalanced braces", func(t *testing.T) {
		_, err := Structured(`here it is: {"a": {"b": 1}`)
		assert.ErrorIs(t, err, ErrNoStructuredContent)

		_, err = Structured("no json at all")
		assert.ErrorIs(t, err, ErrNoStructuredContent)
	})
	t.Run("Should surface the candidate when it fails to parse", func(t *testing.T) {
		_, err := Structured(`Result: {name: 'Zap', damage: 1d6} done`)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedResponse)

		var merr *MalformedError
		require.True(t, errors.As(err, &merr))
		assert.Equal(t, `{name: 'Zap', damage: 1d6}`, merr.Candidate)
		assert.Contains(t, err.Error(), "{name: 'Zap'")
	})
	t.Run("Should ignore stray closing braces before the object", func(t *testing.T) {
		v, err := Structured(`} oops {"ok":true}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, v)
	})
}

func TestObject(t *testing.T) {
	obj, err := Object(`The weapon: {"name":"Slash","damage":"1d6"}`)
	require.NoError(t, err)
	assert.Equal(t, "Slash", obj["name"])

	_, err = Object(`[1,2,3]`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCleanField(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"quotes", `"Storm Caller"`, "Storm Caller"},
		{"certainly", `Certainly! Storm Caller`, "Storm Caller"},
		{"heres", `Here's a better name: Storm Caller`, "Storm Caller"},
		{"improved", `The improved effect is: Deal 2 damage.`, "Deal 2 damage."},
		{"label", `Name: Storm Caller`, "Storm Caller"},
		{"plain", `  Storm Caller  `, "Storm Caller"},
		{"single label only", `Name: Title: Storm`, "Title: Storm"},
		{"quotes before lead-in", `"Certainly! Storm Caller"`, "Storm Caller"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanField(tc.in))
		})
	}
}
