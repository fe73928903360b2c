package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Should filter below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: WarnLevel, Output: &buf})
		log.Info("hidden")
		log.Warn("shown", "card", "Bolt")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
		assert.Contains(t, buf.String(), "card=Bolt")
	})
	t.Run("Should emit JSON with inherited fields", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: DebugLevel, Output: &buf, JSON: true}).With("component", "importer")
		log.Debug("imported", "count", 2)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "imported", line["msg"])
		assert.Equal(t, "importer", line["component"])
		assert.Equal(t, "debug", line["level"])
	})
	t.Run("Should treat unknown levels as info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "LOUD", Output: &buf})
		log.Debug("hidden")
		log.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}
