package sessioncache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyComposition(t *testing.T) {
	t.Run("Resource Key", func(t *testing.T) {
		key := ResourceKey("fhir_resources", "session-abc")
		assert.Equal(t, "fhir_resources_session-abc", key)
	})

	t.Run("Session State Key", func(t *testing.T) {
		key := SessionStateKey("session-abc", "scheduled_instruments")
		assert.Equal(t, "session-abc_scheduled_instruments", key)
	})

	t.Run("Resource Keys For Different Sessions Share Prefix", func(t *testing.T) {
		first := ResourceKey("CIRG-PlanDefinition", "session-one")
		second := ResourceKey("CIRG-PlanDefinition", "session-two")
		assert.NotEqual(t, first, second)
		assert.Contains(t, first, "CIRG-PlanDefinition_")
		assert.Contains(t, second, "CIRG-PlanDefinition_")
	})
}
