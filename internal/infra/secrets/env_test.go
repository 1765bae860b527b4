package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvStoreReadsAtLookupTime(t *testing.T) {
	store := NewEnvStore()

	t.Setenv("GEMINI_API_KEY", "")
	_, ok := store.Lookup(context.Background(), "GEMINI_API_KEY")
	assert.False(t, ok, "blank secrets count as missing")

	t.Setenv("GEMINI_API_KEY", " rotated ")
	v, ok := store.Lookup(context.Background(), "GEMINI_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "rotated", v)
}
