package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "e scaduto il piano a1", Normalize("  È scaduto   il piano A1 "))
	assert.Equal(t, "priorita", Normalize("Priorità"))
	assert.Equal(t, "", Normalize("   "))
}

func TestHashKey_Stable(t *testing.T) {
	assert.Equal(t, HashKey("a", "b"), HashKey("a", "b"))
	assert.NotEqual(t, HashKey("a", "b"), HashKey("ab"))
	assert.NotEqual(t, HashKey("a", "b"), HashKey("b", "a"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"piano", "a1", "scaduto"}, Tokens("Piano A1, scaduto?"))
	assert.Empty(t, Tokens("!!!"))
}
