package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleRegistry(t *testing.T) {
	t.Parallel()

	registry := NewModuleRegistry(map[string]string{
		"mod2": "mod2_cards",
		"mod1": "mod1_cards",
	})

	m, err := registry.Lookup("mod1")
	require.NoError(t, err)
	assert.Equal(t, Module{ID: "mod1", Table: "mod1_cards"}, m)

	_, err = registry.Lookup("mod3")
	assert.ErrorIs(t, err, ErrUnknownModule)

	assert.Equal(t, []string{"mod1", "mod2"}, registry.IDs())
}

func TestValidTableName(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidTableName("mod1_cards"))
	assert.True(t, ValidTableName("_cards"))
	assert.False(t, ValidTableName("1cards"))
	assert.False(t, ValidTableName("cards; drop table users"))
	assert.False(t, ValidTableName(""))
}
