package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShareKey(t *testing.T) {
	key, err := NewShareKey(12)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{12}$`), key)

	other, err := NewShareKey(12)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	empty, err := NewShareKey(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
