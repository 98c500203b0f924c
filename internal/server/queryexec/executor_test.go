package queryexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresReadOnlyDSN(t *testing.T) {
	_, err := New("")
	require.ErrorIs(t, err, ErrNoReadOnlyDSN)

	e, err := New("postgres://analytics_ro:x@localhost:5432/expenses")
	require.NoError(t, err)
	require.NotNil(t, e)
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "text", normalizeValue([]byte("text")))
	assert.Equal(t, int64(5), normalizeValue(int64(5)))
	assert.Nil(t, normalizeValue(nil))
}
