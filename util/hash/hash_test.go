package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("admin@123")
	require.NoError(t, err)
	require.NotEqual(t, "admin@123", h)
	require.True(t, Check(h, "admin@123"))
	require.False(t, Check(h, "admin@124"))
	require.False(t, Check("not-a-hash", "admin@123"))
}
