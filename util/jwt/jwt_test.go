package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("secret", 42, "admin", 1)
	require.NoError(t, err)

	c, err := ParseAuth("Bearer "+tok, "secret")
	require.NoError(t, err)
	require.Equal(t, int64(42), c.UserID)
	require.Equal(t, "admin", c.Role)

	c, err = ParseAuth(tok, "secret")
	require.NoError(t, err)
	require.Equal(t, int64(42), c.UserID)
}

func TestParseAuth_Rejects(t *testing.T) {
	tok, err := Issue("secret", 1, "user", 1)
	require.NoError(t, err)

	_, err = ParseAuth("", "secret")
	require.Error(t, err)

	_, err = ParseAuth("Bearer ", "secret")
	require.Error(t, err)

	_, err = ParseAuth(tok, "other-secret")
	require.Error(t, err)
}

func TestParseAuth_Expired(t *testing.T) {
	claims := gojwt.MapClaims{"sub": 5, "role": "user", "exp": time.Now().Add(-time.Minute).Unix()}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseAuth(tok, "secret")
	require.Error(t, err)
}

func TestFromMap_MissingSub(t *testing.T) {
	_, err := FromMap(gojwt.MapClaims{"role": "user"})
	require.Error(t, err)
}
