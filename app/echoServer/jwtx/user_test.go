package jwtx

import (
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func ctxWith(v any) echo.Context {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest("GET", "/", nil), httptest.NewRecorder())
	if v != nil {
		c.Set("user", v)
	}
	return c
}

func TestUserIDAndRole(t *testing.T) {
	c := ctxWith(&jwt.Token{Claims: jwt.MapClaims{"sub": float64(12), "role": "admin"}})

	id, err := UserIDFromContext(c)
	require.NoError(t, err)
	require.Equal(t, int64(12), id)

	role, err := RoleFromContext(c)
	require.NoError(t, err)
	require.Equal(t, "admin", role)
}

func TestMissingToken(t *testing.T) {
	_, err := UserIDFromContext(ctxWith(nil))
	require.Error(t, err)

	_, err = UserIDFromContext(ctxWith(jwt.MapClaims{"sub": float64(1)}))
	require.Error(t, err)

	_, err = RoleFromContext(ctxWith(&jwt.Token{Claims: jwt.MapClaims{"role": "user"}}))
	require.Error(t, err)
}
