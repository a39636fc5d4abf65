// Package jwtx reads the caller identity that echo-jwt stored on the context.
package jwtx

import (
	"errors"

	jwtutil "bikerental/util/jwt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func ClaimsFromContext(c echo.Context) (*jwtutil.Claims, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid jwt claims")
	}
	return jwtutil.FromMap(claims)
}

func UserIDFromContext(c echo.Context) (int64, error) {
	cl, err := ClaimsFromContext(c)
	if err != nil {
		return 0, err
	}
	return cl.UserID, nil
}

func RoleFromContext(c echo.Context) (string, error) {
	cl, err := ClaimsFromContext(c)
	if err != nil {
		return "", err
	}
	return cl.Role, nil
}
