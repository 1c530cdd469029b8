// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserIDFromContext reads the caller's id out of the echo-jwt token.
func UserIDFromContext(c echo.Context) (uuid.UUID, error) {
	claims, err := claimsFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("sub missing in claims")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New("sub is not a uuid")
	}
	return id, nil
}

// RoleFromContext reads the caller's role claim; empty when absent.
func RoleFromContext(c echo.Context) string {
	claims, err := claimsFromContext(c)
	if err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

func claimsFromContext(c echo.Context) (jwt.MapClaims, error) {
	switch tok := c.Get("user").(type) {
	case *jwt.Token:
		if claims, ok := tok.Claims.(jwt.MapClaims); ok {
			return claims, nil
		}
		return nil, errors.New("invalid jwt claims")
	case jwt.MapClaims:
		return tok, nil
	default:
		return nil, errors.New("no jwt token in context")
	}
}
