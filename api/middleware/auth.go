package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

const bearerPrefix = "bearer "

// JWTAuthMiddleware verifies an HS256 bearer token and stores the caller's user id, taken
// from the "sub" claim or else "user_id".
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		userId, err := ValidateToken(strings.TrimSpace(header[len(bearerPrefix):]), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid bearer token"})
			return
		}

		c.Set(utils.GinKeyUserId, userId)
		c.Next()
	}
}

func ValidateToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}

	for _, key := range []string{"sub", "user_id"} {
		if userId, ok := claims[key].(string); ok && userId != "" {
			return userId, nil
		}
	}
	return "", errors.New("token carries no user id")
}
