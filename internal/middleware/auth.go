package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/util"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens
type Claims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token. Used by tooling and tests; the
// account service mints production tokens with the same claims.
func IssueToken(secret []byte, userID string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates an access token and returns its claims
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// RequireViewer authenticates the bearer token and stores user_id and is_admin in the context
func RequireViewer(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			util.RespondUnauthorized(c, "no token provided")
			return
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			util.RespondUnauthorized(c, "invalid token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

// RequireAdmin must run after RequireViewer
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := util.GetUserIDFromContext(c); !ok {
			c.Abort()
			return
		}
		if !c.GetBool("is_admin") {
			util.RespondForbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}
