package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/LakshanUd/sl-go-tour-backend/models"
)

const (
	callerKey = "caller"

	// Set by the API gateway after it has verified the token itself.
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

// Authenticator resolves the caller of a request from a bearer token, or
// from gateway headers when those are trusted.
type Authenticator struct {
	secret       []byte
	trustHeaders bool
}

func NewAuthenticator(secret string, trustGatewayHeaders bool) *Authenticator {
	return &Authenticator{secret: []byte(strings.TrimSpace(secret)), trustHeaders: trustGatewayHeaders}
}

// ParseToken validates an HMAC signed access token and returns its caller.
func (a *Authenticator) ParseToken(tokenStr string) (models.Caller, error) {
	if len(a.secret) == 0 {
		return models.Caller{}, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return models.Caller{}, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Caller{}, fmt.Errorf("invalid token claims")
	}
	if typ, ok := claims["typ"].(string); ok && typ != "access" {
		return models.Caller{}, fmt.Errorf("invalid token type")
	}

	caller := models.Caller{Role: stringClaim(claims, "role")}
	for _, key := range []string{"sub", "user_id", "id"} {
		if caller.CustomerID = stringClaim(claims, key); caller.CustomerID != "" {
			break
		}
	}
	if caller.CustomerID == "" {
		return models.Caller{}, fmt.Errorf("token has no subject")
	}
	return caller, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

// Middleware rejects requests without a valid caller and stores the caller
// on the context for CallerFrom.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token format"})
				return
			}
			caller, err := a.ParseToken(strings.TrimSpace(tokenStr))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
				return
			}
			c.Set(callerKey, caller)
			c.Next()
			return
		}

		if a.trustHeaders {
			if id := strings.TrimSpace(c.GetHeader(UserIDHeader)); id != "" {
				c.Set(callerKey, models.Caller{CustomerID: id, Role: strings.TrimSpace(c.GetHeader(UserRoleHeader))})
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "You need to login first"})
	}
}

// CallerFrom returns the caller stored by Middleware, or the zero Caller.
func CallerFrom(c *gin.Context) models.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(models.Caller); ok {
			return caller
		}
	}
	return models.Caller{}
}
