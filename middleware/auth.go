package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"food-delivery-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

type Claims struct {
	UserID    uint            `json:"user_id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CourierID *uint           `json:"courier_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the bearer tokens handed out at login.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Generate creates a signed JWT for the given principal
func (ti *TokenIssuer) Generate(p models.Principal) (string, error) {
	now := ti.now()
	claims := Claims{
		UserID:    p.UserID,
		Email:     p.Email,
		Role:      p.Role,
		CourierID: p.CourierID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Parse verifies a token and returns the principal it was issued for.
func (ti *TokenIssuer) Parse(tokenStr string) (models.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	if !token.Valid || !claims.Role.IsValid() {
		return models.Principal{}, fmt.Errorf("%w: invalid token", models.ErrUnauthorized)
	}
	return models.Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		CourierID: claims.CourierID,
	}, nil
}

// AuthRequired validates the JWT and stores the caller's principal in the context
func AuthRequired(ti *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required (Bearer <token>)",
				"kind":  "UNAUTHORIZED",
			})
			return
		}
		p, err := ti.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"kind":  "UNAUTHORIZED",
			})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated", "kind": "UNAUTHORIZED"})
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required role(s): " + rolesString(roles),
			"kind":  "AUTHORIZATION",
		})
	}
}

func rolesString(roles []models.UserRole) string {
	s := make([]string, len(roles))
	for i, r := range roles {
		s[i] = string(r)
	}
	return strings.Join(s, ", ")
}

// Principal extracts the caller set by AuthRequired.
func Principal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// MustPrincipal is Principal for handlers mounted behind AuthRequired.
func MustPrincipal(c *gin.Context) models.Principal {
	p, ok := Principal(c)
	if !ok {
		panic(errors.New("middleware: no principal in context, route is missing AuthRequired"))
	}
	return p
}

// SetPrincipal stores p in the context the way AuthRequired does.
func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
}
