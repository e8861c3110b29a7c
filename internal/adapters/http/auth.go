package http

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "passtheplate"
	userIDLocal   = "user_id"
	bearerPrefix  = "Bearer "
	tokenQueryKey = "token"
)

// Tokens signs and verifies HS256 access tokens whose subject is the user id.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

// Issue returns a signed token for userID valid for ttl.
func (t *Tokens) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id carried by a valid token.
func (t *Tokens) Verify(token string) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("auth is not configured")
	}
	if token == "" {
		return "", errors.New("token is empty")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id in c.Locals and the request context.
func RequireAuth(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return errUnauthorized(c, "Unauthorized")
		}
		userID, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			slog.DebugContext(c.UserContext(), "rejected token", "error", err)
			return errUnauthorized(c, "Unauthorized")
		}
		setUser(c, userID)
		return c.Next()
	}
}

// optionalUser returns the caller's id from a bearer header or ?token=, or ""
// when neither holds a valid token.
func optionalUser(c *fiber.Ctx, tokens *Tokens) string {
	if tokens == nil {
		return ""
	}
	raw := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), bearerPrefix)
	if raw == "" {
		raw = c.Query(tokenQueryKey)
	}
	userID, err := tokens.Verify(raw)
	if err != nil {
		return ""
	}
	return userID
}

func currentUser(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}
