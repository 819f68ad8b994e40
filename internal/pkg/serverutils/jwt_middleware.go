package serverutils

import (
	"strings"

	"prd-builder-be/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIdLocal = "user_id"

// JwtMiddleware resolves the caller from an HS-signed bearer token.
// Required rejects requests without a valid token; Optional lets them
// through as anonymous.
type JwtMiddleware struct {
	secret []byte
}

func NewJwtMiddleware(secret string) *JwtMiddleware {
	return &JwtMiddleware{secret: []byte(secret)}
}

func (m *JwtMiddleware) Required(ctx *fiber.Ctx) error {
	userId, ok := m.resolve(ctx)
	if !ok {
		return apperr.Authentication()
	}
	ctx.Locals(userIdLocal, userId)
	return ctx.Next()
}

func (m *JwtMiddleware) Optional(ctx *fiber.Ctx) error {
	if userId, ok := m.resolve(ctx); ok {
		ctx.Locals(userIdLocal, userId)
	}
	return ctx.Next()
}

func (m *JwtMiddleware) resolve(ctx *fiber.Ctx) (string, bool) {
	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", false
	}
	tokenStr := strings.TrimSpace(authHeader[7:])
	if tokenStr == "" || len(m.secret) == 0 {
		return "", false
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	// Prefer the explicit user_id claim, fall back to the subject.
	if id, ok := claims[userIdLocal].(string); ok && id != "" {
		return id, true
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, true
	}
	return "", false
}

// CurrentUserId returns the authenticated caller, or nil for anonymous requests.
// A present but malformed id is a validation error.
func CurrentUserId(ctx *fiber.Ctx) (*uuid.UUID, error) {
	raw, ok := ctx.Locals(userIdLocal).(string)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return nil, apperr.Validation("invalid user id format")
	}
	return &id, nil
}

// RequireUserId is CurrentUserId for routes behind Required.
func RequireUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := CurrentUserId(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, apperr.Authentication()
	}
	return *id, nil
}
