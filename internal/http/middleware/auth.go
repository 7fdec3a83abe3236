package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"printdesk/internal/auth"
	"printdesk/internal/logger"
)

// UserIDLocalKey is the Fiber locals key holding the authenticated user ID.
const UserIDLocalKey = "user_id"

// ErrMissingBearer is passed to the deny handler when no bearer token was sent.
var ErrMissingBearer = errors.New("missing bearer token")

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// DenyFunc writes the response for a rejected request.
type DenyFunc func(c *fiber.Ctx, err error) error

// Auth requires a valid "Authorization: Bearer <token>" header.
// On success the token subject is stored under UserIDLocalKey.
func Auth(v TokenValidator, deny DenyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return deny(c, ErrMissingBearer)
		}

		claims, err := v.Validate(token)
		if err != nil {
			return deny(c, err)
		}

		c.Locals(UserIDLocalKey, claims.UserID())
		ctx := c.UserContext()
		c.SetUserContext(logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", claims.UserID()))))

		return c.Next()
	}
}

// UserIDFromCtx returns the user ID stored by Auth, or "".
func UserIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
