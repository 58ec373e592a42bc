package http

import (
	"strings"
	"time"

	"plant-shop/internal/auth/usecase"
	"plant-shop/internal/shared/contextkeys"
	"plant-shop/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase    usecase.AuthUsecaseInterface
	cookieName string
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		usecase:    uc,
		cookieName: cookieName,
	}
}

// SecurityHeaders adds security headers
func (m *AuthMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter limits credential attempts per client address.
func (m *AuthMiddleware) RateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Get("X-Forwarded-For", c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate_limited",
				Message: "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

// RequestID middleware
func (m *AuthMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// RequestContext copies the request id set by RequestID into the user context.
func (m *AuthMiddleware) RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(string(contextkeys.RequestIDKey)).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Protect returns middleware that requires authentication
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := m.extractToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "auth_failed",
				Message: "Authentication required",
			})
		}

		claims, err := m.usecase.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "auth_failed",
				Message: "Invalid token",
			})
		}

		c.SetUserContext(utils.WithUser(c.UserContext(), claims.UserID, claims.Email))
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// every request through.
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := m.extractToken(c)
		if !ok {
			return c.Next()
		}
		claims, err := m.usecase.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}
		c.SetUserContext(utils.WithUser(c.UserContext(), claims.UserID, claims.Email))
		return c.Next()
	}
}

// extractToken extracts the token from Authorization header, cookie or the
// token query parameter used by websocket clients.
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, bool) {
	if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token, true
		}
	}
	if token := c.Cookies(m.cookieName); token != "" {
		return token, true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}
