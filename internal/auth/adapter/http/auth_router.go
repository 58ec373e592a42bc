package http

import (
	stderrors "errors"
	"time"

	"plant-shop/internal/auth/usecase"
	"plant-shop/internal/shared/errors"
	"plant-shop/internal/shared/logger"
	"plant-shop/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx auth response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CookieSettings controls the access token cookie.
type CookieSettings struct {
	Name     string
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	cookie  CookieSettings
	log     logger.Logger
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, cookie CookieSettings, log logger.Logger) *AuthHTTPHandler {
	return &AuthHTTPHandler{usecase: uc, cookie: cookie, log: log.WithComponent("auth-handler")}
}

// SetupAuthRoutesWithMiddleware mounts /auth on router.
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware, credentialGuards ...fiber.Handler) {
	group := router.Group("/auth", middleware.SecurityHeaders())

	// Public routes (no authentication required)
	signup := append(append([]fiber.Handler{}, credentialGuards...), h.SignUp)
	signin := append(append([]fiber.Handler{}, credentialGuards...), h.SignIn)
	group.Post("/signup", signup...)
	group.Post("/signin", signin...)
	group.Post("/signout", h.SignOut)
	group.Get("/federated", h.ListProviders)
	group.Get("/federated/:provider", h.StartFederated)
	group.Get("/federated/:provider/callback", h.FederatedCallback)

	// Protected routes (authentication required)
	group.Get("/me", middleware.Protect(), h.Me)
}

// SignUp handles user registration
func (h *AuthHTTPHandler) SignUp(c *fiber.Ctx) error {
	var req usecase.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, errors.NewValidationError("Invalid request body"))
	}

	result, err := h.usecase.SignUp(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	h.setCookie(c, result.Token)
	return c.Status(fiber.StatusCreated).JSON(result)
}

// SignIn handles email and password sign-in
func (h *AuthHTTPHandler) SignIn(c *fiber.Ctx) error {
	var req usecase.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, errors.NewValidationError("Invalid request body"))
	}

	result, err := h.usecase.SignIn(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	h.setCookie(c, result.Token)
	return c.JSON(result)
}

// SignOut clears the cookie. Tokens are stateless, so nothing else is revoked.
func (h *AuthHTTPHandler) SignOut(c *fiber.Ctx) error {
	h.clearCookie(c)
	return c.JSON(fiber.Map{
		"message": "Signed out successfully",
	})
}

func (h *AuthHTTPHandler) ListProviders(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"providers": h.usecase.FederatedProviders()})
}

// StartFederated redirects the browser to the provider's consent page.
func (h *AuthHTTPHandler) StartFederated(c *fiber.Ctx) error {
	target, err := h.usecase.StartFederated(c.UserContext(), c.Params("provider"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// FederatedCallback completes the redirect flow started by StartFederated.
func (h *AuthHTTPHandler) FederatedCallback(c *fiber.Ctx) error {
	if reason := c.Query("error"); reason != "" {
		h.log.WithContext(c.UserContext()).Infof("Federated sign-in declined: %s", reason)
		return writeError(c, errors.NewAuthenticationError("federated sign-in was declined: "+reason))
	}

	result, err := h.usecase.CompleteFederated(c.UserContext(), c.Params("provider"), c.Query("code"), c.Query("state"))
	if err != nil {
		return writeError(c, err)
	}

	h.setCookie(c, result.Token)
	return c.JSON(result)
}

// Me returns current user information
func (h *AuthHTTPHandler) Me(c *fiber.Ctx) error {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return writeError(c, errors.NewAuthenticationError("Unauthorized"))
	}

	user, err := h.usecase.Me(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

func writeError(c *fiber.Ctx, err error) error {
	status := errors.HTTPStatus(err)
	body := ErrorResponse{Error: errors.Code(err)}
	if status < fiber.StatusInternalServerError {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			body.Message = appErr.Message
		}
	}
	return c.Status(status).JSON(body)
}

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   h.cookie.MaxAge,
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
		Expires:  time.Now().Add(time.Duration(h.cookie.MaxAge) * time.Second),
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
