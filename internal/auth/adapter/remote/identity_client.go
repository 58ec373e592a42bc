package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"plant-shop/internal/auth/domain/model"
	"plant-shop/internal/auth/usecase"
	"plant-shop/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 10 * time.Second

// AuthenticatedUser is a signed-in user together with the token to send on
// later requests.
type AuthenticatedUser struct {
	User  *model.User
	Token string
}

// Error is a non-2xx answer from the identity endpoints.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity provider returned %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity provider returned %d %s", e.Status, e.Code)
}

// IdentityClient talks to the server's /auth endpoints.
type IdentityClient struct {
	baseURL string
	timeout time.Duration
	log     logger.Logger
}

func NewIdentityClient(baseURL string, log logger.Logger) *IdentityClient {
	return &IdentityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		log:     log.WithComponent("identity-remote"),
	}
}

// SignInWithPassword exchanges credentials for a token.
func (c *IdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthenticatedUser, error) {
	return c.credentials(ctx, "/auth/signin", usecase.SignInRequest{Email: email, Password: password}, fiber.StatusOK)
}

// SignUpWithPassword registers a new user and signs them in.
func (c *IdentityClient) SignUpWithPassword(ctx context.Context, req usecase.SignUpRequest) (*AuthenticatedUser, error) {
	return c.credentials(ctx, "/auth/signup", req, fiber.StatusCreated)
}

// FederatedRedirectURL asks the server to start a federated sign-in and
// returns the consent page the user must open.
func (c *IdentityClient) FederatedRedirectURL(ctx context.Context, provider string) (string, error) {
	a := fiber.Get(c.baseURL + "/auth/federated/" + url.PathEscape(provider))
	// not pooled: the agent may still be writing to it if ctx ends first
	resp := &fiber.Response{}
	a.SetResponse(resp)

	status, body, err := c.do(ctx, a)
	if err != nil {
		return "", err
	}
	if status != fiber.StatusFound && status != fiber.StatusSeeOther {
		return "", decodeError(status, body)
	}
	location := string(resp.Header.Peek(fiber.HeaderLocation))
	if location == "" {
		return "", fmt.Errorf("federated redirect for %s had no location", provider)
	}
	return location, nil
}

func (c *IdentityClient) credentials(ctx context.Context, path string, payload interface{}, want int) (*AuthenticatedUser, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	a := fiber.Post(c.baseURL + path)
	a.ContentType(fiber.MIMEApplicationJSON)
	a.Body(raw)

	status, body, err := c.do(ctx, a)
	if err != nil {
		return nil, err
	}
	if status != want {
		return nil, decodeError(status, body)
	}

	var result usecase.AuthResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if result.User == nil || result.Token == "" {
		return nil, fmt.Errorf("auth response missing user or token")
	}
	return &AuthenticatedUser{User: result.User, Token: result.Token}, nil
}

type agentResult struct {
	status int
	body   []byte
	errs   []error
}

func (c *IdentityClient) do(ctx context.Context, a *fiber.Agent) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	a.Timeout(timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	done := make(chan agentResult, 1)
	go func() {
		status, body, errs := a.Bytes()
		done <- agentResult{status: status, body: body, errs: errs}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case r := <-done:
		if len(r.errs) > 0 {
			c.log.Debugf("Identity request failed: %v", r.errs[0])
			return 0, nil, fmt.Errorf("request failed: %w", r.errs[0])
		}
		return r.status, r.body, nil
	}
}

func decodeError(status int, body []byte) error {
	var eb struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &eb)
	return &Error{Status: status, Code: eb.Error, Message: eb.Message}
}
