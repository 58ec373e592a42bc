package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"plant-shop/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 10 * time.Second

// Client holds what every remote catalog call needs: where the server is and who is calling.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request when ctx has no earlier deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a client for the server at baseURL, e.g. http://localhost:5000.
func NewClient(baseURL string, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		log:     log.WithComponent("catalog-remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type agentResult struct {
	status int
	body   []byte
	errs   []error
}

// do runs the agent and gives up when ctx ends. The agent is released by Bytes.
func (c *Client) do(ctx context.Context, a *fiber.Agent) (int, []byte, error) {
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
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
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
			return 0, nil, fmt.Errorf("request failed: %w", r.errs[0])
		}
		return r.status, r.body, nil
	}
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == "" {
		return &StatusError{Status: status}
	}
	return &StatusError{Status: status, Code: eb.Error, Message: eb.Message}
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("server returned %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}
