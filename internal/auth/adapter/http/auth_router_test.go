package http_test

import (
	"context"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	authhttp "plant-shop/internal/auth/adapter/http"
	"plant-shop/internal/auth/adapter/persistence/memory"
	"plant-shop/internal/auth/adapter/security"
	"plant-shop/internal/auth/config"
	"plant-shop/internal/auth/domain/model"
	"plant-shop/internal/auth/usecase"
	"plant-shop/internal/shared/logger"
	"plant-shop/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const cookieName = "plantshop_token"

type stubProvider struct{}

func (stubProvider) Kind() string { return "google" }

func (stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (stubProvider) Identity(_ context.Context, code string) (*model.Identity, error) {
	return &model.Identity{Provider: "google", Subject: code, Email: code + "@example.com"}, nil
}

func setupApp(t *testing.T) (*fiber.App, *authhttp.AuthMiddleware) {
	t.Helper()
	cfg := &config.Config{
		JWTSecretKey:   "router-test-secret",
		JWTIssuer:      "plant-shop-test",
		AccessTokenTTL: time.Hour,
		CookieName:     cookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}
	tokens, err := security.NewJWTokenService(cfg)
	require.NoError(t, err)

	log := logger.NewNopLogger()
	uc := usecase.NewAuthUsecase(memory.NewUserRepository(), tokens, nil, cfg, log, stubProvider{})
	mw := authhttp.NewAuthMiddleware(uc, cookieName)
	handler := authhttp.NewAuthHTTPHandler(uc, authhttp.CookieSettings{
		Name: cookieName, Path: "/", MaxAge: 3600, HTTPOnly: true, SameSite: "Lax",
	}, log)

	app := fiber.New()
	handler.SetupAuthRoutesWithMiddleware(app, mw)
	return app, mw
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, resp.Header.Get("Set-Cookie")
}

func TestSignUpAndSignIn(t *testing.T) {
	app, _ := setupApp(t)

	status, body, cookie := postJSON(t, app, "/auth/signup", `{"email":"fern@example.com","password":"photosynthesis"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.NotEmpty(t, body["token"])
	assert.Contains(t, cookie, cookieName+"=")
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "fern@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")

	status, body, _ = postJSON(t, app, "/auth/signup", `{"email":"fern@example.com","password":"photosynthesis"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "conflict", body["error"])

	status, body, _ = postJSON(t, app, "/auth/signin", `{"email":"fern@example.com","password":"photosynthesis"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body, _ = postJSON(t, app, "/auth/signin", `{"email":"fern@example.com","password":"wrong-one"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "auth_failed", body["error"])
}

func TestSignUp_BadInput(t *testing.T) {
	app, _ := setupApp(t)

	status, body, _ := postJSON(t, app, "/auth/signup", `{"email":"fern@example.com","password":"short"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", body["error"])

	status, _, _ = postJSON(t, app, "/auth/signup", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMe_RequiresToken(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/auth/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, body, _ := postJSON(t, app, "/auth/signup", `{"email":"ivy@example.com","password":"climbing-ivy"}`)
	token := body["token"].(string)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Cookie", cookieName+"="+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSignOut_ClearsCookie(t *testing.T) {
	app, _ := setupApp(t)
	resp, err := app.Test(httptest.NewRequest("POST", "/auth/signout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), cookieName+"=;")
}

func TestFederatedRedirectAndCallback(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/auth/federated/google", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	resp, err = app.Test(httptest.NewRequest("GET", "/auth/federated/google/callback?code=rose&state="+url.QueryEscape(state), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var result usecase.AuthResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "rose@example.com", result.User.Email)
	assert.NotEmpty(t, result.Token)

	// a captured state cannot be replayed
	resp, err = app.Test(httptest.NewRequest("GET", "/auth/federated/google/callback?code=rose&state="+url.QueryEscape(state), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/auth/federated/google/callback?code=rose&state=forged", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/auth/federated/google/callback?error=access_denied", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestFederated_UnknownProvider(t *testing.T) {
	app, _ := setupApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/auth/federated/myspace", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/auth/federated", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"providers":["google"]}`, string(raw))
}

func TestOptionalAuth(t *testing.T) {
	app, mw := setupApp(t)
	app.Get("/whoami", mw.OptionalAuth(), func(c *fiber.Ctx) error {
		id, err := utils.GetUserIDFromContext(c.UserContext())
		if err != nil {
			return c.SendString("anonymous")
		}
		return c.SendString(id)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "anonymous", string(raw))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "anonymous", string(raw))

	_, body, _ := postJSON(t, app, "/auth/signup", `{"email":"oak@example.com","password":"strong-roots"}`)
	userID := body["user"].(map[string]interface{})["id"].(string)
	resp, err = app.Test(httptest.NewRequest("GET", "/whoami?token="+body["token"].(string), nil))
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	assert.Equal(t, userID, string(raw))
}

func TestRequestID(t *testing.T) {
	app, mw := setupApp(t)
	app.Use(mw.RequestID(), mw.RequestContext())
	app.Get("/rid", func(c *fiber.Ctx) error {
		id, err := utils.GetRequestIDFromContext(c.UserContext())
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(id)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/rid", nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), string(raw))
	assert.NotEmpty(t, raw)
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	mw := authhttp.NewAuthMiddleware(nil, cookieName)
	app.Get("/limited", mw.RateLimiter(2, time.Minute), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
