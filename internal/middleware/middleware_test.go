package middleware

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/utils"
)

const testSecret = "test-secret"

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestErrorHandlerEnvelope(t *testing.T) {
	app := newApp()
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("db exploded")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "short and stout", body["error"])

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", decode(t, resp.Body)["error"])
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	app := newApp()
	app.Get("/me", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		id, _ := GetCurrentUserID(c)
		return c.JSON(fiber.Map{"id": id, "role": GetCurrentRole(c)})
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Token abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc", fiber.StatusUnauthorized},
		{"valid token", bearer(t, 5, "user"), fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", bearer(t, 5, "user"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	body := decode(t, resp.Body)
	assert.Equal(t, float64(5), body["id"])
	assert.Equal(t, "user", body["role"])
}

func TestOptionalAuth(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	app := newApp()
	app.Get("/shelf", OptionalAuth(cfg), func(c *fiber.Ctx) error {
		id, ok := GetCurrentUserID(c)
		return c.JSON(fiber.Map{"id": id, "ok": ok})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/shelf", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp.Body)["ok"])

	req := httptest.NewRequest("GET", "/shelf", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp.Body)["ok"])

	req = httptest.NewRequest("GET", "/shelf", nil)
	req.Header.Set("Authorization", bearer(t, 9, "user"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, float64(9), decode(t, resp.Body)["id"])
}

func TestRequireRole(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}
	app := newApp()
	app.Get("/admin", AuthMiddleware(cfg), RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", bearer(t, 1, "user"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decode(t, resp.Body)["error"])

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", bearer(t, 1, "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebhookAuth(t *testing.T) {
	basic := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}

	app := newApp()
	app.Post("/hook", WebhookAuth("merchant-key"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	unconfigured := newApp()
	unconfigured.Post("/hook", WebhookAuth(""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := []struct {
		name   string
		app    *fiber.App
		header string
		status int
	}{
		{"valid key", app, basic("gateway", "merchant-key"), fiber.StatusNoContent},
		{"wrong key", app, basic("gateway", "nope"), fiber.StatusUnauthorized},
		{"bearer scheme", app, "Bearer merchant-key", fiber.StatusUnauthorized},
		{"bad base64", app, "Basic ###", fiber.StatusUnauthorized},
		{"missing header", app, "", fiber.StatusUnauthorized},
		{"unconfigured", unconfigured, basic("gateway", ""), fiber.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/hook", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := tc.app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestLoginLimiterWithoutRedisPassesThrough(t *testing.T) {
	app := newApp()
	app.Post("/login", LoginLimiter(nil, 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestLoginRateKey(t *testing.T) {
	app := newApp()
	app.Post("/login", func(c *fiber.Ctx) error {
		return c.SendString(loginRateKey(c))
	})

	send := func(body string) string {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		out, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(out)
	}

	cases := map[string]string{
		`{"phone":" 9990001111 "}`: ":9990001111",
		`{"email":"A@B.C"}`:        ":a@b.c",
		`{}`:                       ":anon",
	}
	for body, suffix := range cases {
		key := send(body)
		assert.True(t, strings.HasPrefix(key, "ratelimit:login:"), key)
		assert.True(t, strings.HasSuffix(key, suffix), key)
	}
}
