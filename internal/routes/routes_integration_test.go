//go:build integration

package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
	"github.com/example/sdpublication/internal/testutil"
)

func request(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestAPIIntegration(t *testing.T) {
	db := testutil.Postgres(t)
	cfg := &config.Config{
		JWTSecret:    "integration-secret",
		TokenExpires: time.Hour,
		BcryptCost:   4,
		UploadDir:    t.TempDir(),
		MaxUploadMB:  5,
		CORSOrigins:  "*",
		MailQueue:    "mail.otp",
	}

	app, err := NewApp(db, cfg, nil, services.NewMailPublisher("", cfg.MailQueue))
	require.NoError(t, err)

	status, body := request(t, app, "POST", "/api/auth/register",
		`{"first_name":"Asha","last_name":"Rao","phone":"9876543210","password":"secret1"}`, "")
	require.Equal(t, fiber.StatusCreated, status, body)
	data := body["data"].(map[string]interface{})
	token := data["token"].(string)
	assert.NotEmpty(t, token)
	user := data["user"].(map[string]interface{})
	assert.NotContains(t, user, "password_hash")
	assert.Regexp(t, `^SDP[0-9A-F]{8}$`, user["reference_code"])

	status, body = request(t, app, "POST", "/api/auth/register",
		`{"first_name":"Asha","last_name":"Rao","phone":"9876543210","password":"secret1"}`, "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, false, body["success"])

	t.Run("login", func(t *testing.T) {
		status, body := request(t, app, "POST", "/api/auth/login", `{"phone":"9876543210","password":"secret1"}`, "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["success"])

		status, body = request(t, app, "POST", "/api/auth/login", `{"phone":"9876543210","password":"wrong!"}`, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "incorrect password", body["error"])

		status, body = request(t, app, "POST", "/api/auth/login", `{"phone":"1111111111","password":"secret1"}`, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "phone not registered", body["error"])
	})

	t.Run("availability", func(t *testing.T) {
		status, body := request(t, app, "GET", "/api/auth/check?phone=9876543210", "", "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, false, body["data"].(map[string]interface{})["available"])

		status, body = request(t, app, "GET", "/api/auth/check?phone=5555555555", "", "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["data"].(map[string]interface{})["available"])
	})

	t.Run("protected and admin routes", func(t *testing.T) {
		status, _ := request(t, app, "GET", "/api/cart", "", "")
		assert.Equal(t, fiber.StatusUnauthorized, status)

		status, body := request(t, app, "GET", "/api/cart", "", token)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["success"])

		status, body = request(t, app, "GET", "/api/admin/dashboard", "", token)
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "forbidden", body["error"])
	})

	t.Run("storefront is public", func(t *testing.T) {
		status, body := request(t, app, "GET", "/api/homepage", "", "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["success"])

		status, _ = request(t, app, "GET", "/api/books/999", "", "")
		assert.Equal(t, fiber.StatusNotFound, status)

		status, body = request(t, app, "GET", "/api/tests/history", "", token)
		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, "test history not found", body["error"])
	})

	t.Run("reset code locks after repeated misses", func(t *testing.T) {
		status, body := request(t, app, "POST", "/api/auth/register",
			`{"first_name":"Ravi","last_name":"Kumar","phone":"9876500000","email":"ravi@example.com","password":"secret1"}`, "")
		require.Equal(t, fiber.StatusCreated, status, body)

		status, body = request(t, app, "POST", "/api/auth/password/forgot", `{"phone":"9876500000"}`, "")
		require.Equal(t, fiber.StatusOK, status, body)
		resetToken := body["data"].(map[string]interface{})["token"].(string)

		var record models.PasswordResetToken
		require.NoError(t, db.Where("token = ?", resetToken).First(&record).Error)
		wrong := "000000"
		if record.Code == wrong {
			wrong = "111111"
		}

		verify := func(code string) string {
			return fmt.Sprintf(`{"token":%q,"code":%q}`, resetToken, code)
		}
		for i := 1; i < 5; i++ {
			status, body = request(t, app, "POST", "/api/auth/password/verify", verify(wrong), "")
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "invalid verification code", body["error"])
		}
		status, _ = request(t, app, "POST", "/api/auth/password/verify", verify(wrong), "")
		assert.Equal(t, fiber.StatusTooManyRequests, status)

		status, body = request(t, app, "POST", "/api/auth/password/verify", verify(record.Code), "")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "token expired", body["error"])

		status, _ = request(t, app, "POST", "/api/auth/password/reset", `{"token":"`+resetToken+`","new_password":"hijack1"}`, "")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("self reported capture grants nothing", func(t *testing.T) {
		category := models.EbookCategory{Name: "Banking"}
		require.NoError(t, db.Create(&category).Error)
		ebook := models.Ebook{Name: "IBPS PO Guide", CategoryID: category.ID, EbookPrice: 299}
		require.NoError(t, db.Create(&ebook).Error)

		status, body := request(t, app, "POST", "/api/payments",
			fmt.Sprintf(`{"ebook_id":%d,"transaction_id":"x","status":"captured","amount":299}`, ebook.ID), token)
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Equal(t, false, body["data"].(map[string]interface{})["purchased"])

		var purchases int64
		require.NoError(t, db.Model(&models.Purchase{}).Where("ebook_id = ?", ebook.ID).Count(&purchases).Error)
		assert.Zero(t, purchases)
	})

	t.Run("webhook requires configuration", func(t *testing.T) {
		status, _ := request(t, app, "POST", "/api/payments/webhook", `{}`, "")
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
	})
}
