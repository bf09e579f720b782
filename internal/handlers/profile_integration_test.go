//go:build integration

package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/middleware"
	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
	"github.com/example/sdpublication/internal/testutil"
	"github.com/example/sdpublication/internal/utils"
)

func TestUpdateProfileDropsPictureWhenWriteFails(t *testing.T) {
	db := testutil.Postgres(t)
	user := models.User{FirstName: "Meera", LastName: "Iyer", Phone: "9000000099", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:reject_user_update", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "users" {
			_ = tx.AddError(errors.New("write rejected"))
		}
	}))

	dir := t.TempDir()
	storage, err := services.NewStorage(dir, 1)
	require.NoError(t, err)
	handler := NewProfileHandler(db, storage, services.NewAddressService(db))

	app := newTestApp()
	app.Put("/profile", middleware.AuthMiddleware(testConfig), handler.UpdateProfile)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("first_name", "Meera"))
	part, err := writer.CreateFormFile("profile_picture", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	token, err := utils.GenerateToken(testSecret, user.ID, models.RoleUser, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("PUT", "/profile", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
