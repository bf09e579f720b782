package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
	"github.com/example/sdpublication/internal/utils"
)

const (
	resetCodeTTL     = 10 * time.Minute
	maxResetAttempts = 5
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer OTPSender
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *gorm.DB, cfg *config.Config, mailer OTPSender) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, cfg: cfg, mailer: mailer}
}

type forgotPasswordRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ForgotPassword mails a 6-digit code to the account's email and returns a reset token.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	column, value := "phone", strings.TrimSpace(req.Phone)
	if value == "" {
		column, value = "email", strings.ToLower(strings.TrimSpace(req.Email))
	}
	if value == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone or email is required")
	}

	db := h.db.WithContext(c.UserContext())
	var user models.User
	if err := db.Where(column+" = ?", value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}
	if user.Email == nil {
		return fiber.NewError(fiber.StatusBadRequest, "account has no email address")
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	record := models.PasswordResetToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(tokenBytes),
		Code:      code,
		ExpiresAt: time.Now().Add(resetCodeTTL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used_at IS NULL", user.ID).
			Update("expires_at", time.Now()).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return err
	}

	if err := h.mailer.SendOTP(c.UserContext(), services.OTPMail{
		Email:         *user.Email,
		Name:          user.FirstName,
		Code:          code,
		ReferenceCode: user.ReferenceCode,
	}); err != nil {
		log.Printf("[Mail] reset code for user %d not queued: %v", user.ID, err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "could not send reset code")
	}

	return success(c, fiber.Map{
		"token":      record.Token,
		"expires_at": record.ExpiresAt,
	})
}

type verifyResetCodeRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// VerifyResetCode verifies the code submitted by the user.
func (h *PasswordResetHandler) VerifyResetCode(c *fiber.Ctx) error {
	var req verifyResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token and code are required")
	}

	db := h.db.WithContext(c.UserContext())
	record, err := activeResetToken(db, req.Token)
	if err != nil {
		return err
	}
	if !codeMatches(record.Code, req.Code) {
		return rejectResetCode(db, record)
	}

	if err := db.Model(record).Update("verified", true).Error; err != nil {
		return err
	}

	return success(c, fiber.Map{"verified": true, "token": record.Token})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword updates the user's password after successful code verification.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token and new_password are required")
	}
	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	db := h.db.WithContext(c.UserContext())
	record, err := activeResetToken(db, req.Token)
	if err != nil {
		return err
	}
	if !record.Verified {
		return fiber.NewError(fiber.StatusBadRequest, "code not verified yet")
	}

	hash, err := utils.HashPassword(req.NewPassword, h.cfg.BcryptCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", record.UserID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Model(record).Update("used_at", time.Now()).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated successfully",
	})
}

// rejectResetCode counts a wrong guess and burns the token once the attempts
// run out.
func rejectResetCode(db *gorm.DB, record *models.PasswordResetToken) error {
	attempts := record.Attempts + 1
	updates := map[string]interface{}{"attempts": gorm.Expr("attempts + ?", 1)}
	if attempts >= maxResetAttempts {
		updates["expires_at"] = time.Now()
	}
	if err := db.Model(record).Updates(updates).Error; err != nil {
		return err
	}

	if attempts >= maxResetAttempts {
		return fiber.NewError(fiber.StatusTooManyRequests, "too many attempts, request a new code")
	}
	return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
}

func codeMatches(expected, given string) bool {
	given = strings.TrimSpace(given)
	return expected != "" && subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

func activeResetToken(db *gorm.DB, token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := db.Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "invalid reset token")
		}
		return nil, err
	}
	if record.UsedAt != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "token already used")
	}
	if record.ExpiresAt.Before(time.Now()) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "token expired")
	}
	return &record, nil
}
