package handlers

import (
	"context"
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

// OTPSender delivers verification codes.
type OTPSender interface {
	SendOTP(ctx context.Context, mail services.OTPMail) error
}

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	storage *services.Storage
	mailer  OTPSender
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, storage *services.Storage, mailer OTPSender) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, storage: storage, mailer: mailer}
}

type registerRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Phone     string `json:"phone" form:"phone"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
}

// Register creates a new user account and issues an OTP.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Phone == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if len(req.Password) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	taken, err := h.identifierTaken("phone", req.Phone)
	if err != nil {
		return err
	}
	if taken {
		return fiber.NewError(fiber.StatusConflict, "phone already registered")
	}
	if req.Email != "" {
		if taken, err = h.identifierTaken("email", req.Email); err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}
	}

	passwordHash, err := utils.HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	user := models.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		PasswordHash:  passwordHash,
		Role:          models.RoleUser,
		Code:          code,
		ReferenceCode: utils.GenerateReferenceCode(),
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	if file, err := c.FormFile("profile_picture"); err == nil {
		name, err := h.storage.Save(file, services.ImageExtensions...)
		if err != nil {
			return mapError(err)
		}
		user.Profile = name
	}

	if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		_ = h.storage.Remove(user.Profile)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "user already exists")
		}
		return err
	}

	if user.Email != nil {
		mail := services.OTPMail{
			Email:         *user.Email,
			Name:          user.FirstName,
			Code:          code,
			ReferenceCode: user.ReferenceCode,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.mailer.SendOTP(ctx, mail); err != nil {
				log.Printf("[Mail] OTP for user %d not queued: %v", user.ID, err)
			}
		}()
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":  user,
			"token": token,
		},
	})
}

type loginRequest struct {
	Phone    string `json:"phone" form:"phone"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login authenticates an existing user by phone, or by email when no phone is given.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	column, value := "phone", strings.TrimSpace(req.Phone)
	if value == "" {
		column, value = "email", strings.ToLower(strings.TrimSpace(req.Email))
	}
	if value == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone and password are required")
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).Where(column+" = ?", value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, column+" not registered")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "incorrect password")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user":  user,
			"token": token,
		},
	})
}

type verifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Verify checks the OTP issued at registration.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Phone == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone and code are required")
	}

	db := h.db.WithContext(c.UserContext())
	var user models.User
	if err := db.Where("phone = ?", strings.TrimSpace(req.Phone)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if user.IsVerified {
		return c.JSON(fiber.Map{"success": true, "verified": true})
	}
	if !codeMatches(user.Code, req.Code) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
	}

	if err := db.Model(&user).Updates(map[string]interface{}{"is_verified": true, "code": ""}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
	})
}

// CheckAvailability reports whether an email and/or phone can still be registered.
func (h *AuthHandler) CheckAvailability(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	phone := strings.TrimSpace(c.Query("phone"))
	if email == "" && phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email or phone is required")
	}

	if phone != "" {
		taken, err := h.identifierTaken("phone", phone)
		if err != nil {
			return err
		}
		if taken {
			return success(c, fiber.Map{"available": false, "message": "phone already registered"})
		}
	}
	if email != "" {
		taken, err := h.identifierTaken("email", email)
		if err != nil {
			return err
		}
		if taken {
			return success(c, fiber.Map{"available": false, "message": "email already registered"})
		}
	}

	return success(c, fiber.Map{"available": true, "message": "available"})
}

func (h *AuthHandler) identifierTaken(column, value string) (bool, error) {
	var count int64
	if err := h.db.Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
