package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
	"github.com/example/sdpublication/internal/utils"
)

// ProfileHandler manages user profile and address endpoints.
type ProfileHandler struct {
	db        *gorm.DB
	storage   *services.Storage
	addresses *services.AddressService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, storage *services.Storage, addresses *services.AddressService) *ProfileHandler {
	return &ProfileHandler{db: db, storage: storage, addresses: addresses}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
		return mapError(err)
	}

	return success(c, user)
}

type updateProfileRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

// UpdateProfile updates names and, when a profile_picture file is sent, the picture.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.FirstName); name != "" {
		updates["first_name"] = name
	}
	if name := strings.TrimSpace(req.LastName); name != "" {
		updates["last_name"] = name
	}

	db := h.db.WithContext(c.UserContext())
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return mapError(err)
	}

	previous := user.Profile
	if file, err := c.FormFile("profile_picture"); err == nil {
		name, err := h.storage.Save(file, services.ImageExtensions...)
		if err != nil {
			return mapError(err)
		}
		updates["profile"] = name
	}

	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if name, ok := updates["profile"].(string); ok {
			_ = h.storage.Remove(name)
		}
		return err
	}
	if _, replaced := updates["profile"]; replaced {
		_ = h.storage.Remove(previous)
	}

	if err := db.First(&user, userID).Error; err != nil {
		return err
	}
	return success(c, user)
}

// ListNotifications returns the caller's notifications, newest first.
func (h *ProfileHandler) ListNotifications(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Notification
	if err := query.Order("id desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pg.Meta(total),
	})
}

// Address endpoints

// ListAddresses returns user addresses.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	addresses, err := h.addresses.List(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, addresses)
}

// CreateAddress stores an address and makes it the default.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req services.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	address, err := h.addresses.Add(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": address})
}

// UpdateAddress edits an owned address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	addrID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req services.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	address, err := h.addresses.Edit(c.UserContext(), userID, addrID, req)
	if err != nil {
		return mapError(err)
	}
	return success(c, address)
}

// SetDefaultAddress makes one address the default.
func (h *ProfileHandler) SetDefaultAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	addrID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.addresses.SetDefault(c.UserContext(), userID, addrID); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "default address updated"})
}

// DeleteAddress removes a user address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	addrID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.addresses.Delete(c.UserContext(), userID, addrID); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "address deleted"})
}
