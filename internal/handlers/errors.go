package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/middleware"
	"github.com/example/sdpublication/internal/services"
	"github.com/example/sdpublication/internal/utils"
)

// mapError turns service errors into fiber errors. Unknown errors pass
// through untouched and end up as a logged 500.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrAlreadyInCart):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.NewError(fiber.StatusConflict, "already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fiber.NewError(fiber.StatusConflict, "still referenced by other records")
	case errors.Is(err, services.ErrInvalidQuantityState), errors.Is(err, services.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

func requireUser(c *fiber.Ctx) (uint, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

// optionalUser returns 0 for anonymous callers.
func optionalUser(c *fiber.Ctx) uint {
	userID, _ := middleware.GetCurrentUserID(c)
	return userID
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, ok := utils.ParseID(c.Params(name))
	if !ok {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
