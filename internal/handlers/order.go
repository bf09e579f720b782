package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sdpublication/internal/services"
)

// OrderHandler manages orders and payment reports.
type OrderHandler struct {
	library *services.LibraryService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(library *services.LibraryService) *OrderHandler {
	return &OrderHandler{library: library}
}

// ListOrders returns orders for authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	orders, err := h.library.Orders(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, orders)
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.library.Order(c.UserContext(), userID, id)
	if err != nil {
		return mapError(err)
	}
	return success(c, order)
}

// RecordPayment stores the gateway outcome the client reports after checkout.
// The report is kept for reconciliation; access is granted by the webhook.
func (h *OrderHandler) RecordPayment(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req services.PaymentInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.UserID = userID
	req.Verified = false

	return h.recordPayment(c, req)
}

// PaymentWebhook stores a gateway outcome pushed by the payment provider.
func (h *OrderHandler) PaymentWebhook(c *fiber.Ctx) error {
	var req services.PaymentInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Verified = true

	return h.recordPayment(c, req)
}

func (h *OrderHandler) recordPayment(c *fiber.Ctx, req services.PaymentInput) error {
	if req.EbookID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "ebook_id is required")
	}

	result, err := h.library.RecordPayment(c.UserContext(), req)
	if err != nil {
		return mapError(err)
	}

	status := fiber.StatusOK
	if result.Order != nil {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"success": true, "data": result})
}
