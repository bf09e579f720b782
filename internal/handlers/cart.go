package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sdpublication/internal/services"
)

// CartHandler manages cart, wishlist and checkout endpoints.
type CartHandler struct {
	cart     *services.CartService
	wishlist *services.WishlistService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(cart *services.CartService, wishlist *services.WishlistService) *CartHandler {
	return &CartHandler{cart: cart, wishlist: wishlist}
}

type ebookRequest struct {
	EbookID uint `json:"ebook_id"`
}

// GetCart returns the cart with recommendations.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	view, err := h.cart.Items(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, view)
}

// AddToCart adds an ebook with quantity 1.
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req ebookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.EbookID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "ebook_id is required")
	}

	item, err := h.cart.Add(c.UserContext(), userID, req.EbookID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

type quantityRequest struct {
	State string `json:"state"`
}

// UpdateQuantity applies a "min" or "plus" step to a cart line.
func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.cart.UpdateQuantity(c.UserContext(), userID, cartID, req.State)
	if err != nil {
		return mapError(err)
	}
	return success(c, fiber.Map{"id": item.ID, "qty": item.Quantity})
}

// RemoveFromCart deletes a cart line.
func (h *CartHandler) RemoveFromCart(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.cart.Remove(c.UserContext(), userID, cartID); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "item removed from cart"})
}

// CartSummary recomputes cart prices.
func (h *CartHandler) CartSummary(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	summary, err := h.cart.Summary(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, summary)
}

// Checkout returns cart, recommendations, addresses and totals.
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	view, err := h.cart.Checkout(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, view)
}

// Wishlist endpoints

func (h *CartHandler) GetWishlist(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	items, err := h.wishlist.List(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, items)
}

func (h *CartHandler) AddToWishlist(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req ebookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.EbookID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "ebook_id is required")
	}

	if err := h.wishlist.Add(c.UserContext(), userID, req.EbookID); err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "added to wishlist"})
}

func (h *CartHandler) RemoveFromWishlist(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ebookID, err := paramID(c, "ebookId")
	if err != nil {
		return err
	}

	if err := h.wishlist.Remove(c.UserContext(), userID, ebookID); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "removed from wishlist"})
}
