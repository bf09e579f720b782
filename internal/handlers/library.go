package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sdpublication/internal/services"
)

// LibraryHandler serves the reading shelf.
type LibraryHandler struct {
	library *services.LibraryService
}

// NewLibraryHandler constructs LibraryHandler.
func NewLibraryHandler(library *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// GetLibrary lists opened ebooks with reading progress.
func (h *LibraryHandler) GetLibrary(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	entries, err := h.library.Library(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, entries)
}

// AddToLibrary puts an ebook on the shelf.
func (h *LibraryHandler) AddToLibrary(c *fiber.Ctx) error {
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

	if err := h.library.AddToLibrary(c.UserContext(), userID, req.EbookID); err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "added to library"})
}

type progressRequest struct {
	PageNo *int `json:"page_no"`
}

// UpdateProgress stores the last page read.
func (h *LibraryHandler) UpdateProgress(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ebookID, err := paramID(c, "ebookId")
	if err != nil {
		return err
	}

	var req progressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.PageNo == nil {
		return fiber.NewError(fiber.StatusBadRequest, "page_no is required")
	}

	if err := h.library.UpdateProgress(c.UserContext(), userID, ebookID, *req.PageNo); err != nil {
		return mapError(err)
	}
	return success(c, fiber.Map{"ebook_id": ebookID, "page_no": *req.PageNo})
}

// ReadEbook returns the ebook with the caller's ownership flag.
func (h *LibraryHandler) ReadEbook(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ebookID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.library.ViewEbook(c.UserContext(), userID, ebookID)
	if err != nil {
		return mapError(err)
	}
	return success(c, view)
}
