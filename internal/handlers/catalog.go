package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sdpublication/internal/services"
)

// CatalogHandler serves storefront listings.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Homepage returns every landing page shelf.
func (h *CatalogHandler) Homepage(c *fiber.Ctx) error {
	page, err := h.catalog.Homepage(c.UserContext(), optionalUser(c))
	if err != nil {
		return mapError(err)
	}
	return success(c, page)
}

// ListBooks lists ebooks by ?type=latest|best-seller|editor.
func (h *CatalogHandler) ListBooks(c *fiber.Ctx) error {
	books, err := h.catalog.Books(c.UserContext(), optionalUser(c), c.Query("type"))
	if err != nil {
		return mapError(err)
	}
	return success(c, books)
}

// Search matches ?q= (or ?search=) against ebook text fields.
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	term := c.Query("q", c.Query("search"))
	books, err := h.catalog.Search(c.UserContext(), optionalUser(c), term)
	if err != nil {
		return mapError(err)
	}
	return success(c, books)
}

// GetBook returns the book detail page.
func (h *CatalogHandler) GetBook(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.catalog.BookDetail(c.UserContext(), optionalUser(c), id)
	if err != nil {
		return mapError(err)
	}
	return success(c, detail)
}

// ListBestSellers returns every ebook ordered by purchases.
func (h *CatalogHandler) ListBestSellers(c *fiber.Ctx) error {
	books, err := h.catalog.BestSellers(c.UserContext(), optionalUser(c), 0)
	if err != nil {
		return mapError(err)
	}
	return success(c, books)
}

// ListEditorsChoice returns the editor picks.
func (h *CatalogHandler) ListEditorsChoice(c *fiber.Ctx) error {
	books, err := h.catalog.EditorsChoice(c.UserContext(), 0)
	if err != nil {
		return mapError(err)
	}
	return success(c, books)
}

// ListCategories returns all ebook categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return success(c, categories)
}

// GetCategory returns a category with its ebooks.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	category, err := h.catalog.Category(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return success(c, category)
}

// ListCategoryBooks returns a category shelf decorated with wishlist flags.
func (h *CatalogHandler) ListCategoryBooks(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	books, err := h.catalog.ByCategory(c.UserContext(), optionalUser(c), id, 0)
	if err != nil {
		return mapError(err)
	}
	return success(c, books)
}

// GetBlog returns a blog, or its neighbour with ?path=prev|next.
func (h *CatalogHandler) GetBlog(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.catalog.Blog(c.UserContext(), id, c.Query("path"))
	if err != nil {
		return mapError(err)
	}
	return success(c, view)
}
