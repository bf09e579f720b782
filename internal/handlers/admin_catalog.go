package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
)

// Ebooks

type ebookForm struct {
	Name                  string  `json:"ebook_name" form:"ebook_name"`
	Info                  string  `json:"ebook_info" form:"ebook_info"`
	Overview              string  `json:"ebook_overview" form:"ebook_overview"`
	CategoryID            uint    `json:"ebook_cate" form:"ebook_cate"`
	Author                string  `json:"author" form:"author"`
	EditorPick            bool    `json:"editor_pick" form:"editor_pick"`
	EbookPrice            float64 `json:"ebook_price" form:"ebook_price"`
	PhysicalPrice         float64 `json:"physical_price" form:"physical_price"`
	PhysicalPriceDiscount float64 `json:"physical_price_discount" form:"physical_price_discount"`
	EbookPriceDiscount    float64 `json:"ebook_price_discount" form:"ebook_price_discount"`
	OffPrice              float64 `json:"off_price" form:"off_price"`
	ShippingCharge        float64 `json:"shipping_charge" form:"shipping_charge"`
}

func (f ebookForm) apply(e *models.Ebook) {
	e.Name = strings.TrimSpace(f.Name)
	e.Info = f.Info
	e.Overview = f.Overview
	e.CategoryID = f.CategoryID
	e.Author = f.Author
	e.EditorPick = f.EditorPick
	e.EbookPrice = f.EbookPrice
	e.PhysicalPrice = f.PhysicalPrice
	e.PhysicalPriceDiscount = f.PhysicalPriceDiscount
	e.EbookPriceDiscount = f.EbookPriceDiscount
	e.OffPrice = f.OffPrice
	e.ShippingCharge = f.ShippingCharge
}

func (h *AdminHandler) validateEbook(db *gorm.DB, e *models.Ebook) error {
	if e.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "ebook_name is required")
	}
	if e.EbookPrice < 0 || e.PhysicalPrice < 0 || e.EbookPriceDiscount < 0 ||
		e.PhysicalPriceDiscount < 0 || e.ShippingCharge < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "prices must not be negative")
	}
	var count int64
	if err := db.Model(&models.EbookCategory{}).Where("id = ?", e.CategoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "unknown ebook category")
	}
	return nil
}

// ListEbooks returns ebooks with pagination.
func (h *AdminHandler) ListEbooks(c *fiber.Ctx) error {
	return listSimple[models.Ebook](c, h.db)
}

func (h *AdminHandler) GetEbook(c *fiber.Ctx) error {
	return getSimple[models.Ebook](c, h.db, "ebook")
}

// CreateEbook stores an ebook with its cover (pdf_image) and the english and hindi PDFs.
func (h *AdminHandler) CreateEbook(c *fiber.Ctx) error {
	var form ebookForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	db := h.db.WithContext(c.UserContext())
	var ebook models.Ebook
	form.apply(&ebook)
	if err := h.validateEbook(db, &ebook); err != nil {
		return err
	}

	uploads := h.uploads()
	var err error
	if ebook.CoverImage, err = uploads.save(c, "pdf_image", services.ImageExtensions); err != nil {
		uploads.discard()
		return err
	}
	if ebook.EnglishFile, err = uploads.save(c, "eng_file", services.PDFExtensions); err != nil {
		uploads.discard()
		return err
	}
	if ebook.HindiFile, err = uploads.save(c, "hin_file", services.PDFExtensions); err != nil {
		uploads.discard()
		return err
	}

	if err := db.Create(&ebook).Error; err != nil {
		uploads.discard()
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": ebook})
}

// UpdateEbook edits an ebook and replaces whichever files are sent.
func (h *AdminHandler) UpdateEbook(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var ebook models.Ebook
	if err := db.First(&ebook, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "ebook not found")
		}
		return err
	}

	var form ebookForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	form.apply(&ebook)
	if err := h.validateEbook(db, &ebook); err != nil {
		return err
	}

	uploads := h.uploads()
	var replaced []string
	for _, f := range []struct {
		field   string
		allowed []string
		target  *string
	}{
		{"pdf_image", services.ImageExtensions, &ebook.CoverImage},
		{"eng_file", services.PDFExtensions, &ebook.EnglishFile},
		{"hin_file", services.PDFExtensions, &ebook.HindiFile},
	} {
		previous, err := uploads.replace(c, f.field, f.allowed, f.target)
		if err != nil {
			uploads.discard()
			return err
		}
		replaced = append(replaced, previous)
	}

	if err := db.Save(&ebook).Error; err != nil {
		uploads.discard()
		return mapError(err)
	}
	h.removeFiles(replaced...)

	return success(c, ebook)
}

// DeleteEbook removes an ebook and its files. Cart and wishlist rows are kept.
func (h *AdminHandler) DeleteEbook(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var ebook models.Ebook
	if err := db.First(&ebook, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "ebook not found")
		}
		return err
	}
	if err := db.Delete(&ebook).Error; err != nil {
		return mapError(err)
	}
	h.removeFiles(ebook.CoverImage, ebook.EnglishFile, ebook.HindiFile)

	return c.SendStatus(fiber.StatusNoContent)
}

// Ebook categories

func validateEbookCategory(item *models.EbookCategory) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category_name is required")
	}
	return nil
}

func (h *AdminHandler) ListEbookCategories(c *fiber.Ctx) error {
	return listSimple[models.EbookCategory](c, h.db)
}

func (h *AdminHandler) CreateEbookCategory(c *fiber.Ctx) error {
	return createSimple(c, h.db, validateEbookCategory)
}

func (h *AdminHandler) UpdateEbookCategory(c *fiber.Ctx) error {
	return updateSimple(c, h.db, "category", validateEbookCategory)
}

func (h *AdminHandler) DeleteEbookCategory(c *fiber.Ctx) error {
	return deleteSimple[models.EbookCategory](c, h.db, "category")
}

// Blogs

type blogForm struct {
	Title       string `json:"title" form:"title"`
	PublishedBy string `json:"published_by" form:"published_by"`
	Description string `json:"description" form:"description"`
}

func (h *AdminHandler) ListBlogs(c *fiber.Ctx) error {
	return listSimple[models.Blog](c, h.db)
}

// CreateBlog stores a blog with its blog_image upload.
func (h *AdminHandler) CreateBlog(c *fiber.Ctx) error {
	var form blogForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(form.Title) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}

	uploads := h.uploads()
	image, err := uploads.save(c, "blog_image", services.ImageExtensions)
	if err != nil {
		return err
	}

	blog := models.Blog{
		Image:       image,
		Title:       form.Title,
		PublishedBy: form.PublishedBy,
		Description: form.Description,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&blog).Error; err != nil {
		uploads.discard()
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": blog})
}

// UpdateBlog edits a blog and replaces its image when one is sent.
func (h *AdminHandler) UpdateBlog(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var blog models.Blog
	if err := db.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "blog not found")
		}
		return err
	}

	var form blogForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(form.Title) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}
	blog.Title = form.Title
	blog.PublishedBy = form.PublishedBy
	blog.Description = form.Description

	uploads := h.uploads()
	previous, err := uploads.replace(c, "blog_image", services.ImageExtensions, &blog.Image)
	if err != nil {
		return err
	}

	if err := db.Save(&blog).Error; err != nil {
		uploads.discard()
		return err
	}
	h.removeFiles(previous)

	return success(c, blog)
}

func (h *AdminHandler) DeleteBlog(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var blog models.Blog
	if err := db.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "blog not found")
		}
		return err
	}
	if err := db.Delete(&blog).Error; err != nil {
		return err
	}
	h.removeFiles(blog.Image)

	return c.SendStatus(fiber.StatusNoContent)
}

// Banners

type bannerForm struct {
	Type   string `json:"type" form:"type"`
	Status string `json:"status" form:"status"`
}

func (h *AdminHandler) ListBanners(c *fiber.Ctx) error {
	return listSimple[models.Banner](c, h.db)
}

// CreateBanner stores a banner_img upload as a desktop or mobile banner.
func (h *AdminHandler) CreateBanner(c *fiber.Ctx) error {
	var form bannerForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if form.Type == "" {
		form.Type = "desktop"
	}
	if form.Type != "desktop" && form.Type != "mobile" {
		return fiber.NewError(fiber.StatusBadRequest, "type must be desktop or mobile")
	}
	if form.Status == "" {
		form.Status = models.StatusActive
	}

	uploads := h.uploads()
	image, err := uploads.save(c, "banner_img", services.ImageExtensions)
	if err != nil {
		return err
	}
	if image == "" {
		return fiber.NewError(fiber.StatusBadRequest, "banner_img is required")
	}

	banner := models.Banner{Image: image, Type: form.Type, Status: form.Status}
	if err := h.db.WithContext(c.UserContext()).Create(&banner).Error; err != nil {
		uploads.discard()
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": banner})
}

func (h *AdminHandler) DeleteBanner(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var banner models.Banner
	if err := db.First(&banner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "banner not found")
		}
		return err
	}
	if err := db.Delete(&banner).Error; err != nil {
		return err
	}
	h.removeFiles(banner.Image)

	return c.SendStatus(fiber.StatusNoContent)
}

// Videos

func validateVideo(item *models.Video) error {
	if strings.TrimSpace(item.EmbedLink) == "" || strings.TrimSpace(item.Title) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "embed_link and title are required")
	}
	return nil
}

func (h *AdminHandler) ListVideos(c *fiber.Ctx) error {
	return listSimple[models.Video](c, h.db)
}

func (h *AdminHandler) CreateVideo(c *fiber.Ctx) error {
	return createSimple(c, h.db, validateVideo)
}

func (h *AdminHandler) UpdateVideo(c *fiber.Ctx) error {
	return updateSimple(c, h.db, "video", validateVideo)
}

func (h *AdminHandler) DeleteVideo(c *fiber.Ctx) error {
	return deleteSimple[models.Video](c, h.db, "video")
}

// SearchVideos matches ?q= against video titles.
func (h *AdminHandler) SearchVideos(c *fiber.Ctx) error {
	term := c.Query("q")
	if strings.TrimSpace(term) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "search term is required")
	}

	var videos []models.Video
	if err := h.db.WithContext(c.UserContext()).
		Where("LOWER(title) LIKE ?", services.SearchPattern(term)).
		Order("id desc").
		Find(&videos).Error; err != nil {
		return err
	}
	return success(c, videos)
}

// Footer links

func validateFooterLink(item *models.FooterLink) error {
	if strings.TrimSpace(item.Link) == "" || strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Column) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "footer_link, footer_name and footer_column are required")
	}
	if item.Status == "" {
		item.Status = models.StatusActive
	}
	if item.Status != models.StatusActive && item.Status != models.StatusInactive {
		return fiber.NewError(fiber.StatusBadRequest, "status must be active or inactive")
	}
	return nil
}

func (h *AdminHandler) ListFooterLinks(c *fiber.Ctx) error {
	return listSimple[models.FooterLink](c, h.db)
}

func (h *AdminHandler) CreateFooterLink(c *fiber.Ctx) error {
	return createSimple(c, h.db, validateFooterLink)
}

func (h *AdminHandler) UpdateFooterLink(c *fiber.Ctx) error {
	return updateSimple(c, h.db, "footer link", validateFooterLink)
}

func (h *AdminHandler) DeleteFooterLink(c *fiber.Ctx) error {
	return deleteSimple[models.FooterLink](c, h.db, "footer link")
}
