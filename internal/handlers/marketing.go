package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/models"
)

// MarketingHandler serves public banners, blogs, videos and the footer.
type MarketingHandler struct {
	db *gorm.DB
}

// NewMarketingHandler constructs MarketingHandler.
func NewMarketingHandler(db *gorm.DB) *MarketingHandler {
	return &MarketingHandler{db: db}
}

// ListBanners returns banners, optionally filtered by ?type=desktop|mobile.
func (h *MarketingHandler) ListBanners(c *fiber.Ctx) error {
	query := h.db.WithContext(c.UserContext()).Order("id desc")
	if kind := c.Query("type"); kind != "" {
		query = query.Where("type = ?", kind)
	}

	var items []models.Banner
	if err := query.Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *MarketingHandler) ListBlogs(c *fiber.Ctx) error {
	var items []models.Blog
	if err := h.db.WithContext(c.UserContext()).Order("id desc").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *MarketingHandler) ListVideos(c *fiber.Ctx) error {
	var items []models.Video
	if err := h.db.WithContext(c.UserContext()).Order("id desc").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// Footer returns active footer links grouped by column.
func (h *MarketingHandler) Footer(c *fiber.Ctx) error {
	var links []models.FooterLink
	if err := h.db.WithContext(c.UserContext()).
		Where("status = ?", models.StatusActive).
		Order("id asc").
		Find(&links).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": GroupFooterLinks(links)})
}

// FooterColumn is one footer column with its links in insertion order.
type FooterColumn struct {
	Column string              `json:"footer_column"`
	Links  []models.FooterLink `json:"links"`
}

// GroupFooterLinks groups links by column, keeping the order in which columns first appear.
func GroupFooterLinks(links []models.FooterLink) []FooterColumn {
	columns := []FooterColumn{}
	index := map[string]int{}
	for _, link := range links {
		i, ok := index[link.Column]
		if !ok {
			i = len(columns)
			index[link.Column] = i
			columns = append(columns, FooterColumn{Column: link.Column})
		}
		columns[i].Links = append(columns[i].Links, link)
	}
	return columns
}
