package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
	"github.com/example/sdpublication/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db      *gorm.DB
	storage *services.Storage
	exports *services.ExportService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, storage *services.Storage, exports *services.ExportService) *AdminHandler {
	return &AdminHandler{db: db, storage: storage, exports: exports}
}

// DashboardStats returns aggregate statistics and the latest orders.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	var totalEbooks int64
	if err := db.Model(&models.Ebook{}).Count(&totalEbooks).Error; err != nil {
		return err
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var recent []models.Order
	if err := db.Preload("User").Preload("Ebook").
		Order("id desc").
		Limit(10).
		Find(&recent).Error; err != nil {
		return err
	}

	return success(c, fiber.Map{
		"total_users":      totalUsers,
		"total_orders":     totalOrders,
		"total_ebooks":     totalEbooks,
		"total_revenue":    totalRevenue,
		"orders_by_status": ordersByStatus,
		"recent_orders":    recent,
	})
}

// ListAllOrders returns orders with pagination, optionally filtered by ?status=.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.Order{})

	if status := models.OrderStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("User").Preload("Ebook").
		Order("id desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateOrderStatus moves an order to another status.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req orderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !req.Status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
	}

	result := h.db.WithContext(c.UserContext()).Model(&models.Order{}).Where("id = ?", id).Update("status", req.Status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "order status updated"})
}

// ListAllUsers returns registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.User{})

	if search := c.Query("search"); search != "" {
		pattern := services.SearchPattern(search)
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("id desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       users,
		"pagination": pg.Meta(total),
	})
}

// ExportEbooks downloads the catalog as xlsx.
func (h *AdminHandler) ExportEbooks(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.exports.WriteEbooks(c.UserContext(), &buf); err != nil {
		return err
	}
	return sendXLSX(c, "ebooks", buf.Bytes())
}

// ExportOrders downloads orders as xlsx, optionally filtered by ?status=.
func (h *AdminHandler) ExportOrders(c *fiber.Ctx) error {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
	}

	var buf bytes.Buffer
	if err := h.exports.WriteOrders(c.UserContext(), &buf, status); err != nil {
		return err
	}
	return sendXLSX(c, "orders", buf.Bytes())
}

func sendXLSX(c *fiber.Ctx, name string, body []byte) error {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(body)
}

// Generic helpers for tables edited as plain JSON.

func listSimple[T any](c *fiber.Ctx, db *gorm.DB) error {
	pg := utils.ParsePagination(c)
	db = db.WithContext(c.UserContext())

	var total int64
	if err := db.Model(new(T)).Count(&total).Error; err != nil {
		return err
	}

	var items []T
	if err := db.Limit(pg.Limit).Offset(pg.Offset).Order("id desc").
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items, "pagination": pg.Meta(total)})
}

func getSimple[T any](c *fiber.Ctx, db *gorm.DB, entity string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var item T
	if err := db.WithContext(c.UserContext()).First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, entity+" not found")
		}
		return err
	}
	return success(c, item)
}

func createSimple[T any](c *fiber.Ctx, db *gorm.DB, validate func(*T) error) error {
	var item T
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if validate != nil {
		if err := validate(&item); err != nil {
			return err
		}
	}
	if err := db.WithContext(c.UserContext()).Omit(clause.Associations).Create(&item).Error; err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func updateSimple[T any](c *fiber.Ctx, db *gorm.DB, entity string, validate func(*T) error) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db = db.WithContext(c.UserContext())
	var item T
	if err := db.First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, entity+" not found")
		}
		return err
	}
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if validate != nil {
		if err := validate(&item); err != nil {
			return err
		}
	}

	if err := db.Model(new(T)).Where("id = ?", id).
		Select("*").Omit("id", "created_at", clause.Associations).
		Updates(&item).Error; err != nil {
		return mapError(err)
	}

	var updated T
	if err := db.First(&updated, id).Error; err != nil {
		return err
	}
	return success(c, updated)
}

func deleteSimple[T any](c *fiber.Ctx, db *gorm.DB, entity string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	result := db.WithContext(c.UserContext()).Delete(new(T), id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, entity+" not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// uploadSet collects the files stored while handling one request so they can
// be rolled back when the database write fails.
type uploadSet struct {
	storage *services.Storage
	saved   []string
}

// save stores the file sent as field, if any. It returns "" when the field is absent.
func (u *uploadSet) save(c *fiber.Ctx, field string, allowed []string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	name, err := u.storage.Save(file, allowed...)
	if err != nil {
		return "", mapError(err)
	}
	u.saved = append(u.saved, name)
	return name, nil
}

func (u *uploadSet) discard() {
	for _, name := range u.saved {
		_ = u.storage.Remove(name)
	}
}

// replace stores a new upload for field and swaps it into *current. The
// previous name is returned so it can be removed after the row is saved.
func (u *uploadSet) replace(c *fiber.Ctx, field string, allowed []string, current *string) (string, error) {
	name, err := u.save(c, field, allowed)
	if err != nil || name == "" {
		return "", err
	}
	previous := *current
	*current = name
	return previous, nil
}

func (h *AdminHandler) uploads() *uploadSet {
	return &uploadSet{storage: h.storage}
}

func (h *AdminHandler) removeFiles(names ...string) {
	for _, name := range names {
		_ = h.storage.Remove(name)
	}
}
