package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
)

// Mock test categories

func validateMockCategory(item *models.MockTestCategory) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category_name is required")
	}
	return nil
}

func (h *AdminHandler) ListMockCategories(c *fiber.Ctx) error {
	return listSimple[models.MockTestCategory](c, h.db)
}

func (h *AdminHandler) CreateMockCategory(c *fiber.Ctx) error {
	return createSimple(c, h.db, validateMockCategory)
}

func (h *AdminHandler) UpdateMockCategory(c *fiber.Ctx) error {
	return updateSimple(c, h.db, "mock test category", validateMockCategory)
}

func (h *AdminHandler) DeleteMockCategory(c *fiber.Ctx) error {
	return deleteSimple[models.MockTestCategory](c, h.db, "mock test category")
}

// Sections

type sectionForm struct {
	Name               string `json:"category_name" form:"category_name"`
	MockTestCategoryID uint   `json:"mock_test_id" form:"mock_test_id"`
}

func (h *AdminHandler) ListSections(c *fiber.Ctx) error {
	return listSimple[models.MockTestSection](c, h.db)
}

// CreateSection stores a section with its img upload.
func (h *AdminHandler) CreateSection(c *fiber.Ctx) error {
	var form sectionForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	db := h.db.WithContext(c.UserContext())
	if err := validateSection(db, form); err != nil {
		return err
	}

	uploads := h.uploads()
	image, err := uploads.save(c, "img", services.ImageExtensions)
	if err != nil {
		return err
	}

	section := models.MockTestSection{
		Name:               strings.TrimSpace(form.Name),
		MockTestCategoryID: form.MockTestCategoryID,
		Image:              image,
	}
	if err := db.Create(&section).Error; err != nil {
		uploads.discard()
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": section})
}

// UpdateSection edits a section and replaces its image when one is sent.
func (h *AdminHandler) UpdateSection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var section models.MockTestSection
	if err := db.First(&section, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "section not found")
		}
		return err
	}

	var form sectionForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateSection(db, form); err != nil {
		return err
	}
	section.Name = strings.TrimSpace(form.Name)
	section.MockTestCategoryID = form.MockTestCategoryID

	uploads := h.uploads()
	previous, err := uploads.replace(c, "img", services.ImageExtensions, &section.Image)
	if err != nil {
		return err
	}

	if err := db.Save(&section).Error; err != nil {
		uploads.discard()
		return err
	}
	h.removeFiles(previous)

	return success(c, section)
}

func (h *AdminHandler) DeleteSection(c *fiber.Ctx) error {
	return deleteSimple[models.MockTestSection](c, h.db, "section")
}

func validateSection(db *gorm.DB, form sectionForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category_name is required")
	}
	return requireRow(db, &models.MockTestCategory{}, form.MockTestCategoryID, "unknown mock test category")
}

// Test categories

func (h *AdminHandler) ListTestCategories(c *fiber.Ctx) error {
	return listSimple[models.TestCategory](c, h.db)
}

func (h *AdminHandler) CreateTestCategory(c *fiber.Ctx) error {
	return createSimple(c, h.db, h.validateTestCategory)
}

func (h *AdminHandler) UpdateTestCategory(c *fiber.Ctx) error {
	return updateSimple(c, h.db, "test category", h.validateTestCategory)
}

func (h *AdminHandler) DeleteTestCategory(c *fiber.Ctx) error {
	return deleteSimple[models.TestCategory](c, h.db, "test category")
}

func (h *AdminHandler) validateTestCategory(item *models.TestCategory) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category_name is required")
	}
	return requireRow(h.db, &models.MockTestSection{}, item.SectionID, "unknown section")
}

// Tests

type testForm struct {
	Title          string  `json:"test_title" form:"test_title"`
	TotalTiming    int     `json:"total_timing" form:"total_timing"`
	Price          float64 `json:"price" form:"price"`
	TestCategoryID uint    `json:"test_category" form:"test_category"`
	SectionID      uint    `json:"mock_test_category2_id" form:"mock_test_category2_id"`
}

func (f testForm) apply(t *models.Test) {
	t.Title = strings.TrimSpace(f.Title)
	t.TotalTiming = f.TotalTiming
	t.Price = f.Price
	t.TestCategoryID = f.TestCategoryID
	t.SectionID = f.SectionID
}

func validateTest(db *gorm.DB, t *models.Test) error {
	if t.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "test_title is required")
	}
	if t.TotalTiming <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "total_timing must be positive")
	}
	if t.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	}
	return requireRow(db, &models.TestCategory{}, t.TestCategoryID, "unknown test category")
}

func (h *AdminHandler) ListTests(c *fiber.Ctx) error {
	return listSimple[models.Test](c, h.db)
}

// CreateTest stores a test with its img upload.
func (h *AdminHandler) CreateTest(c *fiber.Ctx) error {
	var form testForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	db := h.db.WithContext(c.UserContext())
	var test models.Test
	form.apply(&test)
	if err := validateTest(db, &test); err != nil {
		return err
	}

	uploads := h.uploads()
	image, err := uploads.save(c, "img", services.ImageExtensions)
	if err != nil {
		return err
	}
	test.Image = image

	if err := db.Create(&test).Error; err != nil {
		uploads.discard()
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": test})
}

// UpdateTest edits a test and replaces its image when one is sent.
func (h *AdminHandler) UpdateTest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var test models.Test
	if err := db.First(&test, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "test not found")
		}
		return err
	}

	var form testForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	form.apply(&test)
	if err := validateTest(db, &test); err != nil {
		return err
	}

	uploads := h.uploads()
	previous, err := uploads.replace(c, "img", services.ImageExtensions, &test.Image)
	if err != nil {
		return err
	}

	if err := db.Save(&test).Error; err != nil {
		uploads.discard()
		return err
	}
	h.removeFiles(previous)

	return success(c, test)
}

func (h *AdminHandler) DeleteTest(c *fiber.Ctx) error {
	return deleteSimple[models.Test](c, h.db, "test")
}

// Questions

func (h *AdminHandler) validateQuestion(item *models.Question) error {
	if strings.TrimSpace(item.QuestionEnglish) == "" && strings.TrimSpace(item.QuestionHindi) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "question text is required")
	}
	if item.CorrectAnswer < 1 || item.CorrectAnswer > 4 {
		return fiber.NewError(fiber.StatusBadRequest, "correct_ans must be between 1 and 4")
	}
	if item.Positive < 0 || item.Negative < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "marks must not be negative")
	}
	return requireRow(h.db, &models.Test{}, item.TestID, "unknown test")
}

// ListQuestions lists the questions of ?test_id=, or every question.
func (h *AdminHandler) ListQuestions(c *fiber.Ctx) error {
	if testID := c.Query("test_id"); testID != "" {
		var questions []models.Question
		if err := h.db.WithContext(c.UserContext()).
			Where("test_id = ?", testID).
			Order("id asc").
			Find(&questions).Error; err != nil {
			return err
		}
		return success(c, questions)
	}
	return listSimple[models.Question](c, h.db)
}

func (h *AdminHandler) GetQuestion(c *fiber.Ctx) error {
	return getSimple[models.Question](c, h.db, "question")
}

func (h *AdminHandler) CreateQuestion(c *fiber.Ctx) error {
	return createSimple(c, h.db, h.validateQuestion)
}

func (h *AdminHandler) UpdateQuestion(c *fiber.Ctx) error {
	return updateSimple(c, h.db, "question", h.validateQuestion)
}

func (h *AdminHandler) DeleteQuestion(c *fiber.Ctx) error {
	return deleteSimple[models.Question](c, h.db, "question")
}

func requireRow(db *gorm.DB, model interface{}, id uint, message string) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusBadRequest, message)
	}
	return nil
}
