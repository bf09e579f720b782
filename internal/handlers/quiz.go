package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sdpublication/internal/services"
)

// QuizHandler serves the mock-test taxonomy and test taking.
type QuizHandler struct {
	quiz *services.QuizService
}

// NewQuizHandler constructs QuizHandler.
func NewQuizHandler(quiz *services.QuizService) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

func (h *QuizHandler) ListMockCategories(c *fiber.Ctx) error {
	categories, err := h.quiz.MockCategories(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return success(c, categories)
}

func (h *QuizHandler) ListSections(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	sections, err := h.quiz.Sections(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return success(c, sections)
}

func (h *QuizHandler) ListTestCategories(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	categories, err := h.quiz.TestCategories(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return success(c, categories)
}

func (h *QuizHandler) ListTests(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	tests, err := h.quiz.Tests(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return success(c, tests)
}

// Landing returns featured tests and mock categories.
func (h *QuizHandler) Landing(c *fiber.Ctx) error {
	landing, err := h.quiz.Landing(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return success(c, landing)
}

type startTestRequest struct {
	StartTime *time.Time `json:"start_time"`
}

// StartTest records a new attempt.
func (h *QuizHandler) StartTest(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	testID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req startTestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	var startedAt time.Time
	if req.StartTime != nil {
		startedAt = *req.StartTime
	}

	attempt, err := h.quiz.StartTest(c.UserContext(), userID, testID, startedAt)
	if err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": attempt})
}

// GetTest returns the test sheet with the caller's answers.
func (h *QuizHandler) GetTest(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	testID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	sheet, err := h.quiz.TestSheet(c.UserContext(), testID, userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, sheet)
}

// GetQuestions returns the test's questions with the caller's answers.
func (h *QuizHandler) GetQuestions(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	testID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	questions, err := h.quiz.Questions(c.UserContext(), testID, userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, questions)
}

// optionValue accepts an option sent either as a JSON string or a number.
type optionValue string

func (o *optionValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = optionValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*o = optionValue(n.String())
	return nil
}

type submitAnswerRequest struct {
	QuestionID uint        `json:"question_id"`
	Option     optionValue `json:"option"`
	Type       string      `json:"type"`
}

// SubmitAnswer stores the caller's latest answer to one question.
func (h *QuizHandler) SubmitAnswer(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	testID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req submitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.QuestionID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "question_id is required")
	}

	questions, err := h.quiz.SubmitAnswer(c.UserContext(), services.AnswerSubmission{
		TestID:     testID,
		QuestionID: req.QuestionID,
		UserID:     userID,
		Answer:     string(req.Option),
		Type:       req.Type,
	})
	if err != nil {
		return mapError(err)
	}
	return success(c, fiber.Map{"questions": questions, "question_id": req.QuestionID})
}

// History lists the caller's attempts.
func (h *QuizHandler) History(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	attempts, err := h.quiz.History(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return success(c, attempts)
}
