package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sdpublication/internal/models"
)

const (
	maxOption           = 4
	landingTestCategory = 1
)

// NormalizeAnswer turns a submitted option into its stored form. An empty
// answer means "no option selected" and is stored as 0.
func NormalizeAnswer(answer string) (int, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0, nil
	}
	option, err := strconv.Atoi(answer)
	if err != nil || option < 0 || option > maxOption {
		return 0, invalid("option must be a number between 0 and 4")
	}
	return option, nil
}

// AnswerSubmission is one answer sent while taking a test.
type AnswerSubmission struct {
	TestID     uint
	QuestionID uint
	UserID     uint
	Answer     string
	Type       string
}

// QuizService tracks test attempts and answers.
type QuizService struct {
	db *gorm.DB
}

// NewQuizService constructs QuizService.
func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{db: db}
}

// SubmitAnswer records the latest answer of a user to a question and returns
// the test's questions decorated with that user's answers. Each
// (user, question) pair has exactly one stored row.
func (s *QuizService) SubmitAnswer(ctx context.Context, in AnswerSubmission) ([]models.QuestionWithAnswer, error) {
	option, err := NormalizeAnswer(in.Answer)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var question models.Question
	if err := db.First(&question, in.QuestionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("question")
		}
		return nil, err
	}
	if in.TestID != 0 && question.TestID != in.TestID {
		return nil, invalid("question does not belong to this test")
	}

	given := models.TestGiven{
		TestID:     question.TestID,
		QuestionID: question.ID,
		UserID:     in.UserID,
		AnswerID:   option,
		Type:       in.Type,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_id", "type", "test_id", "updated_at"}),
	}).Create(&given).Error
	if err != nil {
		return nil, err
	}

	return s.Questions(ctx, question.TestID, in.UserID)
}

// Questions lists a test's questions with the answers userID gave.
func (s *QuizService) Questions(ctx context.Context, testID, userID uint) ([]models.QuestionWithAnswer, error) {
	var questions []models.QuestionWithAnswer
	err := s.db.WithContext(ctx).
		Table("questions").
		Select("questions.*, test_given.type AS type, test_given.answer_id AS answer").
		Joins("LEFT JOIN test_given ON test_given.question_id = questions.id AND test_given.user_id = ?", userID).
		Where("questions.test_id = ?", testID).
		Order("questions.id ASC").
		Scan(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// StartTest records a new attempt. A zero startedAt means now.
func (s *QuizService) StartTest(ctx context.Context, userID, testID uint, startedAt time.Time) (*models.TestTiming, error) {
	db := s.db.WithContext(ctx)
	if _, err := findTest(db, testID); err != nil {
		return nil, err
	}
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	attempt := models.TestTiming{UserID: userID, TestID: testID, StartTime: startedAt}
	if err := db.Create(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// TestSheet is the test page payload.
type TestSheet struct {
	Test      models.Test                 `json:"data"`
	Questions []models.QuestionWithAnswer `json:"questions"`
	User      models.User                 `json:"user"`
}

// TestSheet loads a test with the caller's answers.
func (s *QuizService) TestSheet(ctx context.Context, testID, userID uint) (*TestSheet, error) {
	db := s.db.WithContext(ctx)
	test, err := findTest(db, testID)
	if err != nil {
		return nil, err
	}

	questions, err := s.Questions(ctx, testID, userID)
	if err != nil {
		return nil, err
	}

	sheet := &TestSheet{Test: *test, Questions: questions}
	if err := db.First(&sheet.User, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, err
	}
	return sheet, nil
}

// History lists the user's attempts, newest first.
func (s *QuizService) History(ctx context.Context, userID uint) ([]models.TestAttempt, error) {
	var attempts []models.TestAttempt
	err := s.db.WithContext(ctx).
		Table("test_timing").
		Select("test_timing.*, tests.title AS test_title, tests.total_timing AS total_timing").
		Joins("JOIN tests ON tests.id = test_timing.test_id").
		Where("test_timing.user_id = ?", userID).
		Order("test_timing.start_time DESC, test_timing.id DESC").
		Scan(&attempts).Error
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, notFound("test history")
	}
	return attempts, nil
}

// MockCategories lists the top level of the mock-test taxonomy.
func (s *QuizService) MockCategories(ctx context.Context) ([]models.MockTestCategory, error) {
	var categories []models.MockTestCategory
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Sections lists the sections of a mock category.
func (s *QuizService) Sections(ctx context.Context, mockCategoryID uint) ([]models.MockTestSection, error) {
	var sections []models.MockTestSection
	if err := s.db.WithContext(ctx).Where("mock_test_category_id = ?", mockCategoryID).Order("id ASC").Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

// TestCategories lists the test categories of a section.
func (s *QuizService) TestCategories(ctx context.Context, sectionID uint) ([]models.TestCategory, error) {
	var categories []models.TestCategory
	if err := s.db.WithContext(ctx).Where("section_id = ?", sectionID).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Tests lists the tests of a test category, newest first.
func (s *QuizService) Tests(ctx context.Context, testCategoryID uint) ([]models.Test, error) {
	var tests []models.Test
	if err := s.db.WithContext(ctx).Where("test_category_id = ?", testCategoryID).Order("id DESC").Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

// Landing is the mock-test landing page payload.
type Landing struct {
	Tests      []models.Test             `json:"testData"`
	Categories []models.MockTestCategory `json:"categories"`
}

// Landing loads the featured tests and the mock categories.
func (s *QuizService) Landing(ctx context.Context) (*Landing, error) {
	tests, err := s.Tests(ctx, landingTestCategory)
	if err != nil {
		return nil, err
	}
	categories, err := s.MockCategories(ctx)
	if err != nil {
		return nil, err
	}
	return &Landing{Tests: tests, Categories: categories}, nil
}

func findTest(db *gorm.DB, testID uint) (*models.Test, error) {
	var test models.Test
	if err := db.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("test")
		}
		return nil, err
	}
	return &test, nil
}
