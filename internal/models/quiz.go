package models

import "time"

// MockTestCategory is the top level of the mock-test taxonomy.
type MockTestCategory struct {
	BaseModel
	Name string `json:"category_name"`
}

// MockTestSection groups test categories under a mock category.
type MockTestSection struct {
	BaseModel
	Name               string `json:"category_name"`
	MockTestCategoryID uint   `gorm:"index" json:"mock_test_id"`
	Image              string `json:"img"`
}

type TestCategory struct {
	BaseModel
	Name      string `json:"category_name"`
	SectionID uint   `gorm:"index" json:"mock_test_category2_id"`
}

type Test struct {
	BaseModel
	Title          string  `json:"test_title"`
	TotalTiming    int     `json:"total_timing"`
	Price          float64 `json:"price"`
	TestCategoryID uint    `gorm:"index" json:"test_category"`
	SectionID      uint    `gorm:"index" json:"mock_test_category2_id"`
	Image          string  `json:"img"`
}

type Question struct {
	BaseModel
	TestID          uint    `gorm:"index" json:"test_id"`
	QuestionHindi   string  `json:"question_hindi"`
	QuestionEnglish string  `json:"question_english"`
	Opt1Hindi       string  `json:"opt1_hindi"`
	Opt1English     string  `json:"opt1_eng"`
	Opt2Hindi       string  `json:"opt2_hindi"`
	Opt2English     string  `json:"opt2_eng"`
	Opt3Hindi       string  `json:"opt3_hindi"`
	Opt3English     string  `json:"opt3_eng"`
	Opt4Hindi       string  `json:"opt4_hindi"`
	Opt4English     string  `json:"opt4_eng"`
	CorrectAnswer   int     `json:"correct_ans"`
	Positive        float64 `json:"positive"`
	Negative        float64 `json:"negative"`
}

// TestGiven is a user's answer to one question. There is exactly one row per
// (user_id, question_id); AnswerID 0 means no option selected.
type TestGiven struct {
	BaseModel
	TestID     uint   `gorm:"index" json:"test_id"`
	QuestionID uint   `gorm:"not null;uniqueIndex:idx_given_user_question" json:"question_id"`
	UserID     uint   `gorm:"not null;uniqueIndex:idx_given_user_question" json:"user_id"`
	AnswerID   int    `json:"ans_id"`
	Type       string `gorm:"size:32" json:"type"`
}

// TableName keeps the historical table name.
func (TestGiven) TableName() string {
	return "test_given"
}

// TestTiming is one attempt of a test. Retakes produce additional rows.
type TestTiming struct {
	BaseModel
	UserID    uint      `gorm:"index" json:"user_id"`
	TestID    uint      `gorm:"index" json:"test_id"`
	StartTime time.Time `json:"start_time"`
}

// TableName keeps the historical table name.
func (TestTiming) TableName() string {
	return "test_timing"
}

// QuestionWithAnswer is a question decorated with the caller's stored answer.
type QuestionWithAnswer struct {
	Question
	Type   *string `json:"type"`
	Answer *int    `json:"ans"`
}

// TestAttempt is a TestTiming row joined with its test title.
type TestAttempt struct {
	TestTiming
	TestTitle   string `json:"test_title"`
	TotalTiming int    `json:"total_timing"`
}
