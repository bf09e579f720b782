package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sdpublication/internal/models"
)

// DefaultTotalPages is reported for every ebook in the library view.
const DefaultTotalPages = 100

// PurchaseNotifier is told about captured payments after they are committed.
type PurchaseNotifier interface {
	NotifyPurchase(ctx context.Context, purchase PurchaseNotification) error
}

// LibraryService covers orders, ownership and reading progress.
type LibraryService struct {
	db       *gorm.DB
	notifier PurchaseNotifier
}

// NewLibraryService constructs LibraryService. notifier may be nil.
func NewLibraryService(db *gorm.DB, notifier PurchaseNotifier) *LibraryService {
	return &LibraryService{db: db, notifier: notifier}
}

// Orders lists the user's orders with their ebooks, newest first.
func (s *LibraryService) Orders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Preload("Ebook").Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, notFound("orders")
	}
	return orders, nil
}

// Order loads one order owned by userID.
func (s *LibraryService) Order(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Ebook").Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order")
		}
		return nil, err
	}
	return &order, nil
}

// Library lists the ebooks the user has opened with their last page.
func (s *LibraryService) Library(ctx context.Context, userID uint) ([]models.LibraryEntry, error) {
	var entries []models.LibraryEntry
	err := s.db.WithContext(ctx).
		Table("read_progresses").
		Select("ebooks.*, read_progresses.page_no AS page_no, read_progresses.updated_at AS last_read_at").
		Joins("JOIN ebooks ON ebooks.id = read_progresses.ebook_id").
		Where("read_progresses.user_id = ?", userID).
		Order("read_progresses.updated_at DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].TotalPages = DefaultTotalPages
	}
	return entries, nil
}

// AddToLibrary puts an ebook on the user's shelf without touching existing progress.
func (s *LibraryService) AddToLibrary(ctx context.Context, userID, ebookID uint) error {
	db := s.db.WithContext(ctx)
	if _, err := ensureEbook(db, ebookID); err != nil {
		return err
	}

	progress := models.ReadProgress{UserID: userID, EbookID: ebookID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&progress).Error
}

// UpdateProgress stores the last page read; one row per (user, ebook).
func (s *LibraryService) UpdateProgress(ctx context.Context, userID, ebookID uint, page int) error {
	if page < 0 {
		return invalid("page_no must not be negative")
	}

	db := s.db.WithContext(ctx)
	if _, err := ensureEbook(db, ebookID); err != nil {
		return err
	}

	progress := models.ReadProgress{UserID: userID, EbookID: ebookID, PageNo: page}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "ebook_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"page_no", "updated_at"}),
	}).Create(&progress).Error
}

// EbookView is the reader payload.
type EbookView struct {
	Ebook     models.Ebook `json:"ebook"`
	Purchased bool         `json:"purchased"`
}

// ViewEbook loads an ebook with the caller's ownership flag. File paths are
// only returned to owners.
func (s *LibraryService) ViewEbook(ctx context.Context, userID, ebookID uint) (*EbookView, error) {
	db := s.db.WithContext(ctx)
	ebook, err := ensureEbook(db, ebookID)
	if err != nil {
		return nil, err
	}
	purchased, err := hasPurchased(db, userID, ebookID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		ebook.EnglishFile = ""
		ebook.HindiFile = ""
	}
	return &EbookView{Ebook: *ebook, Purchased: purchased}, nil
}

// PaymentInput is a gateway outcome reported for one ebook.
type PaymentInput struct {
	UserID        uint    `json:"user_id"`
	EbookID       uint    `json:"ebook_id"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	// Verified marks outcomes delivered by the authenticated gateway. Only
	// those may grant an ebook.
	Verified bool `json:"-"`
}

// PaymentResult reports what RecordPayment changed.
type PaymentResult struct {
	Transaction models.Transaction `json:"transaction"`
	Order       *models.Order      `json:"order,omitempty"`
	Purchased   bool               `json:"purchased"`
}

// RecordPayment stores a payment attempt. A verified captured payment grants
// the ebook, creates a completed order and bumps the purchase count, all in one
// transaction. Client reports and captures of an already owned ebook only
// record the attempt.
func (s *LibraryService) RecordPayment(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.UserID == 0 || in.TransactionID == "" || in.Status == "" {
		return nil, invalid("user_id, transaction_id and status are required")
	}

	result := &PaymentResult{}
	var ebook *models.Ebook
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if ebook, err = ensureEbook(tx, in.EbookID); err != nil {
			return err
		}
		if err := tx.Select("id", "first_name", "last_name", "phone").First(&user, in.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user")
			}
			return err
		}

		result.Transaction = models.Transaction{
			UserID:        in.UserID,
			EbookID:       in.EbookID,
			TransactionID: in.TransactionID,
			Status:        in.Status,
			Amount:        in.Amount,
		}
		if err := tx.Create(&result.Transaction).Error; err != nil {
			return err
		}
		if !in.Verified || in.Status != models.PaymentCaptured {
			return nil
		}

		purchase := models.Purchase{UserID: in.UserID, EbookID: in.EbookID}
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&purchase)
		if created.Error != nil {
			return created.Error
		}
		result.Purchased = true
		if created.RowsAffected == 0 {
			return nil
		}

		order := models.Order{
			UserID:  in.UserID,
			EbookID: in.EbookID,
			Amount:  in.Amount,
			Status:  models.OrderStatusCompleted,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		result.Order = &order

		return tx.Model(&models.Ebook{}).Where("id = ?", in.EbookID).
			UpdateColumn("purchase_count", gorm.Expr("purchase_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	if result.Order != nil && s.notifier != nil {
		notification := PurchaseNotification{
			OrderID:       result.Order.ID,
			EbookName:     ebook.Name,
			UserName:      strings.TrimSpace(user.FirstName + " " + user.LastName),
			UserPhone:     user.Phone,
			TransactionID: in.TransactionID,
			Amount:        in.Amount,
		}
		go func() {
			if err := s.notifier.NotifyPurchase(context.Background(), notification); err != nil {
				log.Printf("[Payment] purchase notification for order %d failed: %v", notification.OrderID, err)
			}
		}()
	}

	return result, nil
}
