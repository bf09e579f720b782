package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sdpublication/internal/models"
)

// WishlistService manages per-user wishlists.
type WishlistService struct {
	db *gorm.DB
}

// NewWishlistService constructs WishlistService.
func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{db: db}
}

// Add is idempotent: adding an ebook twice keeps a single row.
func (s *WishlistService) Add(ctx context.Context, userID, ebookID uint) error {
	db := s.db.WithContext(ctx)
	if _, err := ensureEbook(db, ebookID); err != nil {
		return err
	}

	item := models.WishlistItem{UserID: userID, EbookID: ebookID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
}

// Remove deletes ebookID from the wishlist.
func (s *WishlistService) Remove(ctx context.Context, userID, ebookID uint) error {
	result := s.db.WithContext(ctx).Where("user_id = ? AND ebook_id = ?", userID, ebookID).Delete(&models.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("wishlist item")
	}
	return nil
}

// List returns the wishlist with ebooks, newest first.
func (s *WishlistService) List(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := s.db.WithContext(ctx).Preload("Ebook").Where("user_id = ?", userID).Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
