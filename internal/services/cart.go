package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sdpublication/internal/models"
)

const (
	QuantityDecrease = "min"
	QuantityIncrease = "plus"
)

// NextQuantity applies a quantity step. Decreasing never goes below 1 and
// increasing has no ceiling.
func NextQuantity(current int, state string) (int, error) {
	switch state {
	case QuantityDecrease:
		if current <= 1 {
			return 1, nil
		}
		return current - 1, nil
	case QuantityIncrease:
		if current < 1 {
			return 1, nil
		}
		return current + 1, nil
	default:
		return 0, ErrInvalidQuantityState
	}
}

// CartService manages per-user cart lines.
type CartService struct {
	db *gorm.DB
}

// NewCartService constructs CartService.
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Add puts ebookID in the cart with quantity 1. Adding an ebook that is
// already in the cart fails with ErrAlreadyInCart and leaves the line as is.
func (s *CartService) Add(ctx context.Context, userID, ebookID uint) (*models.CartItem, error) {
	db := s.db.WithContext(ctx)
	if _, err := ensureEbook(db, ebookID); err != nil {
		return nil, err
	}

	item := models.CartItem{UserID: userID, EbookID: ebookID, Quantity: 1}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyInCart
	}
	return &item, nil
}

// UpdateQuantity steps the quantity of an owned cart line under a row lock.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, cartID uint, state string) (*models.CartItem, error) {
	if state != QuantityDecrease && state != QuantityIncrease {
		return nil, ErrInvalidQuantityState
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", cartID, userID).
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("cart item")
			}
			return err
		}

		qty, err := NextQuantity(item.Quantity, state)
		if err != nil {
			return err
		}
		item.Quantity = qty
		return tx.Model(&item).Update("quantity", qty).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes an owned cart line.
func (s *CartService) Remove(ctx context.Context, userID, cartID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", cartID, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("cart item")
	}
	return nil
}

// CartView is the cart page payload.
type CartView struct {
	Items   []models.CartItem `json:"cartItems"`
	Similar []models.Ebook    `json:"similarProduct"`
}

// Items lists the cart newest first with a few random recommendations.
func (s *CartService) Items(ctx context.Context, userID uint) (*CartView, error) {
	db := s.db.WithContext(ctx)
	items, err := cartItems(db, userID)
	if err != nil {
		return nil, err
	}
	recommended, err := similar(db)
	if err != nil {
		return nil, err
	}
	return &CartView{Items: items, Similar: recommended}, nil
}

// CheckoutView adds the caller's addresses to the cart payload.
type CheckoutView struct {
	CartView
	Addresses []models.Address `json:"address"`
	Summary   CartSummary      `json:"summary"`
}

// Checkout loads everything the checkout page needs.
func (s *CartService) Checkout(ctx context.Context, userID uint) (*CheckoutView, error) {
	view, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	var addresses []models.Address
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&addresses).Error; err != nil {
		return nil, err
	}

	return &CheckoutView{CartView: *view, Addresses: addresses, Summary: Summarize(view.Items)}, nil
}

// CartLine is a priced cart line.
type CartLine struct {
	models.CartItem
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	Shipping  float64 `json:"shipping"`
}

// CartSummary holds recomputed cart totals.
type CartSummary struct {
	Lines         []CartLine `json:"lines"`
	Subtotal      float64    `json:"subtotal"`
	ShippingTotal float64    `json:"shipping_total"`
	Total         float64    `json:"total"`
}

// Summarize prices cart lines at the effective ebook price. Lines without a
// loaded ebook are priced at zero.
func Summarize(items []models.CartItem) CartSummary {
	summary := CartSummary{Lines: make([]CartLine, 0, len(items))}
	for _, item := range items {
		line := CartLine{CartItem: item}
		if item.Ebook != nil {
			line.UnitPrice = item.Ebook.EffectivePrice()
			line.Shipping = item.Ebook.ShippingCharge
		}
		line.LineTotal = line.UnitPrice * float64(item.Quantity)
		summary.Subtotal += line.LineTotal
		summary.ShippingTotal += line.Shipping
		summary.Lines = append(summary.Lines, line)
	}
	summary.Total = summary.Subtotal + summary.ShippingTotal
	return summary
}

// Summary recomputes cart prices.
func (s *CartService) Summary(ctx context.Context, userID uint) (CartSummary, error) {
	items, err := cartItems(s.db.WithContext(ctx), userID)
	if err != nil {
		return CartSummary{}, err
	}
	return Summarize(items), nil
}

func cartItems(db *gorm.DB, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := db.Preload("Ebook").Where("user_id = ?", userID).Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
