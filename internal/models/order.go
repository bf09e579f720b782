package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusReturned  OrderStatus = "returned"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCanceled, OrderStatusReturned:
		return true
	}
	return false
}

type Order struct {
	BaseModel
	UserID  uint        `gorm:"index" json:"user_id"`
	User    *User       `json:"user,omitempty"`
	EbookID uint        `gorm:"index" json:"ebook_id"`
	Ebook   *Ebook      `json:"ebook,omitempty"`
	Amount  float64     `json:"amount"`
	Status  OrderStatus `gorm:"size:20;index;default:pending" json:"status"`
}

// PaymentCaptured is the gateway status that grants ownership of an ebook.
const PaymentCaptured = "captured"

// Transaction stores the raw outcome of a payment attempt.
type Transaction struct {
	BaseModel
	UserID        uint    `gorm:"index" json:"user_id"`
	EbookID       uint    `json:"ebook_id"`
	TransactionID string  `gorm:"size:128;index" json:"transaction_id"`
	Status        string  `gorm:"size:32" json:"status"`
	Amount        float64 `json:"amount"`
}

// Purchase records that a user owns an ebook.
type Purchase struct {
	BaseModel
	UserID  uint `gorm:"not null;uniqueIndex:idx_purchase_user_ebook" json:"user_id"`
	EbookID uint `gorm:"not null;uniqueIndex:idx_purchase_user_ebook" json:"ebook_id"`
}

// ReadProgress is the last page a user reached in an ebook.
type ReadProgress struct {
	BaseModel
	UserID  uint   `gorm:"not null;uniqueIndex:idx_read_user_ebook" json:"user_id"`
	EbookID uint   `gorm:"not null;uniqueIndex:idx_read_user_ebook" json:"ebook_id"`
	PageNo  int    `json:"page_no"`
	Ebook   *Ebook `json:"ebook,omitempty"`
}

// LibraryEntry is a read-progress row joined with its ebook.
type LibraryEntry struct {
	Ebook
	PageNo     int       `json:"page_no"`
	LastReadAt time.Time `json:"last_read_at"`
	TotalPages int       `gorm:"-" json:"total_pages"`
}
