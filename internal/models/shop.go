package models

// CartItem is one line of a user's cart. A user holds at most one line per ebook.
type CartItem struct {
	BaseModel
	UserID   uint   `gorm:"not null;uniqueIndex:idx_cart_user_ebook" json:"user_id"`
	EbookID  uint   `gorm:"not null;uniqueIndex:idx_cart_user_ebook" json:"ebook_id"`
	Quantity int    `gorm:"not null;default:1" json:"qty"`
	Ebook    *Ebook `json:"ebook,omitempty"`
}

type WishlistItem struct {
	BaseModel
	UserID  uint   `gorm:"not null;uniqueIndex:idx_wishlist_user_ebook" json:"user_id"`
	EbookID uint   `gorm:"not null;uniqueIndex:idx_wishlist_user_ebook" json:"ebook_id"`
	Ebook   *Ebook `json:"ebook,omitempty"`
}
