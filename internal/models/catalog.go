package models

type EbookCategory struct {
	BaseModel
	Name   string  `json:"category_name"`
	Ebooks []Ebook `gorm:"foreignKey:CategoryID" json:"ebooks,omitempty"`
}

// Ebook is a catalog item sold as a PDF and optionally as a hard copy.
type Ebook struct {
	BaseModel
	Name                  string         `json:"ebook_name"`
	Info                  string         `json:"ebook_info"`
	Overview              string         `json:"ebook_overview"`
	CategoryID            uint           `gorm:"index" json:"ebook_cate"`
	Category              *EbookCategory `json:"category,omitempty"`
	Author                string         `json:"author"`
	EditorPick            bool           `gorm:"index" json:"editor_pick"`
	EbookPrice            float64        `json:"ebook_price"`
	PhysicalPrice         float64        `json:"physical_price"`
	PhysicalPriceDiscount float64        `json:"physical_price_discount"`
	EbookPriceDiscount    float64        `json:"ebook_price_discount"`
	OffPrice              float64        `json:"off_price"`
	ShippingCharge        float64        `json:"shipping_charge"`
	PurchaseCount         int            `gorm:"index;default:0" json:"purchase_count"`
	CoverImage            string         `json:"pdf_image"`
	EnglishFile           string         `json:"eng_file"`
	HindiFile             string         `json:"hin_file"`
}

// EffectivePrice is the discounted ebook price when one is set.
func (e Ebook) EffectivePrice() float64 {
	if e.EbookPriceDiscount > 0 {
		return e.EbookPriceDiscount
	}
	return e.EbookPrice
}

// EbookListing is an ebook row decorated with the caller's wishlist membership.
type EbookListing struct {
	Ebook
	Wishlisted bool `json:"wishlist"`
}

type Review struct {
	BaseModel
	EbookID uint   `gorm:"index" json:"ebook_id"`
	UserID  uint   `gorm:"index" json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type Quote struct {
	BaseModel
	Text   string `json:"text"`
	Author string `json:"author"`
}
