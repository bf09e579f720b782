package models

// Visibility states shared by footer links and banners.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// FooterLink is one link of the storefront footer, grouped by column.
type FooterLink struct {
	BaseModel
	Link   string `json:"footer_link"`
	Column string `json:"footer_column"`
	Name   string `json:"footer_name"`
	Status string `gorm:"size:16" json:"status"`
}
