package models

// Address is a shipping address. At most one address per user has IsDefault set.
type Address struct {
	BaseModel
	UserID    uint   `gorm:"index" json:"user_id"`
	Title     string `json:"title"`
	Address   string `json:"address"`
	State     string `json:"state"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Landmark  string `json:"landmark"`
	Phone     string `json:"phone"`
	IsDefault bool   `gorm:"index" json:"is_default"`
}
