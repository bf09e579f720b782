package models

type Banner struct {
	BaseModel
	Image  string `json:"banner_img"`
	Type   string `gorm:"size:16;index" json:"type"`
	Status string `gorm:"size:16" json:"status"`
}

type Blog struct {
	BaseModel
	Image       string `json:"blog_image"`
	Title       string `json:"title"`
	PublishedBy string `json:"published_by"`
	Description string `json:"description"`
}

type Video struct {
	BaseModel
	EmbedLink string `json:"embed_link"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
}
