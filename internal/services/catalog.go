package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/models"
)

const (
	ListingLatest     = "latest"
	ListingBestSeller = "best-seller"
	ListingEditor     = "editor"

	shelfSize     = 10
	editorShelf   = 9
	detailShelf   = 10
	similarEbooks = 3
	blogPrevious  = "prev"
	blogNext      = "next"
)

// WishlistDecorated selects ebooks.* plus a boolean "wishlisted" column telling
// whether userID has the row on their wishlist. User 0 never matches.
func WishlistDecorated(userID uint) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Table("ebooks").
			Select("ebooks.*, CASE WHEN wishlist_items.id IS NULL THEN false ELSE true END AS wishlisted").
			Joins("LEFT JOIN wishlist_items ON wishlist_items.ebook_id = ebooks.id AND wishlist_items.user_id = ?", userID)
	}
}

// SearchPattern lower-cases term and escapes LIKE wildcards for a substring match.
func SearchPattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func randomOrder(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}

// CatalogService serves every storefront listing.
type CatalogService struct {
	db      *gorm.DB
	shelves config.ShelfConfig
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(db *gorm.DB, shelves config.ShelfConfig) *CatalogService {
	return &CatalogService{db: db, shelves: shelves}
}

func (s *CatalogService) listing(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).Scopes(WishlistDecorated(userID))
}

// Books lists ebooks by kind: latest (default), best-seller or editor.
func (s *CatalogService) Books(ctx context.Context, userID uint, kind string) ([]models.EbookListing, error) {
	query := s.listing(ctx, userID)
	switch kind {
	case "", ListingLatest:
		query = query.Order("ebooks.id DESC")
	case ListingBestSeller:
		query = query.Order("ebooks.purchase_count DESC, ebooks.id DESC")
	case ListingEditor:
		query = query.Where("ebooks.editor_pick = ?", true).Order("ebooks.id DESC")
	default:
		return nil, invalid("type must be latest, best-seller or editor")
	}

	var books []models.EbookListing
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// BestSellers lists ebooks by purchase count. A limit of 0 returns every ebook.
func (s *CatalogService) BestSellers(ctx context.Context, userID uint, limit int) ([]models.EbookListing, error) {
	query := s.listing(ctx, userID).Order("ebooks.purchase_count DESC, ebooks.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var books []models.EbookListing
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// ByCategory lists the ebooks of a category, newest first. A limit of 0 returns all.
func (s *CatalogService) ByCategory(ctx context.Context, userID, categoryID uint, limit int) ([]models.EbookListing, error) {
	query := s.listing(ctx, userID).Where("ebooks.category_id = ?", categoryID).Order("ebooks.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var books []models.EbookListing
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// EditorsChoice lists editor picks, newest first.
func (s *CatalogService) EditorsChoice(ctx context.Context, limit int) ([]models.Ebook, error) {
	query := s.db.WithContext(ctx).Where("editor_pick = ?", true).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var books []models.Ebook
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// Search matches term case-insensitively against name, info, overview and author.
func (s *CatalogService) Search(ctx context.Context, userID uint, term string) ([]models.EbookListing, error) {
	if strings.TrimSpace(term) == "" {
		return nil, invalid("search term is required")
	}

	pattern := SearchPattern(term)
	var books []models.EbookListing
	err := s.listing(ctx, userID).
		Where("LOWER(ebooks.name) LIKE ? OR LOWER(ebooks.info) LIKE ? OR LOWER(ebooks.overview) LIKE ? OR LOWER(ebooks.author) LIKE ?",
			pattern, pattern, pattern, pattern).
		Order("ebooks.id DESC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Homepage bundles every storefront shelf.
type Homepage struct {
	Banners      []string               `json:"banners"`
	Categories   []models.EbookCategory `json:"category"`
	Latest       []models.EbookListing  `json:"ebooks"`
	EditorChoice []models.Ebook         `json:"editorchoice"`
	BestSellers  []models.EbookListing  `json:"bestSeller"`
	Language     []models.EbookListing  `json:"language"`
	Teaching     []models.EbookListing  `json:"teaching"`
	Police       []models.EbookListing  `json:"police"`
	TestPrep     []models.EbookListing  `json:"testprep"`
	Blogs        []models.Blog          `json:"blogs"`
}

// Homepage loads the landing page shelves for userID.
func (s *CatalogService) Homepage(ctx context.Context, userID uint) (*Homepage, error) {
	db := s.db.WithContext(ctx)
	page := &Homepage{}

	if err := db.Model(&models.Banner{}).Order("id DESC").Pluck("image", &page.Banners).Error; err != nil {
		return nil, err
	}
	if err := db.Order("id ASC").Find(&page.Categories).Error; err != nil {
		return nil, err
	}
	if err := s.listing(ctx, userID).Order("ebooks.id DESC").Limit(shelfSize).Find(&page.Latest).Error; err != nil {
		return nil, err
	}

	var err error
	if page.EditorChoice, err = s.EditorsChoice(ctx, editorShelf); err != nil {
		return nil, err
	}
	if page.BestSellers, err = s.BestSellers(ctx, userID, shelfSize); err != nil {
		return nil, err
	}

	shelves := []struct {
		category uint
		dest     *[]models.EbookListing
	}{
		{s.shelves.Language, &page.Language},
		{s.shelves.Teaching, &page.Teaching},
		{s.shelves.Police, &page.Police},
		{s.shelves.TestPrep, &page.TestPrep},
	}
	for _, shelf := range shelves {
		books, err := s.ByCategory(ctx, userID, shelf.category, shelfSize)
		if err != nil {
			return nil, err
		}
		*shelf.dest = books
	}

	if err := db.Order("id DESC").Find(&page.Blogs).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// BookDetail is the book page payload.
type BookDetail struct {
	Ebook       models.Ebook          `json:"bookdetails"`
	Purchased   bool                  `json:"purchased"`
	BestSellers []models.EbookListing `json:"bestSeller"`
	Quote       *models.Quote         `json:"quote"`
	Reviews     []models.Review       `json:"review"`
}

// BookDetail loads an ebook with the caller's ownership, best sellers, a random quote and reviews.
func (s *CatalogService) BookDetail(ctx context.Context, userID, ebookID uint) (*BookDetail, error) {
	db := s.db.WithContext(ctx)
	detail := &BookDetail{}

	if err := db.First(&detail.Ebook, ebookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ebook")
		}
		return nil, err
	}

	purchased, err := hasPurchased(db, userID, ebookID)
	if err != nil {
		return nil, err
	}
	detail.Purchased = purchased

	if detail.BestSellers, err = s.BestSellers(ctx, userID, detailShelf); err != nil {
		return nil, err
	}

	var quotes []models.Quote
	if err := db.Order(randomOrder(db)).Limit(1).Find(&quotes).Error; err != nil {
		return nil, err
	}
	if len(quotes) > 0 {
		detail.Quote = &quotes[0]
	}

	if err := db.Where("ebook_id = ?", ebookID).Order("id DESC").Find(&detail.Reviews).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

// Categories lists every ebook category.
func (s *CatalogService) Categories(ctx context.Context) ([]models.EbookCategory, error) {
	var categories []models.EbookCategory
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Category loads one category with its ebooks.
func (s *CatalogService) Category(ctx context.Context, id uint) (*models.EbookCategory, error) {
	var category models.EbookCategory
	err := s.db.WithContext(ctx).
		Preload("Ebooks", func(tx *gorm.DB) *gorm.DB { return tx.Order("id DESC") }).
		First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("category")
		}
		return nil, err
	}
	return &category, nil
}

// BlogView is a blog page with the full list for the sidebar.
type BlogView struct {
	Blog models.Blog   `json:"blog"`
	All  []models.Blog `json:"allBlogs"`
}

// Blog loads blog id, or its neighbour when direction is "prev" or "next".
// A missing neighbour falls back to the blog itself.
func (s *CatalogService) Blog(ctx context.Context, id uint, direction string) (*BlogView, error) {
	db := s.db.WithContext(ctx)
	view := &BlogView{}

	var neighbours []models.Blog
	switch direction {
	case blogPrevious:
		if err := db.Where("id < ?", id).Order("id DESC").Limit(1).Find(&neighbours).Error; err != nil {
			return nil, err
		}
	case blogNext:
		if err := db.Where("id > ?", id).Order("id ASC").Limit(1).Find(&neighbours).Error; err != nil {
			return nil, err
		}
	case "":
	default:
		return nil, invalid("path must be prev or next")
	}

	if len(neighbours) > 0 {
		view.Blog = neighbours[0]
	} else if err := db.First(&view.Blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("blog")
		}
		return nil, err
	}

	if err := db.Order("id DESC").Find(&view.All).Error; err != nil {
		return nil, err
	}
	return view, nil
}

// Similar returns a few random ebooks for cart recommendations.
func (s *CatalogService) Similar(ctx context.Context) ([]models.Ebook, error) {
	return similar(s.db.WithContext(ctx))
}

func similar(db *gorm.DB) ([]models.Ebook, error) {
	var books []models.Ebook
	if err := db.Order(randomOrder(db)).Limit(similarEbooks).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func ensureEbook(db *gorm.DB, ebookID uint) (*models.Ebook, error) {
	var ebook models.Ebook
	if err := db.First(&ebook, ebookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ebook")
		}
		return nil, err
	}
	return &ebook, nil
}

func hasPurchased(db *gorm.DB, userID, ebookID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	if err := db.Model(&models.Purchase{}).Where("user_id = ? AND ebook_id = ?", userID, ebookID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
