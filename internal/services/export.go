package services

import (
	"context"
	"io"

	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/models"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService renders admin spreadsheets.
type ExportService struct {
	db *gorm.DB
}

// NewExportService constructs ExportService.
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// WriteEbooks writes every ebook as an xlsx workbook.
func (s *ExportService) WriteEbooks(ctx context.Context, w io.Writer) error {
	var ebooks []models.Ebook
	if err := s.db.WithContext(ctx).Preload("Category").Order("id ASC").Find(&ebooks).Error; err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Ebooks")
	if err != nil {
		return err
	}

	addHeader(sheet, "ID", "Name", "Author", "Category", "Ebook Price", "Ebook Discount",
		"Physical Price", "Physical Discount", "Shipping", "Editor Pick", "Purchases", "Created At")

	for _, e := range ebooks {
		category := ""
		if e.Category != nil {
			category = e.Category.Name
		}

		row := sheet.AddRow()
		row.AddCell().SetValue(e.ID)
		row.AddCell().SetValue(e.Name)
		row.AddCell().SetValue(e.Author)
		row.AddCell().SetValue(category)
		row.AddCell().SetValue(e.EbookPrice)
		row.AddCell().SetValue(e.EbookPriceDiscount)
		row.AddCell().SetValue(e.PhysicalPrice)
		row.AddCell().SetValue(e.PhysicalPriceDiscount)
		row.AddCell().SetValue(e.ShippingCharge)
		row.AddCell().SetValue(e.EditorPick)
		row.AddCell().SetValue(e.PurchaseCount)
		row.AddCell().SetValue(e.CreatedAt.Format(exportTimeLayout))
	}

	return file.Write(w)
}

// WriteOrders writes orders as an xlsx workbook. An empty status exports all.
func (s *ExportService) WriteOrders(ctx context.Context, w io.Writer, status models.OrderStatus) error {
	query := s.db.WithContext(ctx).Preload("User").Preload("Ebook").Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	addHeader(sheet, "ID", "Customer", "Phone", "Ebook", "Amount", "Status", "Created At")

	for _, o := range orders {
		customer, phone, ebook := "", "", ""
		if o.User != nil {
			customer = o.User.FirstName + " " + o.User.LastName
			phone = o.User.Phone
		}
		if o.Ebook != nil {
			ebook = o.Ebook.Name
		}

		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(customer)
		row.AddCell().SetValue(phone)
		row.AddCell().SetValue(ebook)
		row.AddCell().SetValue(o.Amount)
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(o.CreatedAt.Format(exportTimeLayout))
	}

	return file.Write(w)
}

func addHeader(sheet *xlsx.Sheet, headers ...string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetValue(h)
	}
}
