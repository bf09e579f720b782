//go:build integration

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/testutil"
)

type fixtures struct {
	db       *gorm.DB
	category models.EbookCategory
}

func (f *fixtures) user(t *testing.T, phone string) models.User {
	t.Helper()
	user := models.User{FirstName: "Asha", LastName: "Rao", Phone: phone, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *fixtures) ebook(t *testing.T, name string) models.Ebook {
	t.Helper()
	ebook := models.Ebook{Name: name, CategoryID: f.category.ID, EbookPrice: 199, Author: "S. D. Sharma"}
	require.NoError(t, f.db.Create(&ebook).Error)
	return ebook
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []PurchaseNotification
	done  chan struct{}
}

func (n *recordingNotifier) NotifyPurchase(_ context.Context, p PurchaseNotification) error {
	n.mu.Lock()
	n.calls = append(n.calls, p)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func TestServicesIntegration(t *testing.T) {
	db := testutil.Postgres(t)
	f := &fixtures{db: db, category: models.EbookCategory{Name: "Competitive"}}
	require.NoError(t, db.Create(&f.category).Error)
	ctx := context.Background()

	t.Run("addresses keep exactly one default", func(t *testing.T) {
		svc := NewAddressService(db)
		user := f.user(t, "9000000001")
		input := AddressInput{Address: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001"}

		defaults := func() []models.Address {
			var rows []models.Address
			require.NoError(t, db.Where("user_id = ? AND is_default = ?", user.ID, true).Find(&rows).Error)
			return rows
		}

		first, err := svc.Add(ctx, user.ID, input)
		require.NoError(t, err)
		second, err := svc.Add(ctx, user.ID, input)
		require.NoError(t, err)
		third, err := svc.Add(ctx, user.ID, input)
		require.NoError(t, err)

		rows := defaults()
		require.Len(t, rows, 1)
		assert.Equal(t, third.ID, rows[0].ID)

		require.NoError(t, svc.SetDefault(ctx, user.ID, first.ID))
		rows = defaults()
		require.Len(t, rows, 1)
		assert.Equal(t, first.ID, rows[0].ID)

		require.NoError(t, svc.Delete(ctx, user.ID, first.ID))
		rows = defaults()
		require.Len(t, rows, 1)
		assert.Equal(t, third.ID, rows[0].ID)

		require.NoError(t, svc.Delete(ctx, user.ID, second.ID))
		require.NoError(t, svc.Delete(ctx, user.ID, third.ID))
		assert.Empty(t, defaults())

		other := f.user(t, "9000000002")
		assert.ErrorIs(t, svc.SetDefault(ctx, other.ID, third.ID), ErrNotFound)
	})

	t.Run("concurrent address adds leave one default", func(t *testing.T) {
		svc := NewAddressService(db)
		user := f.user(t, "9000000003")
		input := AddressInput{Address: "7 Park Street", City: "Kolkata", State: "WB", Pincode: "700016"}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Add(ctx, user.ID, input)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		var count int64
		require.NoError(t, db.Model(&models.Address{}).Where("user_id = ? AND is_default = ?", user.ID, true).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("resubmitting an answer keeps one row", func(t *testing.T) {
		svc := NewQuizService(db)
		test := models.Test{Title: "SSC Mock 1", TotalTiming: 60}
		require.NoError(t, db.Create(&test).Error)
		question := models.Question{BaseModel: models.BaseModel{ID: 5}, TestID: test.ID, QuestionEnglish: "2 + 2?", CorrectAnswer: 3}
		require.NoError(t, db.Create(&question).Error)

		_, err := svc.SubmitAnswer(ctx, AnswerSubmission{TestID: test.ID, QuestionID: 5, UserID: 10, Answer: "2", Type: "answered"})
		require.NoError(t, err)
		questions, err := svc.SubmitAnswer(ctx, AnswerSubmission{TestID: test.ID, QuestionID: 5, UserID: 10, Answer: "3", Type: "review"})
		require.NoError(t, err)

		var rows []models.TestGiven
		require.NoError(t, db.Where("user_id = ? AND question_id = ?", 10, 5).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, 3, rows[0].AnswerID)
		assert.Equal(t, "review", rows[0].Type)

		require.Len(t, questions, 1)
		require.NotNil(t, questions[0].Answer)
		assert.Equal(t, 3, *questions[0].Answer)

		others, err := svc.Questions(ctx, test.ID, 11)
		require.NoError(t, err)
		require.Len(t, others, 1)
		assert.Nil(t, others[0].Answer)

		_, err = svc.SubmitAnswer(ctx, AnswerSubmission{TestID: test.ID, QuestionID: 5, UserID: 10, Answer: ""})
		require.NoError(t, err)
		require.NoError(t, db.Where("user_id = ? AND question_id = ?", 10, 5).First(&rows[0]).Error)
		assert.Equal(t, 0, rows[0].AnswerID)
	})

	t.Run("concurrent answers leave one row", func(t *testing.T) {
		svc := NewQuizService(db)
		test := models.Test{Title: "SSC Mock 2", TotalTiming: 60}
		require.NoError(t, db.Create(&test).Error)
		question := models.Question{TestID: test.ID, QuestionEnglish: "3 x 3?", CorrectAnswer: 2}
		require.NoError(t, db.Create(&question).Error)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(option int) {
				defer wg.Done()
				_, err := svc.SubmitAnswer(ctx, AnswerSubmission{
					TestID:     test.ID,
					QuestionID: question.ID,
					UserID:     20,
					Answer:     fmt.Sprint(option%4 + 1),
					Type:       "answered",
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		var rows []models.TestGiven
		require.NoError(t, db.Where("user_id = ? AND question_id = ?", 20, question.ID).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Contains(t, []int{1, 2, 3, 4}, rows[0].AnswerID)
	})

	t.Run("deleting an ebook keeps cart and wishlist rows", func(t *testing.T) {
		cart := NewCartService(db)
		wishlist := NewWishlistService(db)
		user := f.user(t, "9000000017")
		ebook := f.ebook(t, "Retired Edition")

		_, err := cart.Add(ctx, user.ID, ebook.ID)
		require.NoError(t, err)
		require.NoError(t, wishlist.Add(ctx, user.ID, ebook.ID))

		require.NoError(t, db.Delete(&models.Ebook{}, ebook.ID).Error)

		var carts, wishes int64
		require.NoError(t, db.Model(&models.CartItem{}).Where("ebook_id = ?", ebook.ID).Count(&carts).Error)
		require.NoError(t, db.Model(&models.WishlistItem{}).Where("ebook_id = ?", ebook.ID).Count(&wishes).Error)
		assert.Equal(t, int64(1), carts)
		assert.Equal(t, int64(1), wishes)

		category := models.EbookCategory{Name: "Archived"}
		require.NoError(t, db.Create(&category).Error)
		require.NoError(t, db.Create(&models.Ebook{Name: "Archived Title", CategoryID: category.ID}).Error)
		assert.NoError(t, db.Delete(&models.EbookCategory{}, category.ID).Error)
	})

	t.Run("test attempts and history", func(t *testing.T) {
		svc := NewQuizService(db)
		test := models.Test{Title: "Police Constable Mock", TotalTiming: 90}
		require.NoError(t, db.Create(&test).Error)

		_, err := svc.History(ctx, 77)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = svc.StartTest(ctx, 77, test.ID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = svc.StartTest(ctx, 77, test.ID, time.Time{})
		require.NoError(t, err)

		history, err := svc.History(ctx, 77)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "Police Constable Mock", history[0].TestTitle)
		assert.True(t, history[0].StartTime.After(history[1].StartTime))

		_, err = svc.StartTest(ctx, 77, 999999, time.Time{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cart add is unique and quantity clamps", func(t *testing.T) {
		svc := NewCartService(db)
		user := f.user(t, "9000000004")
		ebook := f.ebook(t, "Reasoning Guide")

		item, err := svc.Add(ctx, user.ID, ebook.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)

		_, err = svc.Add(ctx, user.ID, ebook.ID)
		assert.ErrorIs(t, err, ErrAlreadyInCart)

		var rows []models.CartItem
		require.NoError(t, db.Where("user_id = ? AND ebook_id = ?", user.ID, ebook.ID).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].Quantity)

		updated, err := svc.UpdateQuantity(ctx, user.ID, item.ID, QuantityDecrease)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Quantity)

		updated, err = svc.UpdateQuantity(ctx, user.ID, item.ID, QuantityIncrease)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Quantity)

		_, err = svc.UpdateQuantity(ctx, user.ID+1000, item.ID, QuantityIncrease)
		assert.ErrorIs(t, err, ErrNotFound)

		summary, err := svc.Summary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 398.0, summary.Subtotal)

		_, err = svc.Add(ctx, user.ID, 999999)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, svc.Remove(ctx, user.ID, item.ID))
		assert.ErrorIs(t, svc.Remove(ctx, user.ID, item.ID), ErrNotFound)
	})

	t.Run("search is case insensitive and decorates wishlist", func(t *testing.T) {
		catalog := NewCatalogService(db, config.ShelfConfig{})
		wishlist := NewWishlistService(db)
		user := f.user(t, "9000000005")

		algebra := f.ebook(t, "Mathematics Basics")
		f.ebook(t, "Applied MATH for SSC")
		f.ebook(t, "Indian History")

		require.NoError(t, wishlist.Add(ctx, user.ID, algebra.ID))
		require.NoError(t, wishlist.Add(ctx, user.ID, algebra.ID))

		books, err := catalog.Search(ctx, user.ID, "Math")
		require.NoError(t, err)
		require.Len(t, books, 2)

		flags := map[string]bool{}
		for _, b := range books {
			flags[b.Name] = b.Wishlisted
		}
		assert.True(t, flags["Mathematics Basics"])
		assert.False(t, flags["Applied MATH for SSC"])

		anonymous, err := catalog.Search(ctx, 0, "math")
		require.NoError(t, err)
		for _, b := range anonymous {
			assert.False(t, b.Wishlisted)
		}

		items, err := wishlist.List(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, items, 1)

		_, err = catalog.Search(ctx, 0, "100%")
		require.NoError(t, err)
	})

	t.Run("captured payment grants the ebook once", func(t *testing.T) {
		notifier := &recordingNotifier{done: make(chan struct{}, 4)}
		svc := NewLibraryService(db, notifier)
		user := f.user(t, "9000000006")
		ebook := f.ebook(t, "General Knowledge 2026")

		failed, err := svc.RecordPayment(ctx, PaymentInput{UserID: user.ID, EbookID: ebook.ID, TransactionID: "pay_0", Verified: true, Status: "failed", Amount: 199})
		require.NoError(t, err)
		assert.False(t, failed.Purchased)
		assert.Nil(t, failed.Order)

		result, err := svc.RecordPayment(ctx, PaymentInput{UserID: user.ID, EbookID: ebook.ID, TransactionID: "pay_1", Verified: true, Status: "Captured", Amount: 199})
		require.NoError(t, err)
		assert.True(t, result.Purchased)
		require.NotNil(t, result.Order)
		assert.Equal(t, models.OrderStatusCompleted, result.Order.Status)

		select {
		case <-notifier.done:
		case <-time.After(5 * time.Second):
			t.Fatal("purchase notification was not sent")
		}
		notifier.mu.Lock()
		assert.Equal(t, "General Knowledge 2026", notifier.calls[0].EbookName)
		assert.Equal(t, "Asha Rao", notifier.calls[0].UserName)
		notifier.mu.Unlock()

		again, err := svc.RecordPayment(ctx, PaymentInput{UserID: user.ID, EbookID: ebook.ID, TransactionID: "pay_2", Verified: true, Status: "captured", Amount: 199})
		require.NoError(t, err)
		assert.True(t, again.Purchased)
		assert.Nil(t, again.Order)

		var reloaded models.Ebook
		require.NoError(t, db.First(&reloaded, ebook.ID).Error)
		assert.Equal(t, 1, reloaded.PurchaseCount)

		var transactions int64
		require.NoError(t, db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&transactions).Error)
		assert.Equal(t, int64(3), transactions)

		orders, err := svc.Orders(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, orders, 1)

		view, err := svc.ViewEbook(ctx, user.ID, ebook.ID)
		require.NoError(t, err)
		assert.True(t, view.Purchased)

		_, err = svc.Orders(ctx, user.ID+1000)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("client reported capture grants nothing", func(t *testing.T) {
		svc := NewLibraryService(db, nil)
		user := f.user(t, "9000000016")
		ebook := f.ebook(t, "Reasoning Shortcuts")

		result, err := svc.RecordPayment(ctx, PaymentInput{UserID: user.ID, EbookID: ebook.ID, TransactionID: "self_1", Status: "captured", Amount: 99})
		require.NoError(t, err)
		assert.False(t, result.Purchased)
		assert.Nil(t, result.Order)
		assert.Equal(t, "captured", result.Transaction.Status)

		var purchases int64
		require.NoError(t, db.Model(&models.Purchase{}).Where("user_id = ?", user.ID).Count(&purchases).Error)
		assert.Zero(t, purchases)

		var reloaded models.Ebook
		require.NoError(t, db.First(&reloaded, ebook.ID).Error)
		assert.Zero(t, reloaded.PurchaseCount)

		require.NoError(t, db.Model(&ebook).Update("english_file", "reasoning.pdf").Error)
		view, err := svc.ViewEbook(ctx, user.ID, ebook.ID)
		require.NoError(t, err)
		assert.False(t, view.Purchased)
		assert.Empty(t, view.Ebook.EnglishFile)
	})

	t.Run("library keeps progress", func(t *testing.T) {
		svc := NewLibraryService(db, nil)
		user := f.user(t, "9000000007")
		ebook := f.ebook(t, "English Grammar")

		require.NoError(t, svc.UpdateProgress(ctx, user.ID, ebook.ID, 42))
		require.NoError(t, svc.AddToLibrary(ctx, user.ID, ebook.ID))
		require.NoError(t, svc.UpdateProgress(ctx, user.ID, ebook.ID, 43))

		entries, err := svc.Library(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 43, entries[0].PageNo)
		assert.Equal(t, DefaultTotalPages, entries[0].TotalPages)
		assert.Equal(t, "English Grammar", entries[0].Name)

		var rows int64
		require.NoError(t, db.Model(&models.ReadProgress{}).Where("user_id = ?", user.ID).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("homepage shelves", func(t *testing.T) {
		catalog := NewCatalogService(db, config.ShelfConfig{Language: f.category.ID})
		pick := models.Ebook{Name: "Editor Pick", CategoryID: f.category.ID, EditorPick: true}
		require.NoError(t, db.Create(&pick).Error)

		page, err := catalog.Homepage(ctx, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, page.Latest)
		assert.LessOrEqual(t, len(page.Latest), shelfSize)
		assert.NotEmpty(t, page.Language)
		require.NotEmpty(t, page.EditorChoice)
		assert.Equal(t, "Editor Pick", page.EditorChoice[0].Name)

		_, err = catalog.Books(ctx, 0, "unknown")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("blog navigation falls back to itself", func(t *testing.T) {
		catalog := NewCatalogService(db, config.ShelfConfig{})
		var blogs []models.Blog
		for i := 1; i <= 2; i++ {
			blog := models.Blog{Title: fmt.Sprintf("Exam tips %d", i)}
			require.NoError(t, db.Create(&blog).Error)
			blogs = append(blogs, blog)
		}

		view, err := catalog.Blog(ctx, blogs[0].ID, "next")
		require.NoError(t, err)
		assert.Equal(t, blogs[1].ID, view.Blog.ID)

		view, err = catalog.Blog(ctx, blogs[1].ID, "next")
		require.NoError(t, err)
		assert.Equal(t, blogs[1].ID, view.Blog.ID)

		view, err = catalog.Blog(ctx, blogs[1].ID, "prev")
		require.NoError(t, err)
		assert.Equal(t, blogs[0].ID, view.Blog.ID)
		assert.Len(t, view.All, 2)
	})
}
