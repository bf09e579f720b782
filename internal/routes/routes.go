package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/handlers"
	"github.com/example/sdpublication/internal/middleware"
	"github.com/example/sdpublication/internal/models"
	"github.com/example/sdpublication/internal/services"
)

// NewApp builds the fiber application with global middleware and every route.
// rdb may be nil, which disables login rate limiting. The caller owns mailer
// and closes it after shutdown.
func NewApp(db *gorm.DB, cfg *config.Config, rdb *redis.Client, mailer *services.MailPublisher) (*fiber.App, error) {
	storage, err := services.NewStorage(cfg.UploadDir, cfg.MaxUploadMB)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      "SD Publication Backend",
		ErrorHandler: middleware.ErrorHandler,
		// An ebook upload carries a cover and two PDFs.
		BodyLimit: (3*cfg.MaxUploadMB + 1) << 20,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	app.Static("/uploads", storage.Dir())

	Register(app, db, cfg, rdb, storage, mailer)
	return app, nil
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, rdb *redis.Client, storage *services.Storage, mailPublisher *services.MailPublisher) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	catalogService := services.NewCatalogService(db, cfg.Shelves)
	cartService := services.NewCartService(db)
	wishlistService := services.NewWishlistService(db)
	addressService := services.NewAddressService(db)
	quizService := services.NewQuizService(db)
	libraryService := services.NewLibraryService(db, telegramService)
	exportService := services.NewExportService(db)

	authHandler := handlers.NewAuthHandler(db, cfg, storage, mailPublisher)
	passwordResetHandler := handlers.NewPasswordResetHandler(db, cfg, mailPublisher)
	profileHandler := handlers.NewProfileHandler(db, storage, addressService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	marketingHandler := handlers.NewMarketingHandler(db)
	cartHandler := handlers.NewCartHandler(cartService, wishlistService)
	libraryHandler := handlers.NewLibraryHandler(libraryService)
	orderHandler := handlers.NewOrderHandler(libraryService)
	quizHandler := handlers.NewQuizHandler(quizService)
	adminHandler := handlers.NewAdminHandler(db, storage, exportService)

	protected := middleware.AuthMiddleware(cfg)
	optional := middleware.OptionalAuth(cfg)
	loginLimiter := middleware.LoginLimiter(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", loginLimiter, authHandler.Login)
	auth.Post("/verify", loginLimiter, authHandler.Verify)
	auth.Get("/check", authHandler.CheckAvailability)
	auth.Post("/password/forgot", loginLimiter, passwordResetHandler.ForgotPassword)
	auth.Post("/password/verify", loginLimiter, passwordResetHandler.VerifyResetCode)
	auth.Post("/password/reset", passwordResetHandler.ResetPassword)

	// Storefront
	api.Get("/homepage", optional, catalogHandler.Homepage)
	api.Get("/books", optional, catalogHandler.ListBooks)
	api.Get("/books/search", optional, catalogHandler.Search)
	api.Get("/books/:id", optional, catalogHandler.GetBook)
	api.Get("/ebooks", optional, catalogHandler.ListBestSellers)
	api.Get("/editors", catalogHandler.ListEditorsChoice)
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Get("/categories/:id/books", optional, catalogHandler.ListCategoryBooks)
	api.Get("/blogs", marketingHandler.ListBlogs)
	api.Get("/blogs/:id", catalogHandler.GetBlog)
	api.Get("/videos", marketingHandler.ListVideos)
	api.Get("/banners", marketingHandler.ListBanners)
	api.Get("/footer", marketingHandler.Footer)

	// Mock test catalog
	tests := api.Group("/tests")
	tests.Get("/categories", quizHandler.ListMockCategories)
	tests.Get("/categories/:id/sections", quizHandler.ListSections)
	tests.Get("/sections/:id/categories", quizHandler.ListTestCategories)
	tests.Get("/test-categories/:id/tests", quizHandler.ListTests)
	tests.Get("/landing", quizHandler.Landing)

	// Test taking
	tests.Get("/history", protected, quizHandler.History)
	tests.Post("/:id/start", protected, quizHandler.StartTest)
	tests.Get("/:id/questions", protected, quizHandler.GetQuestions)
	tests.Post("/:id/answers", protected, quizHandler.SubmitAnswer)
	tests.Get("/:id", protected, quizHandler.GetTest)

	// Profile
	api.Get("/profile", protected, profileHandler.GetProfile)
	api.Put("/profile", protected, profileHandler.UpdateProfile)
	api.Get("/notifications", protected, profileHandler.ListNotifications)

	api.Get("/addresses", protected, profileHandler.ListAddresses)
	api.Post("/addresses", protected, profileHandler.CreateAddress)
	api.Put("/addresses/:id", protected, profileHandler.UpdateAddress)
	api.Put("/addresses/:id/default", protected, profileHandler.SetDefaultAddress)
	api.Delete("/addresses/:id", protected, profileHandler.DeleteAddress)

	// Cart and wishlist
	api.Get("/cart", protected, cartHandler.GetCart)
	api.Post("/cart", protected, cartHandler.AddToCart)
	api.Get("/cart/summary", protected, cartHandler.CartSummary)
	api.Put("/cart/:id/quantity", protected, cartHandler.UpdateQuantity)
	api.Delete("/cart/:id", protected, cartHandler.RemoveFromCart)
	api.Get("/checkout", protected, cartHandler.Checkout)

	api.Get("/wishlist", protected, cartHandler.GetWishlist)
	api.Post("/wishlist", protected, cartHandler.AddToWishlist)
	api.Delete("/wishlist/:ebookId", protected, cartHandler.RemoveFromWishlist)

	// Library, orders and payments
	api.Get("/library", protected, libraryHandler.GetLibrary)
	api.Post("/library", protected, libraryHandler.AddToLibrary)
	api.Put("/library/:ebookId/progress", protected, libraryHandler.UpdateProgress)
	api.Get("/ebooks/:id/read", protected, libraryHandler.ReadEbook)

	api.Get("/orders", protected, orderHandler.ListOrders)
	api.Get("/orders/:id", protected, orderHandler.GetOrder)
	api.Post("/payments", protected, orderHandler.RecordPayment)
	api.Post("/payments/webhook", middleware.WebhookAuth(cfg.PaymentWebhookKey), orderHandler.PaymentWebhook)

	// Admin
	admin := api.Group("/admin", protected, middleware.RequireRole(models.RoleAdmin))
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Get("/exports/ebooks", adminHandler.ExportEbooks)
	admin.Get("/exports/orders", adminHandler.ExportOrders)

	admin.Get("/ebooks", adminHandler.ListEbooks)
	admin.Get("/ebooks/:id", adminHandler.GetEbook)
	admin.Post("/ebooks", adminHandler.CreateEbook)
	admin.Put("/ebooks/:id", adminHandler.UpdateEbook)
	admin.Delete("/ebooks/:id", adminHandler.DeleteEbook)

	admin.Get("/ebook-categories", adminHandler.ListEbookCategories)
	admin.Post("/ebook-categories", adminHandler.CreateEbookCategory)
	admin.Put("/ebook-categories/:id", adminHandler.UpdateEbookCategory)
	admin.Delete("/ebook-categories/:id", adminHandler.DeleteEbookCategory)

	admin.Get("/blogs", adminHandler.ListBlogs)
	admin.Post("/blogs", adminHandler.CreateBlog)
	admin.Put("/blogs/:id", adminHandler.UpdateBlog)
	admin.Delete("/blogs/:id", adminHandler.DeleteBlog)

	admin.Get("/banners", adminHandler.ListBanners)
	admin.Post("/banners", adminHandler.CreateBanner)
	admin.Delete("/banners/:id", adminHandler.DeleteBanner)

	admin.Get("/videos", adminHandler.ListVideos)
	admin.Get("/videos/search", adminHandler.SearchVideos)
	admin.Post("/videos", adminHandler.CreateVideo)
	admin.Put("/videos/:id", adminHandler.UpdateVideo)
	admin.Delete("/videos/:id", adminHandler.DeleteVideo)

	admin.Get("/footer-links", adminHandler.ListFooterLinks)
	admin.Post("/footer-links", adminHandler.CreateFooterLink)
	admin.Put("/footer-links/:id", adminHandler.UpdateFooterLink)
	admin.Delete("/footer-links/:id", adminHandler.DeleteFooterLink)

	admin.Get("/mock-categories", adminHandler.ListMockCategories)
	admin.Post("/mock-categories", adminHandler.CreateMockCategory)
	admin.Put("/mock-categories/:id", adminHandler.UpdateMockCategory)
	admin.Delete("/mock-categories/:id", adminHandler.DeleteMockCategory)

	admin.Get("/sections", adminHandler.ListSections)
	admin.Post("/sections", adminHandler.CreateSection)
	admin.Put("/sections/:id", adminHandler.UpdateSection)
	admin.Delete("/sections/:id", adminHandler.DeleteSection)

	admin.Get("/test-categories", adminHandler.ListTestCategories)
	admin.Post("/test-categories", adminHandler.CreateTestCategory)
	admin.Put("/test-categories/:id", adminHandler.UpdateTestCategory)
	admin.Delete("/test-categories/:id", adminHandler.DeleteTestCategory)

	admin.Get("/tests", adminHandler.ListTests)
	admin.Post("/tests", adminHandler.CreateTest)
	admin.Put("/tests/:id", adminHandler.UpdateTest)
	admin.Delete("/tests/:id", adminHandler.DeleteTest)

	admin.Get("/questions", adminHandler.ListQuestions)
	admin.Get("/questions/:id", adminHandler.GetQuestion)
	admin.Post("/questions", adminHandler.CreateQuestion)
	admin.Put("/questions/:id", adminHandler.UpdateQuestion)
	admin.Delete("/questions/:id", adminHandler.DeleteQuestion)
}
