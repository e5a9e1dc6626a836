package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lumeno/academy-api/database"
	"github.com/lumeno/academy-api/handlers"
	admin_handlers "github.com/lumeno/academy-api/handlers/admin"
	auth_handlers "github.com/lumeno/academy-api/handlers/auth"
	checkout_handlers "github.com/lumeno/academy-api/handlers/checkout"
	course_handlers "github.com/lumeno/academy-api/handlers/course"
	media_handlers "github.com/lumeno/academy-api/handlers/media"
	notification_handlers "github.com/lumeno/academy-api/handlers/notification"
	progress_handlers "github.com/lumeno/academy-api/handlers/progress"
	ticket_handlers "github.com/lumeno/academy-api/handlers/ticket"
	upload_handlers "github.com/lumeno/academy-api/handlers/upload"
	webhook_handlers "github.com/lumeno/academy-api/handlers/webhook"
	"github.com/lumeno/academy-api/services"
	"github.com/lumeno/academy-api/services/storage"
	"github.com/lumeno/academy-api/utils"
	"github.com/lumeno/academy-api/utils/auth"
	"github.com/lumeno/academy-api/utils/cache"
	"github.com/lumeno/academy-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "lumeno-academy-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize object storage client
	spacesClient, err := storage.NewSpacesClient(storage.SpacesConfig{
		AccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SecretKey: os.Getenv("SPACES_SECRET_KEY"),
		Bucket:    os.Getenv("SPACES_BUCKET"),
		Region:    os.Getenv("SPACES_REGION"),
		Endpoint:  os.Getenv("SPACES_ENDPOINT"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize Spaces client: %v", err)
	}

	// Checkout redirect URLs
	successURL := os.Getenv("CHECKOUT_SUCCESS_URL")
	if successURL == "" {
		successURL = "http://localhost:3000/checkout/success"
	}
	cancelURL := os.Getenv("CHECKOUT_CANCEL_URL")
	if cancelURL == "" {
		cancelURL = "http://localhost:3000/checkout/cancel"
	}

	// Initialize services
	entitlementService := services.NewEntitlementService(db)
	notificationService := services.NewNotificationService(db)
	mediaService := services.NewMediaService(db, entitlementService, spacesClient)
	progressService := services.NewProgressService(db, entitlementService)
	ticketService := services.NewTicketService(db, notificationService)
	uploadService := services.NewUploadService(db, spacesClient)
	billingService := services.NewBillingService(db, os.Getenv("STRIPE_SECRET_KEY"), successURL, cancelURL)
	webhookService := services.NewWebhookService(db, os.Getenv("STRIPE_WEBHOOK_SECRET"), notificationService)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db, entitlementService, progressService)
	storeHandler := course_handlers.NewStoreHandler(db)
	mediaHandler := media_handlers.NewMediaHandler(mediaService)
	progressHandler := progress_handlers.NewProgressHandler(progressService)
	checkoutHandler := checkout_handlers.NewCheckoutHandler(billingService, cancelURL)
	webhookHandler := webhook_handlers.NewWebhookHandler(webhookService)
	uploadHandler := upload_handlers.NewUploadHandler(uploadService)
	ticketHandler := ticket_handlers.NewTicketHandler(ticketService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Stripe webhook (public, signature-verified inside the handler)
	api.Post("/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Catalog routes. Listings are public; an optional token annotates
	// accessibility and ownership.
	api.Get("/tiers", storeHandler.ListTiers)
	api.Get("/files", authMiddleware.Optional(), storeHandler.ListFileProducts)
	api.Get("/products", authMiddleware.Optional(), storeHandler.ListProducts)
	api.Get("/purchases", authMiddleware.Required(), storeHandler.MyPurchases)

	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Optional(), courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse)
	courses.Get("/:id/progress", authMiddleware.Required(), courseHandler.GetCourseProgress)

	// Media routes (signed URL issuance, entitlement enforced in services)
	media := api.Group("/", authMiddleware.Required())
	media.Get("/videos/:lessonId", mediaHandler.GetVideoURL)
	media.Get("/downloads/:attachmentId", mediaHandler.GetDownloadURL)
	media.Get("/preview/:attachmentId", mediaHandler.GetPreviewURL)
	media.Get("/files/:fileProductId/download", mediaHandler.GetFileProductURL)

	// Progress routes
	progressGroup := api.Group("/progress", authMiddleware.Required())
	progressGroup.Post("/", progressHandler.UpsertProgress)
	progressGroup.Get("/", progressHandler.GetProgress)

	// Checkout routes
	checkout := api.Group("/checkout", authMiddleware.Required())
	checkout.Post("/subscription/:id", checkoutHandler.CheckoutSubscription)
	checkout.Get("/subscription/:id", checkoutHandler.RedirectSubscription)
	checkout.Post("/files/:id", checkoutHandler.CheckoutFileProduct)
	checkout.Post("/products/:id", checkoutHandler.CheckoutProduct)
	checkout.Post("/portal", checkoutHandler.BillingPortal)

	// Notification routes (protected)
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Put("/:id/read", notificationHandler.MarkAsRead)
	notifications.Put("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)
	notifications.Delete("/", notificationHandler.DeleteAllNotifications)

	// Support ticket routes (protected)
	tickets := api.Group("/tickets", authMiddleware.Required())
	tickets.Post("/", ticketHandler.CreateTicket)
	tickets.Get("/", ticketHandler.ListTickets)
	tickets.Get("/:id", ticketHandler.GetTicket)
	tickets.Post("/:id/messages", ticketHandler.Reply)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	// Admin user management
	admin.Get("/users/stats", func(c *fiber.Ctx) error { return admin_handlers.GetUserStats(c, store) })
	admin.Get("/users", func(c *fiber.Ctx) error { return admin_handlers.ListUsers(c, store) })
	admin.Get("/users/:id", func(c *fiber.Ctx) error { return admin_handlers.GetUser(c, store) })
	admin.Put("/users/:id", middleware.AdminAuditLog(store, "user_update", "users"), func(c *fiber.Ctx) error { return admin_handlers.UpdateUser(c, store) })
	admin.Delete("/users/:id", middleware.AdminAuditLog(store, "user_delete", "users"), func(c *fiber.Ctx) error { return admin_handlers.DeleteUser(c, store) })
	admin.Post("/users/:id/reset-password", middleware.AdminAuditLog(store, "password_reset", "users"), func(c *fiber.Ctx) error { return admin_handlers.ResetUserPassword(c, store) })

	// Admin content management
	admin.Post("/courses", middleware.AdminAuditLog(store, "course_create", "courses"), func(c *fiber.Ctx) error { return admin_handlers.CreateCourse(c, store) })
	admin.Put("/courses/:id", middleware.AdminAuditLog(store, "course_update", "courses"), func(c *fiber.Ctx) error { return admin_handlers.UpdateCourse(c, store) })
	admin.Delete("/courses/:id", middleware.AdminAuditLog(store, "course_delete", "courses"), func(c *fiber.Ctx) error { return admin_handlers.DeleteCourse(c, store) })
	admin.Post("/modules", func(c *fiber.Ctx) error { return admin_handlers.CreateModule(c, store) })
	admin.Put("/modules/:id", func(c *fiber.Ctx) error { return admin_handlers.UpdateModule(c, store) })
	admin.Delete("/modules/:id", func(c *fiber.Ctx) error { return admin_handlers.DeleteModule(c, store) })
	admin.Post("/lessons", func(c *fiber.Ctx) error { return admin_handlers.CreateLesson(c, store) })
	admin.Put("/lessons/:id", func(c *fiber.Ctx) error { return admin_handlers.UpdateLesson(c, store) })
	admin.Delete("/lessons/:id", func(c *fiber.Ctx) error { return admin_handlers.DeleteLesson(c, store) })
	admin.Put("/attachments/:id", func(c *fiber.Ctx) error { return admin_handlers.UpdateAttachment(c, store) })
	admin.Delete("/attachments/:id", func(c *fiber.Ctx) error { return admin_handlers.DeleteAttachment(c, store) })

	// Admin catalog management
	admin.Get("/tiers", func(c *fiber.Ctx) error { return admin_handlers.ListTiers(c, store) })
	admin.Post("/tiers", middleware.AdminAuditLog(store, "tier_create", "tiers"), func(c *fiber.Ctx) error { return admin_handlers.CreateTier(c, store) })
	admin.Put("/tiers/:id", middleware.AdminAuditLog(store, "tier_update", "tiers"), func(c *fiber.Ctx) error { return admin_handlers.UpdateTier(c, store) })
	admin.Post("/file-products", func(c *fiber.Ctx) error { return admin_handlers.CreateFileProduct(c, store) })
	admin.Put("/file-products/:id", func(c *fiber.Ctx) error { return admin_handlers.UpdateFileProduct(c, store) })
	admin.Post("/products", func(c *fiber.Ctx) error { return admin_handlers.CreateProduct(c, store) })
	admin.Put("/products/:id", func(c *fiber.Ctx) error { return admin_handlers.UpdateProduct(c, store) })

	// Admin upload flow
	admin.Post("/uploads", uploadHandler.RequestUpload)
	admin.Post("/uploads/complete", uploadHandler.CompleteUpload)

	// Admin support tickets
	admin.Get("/tickets", ticketHandler.ListAllTickets)
	admin.Put("/tickets/:id/status", ticketHandler.SetStatus)

	// Admin analytics
	admin.Get("/analytics/overview", func(c *fiber.Ctx) error { return admin_handlers.GetOverviewAnalytics(c, store) })
	admin.Get("/analytics/revenue", func(c *fiber.Ctx) error { return admin_handlers.GetRevenueAnalytics(c, store) })
	admin.Get("/analytics/content", func(c *fiber.Ctx) error { return admin_handlers.GetContentAnalytics(c, store) })
	admin.Get("/analytics/support", func(c *fiber.Ctx) error { return admin_handlers.GetSupportAnalytics(c, store) })

	// Admin audit logs
	admin.Get("/audit", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, store) })
	admin.Get("/audit/:id", func(c *fiber.Ctx) error { return admin_handlers.GetAuditLog(c, store) })

	// Admin settings management
	admin.Get("/settings", func(c *fiber.Ctx) error { return admin_handlers.ListSettings(c, store) })
	admin.Get("/settings/:key", func(c *fiber.Ctx) error { return admin_handlers.GetSetting(c, store) })
	admin.Put("/settings/:key", middleware.AdminAuditLog(store, "setting_update", "settings"), func(c *fiber.Ctx) error { return admin_handlers.UpdateSetting(c, store) })
	admin.Delete("/settings/:key", middleware.AdminAuditLog(store, "setting_delete", "settings"), func(c *fiber.Ctx) error { return admin_handlers.DeleteSetting(c, store) })
}
