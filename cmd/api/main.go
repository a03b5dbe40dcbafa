package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Karol96S/budgetapp/internal/config"
	"github.com/Karol96S/budgetapp/internal/database"
	"github.com/Karol96S/budgetapp/internal/email"
	"github.com/Karol96S/budgetapp/internal/handlers"
	"github.com/Karol96S/budgetapp/internal/logger"
	"github.com/Karol96S/budgetapp/internal/middleware"
	"github.com/Karol96S/budgetapp/internal/services"
	"github.com/Karol96S/budgetapp/internal/validator"

	_ "github.com/Karol96S/budgetapp/internal/docs" // Import swagger docs
)

// @title           BudgetApp API
// @version         1.0
// @description     BudgetApp is a personal finance application that lets users track incomes and expenses against their own categories and payment methods.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	sender := email.NewSender(appConfig.ResendAPIKey, appConfig.EmailFrom)
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db, sender, appConfig.BaseURL)
	categoryService := services.NewCategoryService(db)
	paymentMethodService := services.NewPaymentMethodService(db)
	entryService := services.NewEntryService(db, categoryService, paymentMethodService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(paymentMethodService)
	entryHandler := handlers.NewEntryHandler(entryService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.GET("/activate/:token", authHandler.Activate)
	auth.POST("/login", authHandler.Login)
	auth.POST("/remember", authHandler.RememberedLogin)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/password-reset", authHandler.RequestPasswordReset)
	auth.GET("/password-reset/:token", authHandler.ValidatePasswordReset)
	auth.POST("/password-reset/:token", authHandler.ResetPassword)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.POST("/profile/username", authHandler.ChangeUsername)
	protected.POST("/profile/password", authHandler.ChangePassword)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Payment method routes
	paymentMethods := protected.Group("/payment-methods")
	paymentMethods.POST("", paymentMethodHandler.CreatePaymentMethod)
	paymentMethods.GET("", paymentMethodHandler.GetUserPaymentMethods)

	// Ledger entry routes
	entries := protected.Group("/entries")
	entries.POST("", entryHandler.CreateEntry)
	entries.GET("", entryHandler.GetEntries)
	entries.GET("/summary", entryHandler.GetSummary)
	entries.DELETE("/:id", entryHandler.DeleteEntry)

	// Expense read endpoints consumed by the dashboard
	expenses := protected.Group("/expenses")
	expenses.GET("/sum", entryHandler.GetExpenseSum)
	expenses.GET("/limit", entryHandler.GetExpenseLimit)

	log.Infof("Starting BudgetApp backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
