package main

import (
	"fmt"
	"net/http"
	"os"

	"homebudget/internal/config"
	"homebudget/internal/database"
	"homebudget/internal/handlers"
	"homebudget/internal/logger"
	"homebudget/internal/middleware"
	"homebudget/internal/services"
	"homebudget/internal/simplefin"
	"homebudget/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "homebudget/internal/docs" // Import swagger docs
)

// @title           HomeBudget API
// @version         1.0
// @description     HomeBudget is a personal budgeting application with rolling budget periods, a transaction ledger with splits, and bank imports through the SimpleFIN bridge.
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

	// Register custom request validators
	validator.Register()

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

	// Initialize services
	db := dbManager.DB()
	bridgeClient := simplefin.NewClient(appConfig.SimpleFINTimeout)
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	budgetService := services.NewBudgetService(db)
	transactionService := services.NewTransactionService(db, accountService)
	importService := services.NewImportService(db, bridgeClient, userService)
	netWorthService := services.NewNetWorthService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, importService, auditService)
	simplefinHandler := handlers.NewSimpleFINHandler(bridgeClient, userService, importService, auditService)
	netWorthHandler := handlers.NewNetWorthHandler(netWorthService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
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
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Budget period routes
	periods := protected.Group("/budget-periods")
	periods.POST("", budgetHandler.CreatePeriod)
	periods.GET("", budgetHandler.GetUserPeriods)
	periods.GET("/:id", budgetHandler.GetPeriodDetail)
	periods.POST("/:id/rollover", budgetHandler.Rollover)
	periods.POST("/:id/items", budgetHandler.AddItem)

	// Budget item routes
	items := protected.Group("/budget-items")
	items.PATCH("/:id", budgetHandler.UpdateItem)
	items.DELETE("/:id", budgetHandler.DeleteItem)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("/import", transactionHandler.ImportBatch)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/split", transactionHandler.SplitTransaction)
	transactions.POST("/:id/unsplit", transactionHandler.UnsplitTransaction)

	// SimpleFIN bridge routes
	sfin := protected.Group("/simplefin")
	sfin.POST("/setup", simplefinHandler.Setup)
	sfin.POST("/sync", simplefinHandler.Sync)
	sfin.GET("/status", simplefinHandler.Status)
	sfin.POST("/disconnect", simplefinHandler.Disconnect)

	// Net worth routes
	netWorth := protected.Group("/net-worth")
	netWorth.POST("/snapshots", netWorthHandler.CreateSnapshot)
	netWorth.GET("/snapshots", netWorthHandler.GetSnapshots)
	netWorth.GET("/current", netWorthHandler.GetCurrent)

	log.Infof("Starting HomeBudget backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
