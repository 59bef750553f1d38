package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fundflow/internal/config"
	"fundflow/internal/database"
	"fundflow/internal/handlers"
	"fundflow/internal/importer"
	"fundflow/internal/logger"
	"fundflow/internal/marketdata"
	"fundflow/internal/middleware"
	"fundflow/internal/models"
	"fundflow/internal/scheduler"
	"fundflow/internal/services"
	"fundflow/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	brokerService := services.NewBrokerService(db)
	fundService := services.NewFundService(db)
	positionService := services.NewPositionService(db)
	summaryService := services.NewSummaryService(db)
	tradeService := services.NewTradeService(db, positionService, summaryService)
	holdingService := services.NewHoldingService(db, brokerService, fundService)
	auditService := services.NewAuditService(db)

	// Statement imports
	registry := importer.NewRegistry()
	statementImporter := importer.New(db, registry, brokerService, fundService, tradeService, holdingService)

	// Market data
	feed := marketdata.NewHTTPFeed(appConfig.QuoteFeedURL)
	quoteCache := marketdata.NewCache(feed, appConfig.PriceCacheTTL)
	refresher := marketdata.NewRefresher(db, quoteCache)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	brokerHandler := handlers.NewBrokerHandler(brokerService, summaryService, auditService)
	fundHandler := handlers.NewFundHandler(fundService, brokerService, summaryService, auditService)
	tradeHandler := handlers.NewTradeHandler(tradeService, fundService, auditService)
	positionHandler := handlers.NewPositionHandler(positionService, tradeService, auditService)
	holdingHandler := handlers.NewHoldingHandler(holdingService, auditService)
	importHandler := handlers.NewImportHandler(statementImporter, auditService)
	marketHandler := handlers.NewMarketHandler(quoteCache, refresher, auditService)

	// Background jobs
	jobs := scheduler.New()
	if appConfig.QuoteFeedURL != "" {
		err := jobs.AddJob(appConfig.PriceRefreshSchedule, &scheduler.PriceRefreshJob{Refresher: refresher})
		if err != nil {
			return fmt.Errorf("failed to schedule price refresh: %w", err)
		}
	}
	if appConfig.ImportUserID != 0 {
		err := jobs.AddJob(appConfig.ImportSchedule, &scheduler.StatementScanJob{
			Importer: statementImporter,
			UserID:   appConfig.ImportUserID,
			Broker:   models.BrokerCode(appConfig.ImportBroker),
			Dir:      appConfig.ImportDir,
		})
		if err != nil {
			return fmt.Errorf("failed to schedule statement scan: %w", err)
		}
	}
	jobs.Start()
	defer jobs.Stop()

	// Router
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

	protected.GET("/me", authHandler.Me)

	// Broker account routes
	brokers := protected.Group("/brokers")
	brokers.POST("", brokerHandler.CreateBrokerAccount)
	brokers.GET("", brokerHandler.GetBrokerAccounts)
	brokers.GET("/:id", brokerHandler.GetBrokerAccount)
	brokers.GET("/:id/dashboard", brokerHandler.GetBrokerDashboard)
	brokers.GET("/:id/funds", fundHandler.GetBrokerFunds)

	// Company routes
	companies := protected.Group("/companies")
	companies.POST("", fundHandler.CreateCompany)
	companies.GET("/:id", fundHandler.GetCompany)
	companies.GET("/:id/funds", fundHandler.GetCompanyFunds)

	// Fund routes
	funds := protected.Group("/funds")
	funds.POST("", fundHandler.CreateFund)
	funds.GET("/check-name", fundHandler.CheckFundName)
	funds.GET("/:id", fundHandler.GetFund)
	funds.GET("/:id/summaries", fundHandler.GetFundSummaries)
	funds.GET("/:id/positions", positionHandler.GetFundPositions)
	funds.GET("/:id/holdings", holdingHandler.GetFundHoldings)

	// Trade and option routes
	trades := protected.Group("/trades")
	trades.POST("", tradeHandler.SubmitTrade)
	options := protected.Group("/options")
	options.GET("/ticker/:ticker", tradeHandler.GetOption)
	options.GET("/:id/trades", tradeHandler.GetOptionTrades)

	// Position routes
	positions := protected.Group("/positions")
	positions.GET("/:id", positionHandler.GetPosition)
	positions.GET("/:id/history", positionHandler.GetPositionHistory)
	positions.POST("/:id/close", positionHandler.ClosePosition)
	positions.POST("/:id/expire", positionHandler.ExpirePosition)

	// Holding routes
	holdings := protected.Group("/holdings")
	holdings.POST("/buy", holdingHandler.RecordBuy)
	holdings.POST("/sell", holdingHandler.RecordSell)
	holdings.GET("/:id", holdingHandler.GetHolding)

	// Statement import routes
	imports := protected.Group("/imports")
	imports.POST("", importHandler.UploadStatement)
	imports.GET("/:id", importHandler.GetBatch)

	// Market data routes
	market := protected.Group("/market")
	market.GET("/quote", marketHandler.GetQuote)
	market.POST("/refresh", marketHandler.RefreshPrices)

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting FundFlow backend server on port %s", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
