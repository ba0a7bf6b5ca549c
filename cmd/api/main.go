package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "backoffice/api/swagger" // swagger docs
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/handler"
	"backoffice/internal/logger"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/websocket"
)

// @title           Dealer Back Office API
// @version         1.0
// @description     Customers, branches, vehicles, sales invoices and official receipts.
// @host            localhost:8080
// @BasePath        /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.Log)
	defer func() { _ = zlog.Sync() }()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("Database connection failed", zap.Error(err))
	}
	zlog.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go wsHub.Run(hubCtx)

	// Set up dependencies (Repository -> Service -> Handler)
	customerRepo := repository.NewCustomerRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	invoiceRepo := repository.NewSalesInvoiceRepository(db)
	receiptRepo := repository.NewOfficialReceiptRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	txManager := repository.NewTransactionManager(db)

	customerService := service.NewCustomerService(customerRepo, auditRepo, wsHub, zlog)
	branchService := service.NewBranchService(branchRepo, auditRepo, wsHub, zlog)
	vehicleService := service.NewVehicleService(vehicleRepo, auditRepo, wsHub, zlog)
	invoiceService := service.NewSalesInvoiceService(invoiceRepo, customerRepo, branchRepo, vehicleRepo, auditRepo, txManager, wsHub, zlog)
	receiptService := service.NewOfficialReceiptService(receiptRepo, invoiceRepo, customerRepo, branchRepo, auditRepo, txManager, wsHub, zlog)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(logger.GinMiddleware(zlog))
	router.Use(logger.Recovery(zlog))
	router.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			zlog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	api := router.Group("")
	handler.NewCustomerHandler(customerService).RegisterRoutes(api)
	handler.NewBranchHandler(branchService).RegisterRoutes(api)
	handler.NewVehicleHandler(vehicleService).RegisterRoutes(api)
	handler.NewSalesInvoiceHandler(invoiceService).RegisterRoutes(api)
	handler.NewOfficialReceiptHandler(receiptService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)
	handler.NewStatisticsHandler(statisticsService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		zlog.Info("Server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// hijacked websocket connections are not closed by Shutdown
	stopHub()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited")
}
