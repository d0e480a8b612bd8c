package router

import (
	"time"

	"github.com/amoghcc/coffee-shop-rewards/internal/config"
	"github.com/amoghcc/coffee-shop-rewards/internal/handler"
	"github.com/amoghcc/coffee-shop-rewards/internal/ledger"
	"github.com/amoghcc/coffee-shop-rewards/internal/middleware"
	"github.com/amoghcc/coffee-shop-rewards/internal/ocr"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires the ledger services and configures the Gin engine.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// ledger core: one feed, one store, balance projection, redemption guard
	feed := ledger.NewFeed()
	store := ledger.NewStore(db, feed)
	projector := ledger.NewProjector(db)
	guard := ledger.NewGuard(store, projector, cfg.Rewards.RedeemThreshold)

	ocrTimeout := time.Duration(cfg.OCR.TimeoutSeconds) * time.Second
	ocrClient := ocr.NewClient(cfg.OCR.BaseURL, ocrTimeout)
	validator := ocr.NewValidator(cfg.Rewards.PointsPerUnit, cfg.Rewards.MaxReceiptTotal)

	// ====== API ======
	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/me", handler.GetMe)

	txHandler := handler.NewTransactionHandler(store, projector, guard, cfg.Rewards)
	protected.POST("/transactions", txHandler.CreateTransaction)
	protected.GET("/transactions", txHandler.ListTransactions)
	protected.GET("/balance", txHandler.GetBalance)
	protected.POST("/redeem", txHandler.Redeem)

	receiptHandler := handler.NewReceiptHandler(ocrClient, validator, store, ocrTimeout)
	protected.POST("/receipts", receiptHandler.UploadReceipt)

	feedHandler := handler.NewFeedHandler(feed)
	protected.GET("/feed", feedHandler.StreamFeed)

	exportHandler := handler.NewExportHandler(store)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	return r
}
