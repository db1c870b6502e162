package handler

import (
	"github.com/hakimz/duit/duit-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, loanHandler *LoanHandler, billHandler *BillHandler, extractionHandler *ExtractionHandler, receiptHandler *ReceiptHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (protected)
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate())
	auth.POST("/callback", authHandler.Callback)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// Loan routes (protected, rate limited)
	loans := api.Group("/loans")
	loans.Use(authMiddleware.Authenticate())
	loans.Use(middleware.RateLimitMiddleware(rateLimiter))
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.POST("/preview", loanHandler.PreviewSchedule)
	loans.GET("/payoff-order", loanHandler.GetPayoffOrder)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.PUT("/:id", loanHandler.UpdateLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.GET("/:id/stats", loanHandler.GetLoanStats)
	loans.GET("/:id/settlement", loanHandler.GetSettlementQuote)
	loans.PATCH("/:id/amount", loanHandler.BulkApplyAmount)
	loans.PATCH("/:id/lines/:lineId/paid", loanHandler.SetLinePaid)

	// Bill routes (protected, rate limited)
	bills := api.Group("/bills")
	bills.Use(authMiddleware.Authenticate())
	bills.Use(middleware.RateLimitMiddleware(rateLimiter))
	bills.POST("", billHandler.CreateBill)
	bills.GET("", billHandler.GetBills)
	bills.GET("/:id", billHandler.GetBill)
	bills.PUT("/:id", billHandler.UpdateBill)
	bills.DELETE("/:id", billHandler.DeleteBill)
	bills.GET("/:id/projection", billHandler.GetProjection)
	bills.PATCH("/:id/paid", billHandler.SetDatePaid)

	// Extraction routes (protected, rate limited)
	extract := api.Group("/extract")
	extract.Use(authMiddleware.Authenticate())
	extract.Use(middleware.RateLimitMiddleware(rateLimiter))
	extract.POST("", extractionHandler.Extract)

	// Receipt routes (protected)
	receipts := api.Group("/receipts")
	receipts.Use(authMiddleware.Authenticate())
	receipts.POST("", receiptHandler.UploadReceipt)
	receipts.GET("/:id", receiptHandler.GetReceipt)
	receipts.DELETE("/:id", receiptHandler.DeleteReceipt)

	// WebSocket endpoint authenticates via token query parameter
	api.GET("/ws", wsHandler.HandleWS)
}
