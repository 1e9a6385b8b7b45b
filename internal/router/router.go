package router

import (
	"github.com/gin-gonic/gin"

	"invoiceflow/internal/handler"
	"invoiceflow/internal/middleware"
)

// Options configures middleware for the engine.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	opts Options,
	invoiceH *handler.InvoiceHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/health", healthH.Health)

	upload := middleware.MaxBodySize(opts.MaxBodyBytes)

	v1 := r.Group("/api/v1")
	invoices := v1.Group("/users/:user_id/invoices")
	invoices.POST("", upload, invoiceH.Process)
	invoices.POST("/debug", upload, invoiceH.Debug)
	invoices.GET("", invoiceH.List)
	invoices.GET("/export", invoiceH.Export)

	// Paths used by existing clients
	legacy := r.Group("/api")
	legacy.POST("/process-invoice/:user_id", upload, invoiceH.Process)
	legacy.POST("/debug-invoice/:user_id", upload, invoiceH.Debug)

	return r
}
