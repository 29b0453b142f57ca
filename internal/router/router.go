package router

import (
	"github.com/gin-gonic/gin"

	"vidalaboral/internal/config"
	"vidalaboral/internal/handler"
	"vidalaboral/internal/middleware"
	"vidalaboral/internal/service"
)

// Setup configures the Gin engine with all routes and middleware. tokens is
// only consulted when auth is enabled.
func Setup(
	cfg *config.Config,
	tokens service.TokenService,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.AuthMiddleware(tokens))
	}

	// Form endpoint kept for the upload page.
	protected.POST("/process", reportH.Process)

	v1 := protected.Group("/api/v1")

	reports := v1.Group("/reports")
	reports.POST("/pdf", reportH.FromPDF)
	reports.POST("/images", reportH.FromImages)
	reports.POST("/grid", reportH.FromGrid)
	reports.POST("/periods", reportH.FromPeriods)
	reports.GET("", reportH.List)
	reports.GET("/:id", reportH.GetByID)
	reports.GET("/:id/download", reportH.Download)
	reports.GET("/:id/csv", reportH.ExportCSV)
	reports.DELETE("/:id", reportH.Delete)

	return r
}
