package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "cartellino/docs"
	"cartellino/internal/handler"
	"cartellino/internal/middleware"
	"cartellino/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	allowedOrigins []string,
	authH *handler.AuthHandler,
	timesheetH *handler.TimesheetHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Public auth routes
	v1.POST("/auth/token", authH.Token)

	// Protected routes - require valid bearer token
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	timesheets := protected.Group("/timesheets")
	timesheets.POST("/parse", timesheetH.Parse)
	timesheets.POST("", timesheetH.Upload)
	timesheets.GET("", timesheetH.List)
	timesheets.GET("/:id", timesheetH.GetByID)
	timesheets.POST("/:id/reparse", timesheetH.Reparse)
	timesheets.GET("/:id/export", timesheetH.Export)
	timesheets.GET("/:id/source", timesheetH.Source)
	timesheets.DELETE("/:id", timesheetH.Delete)

	return r
}
