package handlers

import (
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/service"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live activity stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsActivity)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorIdMiddleware)
	{
		h.registerPipelineRoutes(api)
		h.registerPrinterRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerPipelineRoutes(api *gin.RouterGroup) {
	pipeline := api.Group("/pipeline")
	{
		pipeline.POST("/activate", h.activatePipeline)
		pipeline.POST("/deactivate", h.deactivatePipeline)
		pipeline.GET("/status", h.getPipelineStatus)
		pipeline.GET("/activity", h.getActivity)
	}
}

func (h *Handler) registerPrinterRoutes(api *gin.RouterGroup) {
	printer := api.Group("/printer")
	{
		printer.POST("/connect", h.connectPrinter)
		printer.POST("/disconnect", h.disconnectPrinter)
		printer.GET("/status", h.getPrinterStatus)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
