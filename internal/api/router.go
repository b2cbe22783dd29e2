package api

import (
	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/pdfchat/internal/api/admin"
	"github.com/liliang-cn/pdfchat/internal/api/middleware"
	"github.com/liliang-cn/pdfchat/internal/api/workspace"
	"github.com/liliang-cn/pdfchat/internal/service"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
	Logger       *zap.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(
	chatService *service.ChatService,
	workspaces *service.WorkspaceService,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}

	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Workspace API (public, one workspace per browser)
	workspaceHandler := workspace.NewHandler(chatService)
	workspaceGroup := r.Group("/api/workspaces")
	workspaceHandler.RegisterRoutes(workspaceGroup)

	// Admin API (requires API key)
	adminHandler := admin.NewHandler(chatService, workspaces)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.Auth(cfg.APIKey))
	adminHandler.RegisterRoutes(adminGroup)

	return r
}
