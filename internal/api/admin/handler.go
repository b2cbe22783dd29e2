package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/liliang-cn/pdfchat/internal/service"
)

// Handler handles archive requests for operators
type Handler struct {
	chatService *service.ChatService
	workspaces  *service.WorkspaceService
}

// NewHandler creates a new admin handler
func NewHandler(chatService *service.ChatService, workspaces *service.WorkspaceService) *Handler {
	return &Handler{chatService: chatService, workspaces: workspaces}
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.Stats)
	r.GET("/workspaces/:id/transcript", h.Transcript)
	r.DELETE("/workspaces/:id", h.DeleteWorkspace)
}

// Stats returns archive statistics and the number of live workspaces
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.chatService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_sessions":    stats.TotalSessions,
		"total_questions":   stats.TotalQuestions,
		"total_answers":     stats.TotalAnswers,
		"active_workspaces": h.workspaces.Count(),
	})
}

// Transcript returns the archived messages of a workspace
func (h *Handler) Transcript(c *gin.Context) {
	entries, err := h.chatService.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
}

// DeleteWorkspace drops a live workspace; its archive is kept
func (h *Handler) DeleteWorkspace(c *gin.Context) {
	if err := h.workspaces.Delete(c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "workspace deleted"})
}
