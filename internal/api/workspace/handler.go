package workspace

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/liliang-cn/pdfchat/internal/service"
)

// Handler handles workspace chat requests from the browser
type Handler struct {
	chatService *service.ChatService
}

// NewHandler creates a new workspace handler
func NewHandler(chatService *service.ChatService) *Handler {
	return &Handler{chatService: chatService}
}

// RegisterRoutes registers workspace routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.POST("/:id/upload", h.Upload)
	r.POST("/:id/ask", h.Ask)
	r.PUT("/:id/summarization", h.SetSummarization)
	r.POST("/:id/reset", h.Reset)
}

// Create starts a new workspace
func (h *Handler) Create(c *gin.Context) {
	c.JSON(http.StatusCreated, h.chatService.CreateWorkspace(c.Request.Context()))
}

// Get returns the workspace settings and chat state
func (h *Handler) Get(c *gin.Context) {
	resp, err := h.chatService.GetWorkspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Upload forwards a PDF to the backend. A rejected or failed upload is
// reported as an unsuccessful outcome.
func (h *Handler) Upload(c *gin.Context) {
	id := c.Param("id")

	doc := domain.Document{}
	file, err := c.FormFile("file")
	if err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
			return
		}
		defer f.Close()
		doc = domain.Document{Filename: file.Filename, Size: file.Size, Content: f}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.chatService.Upload(c.Request.Context(), id, doc)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, outcome)
}

// Ask submits a question. Blank questions and asks without a session are
// not errors; they come back with accepted set to false.
func (h *Handler) Ask(c *gin.Context) {
	var req domain.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatService.Ask(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetSummarization toggles summarization for later questions
func (h *Handler) SetSummarization(c *gin.Context) {
	var req domain.SummarizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatService.SetSummarization(c.Request.Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reset clears the chat of a workspace
func (h *Handler) Reset(c *gin.Context) {
	state, err := h.chatService.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
