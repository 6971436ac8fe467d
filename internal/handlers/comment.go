package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumora/eduhub-backend/internal/apperr"
	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/services"
)

type CommentHandler struct {
	log            *logger.Logger
	commentService services.CommentService
}

func NewCommentHandler(log *logger.Logger, commentService services.CommentService) *CommentHandler {
	return &CommentHandler{
		log:            log.With("handler", "CommentHandler"),
		commentService: commentService,
	}
}

type createCommentRequest struct {
	Body     string     `json:"body"`
	ParentID *uuid.UUID `json:"parentId"`
}

// POST /api/chapters/:chapterId/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("chapterId", "invalid chapter id"))
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	comment, err := h.commentService.CreateComment(c.Request.Context(), nil, chapterID, req.ParentID, req.Body)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"comment": comment})
}

// GET /api/chapters/:chapterId/comments
func (h *CommentHandler) ListChapterComments(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("chapterId", "invalid chapter id"))
		return
	}
	comments, err := h.commentService.ListChapterComments(c.Request.Context(), nil, chapterID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"comments": comments})
}
