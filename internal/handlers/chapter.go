package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumora/eduhub-backend/internal/apperr"
	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/services"
)

type ChapterHandler struct {
	log            *logger.Logger
	chapterService services.ChapterService
}

func NewChapterHandler(log *logger.Logger, chapterService services.ChapterService) *ChapterHandler {
	return &ChapterHandler{
		log:            log.With("handler", "ChapterHandler"),
		chapterService: chapterService,
	}
}

type createFolderRequest struct {
	CourseID uuid.UUID  `json:"courseId"`
	ParentID *uuid.UUID `json:"parentId"`
	Title    string     `json:"title"`
	Order    int        `json:"order"`
}

// POST /api/chapters/folder
func (h *ChapterHandler) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	chapter, err := h.chapterService.CreateFolder(c.Request.Context(), nil, services.CreateChapterInput{
		CourseID: req.CourseID,
		ParentID: req.ParentID,
		Title:    req.Title,
		Order:    req.Order,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

type createTextRequest struct {
	createFolderRequest
	Content string `json:"content"`
}

// POST /api/chapters/text
func (h *ChapterHandler) CreateText(c *gin.Context) {
	var req createTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	chapter, err := h.chapterService.CreateTextChapter(c.Request.Context(), nil, services.CreateChapterInput{
		CourseID: req.CourseID,
		ParentID: req.ParentID,
		Title:    req.Title,
		Order:    req.Order,
	}, req.Content)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

// POST /api/chapters/video  (multipart)
func (h *ChapterHandler) CreateVideo(c *gin.Context) {
	in, err := chapterInputFromForm(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	video, closeVideo, err := formFileInfo(c, "video")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if video == nil {
		RespondServiceError(c, apperr.Validation("video", "video file is required"))
		return
	}
	defer closeVideo()

	chapter, err := h.chapterService.CreateVideoChapter(c.Request.Context(), nil, in, *video)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

// POST /api/chapters/pdf  (multipart, pdf optional)
func (h *ChapterHandler) CreatePDF(c *gin.Context) {
	in, err := chapterInputFromForm(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	pdfFile, closePDF, err := formFileInfo(c, "pdf")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if closePDF != nil {
		defer closePDF()
	}

	chapter, err := h.chapterService.CreatePDFChapter(c.Request.Context(), nil, in, pdfFile)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

// POST /api/chapters/mixed  (multipart, all parts optional)
func (h *ChapterHandler) CreateMixed(c *gin.Context) {
	in, err := chapterInputFromForm(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	video, closeVideo, err := formFileInfo(c, "video")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if closeVideo != nil {
		defer closeVideo()
	}
	pdfFile, closePDF, err := formFileInfo(c, "pdf")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if closePDF != nil {
		defer closePDF()
	}

	chapter, err := h.chapterService.CreateMixedChapter(c.Request.Context(), nil, in, video, pdfFile, c.PostForm("content"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

// GET /api/chapters/list/:courseId
func (h *ChapterHandler) ListCourseChapters(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("courseId", "invalid course id"))
		return
	}
	tree, err := h.chapterService.ListCourseChapters(c.Request.Context(), nil, courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapters": tree})
}

// GET /api/chapters/:chapterId
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("chapterId", "invalid chapter id"))
		return
	}
	chapter, err := h.chapterService.GetChapter(c.Request.Context(), nil, chapterID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

// PUT /api/chapters/:chapterId  (multipart or form)
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("chapterId", "invalid chapter id"))
		return
	}

	var upd services.UpdateChapterInput
	if v, ok := c.GetPostForm("title"); ok {
		upd.Title = &v
	}
	if v, ok := c.GetPostForm("order"); ok {
		order, err := strconv.Atoi(v)
		if err != nil {
			RespondServiceError(c, apperr.Validation("order", "order must be an integer"))
			return
		}
		upd.Order = &order
	}
	if v, ok := c.GetPostForm("textContent"); ok {
		upd.TextContent = &v
	}
	if v, ok := c.GetPostForm("parentId"); ok {
		upd.SetParent = true
		if v != "" {
			parentID, err := uuid.Parse(v)
			if err != nil {
				RespondServiceError(c, apperr.Validation("parentId", "invalid parent id"))
				return
			}
			upd.ParentID = &parentID
		}
	}
	cover, closeCover, err := formFileInfo(c, "coverImage")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if closeCover != nil {
		defer closeCover()
	}
	upd.Cover = cover

	chapter, err := h.chapterService.UpdateChapter(c.Request.Context(), nil, chapterID, upd)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

// POST /api/chapters/:chapterId/cover  (multipart)
func (h *ChapterHandler) UpdateCover(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("chapterId", "invalid chapter id"))
		return
	}
	cover, closeCover, err := formFileInfo(c, "coverImage")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if cover == nil {
		RespondServiceError(c, apperr.Validation("coverImage", "cover image file is required"))
		return
	}
	defer closeCover()

	chapter, err := h.chapterService.UpdateCover(c.Request.Context(), nil, chapterID, *cover)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

type moveChapterRequest struct {
	NewParentID *uuid.UUID `json:"newParentId"`
	NewOrder    *int       `json:"newOrder"`
}

// POST /api/chapters/:chapterId/move
func (h *ChapterHandler) MoveChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("chapterId", "invalid chapter id"))
		return
	}
	var req moveChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	chapter, err := h.chapterService.Move(c.Request.Context(), nil, chapterID, req.NewParentID, req.NewOrder)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chapter": chapter})
}

type batchReorderRequest struct {
	Updates []services.ReorderUpdate `json:"updates"`
}

// POST /api/chapters/batch-order
func (h *ChapterHandler) BatchReorder(c *gin.Context) {
	var req batchReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.chapterService.BatchReorder(c.Request.Context(), nil, req.Updates); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"updated": len(req.Updates)})
}

// DELETE /api/chapters/:chapterId
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		RespondServiceError(c, apperr.Validation("chapterId", "invalid chapter id"))
		return
	}
	if err := h.chapterService.DeleteChapter(c.Request.Context(), nil, chapterID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": chapterID})
}

// =====================================
// Form helpers
// =====================================

func chapterInputFromForm(c *gin.Context) (services.CreateChapterInput, error) {
	var in services.CreateChapterInput
	courseID, err := uuid.Parse(c.PostForm("courseId"))
	if err != nil {
		return in, apperr.Validation("courseId", "invalid course id")
	}
	in.CourseID = courseID
	if v := c.PostForm("parentId"); v != "" {
		parentID, err := uuid.Parse(v)
		if err != nil {
			return in, apperr.Validation("parentId", "invalid parent id")
		}
		in.ParentID = &parentID
	}
	in.Title = c.PostForm("title")
	if v := c.PostForm("order"); v != "" {
		order, err := strconv.Atoi(v)
		if err != nil {
			return in, apperr.Validation("order", "order must be an integer")
		}
		in.Order = order
	}
	return in, nil
}

// formFileInfo opens a multipart file part. A missing part returns nil
// without error; the caller decides whether it was required.
func formFileInfo(c *gin.Context, field string) (*services.UploadedFileInfo, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, apperr.Validation(field, "invalid file upload")
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, apperr.Storage("open uploaded file", err)
	}
	info := &services.UploadedFileInfo{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		SizeBytes:    header.Size,
		Reader:       f,
	}
	return info, func() { closeMultipart(f) }, nil
}

func closeMultipart(f multipart.File) {
	_ = f.Close()
}
