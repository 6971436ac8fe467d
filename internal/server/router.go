package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lumora/eduhub-backend/internal/handlers"
	"github.com/lumora/eduhub-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *middleware.AuthMiddleware
	CourseHandler  *handlers.CourseHandler
	ChapterHandler *handlers.ChapterHandler
	CommentHandler *handlers.CommentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Courses
	api.POST("/courses", cfg.CourseHandler.CreateCourse)
	api.GET("/courses", cfg.CourseHandler.ListUserCourses)
	api.GET("/courses/:courseId", cfg.CourseHandler.GetCourse)

	// Chapter ingestion
	api.POST("/chapters/folder", cfg.ChapterHandler.CreateFolder)
	api.POST("/chapters/text", cfg.ChapterHandler.CreateText)
	api.POST("/chapters/video", cfg.ChapterHandler.CreateVideo)
	api.POST("/chapters/pdf", cfg.ChapterHandler.CreatePDF)
	api.POST("/chapters/mixed", cfg.ChapterHandler.CreateMixed)

	// Chapter retrieval and structure
	api.GET("/chapters/list/:courseId", cfg.ChapterHandler.ListCourseChapters)
	api.POST("/chapters/batch-order", cfg.ChapterHandler.BatchReorder)
	api.GET("/chapters/:chapterId", cfg.ChapterHandler.GetChapter)
	api.PUT("/chapters/:chapterId", cfg.ChapterHandler.UpdateChapter)
	api.POST("/chapters/:chapterId/cover", cfg.ChapterHandler.UpdateCover)
	api.POST("/chapters/:chapterId/move", cfg.ChapterHandler.MoveChapter)
	api.DELETE("/chapters/:chapterId", cfg.ChapterHandler.DeleteChapter)

	// Comments
	api.POST("/chapters/:chapterId/comments", cfg.CommentHandler.CreateComment)
	api.GET("/chapters/:chapterId/comments", cfg.CommentHandler.ListChapterComments)

	return router
}
