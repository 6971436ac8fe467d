package app

import (
	"github.com/gin-gonic/gin"

	"github.com/lumora/eduhub-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:    "eduhub-backend",
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: middleware.Auth,
		CourseHandler:  handlers.Course,
		ChapterHandler: handlers.Chapter,
		CommentHandler: handlers.Comment,
	})
}
