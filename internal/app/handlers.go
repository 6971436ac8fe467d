package app

import (
	"github.com/lumora/eduhub-backend/internal/handlers"
	"github.com/lumora/eduhub-backend/internal/logger"
)

type Handlers struct {
	Course  *handlers.CourseHandler
	Chapter *handlers.ChapterHandler
	Comment *handlers.CommentHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Course:  handlers.NewCourseHandler(log, services.Course),
		Chapter: handlers.NewChapterHandler(log, services.Chapter),
		Comment: handlers.NewCommentHandler(log, services.Comment),
	}
}
