package app

import (
	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/repos"
)

type Repos struct {
	User    repos.UserRepo
	Course  repos.CourseRepo
	Chapter repos.ChapterRepo
	Comment repos.CommentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:    repos.NewUserRepo(db, log),
		Course:  repos.NewCourseRepo(db, log),
		Chapter: repos.NewChapterRepo(db, log),
		Comment: repos.NewCommentRepo(db, log),
	}
}
