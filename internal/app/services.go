package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/services"
)

type Services struct {
	Token      services.TokenService
	Files      services.FileStore
	Extractor  services.PDFTextExtractor
	Permission services.PermissionService
	Course     services.CourseService
	Comment    services.CommentService
	Chapter    services.ChapterService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")
	files, err := services.NewLocalFileStore(log, cfg.FileStoreRoot, cfg.FileStoreBaseURL)
	if err != nil {
		return Services{}, fmt.Errorf("init file store: %w", err)
	}
	tokenService := services.NewTokenService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	extractor := services.NewPDFTextExtractor(db, log, files, reposet.Chapter)
	permissionService := services.NewPermissionService(db, log, reposet.Course)
	courseService := services.NewCourseService(db, log, reposet.Course)
	commentService := services.NewCommentService(db, log, reposet.Chapter, reposet.Comment)
	chapterService := services.NewChapterService(
		db,
		log,
		files,
		extractor,
		permissionService,
		reposet.Course,
		reposet.Chapter,
		commentService,
	)
	return Services{
		Token:      tokenService,
		Files:      files,
		Extractor:  extractor,
		Permission: permissionService,
		Course:     courseService,
		Comment:    commentService,
		Chapter:    chapterService,
	}, nil
}
