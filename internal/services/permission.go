package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/apperr"
	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/repos"
	"github.com/lumora/eduhub-backend/internal/requestdata"
	"github.com/lumora/eduhub-backend/internal/types"
)

// PermissionService gates every mutation: only the owning course's instructor
// may change its content tree.
type PermissionService interface {
	RequireCourseOwner(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
}

type permissionService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
}

func NewPermissionService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo) PermissionService {
	return &permissionService{
		db:         db,
		log:        baseLog.With("service", "PermissionService"),
		courseRepo: courseRepo,
	}
}

func (s *permissionService) RequireCourseOwner(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.Permission("not authenticated")
	}
	if courseID == uuid.Nil {
		return nil, apperr.Validation("courseId", "missing course id")
	}
	course, err := s.courseRepo.GetByID(ctx, tx, courseID)
	if err != nil {
		s.log.Warn("RequireCourseOwner: load course failed", "error", err, "course_id", courseID)
		return nil, err
	}
	if course == nil {
		return nil, apperr.NotFound("course")
	}
	if course.UserID != rd.UserID {
		return nil, apperr.Permission("caller is not the course instructor")
	}
	return course, nil
}
