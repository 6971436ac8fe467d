package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/apperr"
	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/repos"
	"github.com/lumora/eduhub-backend/internal/requestdata"
	"github.com/lumora/eduhub-backend/internal/types"
)

type CourseService interface {
	CreateCourse(ctx context.Context, tx *gorm.DB, title, description string) (*types.Course, error)
	GetCourse(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
	GetUserCourses(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo) CourseService {
	return &courseService{
		db:         db,
		log:        baseLog.With("service", "CourseService"),
		courseRepo: courseRepo,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, tx *gorm.DB, title, description string) (*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.Permission("not authenticated")
	}
	if title == "" {
		return nil, apperr.Validation("title", "course title is required")
	}
	now := time.Now()
	course := &types.Course{
		ID:          uuid.New(),
		UserID:      rd.UserID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.courseRepo.Create(ctx, tx, []*types.Course{course}); err != nil {
		s.log.Error("CreateCourse failed", "error", err)
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apperr.NotFound("course")
	}
	return course, nil
}

func (s *courseService) GetUserCourses(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.Permission("not authenticated")
	}
	return s.courseRepo.GetByUserID(ctx, tx, rd.UserID)
}
