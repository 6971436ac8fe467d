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

type CommentService interface {
	CreateComment(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID, parentID *uuid.UUID, body string) (*types.Comment, error)
	ListChapterComments(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID) ([]*types.Comment, error)
	// DeleteThreadsForChapters purges every comment of the given chapters,
	// replies included. Invoked by the cascading chapter deleter.
	DeleteThreadsForChapters(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error
}

type commentService struct {
	db          *gorm.DB
	log         *logger.Logger
	chapterRepo repos.ChapterRepo
	commentRepo repos.CommentRepo
}

func NewCommentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	chapterRepo repos.ChapterRepo,
	commentRepo repos.CommentRepo,
) CommentService {
	return &commentService{
		db:          db,
		log:         baseLog.With("service", "CommentService"),
		chapterRepo: chapterRepo,
		commentRepo: commentRepo,
	}
}

func (s *commentService) CreateComment(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID, parentID *uuid.UUID, body string) (*types.Comment, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.Permission("not authenticated")
	}
	if body == "" {
		return nil, apperr.Validation("body", "comment body is required")
	}

	chapter, err := s.chapterRepo.GetByID(ctx, tx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if chapter == nil {
		return nil, apperr.NotFound("chapter")
	}
	if parentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, tx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("load parent comment: %w", err)
		}
		if parent == nil || parent.ChapterID != chapterID {
			return nil, apperr.NotFound("parent comment")
		}
	}

	now := time.Now()
	comment := &types.Comment{
		ID:        uuid.New(),
		ChapterID: chapterID,
		ParentID:  parentID,
		UserID:    rd.UserID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.commentRepo.Create(ctx, tx, []*types.Comment{comment}); err != nil {
		s.log.Error("CreateComment failed", "error", err, "chapter_id", chapterID)
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) ListChapterComments(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID) ([]*types.Comment, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, tx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if chapter == nil {
		return nil, apperr.NotFound("chapter")
	}
	return s.commentRepo.GetByChapterID(ctx, tx, chapterID)
}

func (s *commentService) DeleteThreadsForChapters(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error {
	if len(chapterIDs) == 0 {
		return nil
	}
	if err := s.commentRepo.FullDeleteByChapterIDs(ctx, tx, chapterIDs); err != nil {
		s.log.Error("DeleteThreadsForChapters failed", "error", err)
		return fmt.Errorf("delete comment threads: %w", err)
	}
	return nil
}
