package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/types"
)

type CommentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, comments []*types.Comment) ([]*types.Comment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Comment, error)
	GetByChapterID(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID) ([]*types.Comment, error)
	CountByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) (int64, error)
	FullDeleteByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	repoLog := baseLog.With("repo", "CommentRepo")
	return &commentRepo{db: db, log: repoLog}
}

func (r *commentRepo) Create(ctx context.Context, tx *gorm.DB, comments []*types.Comment) ([]*types.Comment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(comments) == 0 {
		return []*types.Comment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Comment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var comment types.Comment
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&comment).Error
	if err != nil {
		return nil, err
	}
	if comment.ID == uuid.Nil {
		return nil, nil
	}
	return &comment, nil
}

func (r *commentRepo) GetByChapterID(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID) ([]*types.Comment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Comment
	if chapterID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *commentRepo) CountByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chapterIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Comment{}).
		Where("chapter_id IN ?", chapterIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FullDeleteByChapterIDs removes every comment of the given chapters,
// replies included, since replies share the chapter_id of their thread.
func (r *commentRepo) FullDeleteByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chapterIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("chapter_id IN ?", chapterIDs).
		Delete(&types.Comment{}).Error
}
