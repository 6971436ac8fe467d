package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/types"
)

// DeleteChapter removes a chapter and its entire subtree. The subtree is
// loaded once and walked post-order in memory; comment threads and chapter
// rows are removed together in one transaction, and stored artifacts are
// cleaned up best-effort only after that transaction commits. A file that
// fails to delete is logged and does not fail the operation. When the caller
// supplies the transaction, artifact cleanup is skipped entirely.
func (s *chapterService) DeleteChapter(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	chapter, err := s.GetChapter(ctx, tx, id)
	if err != nil {
		return err
	}
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, chapter.CourseID); err != nil {
		return err
	}
	unlock := s.lockCourse(chapter.CourseID)
	defer unlock()

	all, err := s.chapterRepo.GetByCourseID(ctx, tx, chapter.CourseID)
	if err != nil {
		return fmt.Errorf("load course chapters: %w", err)
	}
	children := make(map[uuid.UUID][]*types.Chapter, len(all))
	for _, ch := range all {
		if ch.ParentID != nil {
			children[*ch.ParentID] = append(children[*ch.ParentID], ch)
		}
	}

	var ids []uuid.UUID
	var artifactKeys []string
	var walk func(node *types.Chapter)
	walk = func(node *types.Chapter) {
		for _, child := range children[node.ID] {
			walk(child)
		}
		ids = append(ids, node.ID)
		if node.CoverKey != "" {
			artifactKeys = append(artifactKeys, node.CoverKey)
		}
		payload, err := node.Payload()
		if err != nil {
			s.log.Warn("Undecodable content payload during delete, artifacts may be orphaned", "chapter_id", node.ID, "error", err)
			return
		}
		if payload.Video != nil && payload.Video.Key != "" {
			artifactKeys = append(artifactKeys, payload.Video.Key)
		}
		if payload.PDF != nil && payload.PDF.Key != "" {
			artifactKeys = append(artifactKeys, payload.PDF.Key)
		}
	}
	walk(chapter)

	// Phase 1: relational state, atomic as a unit.
	apply := func(txx *gorm.DB) error {
		if err := s.commentSvc.DeleteThreadsForChapters(ctx, txx, ids); err != nil {
			return err
		}
		return s.chapterRepo.FullDeleteByIDs(ctx, txx, ids)
	}
	if tx != nil {
		// The caller owns the transaction, so the rows are not committed
		// when this method returns. Artifacts must never be removed before
		// the rows are: an orphaned file is recoverable, a surviving row
		// whose file is gone is not. Cleanup is therefore skipped here and
		// the keys stay on disk.
		if err := apply(tx); err != nil {
			s.log.Error("DeleteChapter failed", "error", err, "chapter_id", id)
			return fmt.Errorf("delete chapter subtree: %w", err)
		}
		s.log.Info("Deleted chapter subtree rows, artifact cleanup deferred to transaction owner",
			"chapter_id", id,
			"rows", len(ids),
			"artifacts", len(artifactKeys),
		)
		return nil
	}
	if err := s.db.Transaction(apply); err != nil {
		s.log.Error("DeleteChapter failed", "error", err, "chapter_id", id)
		return fmt.Errorf("delete chapter subtree: %w", err)
	}

	// Phase 2: stored artifacts, best-effort once the rows are committed.
	g := new(errgroup.Group)
	g.SetLimit(4)
	for _, key := range artifactKeys {
		g.Go(func() error {
			s.files.Delete(ctx, key)
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("Deleted chapter subtree",
		"chapter_id", id,
		"rows", len(ids),
		"artifacts", len(artifactKeys),
	)
	return nil
}
