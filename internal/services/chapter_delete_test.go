package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/lumora/eduhub-backend/internal/apperr"
	"github.com/lumora/eduhub-backend/internal/testutil"
)

func TestDeleteChapterCascadesSubtree(t *testing.T) {
	env := newChapterTestEnv(t)
	ctx := context.Background()

	// root -> videoChild -> grandchild, plus an unrelated sibling.
	root, err := env.svc.CreateFolder(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		Title:    "Week 1",
	})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	videoChild, err := env.svc.CreateVideoChapter(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		ParentID: &root.ID,
		Title:    "Lecture",
	}, videoUpload("lecture.mp4"))
	if err != nil {
		t.Fatalf("create video child: %v", err)
	}
	grandchild, err := env.svc.CreateTextChapter(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		ParentID: &videoChild.ID,
		Title:    "Notes",
	}, "some notes")
	if err != nil {
		t.Fatalf("create grandchild: %v", err)
	}
	sibling, err := env.svc.CreateFolder(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		Title:    "Week 2",
		Order:    1,
	})
	if err != nil {
		t.Fatalf("create sibling: %v", err)
	}

	testutil.SeedComment(t, ctx, env.tx, grandchild.ID, env.owner.ID, nil)
	thread := testutil.SeedComment(t, ctx, env.tx, videoChild.ID, env.owner.ID, nil)
	testutil.SeedComment(t, ctx, env.tx, videoChild.ID, env.owner.ID, &thread.ID)
	testutil.SeedComment(t, ctx, env.tx, sibling.ID, env.owner.ID, nil)

	payload, err := videoChild.Payload()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	videoKey := payload.Video.Key

	// nil tx: the service owns the row transaction and cleans up artifacts
	// once it commits.
	if err := env.svc.DeleteChapter(env.ctx, nil, root.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	rows, err := env.chapterRepo.GetByCourseID(env.ctx, env.tx, env.course.ID)
	if err != nil {
		t.Fatalf("list chapters: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != sibling.ID {
		t.Fatalf("expected only the sibling to survive, got %d rows", len(rows))
	}

	deletedIDs := []uuid.UUID{root.ID, videoChild.ID, grandchild.ID}
	gone, err := env.commentRepo.CountByChapterIDs(env.ctx, env.tx, deletedIDs)
	if err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if gone != 0 {
		t.Fatalf("deleted subtree still has %d comments", gone)
	}
	kept, err := env.commentRepo.CountByChapterIDs(env.ctx, env.tx, []uuid.UUID{sibling.ID})
	if err != nil {
		t.Fatalf("count sibling comments: %v", err)
	}
	if kept != 1 {
		t.Fatalf("sibling comments: want=1 got=%d", kept)
	}

	if _, err := env.files.Open(videoKey); err == nil {
		t.Fatalf("video artifact still stored after cascade")
	}
}

func TestDeleteChapterWithCallerTxKeepsArtifactsUntilCommit(t *testing.T) {
	env := newChapterTestEnv(t)

	chapter, err := env.svc.CreateVideoChapter(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		Title:    "Lecture",
	}, videoUpload("lecture.mp4"))
	if err != nil {
		t.Fatalf("create video chapter: %v", err)
	}
	payload, err := chapter.Payload()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	videoKey := payload.Video.Key

	// The caller owns this transaction and may still roll it back, so the
	// stored video must survive the call. Were it removed here, a rollback
	// would resurrect a chapter row pointing at a deleted file.
	if err := env.svc.DeleteChapter(env.ctx, env.tx, chapter.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	row, err := env.chapterRepo.GetByID(env.ctx, env.tx, chapter.ID)
	if err != nil {
		t.Fatalf("reload chapter: %v", err)
	}
	if row != nil {
		t.Fatalf("chapter row survived delete inside the transaction")
	}
	rc, err := env.files.Open(videoKey)
	if err != nil {
		t.Fatalf("video artifact removed before the transaction committed: %v", err)
	}
	_ = rc.Close()
}

func TestDeleteChapterSubtreeOnly(t *testing.T) {
	env := newChapterTestEnv(t)

	parent, err := env.svc.CreateFolder(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		Title:    "Parent",
	})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := env.svc.CreateTextChapter(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		ParentID: &parent.ID,
		Title:    "Child",
	}, "text")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// Deleting the child must not touch the parent.
	if err := env.svc.DeleteChapter(env.ctx, env.tx, child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	remaining, err := env.chapterRepo.GetByID(env.ctx, env.tx, parent.ID)
	if err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if remaining == nil {
		t.Fatalf("deleting a leaf removed its parent")
	}
}

func TestDeleteChapterUnknownID(t *testing.T) {
	env := newChapterTestEnv(t)

	err := env.svc.DeleteChapter(env.ctx, env.tx, uuid.New())
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("want not-found error, got %v", err)
	}
}
