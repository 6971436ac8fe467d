package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/lumora/eduhub-backend/internal/testutil"
	"github.com/lumora/eduhub-backend/internal/types"
)

func TestCommentRepoCountAndDeleteByChapterIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCommentRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "comment-owner@example.com")
	course := testutil.SeedCourse(t, ctx, tx, owner.ID)
	chA := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeText, 0)
	chB := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeText, 1)

	top := testutil.SeedComment(t, ctx, tx, chA.ID, owner.ID, nil)
	testutil.SeedComment(t, ctx, tx, chA.ID, owner.ID, &top.ID)
	testutil.SeedComment(t, ctx, tx, chB.ID, owner.ID, nil)

	count, err := repo.CountByChapterIDs(ctx, tx, []uuid.UUID{chA.ID, chB.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count: want=3 got=%d", count)
	}

	if err := repo.FullDeleteByChapterIDs(ctx, tx, []uuid.UUID{chA.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count, err = repo.CountByChapterIDs(ctx, tx, []uuid.UUID{chA.ID})
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 0 {
		t.Fatalf("chapter A comments should be gone, got %d", count)
	}
	count, err = repo.CountByChapterIDs(ctx, tx, []uuid.UUID{chB.ID})
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 1 {
		t.Fatalf("chapter B comments: want=1 got=%d", count)
	}
}

func TestCommentRepoListOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCommentRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "comment-order@example.com")
	course := testutil.SeedCourse(t, ctx, tx, owner.ID)
	ch := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeText, 0)

	first := testutil.SeedComment(t, ctx, tx, ch.ID, owner.ID, nil)
	second := testutil.SeedComment(t, ctx, tx, ch.ID, owner.ID, nil)

	list, err := repo.GetByChapterID(ctx, tx, ch.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list: want=2 got=%d", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("comments not in creation order")
	}
}
