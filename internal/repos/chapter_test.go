package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumora/eduhub-backend/internal/testutil"
	"github.com/lumora/eduhub-backend/internal/types"
)

func TestChapterRepoCreateAndGet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewChapterRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "repo-owner@example.com")
	course := testutil.SeedCourse(t, ctx, tx, owner.ID)

	now := time.Now()
	ch := &types.Chapter{
		ID:        uuid.New(),
		CourseID:  course.ID,
		Title:     "Intro",
		SortOrder: 0,
		Type:      types.ChapterTypeFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ch.SetPayload(types.ChapterContent{}); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if _, err := repo.Create(ctx, tx, []*types.Chapter{ch}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, ch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "Intro" {
		t.Fatalf("get returned %+v", got)
	}

	missing, err := repo.GetByID(ctx, tx, uuid.New())
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v", missing)
	}
}

func TestChapterRepoCourseOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewChapterRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "order-owner@example.com")
	course := testutil.SeedCourse(t, ctx, tx, owner.ID)

	third := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 2)
	first := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 0)
	second := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 1)

	rows, err := repo.GetByCourseID(ctx, tx, course.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: want=3 got=%d", len(rows))
	}
	if rows[0].ID != first.ID || rows[1].ID != second.ID || rows[2].ID != third.ID {
		t.Fatalf("rows not ordered by sort_order")
	}
}

func TestChapterRepoRootsAndChildren(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewChapterRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "tree-owner@example.com")
	course := testutil.SeedCourse(t, ctx, tx, owner.ID)

	root := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 0)
	childA := testutil.SeedChapter(t, ctx, tx, course.ID, &root.ID, types.ChapterTypeText, 0)
	childB := testutil.SeedChapter(t, ctx, tx, course.ID, &root.ID, types.ChapterTypeText, 1)

	roots, err := repo.GetRootsByCourseID(ctx, tx, course.ID)
	if err != nil {
		t.Fatalf("roots: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != root.ID {
		t.Fatalf("roots: got %d", len(roots))
	}

	children, err := repo.GetByParentID(ctx, tx, root.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 2 || children[0].ID != childA.ID || children[1].ID != childB.ID {
		t.Fatalf("children wrong: got %d", len(children))
	}
}

func TestChapterRepoUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewChapterRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "update-owner@example.com")
	course := testutil.SeedCourse(t, ctx, tx, owner.ID)
	ch := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 0)

	before := ch.UpdatedAt
	time.Sleep(5 * time.Millisecond)
	if err := repo.UpdateFields(ctx, tx, ch.ID, map[string]interface{}{
		"title":      "Renamed",
		"sort_order": 9,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, ch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Renamed" || got.SortOrder != 9 {
		t.Fatalf("after update: title=%q order=%d", got.Title, got.SortOrder)
	}
	if !got.UpdatedAt.After(before) {
		t.Fatalf("updated_at not advanced")
	}
}

func TestChapterRepoFullDeleteByIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewChapterRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "delete-owner@example.com")
	course := testutil.SeedCourse(t, ctx, tx, owner.ID)
	a := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 0)
	b := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 1)
	keep := testutil.SeedChapter(t, ctx, tx, course.ID, nil, types.ChapterTypeFolder, 2)

	if err := repo.FullDeleteByIDs(ctx, tx, []uuid.UUID{a.ID, b.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err := repo.GetByCourseID(ctx, tx, course.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != keep.ID {
		t.Fatalf("expected one surviving row, got %d", len(rows))
	}
}
