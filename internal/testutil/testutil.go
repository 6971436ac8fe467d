package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/requestdata"
	"github.com/lumora/eduhub-backend/internal/types"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a process-wide in-memory SQLite database. Tests isolate through
// Tx, which rolls back on cleanup.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		db, dbErr = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if dbErr != nil {
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			dbErr = err
			return
		}
		sqlDB.SetMaxOpenConns(1)
		dbErr = db.AutoMigrate(
			&types.User{},
			&types.Course{},
			&types.Chapter{},
			&types.Comment{},
		)
	})
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("failed to begin test tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		tx.Rollback()
	})
	return tx
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }

// CtxAs returns a context carrying userID as the authenticated caller.
func CtxAs(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	now := time.Now()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      "Test User",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Course {
	tb.Helper()
	now := time.Now()
	c := &types.Course{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "Test Course",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedChapter(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, parentID *uuid.UUID, typ types.ChapterType, order int) *types.Chapter {
	tb.Helper()
	now := time.Now()
	ch := &types.Chapter{
		ID:        uuid.New(),
		CourseID:  courseID,
		ParentID:  parentID,
		Title:     "Test Chapter",
		SortOrder: order,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ch.SetPayload(types.ChapterContent{}); err != nil {
		tb.Fatalf("seed chapter payload: %v", err)
	}
	if err := tx.WithContext(ctx).Create(ch).Error; err != nil {
		tb.Fatalf("seed chapter: %v", err)
	}
	return ch
}

func SeedComment(tb testing.TB, ctx context.Context, tx *gorm.DB, chapterID, userID uuid.UUID, parentID *uuid.UUID) *types.Comment {
	tb.Helper()
	now := time.Now()
	cm := &types.Comment{
		ID:        uuid.New(),
		ChapterID: chapterID,
		ParentID:  parentID,
		UserID:    userID,
		Body:      "test comment",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(cm).Error; err != nil {
		tb.Fatalf("seed comment: %v", err)
	}
	return cm
}
