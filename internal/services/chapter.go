package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/apperr"
	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/repos"
	"github.com/lumora/eduhub-backend/internal/types"
)

type CreateChapterInput struct {
	CourseID uuid.UUID
	ParentID *uuid.UUID
	Title    string
	Order    int
}

type UpdateChapterInput struct {
	Title       *string
	Order       *int
	TextContent *string
	// SetParent distinguishes "reparent to ParentID (nil = root)" from
	// "leave the parent alone".
	ParentID  *uuid.UUID
	SetParent bool
	Cover     *UploadedFileInfo
}

type ReorderUpdate struct {
	ChapterID uuid.UUID `json:"chapterId"`
	Order     int       `json:"order"`
}

type ChapterTreeNode struct {
	*types.Chapter
	Children []*ChapterTreeNode `json:"children"`
}

type ChapterService interface {
	CreateFolder(ctx context.Context, tx *gorm.DB, in CreateChapterInput) (*types.Chapter, error)
	CreateVideoChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, video UploadedFileInfo) (*types.Chapter, error)
	CreatePDFChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, pdfFile *UploadedFileInfo) (*types.Chapter, error)
	CreateTextChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, content string) (*types.Chapter, error)
	CreateMixedChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, video, pdfFile *UploadedFileInfo, content string) (*types.Chapter, error)
	GetChapter(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Chapter, error)
	ListCourseChapters(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*ChapterTreeNode, error)
	UpdateChapter(ctx context.Context, tx *gorm.DB, id uuid.UUID, upd UpdateChapterInput) (*types.Chapter, error)
	UpdateCover(ctx context.Context, tx *gorm.DB, id uuid.UUID, cover UploadedFileInfo) (*types.Chapter, error)
	Move(ctx context.Context, tx *gorm.DB, id uuid.UUID, newParentID *uuid.UUID, newOrder *int) (*types.Chapter, error)
	BatchReorder(ctx context.Context, tx *gorm.DB, updates []ReorderUpdate) error
	DeleteChapter(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type chapterService struct {
	db          *gorm.DB
	log         *logger.Logger
	files       FileStore
	extractor   PDFTextExtractor
	permissions PermissionService
	courseRepo  repos.CourseRepo
	chapterRepo repos.ChapterRepo
	commentSvc  CommentService

	// Structural mutations on a course's tree are serialized in-process.
	// Single-node deployment is assumed, so no distributed lock. Entries
	// are one mutex per course ever mutated and live for the process
	// lifetime; they are never evicted.
	courseLocks sync.Map
}

func NewChapterService(
	db *gorm.DB,
	baseLog *logger.Logger,
	files FileStore,
	extractor PDFTextExtractor,
	permissions PermissionService,
	courseRepo repos.CourseRepo,
	chapterRepo repos.ChapterRepo,
	commentSvc CommentService,
) ChapterService {
	return &chapterService{
		db:          db,
		log:         baseLog.With("service", "ChapterService"),
		files:       files,
		extractor:   extractor,
		permissions: permissions,
		courseRepo:  courseRepo,
		chapterRepo: chapterRepo,
		commentSvc:  commentSvc,
	}
}

func (s *chapterService) lockCourse(courseID uuid.UUID) func() {
	v, _ := s.courseLocks.LoadOrStore(courseID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// =====================================
// Ingestion
// =====================================

func (s *chapterService) CreateFolder(ctx context.Context, tx *gorm.DB, in CreateChapterInput) (*types.Chapter, error) {
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, in.CourseID); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, apperr.Validation("title", "chapter title is required")
	}
	unlock := s.lockCourse(in.CourseID)
	defer unlock()
	if err := s.validateParent(ctx, tx, in.CourseID, in.ParentID); err != nil {
		return nil, err
	}
	return s.insertChapter(ctx, tx, in, types.ChapterTypeFolder, types.ChapterContent{})
}

func (s *chapterService) CreateVideoChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, video UploadedFileInfo) (*types.Chapter, error) {
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, in.CourseID); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, apperr.Validation("title", "chapter title is required")
	}
	if err := ValidateUpload(UploadKindVideo, video); err != nil {
		return nil, err
	}
	unlock := s.lockCourse(in.CourseID)
	defer unlock()
	if err := s.validateParent(ctx, tx, in.CourseID, in.ParentID); err != nil {
		return nil, err
	}

	key, err := s.files.Save(ctx, FileDirVideo, video.OriginalName, video.Reader)
	if err != nil {
		return nil, err
	}
	cc := types.ChapterContent{
		Video: &types.VideoRef{Key: key, URL: s.files.PublicURL(key)},
	}
	chapter, err := s.insertChapter(ctx, tx, in, types.ChapterTypeVideo, cc)
	if err != nil {
		s.files.Delete(ctx, key)
		return nil, err
	}
	return chapter, nil
}

func (s *chapterService) CreatePDFChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, pdfFile *UploadedFileInfo) (*types.Chapter, error) {
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, in.CourseID); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, apperr.Validation("title", "chapter title is required")
	}
	if pdfFile != nil {
		if err := ValidateUpload(UploadKindPDF, *pdfFile); err != nil {
			return nil, err
		}
	}
	unlock := s.lockCourse(in.CourseID)
	defer unlock()
	if err := s.validateParent(ctx, tx, in.CourseID, in.ParentID); err != nil {
		return nil, err
	}

	var cc types.ChapterContent
	var key string
	if pdfFile != nil {
		var err error
		key, err = s.files.Save(ctx, FileDirPDF, pdfFile.OriginalName, pdfFile.Reader)
		if err != nil {
			return nil, err
		}
		cc.PDF = &types.PDFRef{Key: key, URL: s.files.PublicURL(key)}
	}
	chapter, err := s.insertChapter(ctx, tx, in, types.ChapterTypePDF, cc)
	if err != nil {
		if key != "" {
			s.files.Delete(ctx, key)
		}
		return nil, err
	}
	if key != "" && s.extractor != nil {
		s.extractor.QueueChapter(chapter.ID, key)
	}
	return chapter, nil
}

func (s *chapterService) CreateTextChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, content string) (*types.Chapter, error) {
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, in.CourseID); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, apperr.Validation("title", "chapter title is required")
	}
	unlock := s.lockCourse(in.CourseID)
	defer unlock()
	if err := s.validateParent(ctx, tx, in.CourseID, in.ParentID); err != nil {
		return nil, err
	}
	return s.insertChapter(ctx, tx, in, types.ChapterTypeText, types.ChapterContent{Text: content})
}

func (s *chapterService) CreateMixedChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, video, pdfFile *UploadedFileInfo, content string) (*types.Chapter, error) {
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, in.CourseID); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, apperr.Validation("title", "chapter title is required")
	}
	// All uploads validate before any byte is stored.
	if video != nil {
		if err := ValidateUpload(UploadKindVideo, *video); err != nil {
			return nil, err
		}
	}
	if pdfFile != nil {
		if err := ValidateUpload(UploadKindPDF, *pdfFile); err != nil {
			return nil, err
		}
	}
	unlock := s.lockCourse(in.CourseID)
	defer unlock()
	if err := s.validateParent(ctx, tx, in.CourseID, in.ParentID); err != nil {
		return nil, err
	}

	cc := types.ChapterContent{Text: content}
	var savedKeys []string
	cleanup := func() {
		for _, k := range savedKeys {
			s.files.Delete(ctx, k)
		}
	}
	if video != nil {
		key, err := s.files.Save(ctx, FileDirVideo, video.OriginalName, video.Reader)
		if err != nil {
			return nil, err
		}
		savedKeys = append(savedKeys, key)
		cc.Video = &types.VideoRef{Key: key, URL: s.files.PublicURL(key)}
	}
	var pdfKey string
	if pdfFile != nil {
		key, err := s.files.Save(ctx, FileDirPDF, pdfFile.OriginalName, pdfFile.Reader)
		if err != nil {
			cleanup()
			return nil, err
		}
		savedKeys = append(savedKeys, key)
		pdfKey = key
		cc.PDF = &types.PDFRef{Key: key, URL: s.files.PublicURL(key)}
	}

	chapter, err := s.insertChapter(ctx, tx, in, types.ChapterTypeMixed, cc)
	if err != nil {
		cleanup()
		return nil, err
	}
	if pdfKey != "" && s.extractor != nil {
		s.extractor.QueueChapter(chapter.ID, pdfKey)
	}
	return chapter, nil
}

func (s *chapterService) insertChapter(ctx context.Context, tx *gorm.DB, in CreateChapterInput, typ types.ChapterType, cc types.ChapterContent) (*types.Chapter, error) {
	now := time.Now()
	chapter := &types.Chapter{
		ID:        uuid.New(),
		CourseID:  in.CourseID,
		ParentID:  in.ParentID,
		Title:     in.Title,
		SortOrder: in.Order,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := chapter.SetPayload(cc); err != nil {
		return nil, err
	}
	if _, err := s.chapterRepo.Create(ctx, tx, []*types.Chapter{chapter}); err != nil {
		s.log.Error("insertChapter failed", "error", err, "course_id", in.CourseID, "type", typ)
		return nil, fmt.Errorf("create chapter: %w", err)
	}
	s.log.Info("Created chapter", "chapter_id", chapter.ID, "course_id", in.CourseID, "type", typ)
	return chapter, nil
}

func (s *chapterService) validateParent(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.chapterRepo.GetByID(ctx, tx, *parentID)
	if err != nil {
		return fmt.Errorf("load parent chapter: %w", err)
	}
	if parent == nil {
		return apperr.NotFound("parent chapter")
	}
	if parent.CourseID != courseID {
		return apperr.Validation("parentId", "parent chapter belongs to a different course")
	}
	return nil
}

// =====================================
// Reads
// =====================================

func (s *chapterService) GetChapter(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Chapter, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if chapter == nil {
		return nil, apperr.NotFound("chapter")
	}
	return chapter, nil
}

func (s *chapterService) ListCourseChapters(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*ChapterTreeNode, error) {
	course, err := s.courseRepo.GetByID(ctx, tx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apperr.NotFound("course")
	}
	chapters, err := s.chapterRepo.GetByCourseID(ctx, tx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course chapters: %w", err)
	}
	return buildChapterTree(chapters), nil
}

// buildChapterTree nests a sibling-ordered flat list by parent_id. Input
// order is preserved, so children stay sorted within each parent.
func buildChapterTree(chapters []*types.Chapter) []*ChapterTreeNode {
	nodes := make(map[uuid.UUID]*ChapterTreeNode, len(chapters))
	for _, ch := range chapters {
		nodes[ch.ID] = &ChapterTreeNode{Chapter: ch, Children: []*ChapterTreeNode{}}
	}
	roots := []*ChapterTreeNode{}
	for _, ch := range chapters {
		node := nodes[ch.ID]
		if ch.ParentID != nil {
			if parent, ok := nodes[*ch.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// =====================================
// Structural mutation
// =====================================

func (s *chapterService) Move(ctx context.Context, tx *gorm.DB, id uuid.UUID, newParentID *uuid.UUID, newOrder *int) (*types.Chapter, error) {
	chapter, err := s.GetChapter(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, chapter.CourseID); err != nil {
		return nil, err
	}
	unlock := s.lockCourse(chapter.CourseID)
	defer unlock()

	updates := map[string]interface{}{}
	parentVal, err := s.resolveParentUpdate(ctx, tx, chapter, newParentID)
	if err != nil {
		return nil, err
	}
	updates["parent_id"] = parentVal
	if newOrder != nil {
		updates["sort_order"] = *newOrder
	}
	if err := s.chapterRepo.UpdateFields(ctx, tx, id, updates); err != nil {
		s.log.Error("Move failed", "error", err, "chapter_id", id)
		return nil, fmt.Errorf("move chapter: %w", err)
	}
	return s.GetChapter(ctx, tx, id)
}

// resolveParentUpdate validates a reparent target and returns the parent_id
// column value. The ancestor chain of the target is walked up to the root;
// encountering the moved chapter anywhere on it is a cycle.
func (s *chapterService) resolveParentUpdate(ctx context.Context, tx *gorm.DB, chapter *types.Chapter, newParentID *uuid.UUID) (interface{}, error) {
	if newParentID == nil {
		return nil, nil
	}
	if *newParentID == chapter.ID {
		return nil, apperr.Cycle("chapter cannot be its own parent")
	}
	parent, err := s.chapterRepo.GetByID(ctx, tx, *newParentID)
	if err != nil {
		return nil, fmt.Errorf("load new parent: %w", err)
	}
	if parent == nil {
		return nil, apperr.NotFound("parent chapter")
	}
	if parent.CourseID != chapter.CourseID {
		return nil, apperr.Validation("newParentId", "parent chapter belongs to a different course")
	}

	visited := map[uuid.UUID]bool{}
	cur := parent
	for {
		if cur.ID == chapter.ID {
			return nil, apperr.Cycle("move would place a chapter inside its own subtree")
		}
		if visited[cur.ID] {
			return nil, apperr.Cycle("parent chain already contains a cycle")
		}
		visited[cur.ID] = true
		if cur.ParentID == nil {
			break
		}
		next, err := s.chapterRepo.GetByID(ctx, tx, *cur.ParentID)
		if err != nil {
			return nil, fmt.Errorf("walk ancestor chain: %w", err)
		}
		if next == nil {
			break
		}
		cur = next
	}
	return *newParentID, nil
}

func (s *chapterService) BatchReorder(ctx context.Context, tx *gorm.DB, updates []ReorderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	// Authorization is checked once against the course of the first entry.
	// Batches must not mix chapters from different courses.
	first, err := s.GetChapter(ctx, tx, updates[0].ChapterID)
	if err != nil {
		return err
	}
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, first.CourseID); err != nil {
		return err
	}
	unlock := s.lockCourse(first.CourseID)
	defer unlock()

	apply := func(txx *gorm.DB) error {
		for _, u := range updates {
			if u.ChapterID == uuid.Nil {
				continue
			}
			if err := s.chapterRepo.UpdateFields(ctx, txx, u.ChapterID, map[string]interface{}{
				"sort_order": u.Order,
			}); err != nil {
				return fmt.Errorf("reorder chapter %s: %w", u.ChapterID, err)
			}
		}
		return nil
	}
	if tx != nil {
		return apply(tx)
	}
	return s.db.Transaction(apply)
}

// =====================================
// Metadata edits
// =====================================

func (s *chapterService) UpdateChapter(ctx context.Context, tx *gorm.DB, id uuid.UUID, upd UpdateChapterInput) (*types.Chapter, error) {
	chapter, err := s.GetChapter(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, chapter.CourseID); err != nil {
		return nil, err
	}
	if upd.Cover != nil {
		if err := ValidateUpload(UploadKindCover, *upd.Cover); err != nil {
			return nil, err
		}
	}
	unlock := s.lockCourse(chapter.CourseID)
	defer unlock()

	updates := map[string]interface{}{}

	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, apperr.Validation("title", "chapter title is required")
		}
		updates["title"] = *upd.Title
	}
	if upd.Order != nil {
		updates["sort_order"] = *upd.Order
	}
	if upd.TextContent != nil {
		if chapter.Type != types.ChapterTypeText && chapter.Type != types.ChapterTypeMixed {
			return nil, apperr.Validationf("textContent", "chapter of type %s carries no text content", chapter.Type)
		}
		payload, err := chapter.Payload()
		if err != nil {
			return nil, err
		}
		payload.Text = *upd.TextContent
		if err := chapter.SetPayload(payload); err != nil {
			return nil, err
		}
		updates["content"] = chapter.Content
	}
	if upd.SetParent {
		parentVal, err := s.resolveParentUpdate(ctx, tx, chapter, upd.ParentID)
		if err != nil {
			return nil, err
		}
		updates["parent_id"] = parentVal
	}
	if upd.Cover != nil {
		coverKey, coverURL, err := s.replaceCover(ctx, chapter, *upd.Cover)
		if err != nil {
			return nil, err
		}
		updates["cover_key"] = coverKey
		updates["cover_url"] = coverURL
	}

	if len(updates) == 0 {
		return chapter, nil
	}
	if err := s.chapterRepo.UpdateFields(ctx, tx, id, updates); err != nil {
		s.log.Error("UpdateChapter failed", "error", err, "chapter_id", id)
		return nil, fmt.Errorf("update chapter: %w", err)
	}
	return s.GetChapter(ctx, tx, id)
}

func (s *chapterService) UpdateCover(ctx context.Context, tx *gorm.DB, id uuid.UUID, cover UploadedFileInfo) (*types.Chapter, error) {
	chapter, err := s.GetChapter(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.permissions.RequireCourseOwner(ctx, tx, chapter.CourseID); err != nil {
		return nil, err
	}
	if err := ValidateUpload(UploadKindCover, cover); err != nil {
		return nil, err
	}
	coverKey, coverURL, err := s.replaceCover(ctx, chapter, cover)
	if err != nil {
		return nil, err
	}
	if err := s.chapterRepo.UpdateFields(ctx, tx, id, map[string]interface{}{
		"cover_key": coverKey,
		"cover_url": coverURL,
	}); err != nil {
		s.log.Error("UpdateCover failed", "error", err, "chapter_id", id)
		return nil, fmt.Errorf("update chapter cover: %w", err)
	}
	return s.GetChapter(ctx, tx, id)
}

// replaceCover deletes the previous cover best-effort, then stores the new
// one.
func (s *chapterService) replaceCover(ctx context.Context, chapter *types.Chapter, cover UploadedFileInfo) (string, string, error) {
	if chapter.CoverKey != "" {
		s.files.Delete(ctx, chapter.CoverKey)
	}
	key, err := s.files.Save(ctx, FileDirCover, cover.OriginalName, cover.Reader)
	if err != nil {
		return "", "", err
	}
	return key, s.files.PublicURL(key), nil
}
