package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	pdf "github.com/ledongthuc/pdf"
	"gorm.io/gorm"

	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/repos"
)

// PDFTextExtractor patches extracted plain text onto a chapter's PDF payload
// after the chapter row has been committed. Extraction failures are logged
// only; the chapter keeps an empty extracted-text field.
type PDFTextExtractor interface {
	QueueChapter(chapterID uuid.UUID, pdfKey string)
	// Wait blocks until all queued extractions finish. Used on shutdown and
	// in tests.
	Wait()
}

type pdfTextExtractor struct {
	db          *gorm.DB
	log         *logger.Logger
	files       FileStore
	chapterRepo repos.ChapterRepo
	wg          sync.WaitGroup
}

func NewPDFTextExtractor(db *gorm.DB, baseLog *logger.Logger, files FileStore, chapterRepo repos.ChapterRepo) PDFTextExtractor {
	return &pdfTextExtractor{
		db:          db,
		log:         baseLog.With("service", "PDFTextExtractor"),
		files:       files,
		chapterRepo: chapterRepo,
	}
}

func (x *pdfTextExtractor) QueueChapter(chapterID uuid.UUID, pdfKey string) {
	if chapterID == uuid.Nil || pdfKey == "" {
		return
	}
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		x.extract(chapterID, pdfKey)
	}()
}

func (x *pdfTextExtractor) Wait() {
	x.wg.Wait()
}

func (x *pdfTextExtractor) extract(chapterID uuid.UUID, pdfKey string) {
	ctx := context.Background()
	log := x.log.With("chapter_id", chapterID, "storage_key", pdfKey)

	rc, err := x.files.Open(pdfKey)
	if err != nil {
		log.Warn("Extraction skipped, cannot open stored pdf", "error", err)
		return
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		log.Warn("Extraction skipped, cannot read stored pdf", "error", err)
		return
	}

	text, err := ExtractPDFText(data)
	if err != nil {
		log.Warn("PDF text extraction failed", "error", err)
		return
	}

	// The payload is re-read and patched inside one transaction so a
	// concurrent edit to the chapter's other content members (text on a
	// MIXED chapter) is not overwritten with a stale copy.
	err = x.db.Transaction(func(txx *gorm.DB) error {
		chapter, err := x.chapterRepo.GetByID(ctx, txx, chapterID)
		if err != nil {
			return err
		}
		if chapter == nil {
			log.Warn("Extraction result dropped, chapter gone")
			return nil
		}
		payload, err := chapter.Payload()
		if err != nil || payload.PDF == nil {
			log.Warn("Extraction result dropped, chapter has no pdf payload", "error", err)
			return nil
		}
		payload.PDF.ExtractedText = text
		if err := chapter.SetPayload(payload); err != nil {
			return err
		}
		return x.chapterRepo.UpdateFields(ctx, txx, chapterID, map[string]interface{}{
			"content": chapter.Content,
		})
	})
	if err != nil {
		log.Warn("Failed to persist extracted text", "error", err)
		return
	}
	log.Info("Extracted pdf text", "chars", len(text))
}

func ExtractPDFText(data []byte) (string, error) {
	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		return "", fmt.Errorf("missing %%PDF header")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
