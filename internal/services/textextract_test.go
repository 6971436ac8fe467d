package services

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lumora/eduhub-backend/internal/testutil"
)

// minimalPDF assembles a one-page uncompressed PDF whose content stream draws
// the given text. Cross-reference offsets are computed while writing so the
// result is a well-formed document.
func minimalPDF(text string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 6)
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	buf.WriteString("%PDF-1.4\n")
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	obj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	obj(5, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	xref := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for n := 1; n <= 5; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func pdfUploadWith(name string, data []byte) *UploadedFileInfo {
	return &UploadedFileInfo{
		OriginalName: name,
		MimeType:     "application/pdf",
		SizeBytes:    int64(len(data)),
		Reader:       bytes.NewReader(data),
	}
}

func TestExtractPDFText(t *testing.T) {
	got, err := ExtractPDFText(minimalPDF("Hello World"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(got, "Hello World") {
		t.Fatalf("extracted text: got %q", got)
	}
}

func TestExtractPDFTextRejectsNonPDF(t *testing.T) {
	if _, err := ExtractPDFText([]byte("not a pdf at all")); err == nil {
		t.Fatalf("expected error for data without a pdf header")
	}
	if _, err := ExtractPDFText(nil); err == nil {
		t.Fatalf("expected error for empty data")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := collapseWhitespace("  one\n\ttwo   three \r\n")
	if got != "one two three" {
		t.Fatalf("collapse: got %q", got)
	}
}

func TestQueueChapterIgnoresEmptyWork(t *testing.T) {
	x := &pdfTextExtractor{}
	// Neither call should spawn work; Wait must return immediately.
	x.QueueChapter(uuid.Nil, "pdf/some.pdf")
	x.QueueChapter(uuid.New(), "")
	x.Wait()
}

func TestPDFTextExtractorPatchesChapter(t *testing.T) {
	env := newChapterTestEnv(t)
	x := NewPDFTextExtractor(env.tx, testutil.Logger(t), env.files, env.chapterRepo)

	chapter, err := env.svc.CreatePDFChapter(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		Title:    "Reading",
	}, pdfUploadWith("reading.pdf", minimalPDF("Hello World")))
	if err != nil {
		t.Fatalf("create pdf chapter: %v", err)
	}
	payload, err := chapter.Payload()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.PDF == nil || payload.PDF.Key == "" {
		t.Fatalf("pdf chapter stored without a key: %+v", payload.PDF)
	}
	if payload.PDF.ExtractedText != "" {
		t.Fatalf("extracted text set before the extractor ran: %q", payload.PDF.ExtractedText)
	}

	x.QueueChapter(chapter.ID, payload.PDF.Key)
	x.Wait()

	reloaded, err := env.chapterRepo.GetByID(env.ctx, env.tx, chapter.ID)
	if err != nil {
		t.Fatalf("reload chapter: %v", err)
	}
	if reloaded == nil {
		t.Fatalf("chapter gone after extraction")
	}
	patched, err := reloaded.Payload()
	if err != nil {
		t.Fatalf("reloaded payload: %v", err)
	}
	if patched.PDF == nil || !strings.Contains(patched.PDF.ExtractedText, "Hello World") {
		t.Fatalf("extracted text not patched, pdf payload: %+v", patched.PDF)
	}
}

func TestPDFTextExtractorKeepsChapterOnCorruptPDF(t *testing.T) {
	env := newChapterTestEnv(t)
	x := NewPDFTextExtractor(env.tx, testutil.Logger(t), env.files, env.chapterRepo)

	chapter, err := env.svc.CreatePDFChapter(env.ctx, env.tx, CreateChapterInput{
		CourseID: env.course.ID,
		Title:    "Broken upload",
	}, pdfUploadWith("broken.pdf", []byte("%PDF-1.4 not really a pdf")))
	if err != nil {
		t.Fatalf("create pdf chapter: %v", err)
	}
	payload, err := chapter.Payload()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}

	x.QueueChapter(chapter.ID, payload.PDF.Key)
	x.Wait()

	reloaded, err := env.chapterRepo.GetByID(env.ctx, env.tx, chapter.ID)
	if err != nil {
		t.Fatalf("reload chapter: %v", err)
	}
	if reloaded == nil {
		t.Fatalf("extraction failure must not remove the chapter")
	}
	patched, err := reloaded.Payload()
	if err != nil {
		t.Fatalf("reloaded payload: %v", err)
	}
	if patched.PDF == nil || patched.PDF.ExtractedText != "" {
		t.Fatalf("extraction failure must leave extracted text empty, pdf payload: %+v", patched.PDF)
	}
}
