package services

import (
	"context"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/lumora/eduhub-backend/internal/testutil"
)

func newTestFileStore(t *testing.T) FileStore {
	t.Helper()
	fs, err := NewLocalFileStore(testutil.Logger(t), t.TempDir(), "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("init file store: %v", err)
	}
	return fs
}

func TestFileStoreSaveGeneratesKey(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	key, err := fs.Save(ctx, FileDirVideo, "lecture one.mp4", strings.NewReader("fake video bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	pattern := regexp.MustCompile(`^video/video_\d+_[0-9a-f]{8}\.mp4$`)
	if !pattern.MatchString(key) {
		t.Fatalf("key %q does not match generated-name pattern", key)
	}
	if strings.Contains(key, "lecture") {
		t.Fatalf("key %q leaks the original filename", key)
	}

	rc, err := fs.Open(key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "fake video bytes" {
		t.Fatalf("content roundtrip: got %q", data)
	}
}

func TestFileStoreSaveDistinctKeys(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	k1, err := fs.Save(ctx, FileDirPDF, "a.pdf", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	k2, err := fs.Save(ctx, FileDirPDF, "a.pdf", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("two saves of the same name produced the same key %q", k1)
	}
}

func TestFileStoreDelete(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	key, err := fs.Save(ctx, FileDirCover, "cover.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !fs.Delete(ctx, key) {
		t.Fatalf("delete of existing key reported failure")
	}
	if _, err := fs.Open(key); err == nil {
		t.Fatalf("open succeeded after delete")
	}
	if fs.Delete(ctx, key) {
		t.Fatalf("second delete reported success")
	}
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	for _, key := range []string{"../outside", "/etc/passwd", `video\..\..\x`} {
		if fs.Delete(ctx, key) {
			t.Fatalf("delete accepted unsafe key %q", key)
		}
		if _, err := fs.Open(key); err == nil {
			t.Fatalf("open accepted unsafe key %q", key)
		}
	}
}

func TestFileStorePublicURL(t *testing.T) {
	fs := newTestFileStore(t)
	got := fs.PublicURL("video/video_1_abcd1234.mp4")
	want := "http://localhost:8080/files/video/video_1_abcd1234.mp4"
	if got != want {
		t.Fatalf("public url: want=%q got=%q", want, got)
	}
	if fs.PublicURL("") != "" {
		t.Fatalf("empty key should produce empty url")
	}
}
