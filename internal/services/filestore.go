package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumora/eduhub-backend/internal/apperr"
	"github.com/lumora/eduhub-backend/internal/logger"
)

const (
	FileDirVideo = "video"
	FileDirPDF   = "pdf"
	FileDirCover = "cover"
)

// FileStore persists binary chapter artifacts. Save is fatal on failure;
// Delete is best-effort and never errors, it reports success as a bool.
type FileStore interface {
	Save(ctx context.Context, dir, originalName string, file io.Reader) (string, error)
	Delete(ctx context.Context, key string) bool
	Open(key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

type localFileStore struct {
	log     *logger.Logger
	root    string
	baseURL string
}

func NewLocalFileStore(baseLog *logger.Logger, root, baseURL string) (FileStore, error) {
	serviceLog := baseLog.With("service", "FileStore")
	if root == "" {
		return nil, fmt.Errorf("file store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create file store root: %w", err)
	}
	return &localFileStore{
		log:     serviceLog,
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the stream under dir with a collision-resistant generated name:
// <dir>/<dir>_<epoch-millis>_<8-char-random><ext>.
func (fs *localFileStore) Save(ctx context.Context, dir, originalName string, file io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	key := fmt.Sprintf("%s/%s_%d_%s%s", dir, dir, time.Now().UnixMilli(), randomSuffix(8), ext)
	fullPath := filepath.Join(fs.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", apperr.Storage("create storage directory", err)
	}
	out, err := os.Create(fullPath)
	if err != nil {
		return "", apperr.Storage("create file", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		_ = os.Remove(fullPath)
		return "", apperr.Storage("write file", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", apperr.Storage("close file", err)
	}

	fs.log.Info("Stored file", "key", key, "original_name", originalName)
	return key, nil
}

func (fs *localFileStore) Delete(ctx context.Context, key string) bool {
	if key == "" || !safeKey(key) {
		return false
	}
	fullPath := filepath.Join(fs.root, filepath.FromSlash(key))
	if err := os.Remove(fullPath); err != nil {
		fs.log.Warn("Failed to delete stored file", "key", key, "error", err)
		return false
	}
	return true
}

func (fs *localFileStore) Open(key string) (io.ReadCloser, error) {
	if key == "" || !safeKey(key) {
		return nil, apperr.Storage("invalid storage key", nil)
	}
	f, err := os.Open(filepath.Join(fs.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, apperr.Storage("open file", err)
	}
	return f, nil
}

func (fs *localFileStore) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return fs.baseURL + "/" + key
}

func safeKey(key string) bool {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	return true
}

func randomSuffix(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%0*d", n, time.Now().UnixNano()%1e8)
	}
	return hex.EncodeToString(b)[:n]
}
