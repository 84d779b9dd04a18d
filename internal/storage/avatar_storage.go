package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"social-go/internal/config"

	"github.com/google/uuid"
)

// FileInfo describes a stored avatar file.
type FileInfo struct {
	URL      string `json:"url"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"`
}

// AvatarStorage stores profile pictures and returns their public URL.
type AvatarStorage interface {
	Save(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
}

// localAvatarStorage keeps avatars on the local filesystem under basePath and
// serves them below baseURL.
type localAvatarStorage struct {
	basePath string
	baseURL  string
}

// NewLocalAvatarStorage creates an AvatarStorage rooted at cfg.LocalPath.
func NewLocalAvatarStorage(cfg config.StorageConfig, baseURL string) (AvatarStorage, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create avatar storage directory '%s': %w", cfg.LocalPath, err)
	}
	return &localAvatarStorage{
		basePath: cfg.LocalPath,
		baseURL:  baseURL,
	}, nil
}

// Save writes the file under a random name, keeping the original extension.
func (s *localAvatarStorage) Save(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		extensions, _ := mime.ExtensionsByType(mimeType)
		if len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	uniqueFileName := uuid.New().String() + ext
	dstPath := filepath.Join(s.basePath, uniqueFileName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar file '%s': %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("failed to write avatar file: %w", err)
	}
	if written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("avatar size mismatch: expected %d, wrote %d", fileSize, written)
	}

	fileURL := strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(uniqueFileName)

	return &FileInfo{
		URL:      fileURL,
		Path:     dstPath,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}
