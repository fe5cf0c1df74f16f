package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/pkg/retry"
)

var (
	ErrTooLarge        = errors.New("storage: размер файла превышает лимит")
	ErrUnsupportedType = errors.New("storage: допускаются только изображения jpeg, png, webp или gif")
)

var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// FileStorage хранилище пользовательских файлов. Save возвращает относительный путь.
type FileStorage interface {
	Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
	Delete(ctx context.Context, relativePath string) error
}

// LocalStorage хранит файлы на локальном диске.
type LocalStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewLocalStorage создаёт файловое хранилище.
func NewLocalStorage(rootPath string, maxUploadMB int64) (*LocalStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &LocalStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

func (s *LocalStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save сохраняет файл через временный файл и переименование.
func (s *LocalStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%s_%d%s", ownerID.String(), time.Now().UnixNano(), filepath.Ext(safeName))

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("%w: %d байт", ErrTooLarge, s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	relative := filepath.ToSlash(filepath.Join(ownerID.String(), fileName))
	return relative, written, nil
}

// Delete удаляет файл из хранилища.
func (s *LocalStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// DetectImage определяет тип изображения по содержимому, а не по имени файла.
// Возвращает MIME-тип и расширение.
func DetectImage(data []byte) (string, string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", "", ErrUnsupportedType
	}
	ext, ok := allowedImages[kind.MIME.Value]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return kind.MIME.Value, ext, nil
}

// SaveImage проверяет содержимое и сохраняет изображение, повторяя
// временные ошибки диска по политике p.
func SaveImage(ctx context.Context, fs FileStorage, p retry.Policy, ownerID uuid.UUID, data []byte) (string, error) {
	_, ext, err := DetectImage(data)
	if err != nil {
		return "", err
	}

	p.Retryable = func(err error) bool {
		return !errors.Is(err, ErrTooLarge) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}

	var path string
	err = retry.Do(ctx, p, func(ctx context.Context, attempt int) error {
		saved, _, err := fs.Save(ctx, ownerID, "image"+ext, bytes.NewReader(data))
		if err != nil {
			logger.WithComponent("storage").WithError(err).WithField("attempt", attempt).Warn("не удалось сохранить файл")
			return err
		}
		path = saved
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." {
		name = "file"
	}
	return name
}
