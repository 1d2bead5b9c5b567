// Package upload stores user-submitted files under collision-resistant
// names and hands back retrievable reference paths.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"siterelay/internal/models"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// DefaultMaxBytes caps uploads at 16 MiB.
const DefaultMaxBytes = 16 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var unsafeRunes = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Resolver writes uploads into baseDir and serves them back by stored name.
type Resolver struct {
	baseDir  string
	maxBytes int64
}

func NewResolver(baseDir string, maxBytes int64) (*Resolver, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Resolver{baseDir: baseDir, maxBytes: maxBytes}, nil
}

// Store validates type and size, then persists the file under
// <token>_<sanitized original name>. The size check runs before any byte
// is written; declaredSize may be -1 when unknown, in which case only the
// streaming guard applies.
func (r *Resolver) Store(fileName string, src io.Reader, declaredSize int64) (*models.UploadedFile, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, fileName)
	}
	if declaredSize > r.maxBytes {
		return nil, ErrFileTooLarge
	}

	storedName := uuid.NewString() + "_" + sanitizeFilename(fileName)
	destPath := filepath.Join(r.baseDir, storedName)

	out, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(out, io.LimitReader(src, r.maxBytes+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if written > r.maxBytes {
		os.Remove(destPath)
		return nil, ErrFileTooLarge
	}

	return &models.UploadedFile{
		StoredName:   storedName,
		OriginalName: fileName,
		StoragePath:  destPath,
		RefPath:      "/uploads/" + storedName,
		SizeBytes:    written,
	}, nil
}

// Path resolves a stored name back to its file, rejecting anything that
// escapes the upload directory.
func (r *Resolver) Path(storedName string) (string, error) {
	name := filepath.Base(filepath.Clean(storedName))
	if name == "" || name == "." || name == ".." {
		return "", os.ErrNotExist
	}
	p := filepath.Join(r.baseDir, name)
	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrNotExist
	}
	return p, nil
}

// sanitizeFilename strips path components and unsafe runes from the
// original name, keeping the extension intact.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = name[strings.LastIndex(name, "/")+1:]
	name = unsafeRunes.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "upload"
	}
	return name
}
