package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation failures. All of them mean the upload was rejected before
// anything touched the disk.
var (
	ErrNoFile           = errors.New("no file provided")
	ErrFileTooLarge     = errors.New("file size exceeds maximum limit")
	ErrMissingExtension = errors.New("file must have an extension")
	ErrUnsafeFilename   = errors.New("invalid filename")
	ErrInvalidType      = errors.New("file type not allowed")
	ErrInvalidImage     = errors.New("invalid image file")
)

// Class selects which allow-list an upload is validated against.
type Class string

const (
	ClassImage    Class = "image"
	ClassDocument Class = "document"
	ClassAny      Class = "any"
)

var allowedImageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

var allowedDocumentTypes = map[string][]string{
	"application/pdf": {".pdf"},
	"text/plain":      {".txt"},
	"application/msword": {".doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {".docx"},
}

// The closed set of storage subfolders. Unknown folder names fall back to
// "general" rather than creating arbitrary directories.
var folders = map[string]string{
	"profile_images":  "profile_images",
	"incident_images": "incident_images",
	"documents":       "documents",
	"general":         "general",
}

// Store owns the upload directory tree. All filesystem access to uploaded
// content goes through it; the paths it hands out are relative,
// forward-slash-normalized and always inside the base directory.
type Store struct {
	baseDir string
	maxSize int64
}

func NewStore(baseDir string, maxSize int64) *Store {
	return &Store{baseDir: baseDir, maxSize: maxSize}
}

// EnsureDirs creates the storage subfolders. Idempotent; called once at
// startup by whoever wires the store, never lazily at save time.
func (s *Store) EnsureDirs() error {
	for _, folder := range folders {
		if err := os.MkdirAll(filepath.Join(s.baseDir, folder), 0o755); err != nil {
			return fmt.Errorf("failed to create upload directory %s: %w", folder, err)
		}
	}
	return nil
}

type SaveOptions struct {
	Folder      string
	Class       Class
	Prefix      string
	ResizeImage bool
}

// Save validates the upload and writes it under the base directory,
// returning the relative storage path. The declared size and the actual
// byte count are both checked since clients can lie about the former.
func (s *Store) Save(src io.Reader, filename, contentType string, declaredSize int64, opts SaveOptions) (string, error) {
	if src == nil {
		return "", ErrNoFile
	}
	if err := validate(filename, contentType, declaredSize, opts.Class, s.maxSize); err != nil {
		return "", err
	}

	folder, ok := folders[opts.Folder]
	if !ok {
		folder = folders["general"]
	}

	content, err := io.ReadAll(io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(content)) > s.maxSize {
		return "", fmt.Errorf("%w of %.1fMB", ErrFileTooLarge, float64(s.maxSize)/(1024*1024))
	}
	if len(content) == 0 {
		return "", ErrNoFile
	}

	if opts.Class == ClassImage && opts.ResizeImage {
		content, err = processImage(content, contentType)
		if err != nil {
			return "", err
		}
	}

	name := uniqueName(filename, opts.Prefix)
	if err := os.WriteFile(filepath.Join(s.baseDir, folder, name), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return path.Join(folder, name), nil
}

func validate(filename, contentType string, declaredSize int64, class Class, maxSize int64) error {
	if declaredSize > maxSize {
		return fmt.Errorf("%w of %.1fMB", ErrFileTooLarge, float64(maxSize)/(1024*1024))
	}
	if !isSafeFilename(filename) {
		return ErrUnsafeFilename
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ErrMissingExtension
	}

	switch class {
	case ClassImage:
		exts, ok := allowedImageTypes[contentType]
		if !ok {
			return fmt.Errorf("%w: invalid image type %q", ErrInvalidType, contentType)
		}
		if !contains(exts, ext) {
			return fmt.Errorf("%w: extension doesn't match content type", ErrInvalidType)
		}
	case ClassDocument:
		exts, ok := allowedDocumentTypes[contentType]
		if !ok {
			return fmt.Errorf("%w: invalid document type %q", ErrInvalidType, contentType)
		}
		if !contains(exts, ext) {
			return fmt.Errorf("%w: extension doesn't match content type", ErrInvalidType)
		}
	case ClassAny:
		exts, ok := allowedImageTypes[contentType]
		if !ok {
			exts, ok = allowedDocumentTypes[contentType]
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidType, contentType)
		}
		if !contains(exts, ext) {
			return fmt.Errorf("%w: extension doesn't match content type", ErrInvalidType)
		}
	default:
		return fmt.Errorf("%w: unknown file class %q", ErrInvalidType, class)
	}
	return nil
}

func isSafeFilename(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return len(name) <= 255
}

// uniqueName derives a collision-free storage name. The original filename
// only contributes its extension.
func uniqueName(original, prefix string) string {
	ext := strings.ToLower(filepath.Ext(original))
	stamp := time.Now().UTC().Format("20060102")
	id := uuid.New().String()
	if prefix != "" {
		return fmt.Sprintf("%s_%s_%s%s", prefix, stamp, id, ext)
	}
	return fmt.Sprintf("%s_%s%s", stamp, id, ext)
}

// Delete removes a stored file by its relative path. It re-resolves the path
// and refuses anything that escapes the base directory; a missing or
// out-of-root path reports "not deleted" instead of failing.
func (s *Store) Delete(relPath string) bool {
	full, ok := s.resolve(relPath)
	if !ok {
		return false
	}
	return os.Remove(full) == nil
}

// Resolve maps a stored relative path to an absolute one, confirming it is
// still confined to the base directory.
func (s *Store) Resolve(relPath string) (string, bool) {
	return s.resolve(relPath)
}

func (s *Store) resolve(relPath string) (string, bool) {
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", false
	}
	full, err := filepath.Abs(filepath.Join(base, filepath.FromSlash(relPath)))
	if err != nil {
		return "", false
	}
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// FileInfo describes a stored file.
type FileInfo struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
	ContentType string    `json:"content_type"`
}

func (s *Store) Info(relPath string) (*FileInfo, bool) {
	full, ok := s.resolve(relPath)
	if !ok {
		return nil, false
	}
	stat, err := os.Stat(full)
	if err != nil || stat.IsDir() {
		return nil, false
	}
	return &FileInfo{
		Name:        filepath.Base(full),
		Size:        stat.Size(),
		ModifiedAt:  stat.ModTime(),
		ContentType: mime.TypeByExtension(filepath.Ext(full)),
	}, true
}

// Cleanup removes files older than the given number of days and returns how
// many were deleted. Per-file failures are skipped; the sweep never aborts.
func (s *Store) Cleanup(days int) int {
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted := 0
	_ = filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if os.Remove(p) == nil {
			deleted++
		}
		return nil
	})
	return deleted
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
