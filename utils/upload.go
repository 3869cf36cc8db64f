package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxImageSize limits uploaded post images to 10MB.
const maxImageSize = 10 * 1024 * 1024

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// SaveImage stores an uploaded post image under
// <baseDir>/uploads/YYYY/MM/DD/<uuid><ext> and returns the public URL path
// to record on the post. The original filename only contributes its
// extension; the stored name is always freshly generated.
func SaveImage(fh *multipart.FileHeader, baseDir string) (string, error) {
	if fh.Size > maxImageSize {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	now := time.Now()
	relDir := filepath.Join("uploads", now.Format("2006"), now.Format("01"), now.Format("02"))
	dir := filepath.Join(baseDir, relDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	lr := &io.LimitedReader{R: src, N: maxImageSize + 1}
	written, err := io.Copy(dst, lr)
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	if written > maxImageSize {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	return "/" + path.Join("static", filepath.ToSlash(relDir), name), nil
}
