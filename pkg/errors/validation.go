package errors

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateTablePath checks that path names a readable regular file with the
// expected extension (case-insensitive, including the dot).
func ValidateTablePath(path, ext string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "file path cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "file path contains invalid characters")
		}
	}
	if ext != "" && !strings.EqualFold(filepath.Ext(path), ext) {
		return New(ErrCodeInvalidFormat, "%s is not a %s file", path, ext)
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return New(ErrCodeFileNotFound, "%s does not exist", path)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "stat %s", path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidInput, "%s is a directory", path)
	}
	return nil
}

// ValidateOutputDir checks that dir exists (or can be created) and is a directory.
func ValidateOutputDir(dir string) error {
	if dir == "" {
		return New(ErrCodeInvalidInput, "output directory cannot be empty")
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Wrap(ErrCodeInvalidInput, err, "create %s", dir)
		}
		return nil
	}
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "stat %s", dir)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidInput, "%s is not a directory", dir)
	}
	return nil
}
