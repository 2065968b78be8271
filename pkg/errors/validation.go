package errors

import (
	"os"
	"strings"
	"unicode"
)

// ValidateGraphPath checks that path names a readable regular file.
// Missing files return FILE_NOT_FOUND so the CLI can report the exact input.
func ValidateGraphPath(path string) error {
	if err := validatePathSyntax(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return New(ErrCodeFileNotFound, "graph file not found: %s", path)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidPath, "graph path is a directory: %s", path)
	}
	return nil
}

// ValidateOutputDir checks that dir is usable as an output directory. The
// directory itself may not exist yet.
func ValidateOutputDir(dir string) error {
	if err := validatePathSyntax(dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		return New(ErrCodeInvalidPath, "output path exists and is not a directory: %s", dir)
	}
	return nil
}

// ValidateThreshold checks that a similarity threshold lies in (0, 1].
func ValidateThreshold(name string, v float64) error {
	if v <= 0 || v > 1 {
		return New(ErrCodeInvalidConfig, "%s must be in (0, 1], got %g", name, v)
	}
	return nil
}

func validatePathSyntax(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > 4096 {
		return New(ErrCodeInvalidPath, "path too long (max 4096 characters)")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains control characters")
		}
	}
	return nil
}
