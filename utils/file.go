package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var storageNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{21}\.[a-z0-9]{1,8}$`)

// GenerateStorageName returns a collision-resistant name that shares nothing
// with the user's filename except the lower-cased extension.
func GenerateStorageName(ext string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate storage name: %w", err)
	}
	return id + strings.ToLower(ext), nil
}

// IsStorageName reports whether name has the shape produced by
// GenerateStorageName. Anything else can never exist in the store.
func IsStorageName(name string) bool {
	return storageNamePattern.MatchString(name)
}

// CleanOriginalFilename strips any client-side directory components from an
// uploaded filename.
func CleanOriginalFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(filepath.Base(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// Extension returns the lower-cased extension of name, including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
