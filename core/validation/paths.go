package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoots is returned for paths that escape every permitted directory.
var ErrOutsideRoots = errors.New("path is outside the permitted directories")

// Contained resolves path (following symlinks) and returns it when it lies
// inside one of roots. Roots that do not exist never match.
func Contained(path string, roots []string) (string, error) {
	resolved, err := realPath(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}
	for _, root := range roots {
		r, err := realPath(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(r, resolved)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "." {
			return resolved, nil
		}
	}
	return "", ErrOutsideRoots
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
