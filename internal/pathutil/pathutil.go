// Package pathutil compares and resolves filesystem paths that may traverse symlinks.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveLink reads the symlink at linkPath and returns its target as a clean
// absolute path. Relative targets are resolved against the link's own directory.
// The target is not required to exist.
func ResolveLink(linkPath string) (string, error) {
	target, err := os.Readlink(linkPath)
	if err != nil {
		return "", fmt.Errorf("reading link %s: %w", linkPath, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolving link target %s: %w", target, err)
	}
	return abs, nil
}

// SamePath reports whether a and b name the same location. Paths are first
// compared lexically; failing that, the longest existing prefix of each is
// resolved through symlinks so aliases such as /var and /private/var match.
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if absA == absB {
		return true
	}

	realA, errA := ResolveExisting(absA)
	realB, errB := ResolveExisting(absB)
	if errA != nil || errB != nil {
		return false
	}
	return realA == realB
}

// ResolveExisting resolves symlinks for the longest existing prefix of path,
// then appends the non-existing suffix.
func ResolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == path {
		return path, nil
	}

	resolvedDir, err := ResolveExisting(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}
