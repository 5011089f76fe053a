package skill

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// skippedDirs are never part of a skill's content.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Fingerprint hashes the content of a skill folder. Files are visited in
// byte order of their slash-separated relative path and each contributes
// its path followed by its content to a single sha256 digest. Paths
// matching any of the doublestar excludes are skipped.
func Fingerprint(ctx context.Context, dir string, excludes []string) (string, error) {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolving skill directory %s", dir)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrapf(err, "reading skill directory %s", dir)
	}
	if !info.IsDir() {
		return "", errors.Errorf("skill path %s is not a directory", dir)
	}

	files, err := collectFiles(ctx, root, excludes)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", rel)
		}
		h.Write([]byte(rel))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func collectFiles(ctx context.Context, root string, excludes []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skippedDirs[d.Name()] || excluded(rel, excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(rel, excludes) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			// Linked files count as content; linked directories are not walked.
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}

	slices.Sort(files)
	return files, nil
}

func excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
