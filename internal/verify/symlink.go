package verify

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bianoble/skillsync/internal/logger"
	"github.com/bianoble/skillsync/internal/pathutil"
	"github.com/bianoble/skillsync/internal/scope"
)

// Layout resolves the directories of a scope.
type Layout interface {
	BaseDir(agent string, s scope.Scope) (string, error)
	CanonicalDir(s scope.Scope) string
}

// CheckSymlinkIntegrity inspects <base>/<skill> for every agent. Agents whose
// base directory is the canonical store are skipped. An absent entry or a
// directory (copy install) is consistent; a symlink must resolve to
// canonicalPath. Probe failures are logged and omitted from the findings.
func CheckSymlinkIntegrity(ctx context.Context, layout Layout, skillName, canonicalPath string, agents []string, s scope.Scope) ([]BrokenSymlink, []UnexpectedEntry) {
	log := logger.G(ctx).WithField("skill", skillName)
	canonicalDir := layout.CanonicalDir(s)

	broken := []BrokenSymlink{}
	var unexpected []UnexpectedEntry

	for _, name := range agents {
		base, err := layout.BaseDir(name, s)
		if err != nil {
			log.WithError(err).WithField("agent", name).Debug("skipping agent without a base directory")
			continue
		}
		if pathutil.SamePath(base, canonicalDir) {
			continue
		}

		link := filepath.Join(base, skillName)
		info, err := os.Lstat(link)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			log.WithError(err).WithField("path", link).Debug("probe failed")
			continue
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			target, err := pathutil.ResolveLink(link)
			if err != nil {
				log.WithError(err).WithField("path", link).Debug("probe failed")
				continue
			}
			if !pathutil.SamePath(target, canonicalPath) {
				broken = append(broken, BrokenSymlink{Agent: name, Link: link, Target: target})
			}
		case info.IsDir():
			// copy install
		default:
			unexpected = append(unexpected, UnexpectedEntry{Agent: name, Path: link, Mode: entryKind(info.Mode())})
		}
	}
	return broken, unexpected
}

func entryKind(m fs.FileMode) string {
	switch {
	case m.IsRegular():
		return "file"
	case m&fs.ModeNamedPipe != 0:
		return "named pipe"
	case m&fs.ModeSocket != 0:
		return "socket"
	case m&fs.ModeDevice != 0:
		return "device"
	default:
		return m.Type().String()
	}
}
