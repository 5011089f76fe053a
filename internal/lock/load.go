package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bianoble/skillsync/internal/logger"
	"github.com/bianoble/skillsync/internal/scope"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Read loads the lock for the given scope. A missing lock file yields an
// empty lock; any other read, parse or validation failure is returned.
func Read(ctx context.Context, s scope.Scope, paths scope.Paths) (*Lock, error) {
	path := paths.LockPath(s)
	if s == scope.Global {
		return LoadGlobal(ctx, path)
	}
	return LoadProject(ctx, path)
}

// Reader reads locks relative to fixed anchor directories.
type Reader struct {
	Paths scope.Paths
}

// Read loads the lock for the given scope.
func (r Reader) Read(ctx context.Context, s scope.Scope) (*Lock, error) {
	return Read(ctx, s, r.Paths)
}

// LoadProject reads and validates a project skills-lock.json. Only an
// unsupported version rejects the file; malformed entries carry a Problem.
func LoadProject(ctx context.Context, path string) (*Lock, error) {
	var pl ProjectLock
	found, err := readJSON(path, &pl)
	if err != nil {
		return nil, err
	}
	if !found {
		return Empty(scope.Project), nil
	}

	if errs := ValidateProject(&pl); len(errs) > 0 {
		return nil, &ValidationError{Path: path, Errors: errs}
	}
	l := fromProject(&pl)
	warnMalformed(ctx, path, l)
	return l, nil
}

// LoadGlobal reads and validates the global skill lock. Locks written by an
// older installer version are treated as empty, matching the installer,
// which discards them on its next write.
func LoadGlobal(ctx context.Context, path string) (*Lock, error) {
	var gl GlobalLock
	found, err := readJSON(path, &gl)
	if err != nil {
		return nil, err
	}
	if !found {
		return Empty(scope.Global), nil
	}

	if gl.Version < GlobalVersion {
		logger.G(ctx).WithField("path", path).WithField("version", gl.Version).
			Warn("global lock predates the current format; treating it as empty — reinstall skills to record them")
		return Empty(scope.Global), nil
	}

	if errs := ValidateGlobal(&gl); len(errs) > 0 {
		return nil, &ValidationError{Path: path, Errors: errs}
	}
	l := fromGlobal(&gl)
	warnMalformed(ctx, path, l)
	return l, nil
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading lock %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing lock %s: %w", path, err)
	}
	return true, nil
}

// SaveProject writes a project lock atomically using a temp file and rename.
func SaveProject(path string, pl *ProjectLock) error {
	return save(path, pl)
}

// SaveGlobal writes a global lock atomically using a temp file and rename.
func SaveGlobal(path string, gl *GlobalLock) error {
	return save(path, gl)
}

func save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lock: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp lock %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp lock to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lock %s validation failed:\n  - %s", e.Path, strings.Join(e.Errors, "\n  - "))
}

// ValidateProject checks the parts of a project lock that make the whole
// file unusable. Malformed entries are not included; see ValidateEntry.
func ValidateProject(pl *ProjectLock) []string {
	if pl.Version != ProjectVersion {
		return []string{fmt.Sprintf("unsupported version %d — only version %d is supported", pl.Version, ProjectVersion)}
	}
	return nil
}

// ValidateGlobal checks the parts of a global lock that make the whole file unusable.
func ValidateGlobal(gl *GlobalLock) []string {
	if gl.Version != GlobalVersion {
		return []string{fmt.Sprintf("unsupported version %d — this build reads version %d; upgrade skillsync", gl.Version, GlobalVersion)}
	}
	return nil
}

// ValidName reports whether a recorded skill name can be used as a folder name.
func ValidName(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}

// ValidateEntry checks one recorded skill and returns its problems.
func ValidateEntry(name string, entry any) []string {
	prefix := fmt.Sprintf("skill '%s'", name)
	if strings.TrimSpace(name) == "" {
		return []string{"skill with empty name"}
	}
	if !ValidName(name) {
		return []string{fmt.Sprintf("%s: name must be a single path element", prefix)}
	}

	err := validate.Struct(entry)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("%s: %v", prefix, err)}
	}

	var errs []string
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Sprintf("%s: '%s' is %s", prefix, jsonName(fe.StructField()), fe.Tag()))
	}
	return errs
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func problem(name string, entry any) string {
	return strings.Join(ValidateEntry(name, entry), "; ")
}

func warnMalformed(ctx context.Context, path string, l *Lock) {
	for _, name := range slices.Sorted(maps.Keys(l.Entries)) {
		if p := l.Entries[name].Problem; p != "" {
			logger.G(ctx).WithField("path", path).WithField("skill", name).Warn(p)
		}
	}
}
