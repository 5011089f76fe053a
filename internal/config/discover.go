package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// FileName is the config file name used at every layer.
const FileName = "skillsync.yaml"

const configDirName = "skillsync"

// EnvNoInheritKey disables the system and user layers when set to a true value.
const EnvNoInheritKey = "SKILLSYNC_NO_INHERIT"

// ConfigLevel is the precedence level of a config layer.
type ConfigLevel string

const (
	LevelSystem  ConfigLevel = "system"
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo is one candidate config file and whether it was read.
type ConfigLayerInfo struct {
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// HierarchicalOptions controls layered config loading. Empty system and
// user paths fall back to the platform locations; point them at a
// nonexistent file to disable a layer.
type HierarchicalOptions struct {
	ProjectPath      string
	SystemConfigPath string
	UserConfigPath   string

	// NoInherit loads only the project layer.
	NoInherit bool
}

// HierarchicalResult is the merged config plus per-layer load information.
type HierarchicalResult struct {
	Config *Config
	Layers []ConfigLayerInfo
}

// Layers lists the config files to consult, lowest precedence first.
// Two spellings of the same file yield one layer, at the lower level.
func Layers(opts HierarchicalOptions) []ConfigLayerInfo {
	if opts.NoInherit {
		return []ConfigLayerInfo{{Path: opts.ProjectPath, Level: LevelProject}}
	}

	system, user := opts.SystemConfigPath, opts.UserConfigPath
	if system == "" {
		system = systemConfigPath()
	}
	if user == "" {
		user = userConfigPath()
	}

	var layers []ConfigLayerInfo
	seen := make(map[string]bool, 3)
	for _, l := range []ConfigLayerInfo{
		{Path: system, Level: LevelSystem},
		{Path: user, Level: LevelUser},
		{Path: opts.ProjectPath, Level: LevelProject},
	} {
		if l.Path == "" {
			continue
		}
		key, err := filepath.Abs(l.Path)
		if err != nil {
			key = l.Path
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		layers = append(layers, l)
	}
	return layers
}

// LoadHierarchical reads every layer that exists, merges them and validates
// the result. With no layers on disk the default config is returned. A
// layer that exists but cannot be parsed is fatal, as is a version mismatch
// between layers.
func LoadHierarchical(opts HierarchicalOptions) (*HierarchicalResult, error) {
	layers := Layers(opts)

	var configs []*Config
	for i := range layers {
		cfg, err := Parse(layers[i].Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s config: %w", layers[i].Level, err)
		}
		layers[i].Loaded = true
		configs = append(configs, cfg)
	}

	if len(configs) == 0 {
		return &HierarchicalResult{Config: Default(), Layers: layers}, nil
	}

	merged, err := MergeAll(configs)
	if err != nil {
		return nil, err
	}
	if merged.Version == 0 {
		merged.Version = 1
	}

	if errs := Validate(merged); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &HierarchicalResult{Config: merged, Layers: layers}, nil
}

// Default returns the config used when no config file exists.
func Default() *Config {
	return &Config{Version: 1}
}

func systemConfigPath() string {
	if runtime.GOOS == "windows" {
		base := os.Getenv("ProgramData")
		if base == "" {
			base = `C:\ProgramData`
		}
		return filepath.Join(base, configDirName, FileName)
	}
	return filepath.Join("/etc", configDirName, FileName)
}

// userConfigPath is empty when the platform has no user config directory.
func userConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName, FileName)
}

// EnvNoInherit reports whether SKILLSYNC_NO_INHERIT holds a true value
// ("1", "t", "true", in any case).
func EnvNoInherit() bool {
	on, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvNoInheritKey)))
	return err == nil && on
}
