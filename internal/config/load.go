package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxConcurrency bounds the per-skill fan-out a config may request.
const MaxConcurrency = 64

var agentNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "agentname", func(fl validator.FieldLevel) bool {
		return agentNamePattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering %q validation: %v", tag, err))
	}
}

// Load reads and validates a skillsync.yaml configuration file.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// Parse reads a config file without validating it.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	if cfg.Concurrency < 0 || cfg.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Sprintf("concurrency %d out of range — must be between 0 and %d", cfg.Concurrency, MaxConcurrency))
	}

	names := make(map[string]bool)
	for i, def := range cfg.Agents {
		prefix := fmt.Sprintf("agent[%d]", i)
		if def.Name != "" {
			prefix = fmt.Sprintf("agent '%s'", def.Name)
		}

		if def.Name != "" {
			if names[def.Name] {
				errs = append(errs, fmt.Sprintf("%s: duplicate agent name '%s'", prefix, def.Name))
			}
			names[def.Name] = true
		}

		errs = append(errs, validateAgent(def, prefix)...)
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("exclude pattern '%s' is not a valid glob", pattern))
		}
	}

	return errs
}

func validateAgent(def AgentDefinition, prefix string) []string {
	err := validate.Struct(def)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("%s: %v", prefix, err)}
	}

	var errs []string
	for _, fe := range fieldErrs {
		field := yamlFieldName(fe.StructField())
		switch fe.Tag() {
		case "required":
			errs = append(errs, fmt.Sprintf("%s: '%s' is required", prefix, field))
		case "agentname":
			errs = append(errs, fmt.Sprintf("%s: invalid name '%v' — use lowercase letters, digits, '.', '_' or '-'", prefix, fe.Value()))
		default:
			errs = append(errs, fmt.Sprintf("%s: '%s' failed '%s' check", prefix, field, fe.Tag()))
		}
	}
	return errs
}

func yamlFieldName(structField string) string {
	switch {
	case strings.HasPrefix(structField, "Detect"):
		return "detect"
	case structField == "ProjectDir":
		return "project_dir"
	case structField == "GlobalDir":
		return "global_dir"
	default:
		return strings.ToLower(structField)
	}
}
