package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base.
//   - version: must agree if both declare it (non-zero); fatal error on mismatch
//   - agents: merge by name — same name in overlay replaces base entry entirely
//   - exclude: concatenate (base first, then overlay)
//   - concurrency: overlay wins when non-zero
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := &Config{}

	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	result.Agents = mergeNamedAgents(base.Agents, overlay.Agents)

	result.Exclude = append(result.Exclude, base.Exclude...)
	result.Exclude = append(result.Exclude, overlay.Exclude...)

	result.Concurrency = base.Concurrency
	if overlay.Concurrency != 0 {
		result.Concurrency = overlay.Concurrency
	}

	return result, nil
}

// MergeAll merges multiple configs in order (lowest precedence first).
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0 && overlay == 0:
		*out = 0 // neither declares; validation will catch this
	case base == 0:
		*out = overlay
	case overlay == 0:
		*out = base
	case base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d — all config layers must agree on version", base, overlay)
	}
	return nil
}

func mergeNamedAgents(base, overlay []AgentDefinition) []AgentDefinition {
	if len(base) == 0 {
		return overlay
	}
	if len(overlay) == 0 {
		return base
	}

	overlayNames := make(map[string]bool, len(overlay))
	for _, def := range overlay {
		overlayNames[def.Name] = true
	}

	var result []AgentDefinition
	for _, def := range base {
		if !overlayNames[def.Name] {
			result = append(result, def)
		}
	}

	result = append(result, overlay...)

	return result
}
