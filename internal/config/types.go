package config

// Config represents the skillsync.yaml configuration file.
type Config struct {
	Version     int               `yaml:"version"`
	Agents      []AgentDefinition `yaml:"agents,omitempty"`
	Exclude     []string          `yaml:"exclude,omitempty"`
	Concurrency int               `yaml:"concurrency,omitempty"`
}

// AgentDefinition defines a custom agent or overrides a built-in one.
// ProjectDir is relative to the project root, GlobalDir to the home directory;
// either may be absolute.
type AgentDefinition struct {
	Name        string   `yaml:"name" validate:"required,agentname"`
	DisplayName string   `yaml:"display_name,omitempty"`
	ProjectDir  string   `yaml:"project_dir" validate:"required"`
	GlobalDir   string   `yaml:"global_dir" validate:"required"`
	Detect      []string `yaml:"detect,omitempty" validate:"dive,required"`
}
