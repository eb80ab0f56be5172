package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Pattern tables are easier to manage in YAML than env vars.
type YAMLConfig struct {
	AskCategories []AskCategoryConfig `yaml:"ask_categories"`
}

// AskCategoryConfig defines one ask/answer pattern category for the
// progress tracker. Patterns are Go regular expressions matched
// case-insensitively against message text.
type AskCategoryConfig struct {
	Name    string `yaml:"name"`
	Ask     string `yaml:"ask"`     // matches an assistant turn asking the question
	Answer  string `yaml:"answer"`  // matches a user turn answering it
	Tier2   string `yaml:"tier2"`   // instruction after 2 consecutive unanswered asks
	Tier3   string `yaml:"tier3"`   // instruction after 3; forbids re-asking
	Replace bool   `yaml:"replace"` // replace the built-in category of the same name
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetAskCategory finds a category by name.
func (c *YAMLConfig) GetAskCategory(name string) *AskCategoryConfig {
	if c == nil {
		return nil
	}
	for i := range c.AskCategories {
		if c.AskCategories[i].Name == name {
			return &c.AskCategories[i]
		}
	}
	return nil
}
