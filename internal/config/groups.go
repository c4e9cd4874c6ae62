package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type groupsFile struct {
	Groups []Group `yaml:"groups" validate:"required,min=1,dive"`
}

// LoadGroupsFromPath reads a YAML file with a top-level "groups" list
func LoadGroupsFromPath(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read groups file: %w", err)
	}

	var file groupsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse groups file: %w", err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("groups file validation failed: %w", err)
	}

	return file.Groups, nil
}
