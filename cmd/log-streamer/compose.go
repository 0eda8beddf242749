package main

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// composeConfig is the part of docker-compose.yml we need.
type composeConfig struct {
	Services map[string]any `yaml:"services"`
}

// composeServices returns the sorted service names, restricted to only when
// it is non-empty.
func composeServices(raw []byte, only []string) ([]string, error) {
	var cfg composeConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse compose file: %w", err)
	}

	names := make([]string, 0, len(cfg.Services))
	for name := range cfg.Services {
		if len(only) == 0 || slices.Contains(only, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no matching services in compose file")
	}
	return names, nil
}

func matches(line, grep string) bool {
	return grep == "" || strings.Contains(line, grep)
}
