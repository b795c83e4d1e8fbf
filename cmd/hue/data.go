package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var errBadAssignment = errors.New("assignment must look like path=value")

// loadData reads a YAML document (JSON is accepted as YAML) whose top level is
// a mapping.
func loadData(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return data, nil
}

// parseAssignment splits "user.age=3" into its path and a YAML-typed value.
func parseAssignment(s string) (path string, value any, err error) {
	path, raw, ok := strings.Cut(s, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", nil, fmt.Errorf("%w: %q", errBadAssignment, s)
	}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("value of %s: %w", path, err)
	}
	return path, value, nil
}
