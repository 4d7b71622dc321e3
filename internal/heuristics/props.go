package heuristics

import (
	"fmt"
	"strings"
)

// propertyFiles are read in order; the first definition of a key wins
var propertyFiles = []string{
	"/system/build.prop",
	"/system/etc/prop.default",
	"/vendor/build.prop",
	"/vendor/default.prop",
	"/product/build.prop",
	"/prop.default",
	"/default.prop",
}

// Properties is a snapshot of build properties
type Properties map[string]string

// LoadProperties parses every readable property file.
// It fails only when none of them could be read.
func LoadProperties(env *Environment) (Properties, error) {
	props := make(Properties)
	read := 0

	for _, p := range propertyFiles {
		lines, err := env.readLines(p)
		if err != nil {
			continue
		}
		read++
		for _, line := range lines {
			key, value, ok := parsePropertyLine(line)
			if !ok {
				continue
			}
			if _, exists := props[key]; !exists {
				props[key] = value
			}
		}
	}

	if read == 0 {
		return nil, fmt.Errorf("no build property file readable")
	}
	return props, nil
}

// parsePropertyLine parses "key=value", skipping blanks, comments and imports
func parsePropertyLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "import ") {
		return "", "", false
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// Get returns a property value or ""
func (p Properties) Get(key string) string {
	return p[key]
}
