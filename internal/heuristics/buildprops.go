package heuristics

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/rootcheck/internal/model"
)

// propertyProbe inspects build properties with a predicate
type propertyProbe struct {
	probe
	match func(props Properties) (evidence string, suspicious bool)
}

func (p *propertyProbe) Check(ctx context.Context) (model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}

	props, err := LoadProperties(p.env)
	if err != nil {
		return model.Outcome{}, err
	}

	if evidence, suspicious := p.match(props); suspicious {
		return model.Suspicious(evidence), nil
	}
	return model.Clean(), nil
}

// TestKeys flags builds signed with test keys instead of release keys
func TestKeys(env *Environment) Heuristic {
	return &propertyProbe{
		probe: probe{id: "test-keys", cat: model.CategoryBuildProperties, level: model.ConfidenceMedium, env: env},
		match: func(props Properties) (string, bool) {
			tags := props.Get("ro.build.tags")
			if strings.Contains(tags, "test-keys") {
				return "ro.build.tags=" + tags, true
			}
			return "", false
		},
	}
}

// InsecureBuild flags ro.secure=0, under which adbd runs as root
func InsecureBuild(env *Environment) Heuristic {
	return &propertyProbe{
		probe: probe{id: "insecure-build", cat: model.CategoryBuildProperties, level: model.ConfidenceHigh, env: env},
		match: func(props Properties) (string, bool) {
			if props.Get("ro.secure") == "0" {
				return "ro.secure=0", true
			}
			return "", false
		},
	}
}

// Debuggable flags ro.debuggable=1, which production builds never set
func Debuggable(env *Environment) Heuristic {
	return &propertyProbe{
		probe: probe{id: "debuggable", cat: model.CategoryDebugFlags, level: model.ConfidenceMedium, env: env},
		match: func(props Properties) (string, bool) {
			if props.Get("ro.debuggable") == "1" {
				return "ro.debuggable=1", true
			}
			return "", false
		},
	}
}

// describeProps renders selected properties for evidence strings
func describeProps(props Properties, keys ...string) string {
	var parts []string
	for _, k := range keys {
		if v := props.Get(k); v != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		}
	}
	return strings.Join(parts, ", ")
}
