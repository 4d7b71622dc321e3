package model

import "fmt"

// Category classifies what a heuristic inspects
type Category string

const (
	CategoryBinaryPresence      Category = "binary-presence"       // Root shell binaries at well-known paths
	CategoryBuildProperties     Category = "build-properties"      // Non-production build tags and flags
	CategoryWritableSystemPaths Category = "writable-system-paths" // Paths that should be read-only
	CategoryPackagePresence     Category = "package-presence"      // Root-management packages and modules
	CategoryDebugFlags          Category = "debug-flags"           // Debugging/tracing enabled
	CategoryEmulatorIndicators  Category = "emulator-indicators"   // Virtualized hardware fingerprints
)

// Categories returns all known categories in catalog order
func Categories() []Category {
	return []Category{
		CategoryBinaryPresence,
		CategoryBuildProperties,
		CategoryWritableSystemPaths,
		CategoryPackagePresence,
		CategoryDebugFlags,
		CategoryEmulatorIndicators,
	}
}

// ParseCategory converts a category name into a Category
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Result is the tri-state outcome of a single heuristic execution
type Result string

const (
	ResultClean        Result = "clean"
	ResultSuspicious   Result = "suspicious"
	ResultInconclusive Result = "inconclusive"
)

// Valid reports whether r is one of the three defined results
func (r Result) Valid() bool {
	switch r {
	case ResultClean, ResultSuspicious, ResultInconclusive:
		return true
	default:
		return false
	}
}

// Confidence is how strongly a suspicious result from a heuristic indicates root
type Confidence int

const (
	ConfidenceLow    Confidence = 1 // Informational, never flips the verdict on its own
	ConfidenceMedium Confidence = 2
	ConfidenceHigh   Confidence = 3
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the three defined levels
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	default:
		return false
	}
}

// MarshalText renders the confidence by name in JSON and YAML output
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a confidence name
func (c *Confidence) UnmarshalText(text []byte) error {
	switch string(text) {
	case "high":
		*c = ConfidenceHigh
	case "medium":
		*c = ConfidenceMedium
	case "low":
		*c = ConfidenceLow
	default:
		return fmt.Errorf("unknown confidence: %q", string(text))
	}
	return nil
}

// Outcome is what a heuristic check returns
type Outcome struct {
	Result   Result
	Evidence string // e.g. the matched path
}

// Clean returns a clean outcome
func Clean() Outcome {
	return Outcome{Result: ResultClean}
}

// Suspicious returns a suspicious outcome carrying evidence
func Suspicious(evidence string) Outcome {
	return Outcome{Result: ResultSuspicious, Evidence: evidence}
}

// Inconclusive returns an inconclusive outcome with a reason
func Inconclusive(reason string) Outcome {
	return Outcome{Result: ResultInconclusive, Evidence: reason}
}
