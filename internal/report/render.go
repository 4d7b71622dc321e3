// Package report renders check reports as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/rootcheck/internal/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer renders reports in one output format
type Renderer struct {
	format string
}

// NewRenderer creates a renderer for text, json or yaml
func NewRenderer(format string) (*Renderer, error) {
	switch format {
	case "text", "json", "yaml":
		return &Renderer{format: format}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: text, json, yaml)", format)
	}
}

// Render writes the report to w
func (r *Renderer) Render(w io.Writer, report model.Report) error {
	switch r.format {
	case "json":
		return RenderJSON(w, report)
	case "yaml":
		return RenderYAML(w, report)
	default:
		return RenderText(w, report)
	}
}

// WriteFile renders the report into path
func (r *Renderer) WriteFile(path string, report model.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "close %s", path)
		}
	}()

	return r.Render(f, report)
}

// RenderJSON writes indented JSON
func RenderJSON(w io.Writer, report model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encode JSON report")
	}
	return nil
}

// RenderYAML writes YAML
func RenderYAML(w io.Writer, report model.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encode YAML report")
	}
	return enc.Close()
}

// RenderText writes a human-readable summary
func RenderText(w io.Writer, report model.Report) error {
	var b strings.Builder
	v := report.Verdict

	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "  Device Integrity Check\n")
	fmt.Fprintf(&b, "%s\n\n", rule)
	fmt.Fprintf(&b, "  Host:        %s (%s/%s)\n", orDash(report.Host.Hostname), report.Host.OS, report.Host.Arch)
	fmt.Fprintf(&b, "  Probe root:  %s\n", report.Host.Root)
	fmt.Fprintf(&b, "  Checked at:  %s\n", report.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "  Duration:    %s\n", report.Duration.Round(100*time.Microsecond))
	fmt.Fprintf(&b, "  Policy:      %d high or %d medium suspicious finding(s)\n\n",
		report.Policy.HighConfidenceThreshold, report.Policy.MediumConfidenceCount)

	if v.Rooted {
		fmt.Fprintf(&b, "  ✗ Root check: DETECTED (confidence %d/100)\n", v.Confidence)
	} else {
		fmt.Fprintf(&b, "  ✓ Root check: NOT detected (confidence %d/100)\n", v.Confidence)
	}

	if len(v.Suspicious) > 0 {
		fmt.Fprintf(&b, "\n  Suspicious findings:\n")
		for _, f := range v.Suspicious {
			fmt.Fprintf(&b, "    ⚠️  %-20s %-22s %-7s %s\n", f.Heuristic, f.Category, f.Confidence, f.Evidence)
		}
	}

	if len(v.Findings) > 0 {
		fmt.Fprintf(&b, "\n  All findings:\n")
		for _, f := range v.Findings {
			fmt.Fprintf(&b, "    %s %-20s %-13s %s\n", marker(f.Result), f.Heuristic, f.Result, f.Evidence)
		}
	}

	if len(v.Signals) > 0 {
		fmt.Fprintf(&b, "\n  Policy signals:\n")
		for _, s := range v.Signals {
			fmt.Fprintf(&b, "    - %s\n", s.Description)
		}
	}

	if v.Rooted {
		fmt.Fprintf(&b, "\n%s\n", rule)
		fmt.Fprintf(&b, "  Root Warning\n")
		fmt.Fprintf(&b, "%s\n", rule)
		fmt.Fprintf(&b, "  %s\n", WarningMessage(v))
	}
	fmt.Fprintf(&b, "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WarningMessage names what was detected, for hosts that show a warning
func WarningMessage(v model.Verdict) string {
	if !v.Rooted {
		return ""
	}
	var names []string
	for _, f := range v.Suspicious {
		names = append(names, f.Heuristic)
	}
	return fmt.Sprintf("Root access was detected on this device (%s).", strings.Join(names, ", "))
}

func marker(r model.Result) string {
	switch r {
	case model.ResultSuspicious:
		return "⚠️ "
	case model.ResultInconclusive:
		return "? "
	default:
		return "✓ "
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
