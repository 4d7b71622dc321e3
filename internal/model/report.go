package model

import (
	"sort"
	"time"
)

// Finding is the output of one heuristic execution
type Finding struct {
	Heuristic  string     `json:"heuristic" yaml:"heuristic"`
	Category   Category   `json:"category" yaml:"category"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Result     Result     `json:"result" yaml:"result"`
	Evidence   string     `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// Verdict is the aggregate result of one full check run.
// It holds no timestamps so that an unchanged device yields identical verdicts.
type Verdict struct {
	Rooted     bool      `json:"rooted" yaml:"rooted"`
	Confidence int       `json:"confidence" yaml:"confidence"` // 0-100
	Suspicious []Finding `json:"suspicious" yaml:"suspicious"`
	Findings   []Finding `json:"findings,omitempty" yaml:"findings,omitempty"` // All findings, only when detail was requested
	Signals    []Signal  `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Count returns how many findings in the detail list have the given result
func (v Verdict) Count(r Result) int {
	n := 0
	for _, f := range v.Findings {
		if f.Result == r {
			n++
		}
	}
	return n
}

// SortFindings orders findings by heuristic identifier
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Heuristic < findings[j].Heuristic
	})
}

// Signal represents one transparent step of the verdict policy
type Signal struct {
	Type        SignalType             `json:"type" yaml:"type"`
	Description string                 `json:"description" yaml:"description"`
	Data        map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"` // Inputs and formula
}

// SignalType classifies a policy signal
type SignalType string

const (
	SignalHighConfidence   SignalType = "high_confidence"   // High-confidence suspicious count vs threshold
	SignalMediumConfidence SignalType = "medium_confidence" // Medium-confidence suspicious count vs threshold
	SignalInformational    SignalType = "informational"     // Low-confidence suspicious findings
	SignalInconclusive     SignalType = "inconclusive"      // Probes that could not complete
	SignalScore            SignalType = "score"             // Confidence score breakdown
)

// Report wraps a verdict with the context of the run that produced it
type Report struct {
	Tool      string        `json:"tool" yaml:"tool"`
	Version   string        `json:"version" yaml:"version"`
	Host      HostInfo      `json:"host" yaml:"host"`
	CheckedAt time.Time     `json:"checked_at" yaml:"checked_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration"`
	Policy    PolicyConfig  `json:"policy" yaml:"policy"`
	Verdict   Verdict       `json:"verdict" yaml:"verdict"`
}

// HostInfo describes where the check ran
type HostInfo struct {
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	OS       string `json:"os" yaml:"os"`
	Arch     string `json:"arch" yaml:"arch"`
	Root     string `json:"root" yaml:"root"` // Filesystem root the probes read from
}

// Clone returns a deep copy so callers own what they receive
func (v Verdict) Clone() Verdict {
	out := v
	out.Suspicious = append(make([]Finding, 0, len(v.Suspicious)), v.Suspicious...)
	if v.Findings != nil {
		out.Findings = append(make([]Finding, 0, len(v.Findings)), v.Findings...)
	}
	if v.Signals != nil {
		out.Signals = make([]Signal, len(v.Signals))
		for i, s := range v.Signals {
			out.Signals[i] = s
			if s.Data != nil {
				out.Signals[i].Data = make(map[string]interface{}, len(s.Data))
				for k, val := range s.Data {
					out.Signals[i].Data[k] = val
				}
			}
		}
	}
	return out
}
