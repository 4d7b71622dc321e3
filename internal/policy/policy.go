// Package policy combines heuristic findings into a verdict.
//
// The policy is fixed and weighted rather than an OR over all findings:
//
//	rooted     = high >= HighConfidenceThreshold || medium >= MediumConfidenceCount
//	confidence = min(100, 60*high + 30*medium + 10*low)
//
// where high, medium and low count suspicious findings by heuristic
// confidence. Low-confidence heuristics are informational and never make a
// device rooted on their own. Clean and inconclusive findings contribute
// nothing, so a probe that cannot complete is never evidence of tampering.
// Zero findings yield rooted=false and confidence 0: the absence of checks
// is not evidence of compromise.
package policy

import (
	"fmt"

	"github.com/ppiankov/rootcheck/internal/model"
)

// Score weights per suspicious finding
const (
	WeightHigh   = 60
	WeightMedium = 30
	WeightLow    = 10
	MaxScore     = 100
)

// Aggregator applies the verdict policy
type Aggregator struct {
	cfg model.PolicyConfig
}

// NewAggregator creates an aggregator. Thresholds below 1 are raised to 1.
func NewAggregator(cfg model.PolicyConfig) *Aggregator {
	if cfg.HighConfidenceThreshold < 1 {
		cfg.HighConfidenceThreshold = 1
	}
	if cfg.MediumConfidenceCount < 1 {
		cfg.MediumConfidenceCount = 1
	}
	return &Aggregator{cfg: cfg}
}

// Config returns the effective thresholds
func (a *Aggregator) Config() model.PolicyConfig {
	return a.cfg
}

// tally counts findings by confidence and result
type tally struct {
	high, medium, low int
	inconclusive      int
	total             int
}

// Aggregate combines findings into a verdict. Suspicious findings are
// ordered by heuristic identifier. When detail is true every finding is
// retained in the verdict.
func (a *Aggregator) Aggregate(findings []model.Finding, detail bool) model.Verdict {
	var t tally
	suspicious := make([]model.Finding, 0)

	for _, f := range findings {
		t.total++
		switch f.Result {
		case model.ResultSuspicious:
			suspicious = append(suspicious, f)
			switch f.Confidence {
			case model.ConfidenceHigh:
				t.high++
			case model.ConfidenceMedium:
				t.medium++
			case model.ConfidenceLow:
				t.low++
			}
		case model.ResultInconclusive:
			t.inconclusive++
		}
	}
	model.SortFindings(suspicious)

	highTriggered := t.high >= a.cfg.HighConfidenceThreshold
	mediumTriggered := t.medium >= a.cfg.MediumConfidenceCount

	verdict := model.Verdict{
		Rooted:     highTriggered || mediumTriggered,
		Confidence: score(t),
		Suspicious: suspicious,
		Signals:    a.signals(t, highTriggered, mediumTriggered),
	}

	if detail {
		all := make([]model.Finding, len(findings))
		copy(all, findings)
		model.SortFindings(all)
		verdict.Findings = all
	}

	return verdict
}

// score computes the 0-100 confidence score
func score(t tally) int {
	s := t.high*WeightHigh + t.medium*WeightMedium + t.low*WeightLow
	if s > MaxScore {
		s = MaxScore
	}
	return s
}

// signals explains each step of the policy with its inputs
func (a *Aggregator) signals(t tally, highTriggered, mediumTriggered bool) []model.Signal {
	signals := []model.Signal{
		{
			Type:        model.SignalHighConfidence,
			Description: fmt.Sprintf("High-confidence suspicious findings: %d (threshold %d)", t.high, a.cfg.HighConfidenceThreshold),
			Data: map[string]interface{}{
				"count":     t.high,
				"threshold": a.cfg.HighConfidenceThreshold,
				"triggered": highTriggered,
			},
		},
		{
			Type:        model.SignalMediumConfidence,
			Description: fmt.Sprintf("Medium-confidence suspicious findings: %d (threshold %d)", t.medium, a.cfg.MediumConfidenceCount),
			Data: map[string]interface{}{
				"count":     t.medium,
				"threshold": a.cfg.MediumConfidenceCount,
				"triggered": mediumTriggered,
			},
		},
	}

	if t.low > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalInformational,
			Description: fmt.Sprintf("Informational findings: %d (never decisive)", t.low),
			Data:        map[string]interface{}{"count": t.low},
		})
	}

	if t.inconclusive > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalInconclusive,
			Description: fmt.Sprintf("Inconclusive probes: %d of %d", t.inconclusive, t.total),
			Data: map[string]interface{}{
				"inconclusive": t.inconclusive,
				"total":        t.total,
			},
		})
	}

	signals = append(signals, model.Signal{
		Type:        model.SignalScore,
		Description: fmt.Sprintf("Confidence score: %d/100", score(t)),
		Data: map[string]interface{}{
			"score":   score(t),
			"formula": fmt.Sprintf("min(%d*high + %d*medium + %d*low, %d)", WeightHigh, WeightMedium, WeightLow, MaxScore),
		},
	})

	return signals
}
