// Package checker composes the registry, runner and policy into the
// integrity checker a host calls once at startup.
package checker

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/ppiankov/rootcheck/internal/boundary"
	"github.com/ppiankov/rootcheck/internal/cache"
	"github.com/ppiankov/rootcheck/internal/heuristics"
	"github.com/ppiankov/rootcheck/internal/model"
	"github.com/ppiankov/rootcheck/internal/policy"
	"github.com/ppiankov/rootcheck/internal/registry"
	"github.com/ppiankov/rootcheck/internal/worker"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Tool and Version identify reports
const (
	Tool    = "rootcheck"
	Version = "v0.1.0"
)

// Checker runs a fixed heuristic battery and aggregates the findings
type Checker struct {
	registry   *registry.Registry
	runner     *worker.Runner
	aggregator *policy.Aggregator
	detail     bool
	root       string
}

// New creates a checker over an explicit registry and configuration
func New(reg *registry.Registry, cfg *model.Config) (*Checker, error) {
	if reg == nil {
		return nil, &registry.ConfigurationError{Reason: "nil registry"}
	}
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &Checker{
		registry:   reg,
		runner:     worker.NewRunner(cfg.Execution.PerCheckTimeout(), cfg.Execution.Workers, cfg.Execution.Sequential),
		aggregator: policy.NewAggregator(cfg.Policy),
		detail:     cfg.Output.Detail,
		root:       cfg.Probe.Root,
	}, nil
}

// NewDefault creates a checker with the built-in heuristics reading from
// cfg.Probe.Root
func NewDefault(cfg *model.Config) (*Checker, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	env := heuristics.Live(cfg.Probe.Root)
	reg, err := registry.NewWith(heuristics.Defaults(env)...)
	if err != nil {
		return nil, err
	}
	return New(reg, cfg)
}

// Registry returns the checker's registry
func (c *Checker) Registry() *registry.Registry {
	return c.registry
}

// Policy returns the effective policy thresholds
func (c *Checker) Policy() model.PolicyConfig {
	return c.aggregator.Config()
}

// Detail reports whether verdicts retain every finding
func (c *Checker) Detail() bool {
	return c.detail
}

// Root returns the filesystem root the probes read from
func (c *Checker) Root() string {
	return c.root
}

// Check runs every heuristic once and returns the verdict. The first call
// closes the registry to further registration.
func (c *Checker) Check(ctx context.Context) model.Verdict {
	c.registry.Freeze()

	findings := c.runner.Run(ctx, c.registry.All())
	verdict := c.aggregator.Aggregate(findings, c.detail)

	entry := log.WithFields(log.Fields{
		"rooted":     verdict.Rooted,
		"confidence": verdict.Confidence,
		"suspicious": len(verdict.Suspicious),
		"heuristics": len(findings),
	})
	if verdict.Rooted {
		entry.Info("Root check: DETECTED")
	} else {
		entry.Info("Root check: NOT detected")
	}

	return verdict
}

// Report runs a check and wraps the verdict with run metadata
func (c *Checker) Report(ctx context.Context) model.Report {
	start := time.Now()
	verdict := c.Check(ctx)
	return c.NewReport(verdict, start, time.Since(start))
}

// NewReport wraps an existing verdict with run metadata
func (c *Checker) NewReport(verdict model.Verdict, checkedAt time.Time, took time.Duration) model.Report {
	hostname, _ := os.Hostname()
	return model.Report{
		Tool:    Tool,
		Version: Version,
		Host: model.HostInfo{
			Hostname: hostname,
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			Root:     c.root,
		},
		CheckedAt: checkedAt.UTC(),
		Duration:  took,
		Policy:    c.aggregator.Config(),
		Verdict:   verdict,
	}
}

// Fallback returns the verdict reported when a run cannot complete: every
// registered heuristic inconclusive, rooted=false
func (c *Checker) Fallback(reason string) model.Verdict {
	var findings []model.Finding
	for _, h := range c.registry.All() {
		findings = append(findings, model.Finding{
			Heuristic:  h.ID(),
			Category:   h.Category(),
			Confidence: h.Confidence(),
			Result:     model.ResultInconclusive,
			Evidence:   reason,
		})
	}
	return c.aggregator.Aggregate(findings, c.detail)
}

// Boundary wraps the checker in the host call surface configured by cfg
func (c *Checker) Boundary(cfg model.BoundaryConfig) *boundary.Boundary {
	return boundary.New(c, boundary.Options{
		CacheKey: cache.CacheKey(c.registry.IDs(), c.Policy(), c.root, c.detail),
		CacheTTL: cfg.CacheTTL,
		Throttle: boundary.NewThrottle(cfg.MaxRunsPerMinute),
	})
}
