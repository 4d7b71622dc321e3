// Package heuristics defines the read-only probes that look for evidence of
// root access or tampering, and the environment they read from.
package heuristics

import (
	"context"

	"github.com/ppiankov/rootcheck/internal/model"
)

// Heuristic is one independent, read-only probe.
//
// Check must not mutate device state. It should honor ctx; a probe that
// ignores cancellation is abandoned by the runner once its timeout expires.
// A returned error is recorded as an inconclusive finding, never suspicious.
type Heuristic interface {
	ID() string
	Category() model.Category
	Confidence() model.Confidence
	Check(ctx context.Context) (model.Outcome, error)
}

// Func adapts a plain function into a Heuristic
type Func struct {
	Name  string
	Cat   model.Category
	Level model.Confidence
	Fn    func(ctx context.Context) (model.Outcome, error)
}

func (f *Func) ID() string                   { return f.Name }
func (f *Func) Category() model.Category     { return f.Cat }
func (f *Func) Confidence() model.Confidence { return f.Level }

// Check calls Fn
func (f *Func) Check(ctx context.Context) (model.Outcome, error) {
	return f.Fn(ctx)
}

// probe is the shared shape of the built-in heuristics
type probe struct {
	id    string
	cat   model.Category
	level model.Confidence
	env   *Environment
}

func (p *probe) ID() string                   { return p.id }
func (p *probe) Category() model.Category     { return p.cat }
func (p *probe) Confidence() model.Confidence { return p.level }
