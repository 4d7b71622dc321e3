package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/rootcheck/internal/heuristics"
	"github.com/ppiankov/rootcheck/internal/model"
	log "github.com/sirupsen/logrus"
)

// ErrTimeout marks a heuristic that did not finish within its timeout
var ErrTimeout = errors.New("heuristic timed out")

// HeuristicJob runs one heuristic with a timeout
type HeuristicJob struct {
	Heuristic heuristics.Heuristic
	Timeout   time.Duration
}

// Execute executes the heuristic job
func (j *HeuristicJob) Execute(ctx context.Context) Result {
	finding, fault := Execute(ctx, j.Heuristic, j.Timeout)
	return &FindingResult{Finding: finding, Fault: fault}
}

// FindingResult is the result of a heuristic job
type FindingResult struct {
	Finding model.Finding
	Fault   error // why the finding is inconclusive, if the probe failed
}

// GetError returns the probe fault, if any
func (r *FindingResult) GetError() error {
	return r.Fault
}

type checkReturn struct {
	outcome model.Outcome
	err     error
}

// Execute runs h once, bounded by timeout. Errors, panics, invalid results
// and timeouts all yield an inconclusive finding and a non-nil fault; they
// are never reported as suspicious and never propagate.
func Execute(ctx context.Context, h heuristics.Heuristic, timeout time.Duration) (finding model.Finding, fault error) {
	finding, fault = describe(h)
	if fault != nil {
		return finding, fault
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan checkReturn, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- checkReturn{err: fmt.Errorf("fault: %v", rec)}
			}
		}()
		outcome, err := h.Check(checkCtx)
		done <- checkReturn{outcome: outcome, err: err}
	}()

	ret, finished := awaitCheck(checkCtx, done)
	if !finished {
		// The probe goroutine is abandoned; it exits on its own when Check returns
		return inconclusive(finding, contextFault(checkCtx, timeout))
	}
	if ret.err != nil {
		if checkCtx.Err() != nil && errors.Is(ret.err, checkCtx.Err()) {
			return inconclusive(finding, contextFault(checkCtx, timeout))
		}
		return inconclusive(finding, ret.err)
	}
	if !ret.outcome.Result.Valid() {
		return inconclusive(finding, fmt.Errorf("invalid result %q", ret.outcome.Result))
	}
	finding.Result = ret.outcome.Result
	finding.Evidence = ret.outcome.Evidence
	return finding, nil
}

// awaitCheck waits for the probe or the deadline. A result that is ready
// when the deadline fires still wins.
func awaitCheck(ctx context.Context, done <-chan checkReturn) (checkReturn, bool) {
	select {
	case ret := <-done:
		return ret, true
	case <-ctx.Done():
		select {
		case ret := <-done:
			return ret, true
		default:
			return checkReturn{}, false
		}
	}
}

// describe reads heuristic metadata without letting a faulty implementation panic
func describe(h heuristics.Heuristic) (finding model.Finding, fault error) {
	defer func() {
		if rec := recover(); rec != nil {
			finding.Result = model.ResultInconclusive
			finding.Evidence = fmt.Sprintf("fault: %v", rec)
			fault = fmt.Errorf("fault: %v", rec)
		}
	}()

	return model.Finding{
		Heuristic:  h.ID(),
		Category:   h.Category(),
		Confidence: h.Confidence(),
	}, nil
}

func contextFault(ctx context.Context, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return ctx.Err()
}

func inconclusive(f model.Finding, fault error) (model.Finding, error) {
	f.Result = model.ResultInconclusive
	f.Evidence = fault.Error()
	return f, fault
}

// Runner executes a heuristic battery, sequentially or on a worker pool
type Runner struct {
	timeout    time.Duration
	workers    int
	sequential bool
}

// NewRunner creates a runner. workers <= 0 means one worker per heuristic.
func NewRunner(timeout time.Duration, workers int, sequential bool) *Runner {
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	return &Runner{
		timeout:    timeout,
		workers:    workers,
		sequential: sequential,
	}
}

// Timeout returns the per-heuristic timeout
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Run executes every heuristic once and returns one finding per heuristic,
// sorted by heuristic identifier regardless of completion order
func (r *Runner) Run(ctx context.Context, hs []heuristics.Heuristic) []model.Finding {
	if len(hs) == 0 {
		return []model.Finding{}
	}

	var results []*FindingResult
	if r.sequential {
		results = r.runSequential(ctx, hs)
	} else {
		results = r.runParallel(ctx, hs)
	}

	findings := make([]model.Finding, 0, len(hs))
	for _, res := range results {
		logFinding(res)
		findings = append(findings, res.Finding)
	}

	model.SortFindings(findings)
	return findings
}

func (r *Runner) runSequential(ctx context.Context, hs []heuristics.Heuristic) []*FindingResult {
	results := make([]*FindingResult, 0, len(hs))
	for _, h := range hs {
		job := &HeuristicJob{Heuristic: h, Timeout: r.timeout}
		results = append(results, job.Execute(ctx).(*FindingResult))
	}
	return results
}

func (r *Runner) runParallel(ctx context.Context, hs []heuristics.Heuristic) []*FindingResult {
	workers := r.workers
	if workers <= 0 || workers > len(hs) {
		workers = len(hs)
	}

	pool := NewPool(ctx, workers)
	pool.Start()

	for _, h := range hs {
		pool.Submit(&HeuristicJob{Heuristic: h, Timeout: r.timeout})
	}

	results := make([]*FindingResult, 0, len(hs))
	seen := make(map[string]bool, len(hs))
	for _, res := range pool.Wait() {
		fr := res.(*FindingResult)
		seen[fr.Finding.Heuristic] = true
		results = append(results, fr)
	}

	// Jobs dropped because ctx ended before a worker picked them up
	for _, h := range hs {
		finding, fault := describe(h)
		if seen[finding.Heuristic] {
			continue
		}
		if fault == nil {
			fault = errors.New("not run")
			if err := ctx.Err(); err != nil {
				fault = fmt.Errorf("not run: %w", err)
			}
			finding, fault = inconclusive(finding, fault)
		}
		results = append(results, &FindingResult{Finding: finding, Fault: fault})
	}

	return results
}

func logFinding(res *FindingResult) {
	fields := log.Fields{
		"heuristic":  res.Finding.Heuristic,
		"category":   res.Finding.Category,
		"confidence": res.Finding.Confidence.String(),
		"result":     res.Finding.Result,
	}
	if res.Finding.Evidence != "" {
		fields["evidence"] = res.Finding.Evidence
	}

	if res.Fault != nil {
		log.WithFields(fields).Warnf("heuristic did not complete: %v", res.Fault)
		return
	}
	log.WithFields(fields).Debug("heuristic finished")
}
