package boundary

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/rootcheck/internal/model"
)

// countingChecker returns a verdict and counts runs
type countingChecker struct {
	runs    int32
	verdict model.Verdict
	panics  bool
}

func (c *countingChecker) Check(ctx context.Context) model.Verdict {
	atomic.AddInt32(&c.runs, 1)
	if c.panics {
		panic("checker exploded")
	}
	return c.verdict
}

func (c *countingChecker) Fallback(reason string) model.Verdict {
	return model.Verdict{
		Findings: []model.Finding{{Heuristic: "su-binary", Result: model.ResultInconclusive, Evidence: reason}},
	}
}

func rooted() model.Verdict {
	return model.Verdict{
		Rooted:     true,
		Confidence: 60,
		Suspicious: []model.Finding{{Heuristic: "su-binary", Result: model.ResultSuspicious}},
	}
}

func TestCheckDeviceIntegrity_NoReuse(t *testing.T) {
	c := &countingChecker{verdict: rooted()}
	b := New(c, Options{})

	for i := 0; i < 3; i++ {
		if !b.IsDeviceRooted() {
			t.Fatal("expected rooted")
		}
	}
	if atomic.LoadInt32(&c.runs) != 3 {
		t.Errorf("expected 3 runs without cache or throttle, got %d", c.runs)
	}
}

func TestCheckDeviceIntegrity_Cached(t *testing.T) {
	c := &countingChecker{verdict: rooted()}
	b := New(c, Options{CacheTTL: time.Minute})

	first := b.CheckDeviceIntegrity()
	second := b.CheckDeviceIntegrity()

	if atomic.LoadInt32(&c.runs) != 1 {
		t.Errorf("expected 1 run with a fresh cache, got %d", c.runs)
	}
	if first.Rooted != second.Rooted || first.Confidence != second.Confidence {
		t.Errorf("cached verdict differs: %+v vs %+v", first, second)
	}

	b.Reset()
	b.CheckDeviceIntegrity()
	if atomic.LoadInt32(&c.runs) != 2 {
		t.Errorf("expected a fresh run after Reset, got %d runs", c.runs)
	}
}

func TestCheckDeviceIntegrity_CallersOwnTheirCopy(t *testing.T) {
	c := &countingChecker{verdict: rooted()}
	b := New(c, Options{CacheTTL: time.Minute})

	first := b.CheckDeviceIntegrity()
	first.Suspicious[0].Heuristic = "tampered"

	second := b.CheckDeviceIntegrity()
	if second.Suspicious[0].Heuristic != "su-binary" {
		t.Error("mutating a returned verdict changed the cached one")
	}
}

func TestCheckDeviceIntegrity_Throttled(t *testing.T) {
	c := &countingChecker{verdict: rooted()}
	b := New(c, Options{Throttle: NewThrottle(1)})

	b.CheckDeviceIntegrity()
	v := b.CheckDeviceIntegrity()

	if atomic.LoadInt32(&c.runs) != 1 {
		t.Errorf("expected throttled second call to reuse the verdict, got %d runs", c.runs)
	}
	if !v.Rooted {
		t.Error("throttled call must serve the previous verdict")
	}
}

func TestCheckDeviceIntegrity_PanicFallsBack(t *testing.T) {
	c := &countingChecker{panics: true}
	b := New(c, Options{})

	var v model.Verdict
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				t.Fatalf("boundary let a panic escape: %v", rec)
			}
		}()
		v = b.CheckDeviceIntegrity()
	}()

	if v.Rooted {
		t.Error("a fault must never yield rooted")
	}
	if v.Suspicious == nil {
		t.Error("fallback verdict must carry an empty suspicious list")
	}
	if len(v.Findings) != 1 || v.Findings[0].Result != model.ResultInconclusive {
		t.Errorf("expected inconclusive fallback findings, got %+v", v.Findings)
	}

	// The boundary must stay usable after a fault
	c.panics = false
	c.verdict = rooted()
	if !b.IsDeviceRooted() {
		t.Error("boundary did not recover after a faulting run")
	}
}

func TestCheckDeviceIntegrity_NilSuspiciousNormalized(t *testing.T) {
	b := New(&countingChecker{}, Options{})
	if v := b.CheckDeviceIntegrity(); v.Suspicious == nil {
		t.Error("expected empty non-nil suspicious list")
	}
}

func TestCheckDeviceIntegrity_Concurrent(t *testing.T) {
	c := &countingChecker{verdict: rooted()}
	b := New(c, Options{CacheTTL: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !b.IsDeviceRooted() {
				t.Error("expected rooted")
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&c.runs) != 1 {
		t.Errorf("concurrent callers must share one run, got %d", c.runs)
	}
}
