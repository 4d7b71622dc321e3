package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/rootcheck/internal/heuristics"
	"github.com/ppiankov/rootcheck/internal/model"
)

func probe(id string) heuristics.Heuristic {
	return &heuristics.Func{
		Name:  id,
		Cat:   model.CategoryBinaryPresence,
		Level: model.ConfidenceHigh,
		Fn: func(ctx context.Context) (model.Outcome, error) {
			return model.Clean(), nil
		},
	}
}

func TestRegister_Order(t *testing.T) {
	r, err := NewWith(probe("zeta"), probe("alpha"), probe("mid"))
	if err != nil {
		t.Fatalf("NewWith: %v", err)
	}

	ids := r.IDs()
	want := []string{"zeta", "alpha", "mid"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], ids[i])
		}
	}
	if r.Len() != 3 {
		t.Errorf("expected Len 3, got %d", r.Len())
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	if err := r.Register(probe("su-binary")); err != nil {
		t.Fatalf("first register: %v", err)
	}

	err := r.Register(probe("su-binary"))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Heuristic != "su-binary" {
		t.Errorf("expected heuristic su-binary, got %q", cfgErr.Heuristic)
	}
	if r.Len() != 1 {
		t.Errorf("duplicate must not be added, Len=%d", r.Len())
	}
}

func TestNewWith_DuplicateFails(t *testing.T) {
	_, err := NewWith(probe("a"), probe("a"))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestRegister_Invalid(t *testing.T) {
	r := New()

	var cfgErr *ConfigurationError
	if err := r.Register(nil); !errors.As(err, &cfgErr) {
		t.Errorf("nil heuristic: expected ConfigurationError, got %v", err)
	}
	if err := r.Register(probe("")); !errors.As(err, &cfgErr) {
		t.Errorf("empty id: expected ConfigurationError, got %v", err)
	}
}

func TestFreeze(t *testing.T) {
	r := New()
	if err := r.Register(probe("a")); err != nil {
		t.Fatalf("register: %v", err)
	}

	r.Freeze()
	if !r.Frozen() {
		t.Fatal("expected registry to be frozen")
	}

	var cfgErr *ConfigurationError
	if err := r.Register(probe("b")); !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigurationError after freeze, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected Len 1 after rejected registration, got %d", r.Len())
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	r, _ := NewWith(probe("a"), probe("b"))

	all := r.All()
	all[0] = probe("mutated")

	if r.IDs()[0] != "a" {
		t.Error("mutating All() result changed the registry")
	}
	if len(r.All()) != 2 {
		t.Error("All() must be repeatable")
	}
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Heuristic: "su-binary", Reason: "already registered"}
	want := `configuration error: heuristic "su-binary": already registered`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	err = &ConfigurationError{Reason: "nil registry"}
	if err.Error() != "configuration error: nil registry" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRegister_InvalidMetadata(t *testing.T) {
	tests := []struct {
		name   string
		h      heuristics.Heuristic
		reason string
	}{
		{
			name:   "unknown category",
			h:      &heuristics.Func{Name: "su-binary", Cat: "bogus", Level: model.ConfidenceHigh},
			reason: `invalid category "bogus"`,
		},
		{
			name:   "zero confidence",
			h:      &heuristics.Func{Name: "su-binary", Cat: model.CategoryBinaryPresence},
			reason: "invalid confidence 0",
		},
		{
			name:   "out of range confidence",
			h:      &heuristics.Func{Name: "su-binary", Cat: model.CategoryBinaryPresence, Level: model.Confidence(9)},
			reason: "invalid confidence 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := r.Register(tt.h)

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Heuristic != "su-binary" || cfgErr.Reason != tt.reason {
				t.Errorf("expected %q for su-binary, got %+v", tt.reason, cfgErr)
			}
			if r.Len() != 0 {
				t.Errorf("invalid heuristic must not be added, Len=%d", r.Len())
			}
		})
	}
}
