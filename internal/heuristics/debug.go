package heuristics

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/rootcheck/internal/model"
)

const (
	selfStatus     = "/proc/self/status"
	selinuxEnforce = "/sys/fs/selinux/enforce"
)

type tracerAttached struct {
	probe
}

// TracerAttached flags a debugger or tracer attached to this process
func TracerAttached(env *Environment) Heuristic {
	return &tracerAttached{
		probe: probe{id: "tracer-attached", cat: model.CategoryDebugFlags, level: model.ConfidenceMedium, env: env},
	}
}

func (t *tracerAttached) Check(ctx context.Context) (model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}

	lines, err := t.env.readLines(selfStatus)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("read %s: %w", selfStatus, err)
	}

	for _, line := range lines {
		value, ok := strings.CutPrefix(line, "TracerPid:")
		if !ok {
			continue
		}
		pid := strings.TrimSpace(value)
		if pid != "" && pid != "0" {
			return model.Suspicious("TracerPid=" + pid), nil
		}
		return model.Clean(), nil
	}
	return model.Inconclusive("no TracerPid in " + selfStatus), nil
}

type selinuxPermissive struct {
	probe
}

// SELinuxPermissive flags SELinux running in permissive mode
func SELinuxPermissive(env *Environment) Heuristic {
	return &selinuxPermissive{
		probe: probe{id: "selinux-permissive", cat: model.CategoryDebugFlags, level: model.ConfidenceMedium, env: env},
	}
}

func (s *selinuxPermissive) Check(ctx context.Context) (model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}

	value, err := s.env.readTrimmed(selinuxEnforce)
	if err != nil {
		// Apps usually cannot read it on enforcing devices
		return model.Inconclusive(selinuxEnforce + " unreadable"), nil
	}

	switch value {
	case "0":
		return model.Suspicious("SELinux permissive (" + selinuxEnforce + "=0)"), nil
	case "1":
		return model.Clean(), nil
	default:
		return model.Inconclusive(fmt.Sprintf("unexpected %s value %q", selinuxEnforce, value)), nil
	}
}
