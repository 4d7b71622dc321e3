package heuristics

import (
	"context"
	"fmt"
	"path"

	"github.com/ppiankov/rootcheck/internal/model"
)

var suPaths = []string{
	"/sbin/su",
	"/system/bin/su",
	"/system/xbin/su",
	"/system/sbin/su",
	"/system/bin/failsafe/su",
	"/system/sd/xbin/su",
	"/system/bin/.ext/su",
	"/system/usr/we-need-root/su",
	"/vendor/bin/su",
	"/su/bin/su",
	"/data/local/su",
	"/data/local/bin/su",
	"/data/local/xbin/su",
	"/cache/su",
	"/data/su",
	"/dev/su",
}

var magiskPaths = []string{
	"/sbin/magisk",
	"/sbin/.magisk",
	"/system/bin/magisk",
	"/system/xbin/magisk",
	"/data/adb/magisk",
	"/data/adb/magisk.db",
	"/data/adb/ksu",
	"/data/adb/ksud",
	"/debug_ramdisk/magisk",
	"/init.magisk.rc",
}

var busyboxPaths = []string{
	"/sbin/busybox",
	"/system/bin/busybox",
	"/system/xbin/busybox",
	"/system/sbin/busybox",
	"/vendor/bin/busybox",
	"/data/local/busybox",
	"/data/local/bin/busybox",
	"/data/local/xbin/busybox",
}

// androidMarker exists on every Android system partition
const androidMarker = "/system/build.prop"

// pathProbe is suspicious when any of a fixed list of paths exists
type pathProbe struct {
	probe
	paths []string
}

// Check stats each path in order and reports the first match
func (p *pathProbe) Check(ctx context.Context) (model.Outcome, error) {
	checked := 0
	var lastErr error

	for _, candidate := range p.paths {
		if err := ctx.Err(); err != nil {
			return model.Outcome{}, err
		}
		ok, err := p.env.exists(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		checked++
		if ok {
			return model.Suspicious(candidate), nil
		}
	}

	if checked == 0 && lastErr != nil {
		return model.Outcome{}, fmt.Errorf("no path could be checked: %w", lastErr)
	}
	return model.Clean(), nil
}

// SuBinary looks for su at well-known locations
func SuBinary(env *Environment) Heuristic {
	return &pathProbe{
		probe: probe{id: "su-binary", cat: model.CategoryBinaryPresence, level: model.ConfidenceHigh, env: env},
		paths: suPaths,
	}
}

// MagiskBinary looks for Magisk and KernelSU artifacts
func MagiskBinary(env *Environment) Heuristic {
	return &pathProbe{
		probe: probe{id: "magisk-binary", cat: model.CategoryBinaryPresence, level: model.ConfidenceHigh, env: env},
		paths: magiskPaths,
	}
}

// BusyboxBinary looks for busybox in system binary directories. Busybox
// ships with some ROMs, so on its own it is only medium confidence.
func BusyboxBinary(env *Environment) Heuristic {
	return &pathProbe{
		probe: probe{id: "busybox-binary", cat: model.CategoryBinaryPresence, level: model.ConfidenceMedium, env: env},
		paths: busyboxPaths,
	}
}

// suOnPath looks for su in every directory of $PATH
type suOnPath struct {
	probe
}

// SuOnPath looks for an su binary reachable through $PATH. Desktop Linux
// ships a setuid su in /usr/bin, so the probe only applies to Android
// systems (those with /system/build.prop).
func SuOnPath(env *Environment) Heuristic {
	return &suOnPath{
		probe: probe{id: "su-on-path", cat: model.CategoryBinaryPresence, level: model.ConfidenceHigh, env: env},
	}
}

func (s *suOnPath) Check(ctx context.Context) (model.Outcome, error) {
	android, err := s.env.exists(androidMarker)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("stat %s: %w", androidMarker, err)
	}
	if !android {
		return model.Inconclusive("not an Android system (no " + androidMarker + ")"), nil
	}

	dirs := searchPath(s.env.Getenv("PATH"))
	if len(dirs) == 0 {
		return model.Inconclusive("PATH is empty"), nil
	}

	var candidates []string
	for _, d := range dirs {
		candidates = append(candidates, path.Join(d, "su"))
	}

	inner := &pathProbe{probe: s.probe, paths: candidates}
	return inner.Check(ctx)
}
