package heuristics

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/rootcheck/internal/model"
)

// systemPaths must be read-only on an untampered device
var systemPaths = []string{
	"/system",
	"/system/bin",
	"/system/sbin",
	"/system/xbin",
	"/system/etc",
	"/vendor",
	"/vendor/bin",
	"/product",
}

const mountsFile = "/proc/mounts"

// mount is one entry of the mount table
type mount struct {
	Point   string
	Options []string
}

func (m mount) readWrite() bool {
	for _, o := range m.Options {
		if o == "rw" {
			return true
		}
	}
	return false
}

// parseMounts parses /proc/mounts formatted lines
func parseMounts(lines []string) []mount {
	var mounts []mount
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		mounts = append(mounts, mount{
			Point:   unescapeMountPath(fields[1]),
			Options: strings.Split(fields[3], ","),
		})
	}
	return mounts
}

// unescapeMountPath decodes the octal escapes the kernel uses for spaces
func unescapeMountPath(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}

// owningMount returns the mount covering p; later entries shadow earlier ones
func owningMount(mounts []mount, p string) (mount, bool) {
	var best mount
	found := false
	for _, m := range mounts {
		if !covers(m.Point, p) {
			continue
		}
		if !found || len(m.Point) >= len(best.Point) {
			best = m
			found = true
		}
	}
	return best, found
}

func covers(point, p string) bool {
	if point == "/" {
		return true
	}
	return p == point || strings.HasPrefix(p, point+"/")
}

type writableSystem struct {
	probe
}

// WritableSystem flags system paths that are mounted read-write or that the
// probing process can write to
func WritableSystem(env *Environment) Heuristic {
	return &writableSystem{
		probe: probe{id: "writable-system", cat: model.CategoryWritableSystemPaths, level: model.ConfidenceHigh, env: env},
	}
}

func (w *writableSystem) Check(ctx context.Context) (model.Outcome, error) {
	var present []string
	for _, p := range systemPaths {
		if err := ctx.Err(); err != nil {
			return model.Outcome{}, err
		}
		if ok, err := w.env.exists(p); err == nil && ok {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return model.Clean(), nil
	}

	evaluated := false

	if lines, err := w.env.readLines(mountsFile); err == nil {
		evaluated = true
		mounts := parseMounts(lines)
		for _, p := range present {
			if m, ok := owningMount(mounts, p); ok && m.readWrite() {
				return model.Suspicious(fmt.Sprintf("%s is on a read-write mount (%s)", p, m.Point)), nil
			}
		}
	} else if w.env.MountWritable != nil {
		for _, p := range present {
			rw, err := w.env.MountWritable(p)
			if err != nil {
				continue
			}
			evaluated = true
			if rw {
				return model.Suspicious(fmt.Sprintf("%s is on a read-write mount", p)), nil
			}
		}
	}

	if w.env.Writable != nil {
		evaluated = true
		for _, p := range present {
			if err := ctx.Err(); err != nil {
				return model.Outcome{}, err
			}
			if w.env.Writable(p) {
				return model.Suspicious(fmt.Sprintf("%s is writable by this process", p)), nil
			}
		}
	}

	if !evaluated {
		return model.Inconclusive("mount state unavailable"), nil
	}
	return model.Clean(), nil
}
