package heuristics

import (
	"context"
	"strings"

	"github.com/ppiankov/rootcheck/internal/model"
)

var emulatorFiles = []string{
	"/dev/qemu_pipe",
	"/dev/socket/qemud",
	"/dev/goldfish_pipe",
	"/system/lib/libc_malloc_debug_qemu.so",
	"/system/bin/qemu-props",
	"/sys/qemu_trace",
	"/dev/vboxguest",
	"/dev/vboxuser",
}

var emulatorHardware = []string{"goldfish", "ranchu", "vbox86", "qemu", "ttvm", "nox"}

type emulatorProbe struct {
	probe
}

// Emulator flags virtualized hardware. It is informational: an emulator is
// not rooted by itself, but test rigs often are.
func Emulator(env *Environment) Heuristic {
	return &emulatorProbe{
		probe: probe{id: "emulator", cat: model.CategoryEmulatorIndicators, level: model.ConfidenceLow, env: env},
	}
}

func (e *emulatorProbe) Check(ctx context.Context) (model.Outcome, error) {
	evaluated := false

	if props, err := LoadProperties(e.env); err == nil {
		evaluated = true
		if props.Get("ro.kernel.qemu") == "1" || props.Get("ro.boot.qemu") == "1" {
			return model.Suspicious(describeProps(props, "ro.kernel.qemu", "ro.boot.qemu")), nil
		}
		for _, key := range []string{"ro.hardware", "ro.product.board", "ro.boot.hardware"} {
			if matchesAny(props.Get(key), emulatorHardware) {
				return model.Suspicious(describeProps(props, key)), nil
			}
		}
		product := strings.ToLower(props.Get("ro.product.model"))
		if strings.Contains(product, "sdk_gphone") || strings.Contains(product, "emulator") || strings.Contains(product, "android sdk built for") {
			return model.Suspicious(describeProps(props, "ro.product.model")), nil
		}
	}

	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}

	found, checked, _ := e.env.findAny(emulatorFiles)
	if checked > 0 {
		evaluated = true
	}
	if found != "" {
		return model.Suspicious(found), nil
	}

	if e.env.KernelRelease != nil {
		if release, err := e.env.KernelRelease(); err == nil {
			evaluated = true
			if matchesAny(release, emulatorHardware) {
				return model.Suspicious("kernel " + release), nil
			}
		}
	}

	if !evaluated {
		return model.Inconclusive("no hardware fingerprint available"), nil
	}
	return model.Clean(), nil
}

func matchesAny(value string, needles []string) bool {
	value = strings.ToLower(value)
	if value == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(value, n) {
			return true
		}
	}
	return false
}
