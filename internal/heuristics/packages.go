package heuristics

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/rootcheck/internal/model"
	"github.com/spf13/afero"
)

// rootPackages are applications that manage or grant root
var rootPackages = []string{
	"com.topjohnwu.magisk",
	"io.github.vvb2060.magisk",
	"me.weishu.kernelsu",
	"eu.chainfire.supersu",
	"com.noshufou.android.su",
	"com.noshufou.android.su.elite",
	"com.koushikdutta.superuser",
	"com.thirdparty.superuser",
	"com.yellowes.su",
	"com.kingroot.kinguser",
	"com.kingo.root",
	"com.smedialink.oneclickroot",
	"com.zhiqupk.root.global",
	"com.alephzain.framaroot",
	"me.phh.superuser",
	"com.devadvance.rootcloak",
	"com.devadvance.rootcloakplus",
	"de.robv.android.xposed.installer",
	"org.lsposed.manager",
	"com.saurik.substrate",
	"com.amphoras.hidemyroot",
	"com.formyhm.hideroot",
}

const packagesList = "/data/system/packages.list"

// packageDirs hold one entry per installed package (name or name-suffix)
var packageDirs = []string{
	"/data/data",
	"/data/app",
	"/data/user/0",
}

type rootPackagesProbe struct {
	probe
}

// RootPackages flags installed root-management applications
func RootPackages(env *Environment) Heuristic {
	return &rootPackagesProbe{
		probe: probe{id: "root-packages", cat: model.CategoryPackagePresence, level: model.ConfidenceMedium, env: env},
	}
}

func (r *rootPackagesProbe) Check(ctx context.Context) (model.Outcome, error) {
	installed, err := r.installedPackages(ctx)
	if err != nil {
		return model.Outcome{}, err
	}

	var matched []string
	for _, pkg := range rootPackages {
		if installed[pkg] {
			matched = append(matched, pkg)
		}
	}
	if len(matched) > 0 {
		return model.Suspicious("installed: " + strings.Join(matched, ", ")), nil
	}
	return model.Clean(), nil
}

// installedPackages reads the package list, falling back to data directories
func (r *rootPackagesProbe) installedPackages(ctx context.Context) (map[string]bool, error) {
	installed := make(map[string]bool)

	if lines, err := r.env.readLines(packagesList); err == nil {
		for _, line := range lines {
			if fields := strings.Fields(line); len(fields) > 0 {
				installed[fields[0]] = true
			}
		}
		return installed, nil
	}

	listed := 0
	for _, dir := range packageDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, err := readDirNames(r.env.FS, dir)
		if err != nil {
			continue
		}
		listed++
		for _, name := range names {
			installed[packageFromDir(name)] = true
		}
	}

	if listed == 0 {
		return nil, fmt.Errorf("package list unavailable")
	}
	return installed, nil
}

// packageFromDir strips the install suffix /data/app uses ("pkg-AbC==")
func packageFromDir(name string) string {
	if i := strings.Index(name, "-"); i > 0 {
		return name[:i]
	}
	return name
}

func readDirNames(fs afero.Fs, dir string) ([]string, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.Readdirnames(-1)
}

const modulesDir = "/data/adb/modules"

// integrityModules spoof Play Integrity or hide root from apps
var integrityModules = []string{
	"playintegrityfix",
	"tricky_store",
	"shamiko",
	"zygisk_assistant",
	"zygisk_lsposed",
	"safetynet-fix",
	"hidemyapplist",
}

type rootModulesProbe struct {
	probe
}

// RootModules flags root framework modules installed under /data/adb/modules
func RootModules(env *Environment) Heuristic {
	return &rootModulesProbe{
		probe: probe{id: "root-modules", cat: model.CategoryPackagePresence, level: model.ConfidenceHigh, env: env},
	}
}

func (r *rootModulesProbe) Check(ctx context.Context) (model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return model.Outcome{}, err
	}

	names, err := readDirNames(r.env.FS, modulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Clean(), nil
		}
		// Unreadable without root on a stock device; that alone proves nothing
		return model.Inconclusive(fmt.Sprintf("%s unreadable", modulesDir)), nil
	}
	if len(names) == 0 {
		return model.Clean(), nil
	}

	sort.Strings(names)
	var hiding []string
	for _, n := range names {
		for _, known := range integrityModules {
			if strings.EqualFold(n, known) {
				hiding = append(hiding, n)
			}
		}
	}

	evidence := fmt.Sprintf("%d module(s) in %s: %s", len(names), modulesDir, strings.Join(names, ", "))
	if len(hiding) > 0 {
		evidence += "; integrity spoofing: " + strings.Join(hiding, ", ")
	}
	return model.Suspicious(evidence), nil
}
