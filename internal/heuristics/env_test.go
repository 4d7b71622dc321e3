package heuristics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/rootcheck/internal/model"
	"github.com/spf13/afero"
)

// fixture builds an in-memory device with the given files and directories
func fixture(t *testing.T, files map[string]string, dirs ...string) *Environment {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, d := range dirs {
		if err := fs.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	for p, content := range files {
		if err := afero.WriteFile(fs, p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	return &Environment{
		Root:   "/",
		FS:     afero.NewReadOnlyFs(fs),
		Getenv: func(string) string { return "" },
	}
}

// deniedFs fails every access under prefix with a permission error
type deniedFs struct {
	afero.Fs
	prefix string
}

func (d deniedFs) denied(name string) bool {
	return d.prefix == "" || name == d.prefix || len(name) > len(d.prefix) && name[:len(d.prefix)+1] == d.prefix+"/"
}

func (d deniedFs) Open(name string) (afero.File, error) {
	if d.denied(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

func (d deniedFs) Stat(name string) (os.FileInfo, error) {
	if d.denied(name) {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Stat(name)
}

func check(t *testing.T, h Heuristic) (model.Outcome, error) {
	t.Helper()
	return h.Check(context.Background())
}

func TestLive_OfflineImage(t *testing.T) {
	env := Live(t.TempDir())

	if env.Getenv("PATH") != "" {
		t.Error("offline image must not expose the host PATH")
	}
	if env.Writable != nil || env.MountWritable != nil || env.KernelRelease != nil {
		t.Error("offline image must not attach live system probes")
	}
	if err := afero.WriteFile(env.FS, "/x", []byte("x"), 0644); err == nil {
		t.Error("probe filesystem must be read-only")
	}
}

func TestLive_OfflineImageSymlinks(t *testing.T) {
	host := t.TempDir()
	image := t.TempDir()

	mkfile := func(p string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	symlink := func(target, link string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
	}

	// An su on the host, reachable only by following a link out of the image
	mkfile(filepath.Join(host, "xbin", "su"))
	symlink(filepath.Join(host, "xbin"), filepath.Join(image, "system", "xbin"))

	out, err := check(t, SuBinary(Live(image)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result != model.ResultClean {
		t.Errorf("host file reported as image evidence: %s %q", out.Result, out.Evidence)
	}

	// Absolute links inside the image resolve against the image root
	mkfile(filepath.Join(image, "system", "vendor", "bin", "su"))
	symlink("/system/vendor", filepath.Join(image, "vendor"))

	out, err = check(t, SuBinary(Live(image)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result != model.ResultSuspicious || out.Evidence != "/vendor/bin/su" {
		t.Errorf("expected /vendor/bin/su through the image link, got %s %q", out.Result, out.Evidence)
	}

	// Relative links and ".." never climb above the image root
	symlink("../../../../../../etc", filepath.Join(image, "system", "etc"))
	if _, err := Live(image).FS.Stat("/system/etc/passwd"); err == nil {
		t.Error("relative link escaped the image root")
	}
}

func TestImageFs_LinkLoop(t *testing.T) {
	image := t.TempDir()
	if err := os.Symlink("/b", filepath.Join(image, "a")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink("/a", filepath.Join(image, "b")); err != nil {
		t.Fatal(err)
	}

	if _, err := Live(image).FS.Stat("/a/su"); err == nil {
		t.Error("expected an error for a symlink loop")
	}
}

func TestLive_DefaultsToSlash(t *testing.T) {
	if env := Live(""); env.Root != "/" {
		t.Errorf("expected root /, got %q", env.Root)
	}
}

func TestSearchPath(t *testing.T) {
	got := searchPath("/system/bin::relative:/system/bin/:/sbin: /vendor/bin ")
	want := []string{"/system/bin", "/sbin", "/vendor/bin"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestFindAny(t *testing.T) {
	env := fixture(t, map[string]string{"/dev/qemu_pipe": ""})

	found, checked, err := env.findAny([]string{"/nope", "/dev/qemu_pipe", "/later"})
	if err != nil {
		t.Fatalf("findAny: %v", err)
	}
	if found != "/dev/qemu_pipe" || checked != 2 {
		t.Errorf("expected /dev/qemu_pipe after 2 checks, got %q after %d", found, checked)
	}
}
