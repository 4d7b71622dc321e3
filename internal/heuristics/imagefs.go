package heuristics

import (
	"os"
	"path"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// maxLinkDepth bounds symlink resolution, matching the kernel's ELOOP limit
const maxLinkDepth = 40

// imageFs resolves symlinks against the image root instead of the host.
// Android images link /vendor, /etc and /bin to absolute targets such as
// /system/vendor; followed naively those would read host files.
type imageFs struct {
	afero.Fs
	lstat    afero.Lstater
	readlink afero.LinkReader
}

// newImageFs wraps base, which must present the image root as "/"
func newImageFs(base afero.Fs) afero.Fs {
	lstat, okStat := base.(afero.Lstater)
	readlink, okLink := base.(afero.LinkReader)
	if !okStat || !okLink {
		return base
	}
	return &imageFs{Fs: base, lstat: lstat, readlink: readlink}
}

// resolve follows every symlink in name, clamping absolute targets and ".."
// to the image root
func (f *imageFs) resolve(name string) (string, error) {
	parts := strings.Split(path.Clean("/"+name), "/")
	resolved := "/"
	links := 0

	for len(parts) > 0 {
		part := parts[0]
		parts = parts[1:]

		switch part {
		case "", ".":
			continue
		case "..":
			resolved = path.Dir(resolved)
			continue
		}

		next := path.Join(resolved, part)
		fi, _, err := f.lstat.LstatIfPossible(next)
		if err != nil {
			return "", &os.PathError{Op: "resolve", Path: name, Err: underlying(err)}
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		links++
		if links > maxLinkDepth {
			return "", &os.PathError{Op: "resolve", Path: name, Err: syscall.ELOOP}
		}
		target, err := f.readlink.ReadlinkIfPossible(next)
		if err != nil {
			return "", &os.PathError{Op: "readlink", Path: name, Err: underlying(err)}
		}
		if path.IsAbs(target) {
			resolved = "/"
		}
		parts = append(strings.Split(target, "/"), parts...)
	}
	return resolved, nil
}

func underlying(err error) error {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err
	}
	return err
}

func (f *imageFs) Open(name string) (afero.File, error) {
	resolved, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return f.Fs.Open(resolved)
}

func (f *imageFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	resolved, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(resolved, flag, perm)
}

func (f *imageFs) Stat(name string) (os.FileInfo, error) {
	resolved, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return f.Fs.Stat(resolved)
}
