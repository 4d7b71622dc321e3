package heuristics

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Environment is everything a probe may read. All paths are device paths
// ("/system/bin/su"); FS resolves them against the configured root.
type Environment struct {
	// Root is the filesystem root the probes read from ("/" on a live device)
	Root string

	// FS is read-only for probes
	FS afero.Fs

	// Getenv looks up process environment variables
	Getenv func(key string) string

	// Writable reports whether the probing process may write to path.
	// nil when the answer would be meaningless (offline images).
	Writable func(path string) bool

	// MountWritable reports whether the filesystem holding path is mounted
	// read-write. Used when the mount table cannot be read. May be nil.
	MountWritable func(path string) (bool, error)

	// KernelRelease returns the running kernel release. May be nil.
	KernelRelease func() (string, error)
}

// Live returns an environment that reads the running system, or a mounted
// image when root is not "/".
func Live(root string) *Environment {
	if root == "" {
		root = "/"
	}

	env := &Environment{
		Root:   root,
		FS:     afero.NewReadOnlyFs(afero.NewOsFs()),
		Getenv: os.Getenv,
	}

	if root != "/" {
		env.FS = afero.NewReadOnlyFs(newImageFs(afero.NewBasePathFs(afero.NewOsFs(), root)))
		// The image's PATH, writability and kernel are not ours to probe
		env.Getenv = func(string) string { return "" }
		return env
	}

	attachSystemProbes(env)
	return env
}

// exists reports whether p exists; errors other than not-exist are returned
func (e *Environment) exists(p string) (bool, error) {
	_, err := e.FS.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// readLines reads a small text file line by line
func (e *Environment) readLines(p string) ([]string, error) {
	f, err := e.FS.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// readTrimmed reads a single-value file such as /sys/fs/selinux/enforce
func (e *Environment) readTrimmed(p string) (string, error) {
	data, err := afero.ReadFile(e.FS, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// findAny returns the first of paths that exists. checked counts the paths
// that could be stat'ed; err is the last stat failure, if any.
func (e *Environment) findAny(paths []string) (found string, checked int, err error) {
	var lastErr error
	for _, p := range paths {
		ok, err := e.exists(p)
		if err != nil {
			lastErr = err
			continue
		}
		checked++
		if ok {
			return p, checked, nil
		}
	}
	return "", checked, lastErr
}

// searchPath splits a PATH-style value into clean absolute directories
func searchPath(value string) []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, d := range strings.Split(value, ":") {
		d = strings.TrimSpace(d)
		if d == "" || !strings.HasPrefix(d, "/") {
			continue
		}
		d = path.Clean(d)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}
