package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// writeOutput writes the files of out into the package directory, leaving
// files whose contents did not change untouched, and removes stale ones
// that carry the generated header.
func writeOutput(out *Output) (written, removed []string, err error) {
	dir := out.Package.Dir
	if dir == "" {
		return nil, nil, fmt.Errorf("%s: package has no directory", out.Package.PkgPath)
	}

	names := make([]string, 0, len(out.Files))
	for name := range out.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		changed, err := writeIfChanged(path, out.Files[name])
		if err != nil {
			return nil, nil, err
		}
		if changed {
			written = append(written, name)
		}
	}

	for _, name := range out.Stale {
		path := filepath.Join(dir, name)
		if !hasHeader(path) {
			// Missing, or written by hand.
			continue
		}
		if err := os.Remove(path); err == nil {
			removed = append(removed, name)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return written, removed, nil
}

func writeIfChanged(path string, data []byte) (bool, error) {
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
