package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// DefaultManifest is the build manifest that marks a directory as a service.
const DefaultManifest = "Dockerfile"

// DiscoverServices returns the names of the immediate subdirectories of root
// that contain a regular file called manifest, sorted by name. Nested
// directories are not searched and symlinked directories are not followed.
func DiscoverServices(root, manifest string) ([]string, error) {
	if manifest == "" {
		manifest = DefaultManifest
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read project root %s: %w", root, err)
	}

	var services []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ok, err := IsRegularFile(filepath.Join(root, e.Name(), manifest))
		if err != nil {
			return nil, err
		}
		if ok {
			services = append(services, e.Name())
		}
	}

	slices.Sort(services)
	return services, nil
}

// IsRegularFile reports whether path exists and is a regular file. A missing
// path is not an error.
func IsRegularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}
