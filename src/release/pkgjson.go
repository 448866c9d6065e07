package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PackageFile holds the version of a front-end project.
const PackageFile = "package.json"

// ErrNoVersion is returned when package.json has no version field.
var ErrNoVersion = errors.New("package.json has no version")

// PackageVersion reads the version field of dir/package.json.
func PackageVersion(dir string) (string, error) {
	path := filepath.Join(dir, PackageFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if pkg.Version == "" {
		return "", ErrNoVersion
	}
	return pkg.Version, nil
}
