// Package sqlitepath locates the SQLite pattern database.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolveSQLitePath returns override when set, then QPV_SQLITE, then the
// first existing candidate file.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("QPV_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.New("could not find qpv SQLite database; pass --sqlite or set storage.sqlite_path")
}

func sqliteCandidates() []string {
	candidates := []string{
		"qpv.sqlite",
		"qpv.db",
		filepath.Join(".qpv", "qpv.sqlite"),
		filepath.Join(".qpv", "qpv.db"),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".qpv", "qpv.sqlite"),
			filepath.Join(home, ".qpv", "qpv.db"),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "qpv", "qpv.sqlite"),
			filepath.Join(xdgHome, "qpv", "qpv.db"),
		}, candidates...)
	}

	return candidates
}
