package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Migration filenames are pinned to a 14-digit timestamp version so goose
// applies them in the order they were cut.
var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks every .sql file in dir before a deploy runs goose:
// filenames must match the version scheme, versions must be unique, and each
// file must carry both goose Up and Down markers. An empty directory passes.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			return fmt.Errorf("bad migration filename %q: want <YYYYMMDDHHMMSS>_<snake_case>.sql", entry.Name())
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s: %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		content := string(body)
		if !strings.Contains(content, "-- +goose Up") {
			return fmt.Errorf("migration %s is missing the goose Up marker", entry.Name())
		}
		if !strings.Contains(content, "-- +goose Down") {
			return fmt.Errorf("migration %s is missing the goose Down marker", entry.Name())
		}
	}
	return nil
}
