package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	versionLayout = "20060102150405"
	gooseUp       = "-- +goose Up"
	gooseDown     = "-- +goose Down"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks a migrations directory on disk. See ValidateFS.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return ValidateFS(embeddedMigrations, embeddedDir)
}

// ValidateFS reports every problem in dir rather than stopping at the first: bad filenames,
// versions that are not real timestamps, duplicate versions, and files whose Up section is
// missing, empty or placed after Down.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		version := m[1]
		if _, err := time.Parse(versionLayout, version); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("migration %q version is not a timestamp", name))
		}
		if prev, ok := seen[version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name))
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkSections(name, string(b)))
	}
	return errs
}

func checkSections(name, txt string) error {
	up := strings.Index(txt, gooseUp)
	down := strings.Index(txt, gooseDown)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", name, gooseUp)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", name, gooseDown)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", name)
	}
	body := txt[up+len(gooseUp) : down]
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return nil
		}
	}
	return fmt.Errorf("migration %q has an empty Up section", name)
}

// latestVersion returns the highest version in dir, or the zero time when there is none.
func latestVersion(dir string) (time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	var versions []string
	for _, e := range entries {
		if m := sqlFileRe.FindStringSubmatch(e.Name()); m != nil {
			versions = append(versions, m[1])
		}
	}
	if len(versions) == 0 {
		return time.Time{}, nil
	}
	sort.Strings(versions)
	return time.Parse(versionLayout, versions[len(versions)-1])
}
