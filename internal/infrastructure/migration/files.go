package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// MigrationFile describes one up/down migration pair
type MigrationFile struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// Base returns the shared file name prefix, e.g. "000003_add_index"
func (f MigrationFile) Base() string {
	return fmt.Sprintf("%06d_%s", f.Version, f.Name)
}

// ListMigrations returns the migration pairs found in fsys, ordered by version.
// Files that do not follow the NNNNNN_name.{up,down}.sql layout are ignored.
func ListMigrations(fsys fs.FS) ([]MigrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[uint]*MigrationFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var base string
		var up bool
		switch {
		case strings.HasSuffix(name, upSuffix):
			base, up = strings.TrimSuffix(name, upSuffix), true
		case strings.HasSuffix(name, downSuffix):
			base = strings.TrimSuffix(name, downSuffix)
		default:
			continue
		}

		version, label, ok := parseBase(base)
		if !ok {
			continue
		}
		mf, exists := byVersion[version]
		if !exists {
			mf = &MigrationFile{Version: version, Name: label}
			byVersion[version] = mf
		}
		if up {
			mf.UpPath = name
		} else {
			mf.DownPath = name
		}
	}

	out := make([]MigrationFile, 0, len(byVersion))
	for _, mf := range byVersion {
		out = append(out, *mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseBase(base string) (uint, string, bool) {
	prefix, label, found := strings.Cut(base, "_")
	if !found || label == "" {
		return 0, "", false
	}
	v, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint(v), label, true
}

// CreateMigration writes an empty migration pair numbered after the highest
// existing version in dir.
func CreateMigration(dir, name string) (*MigrationFile, error) {
	label := sanitizeName(name)
	if label == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	mf := &MigrationFile{Version: next, Name: label}
	mf.UpPath = filepath.Join(dir, mf.Base()+upSuffix)
	mf.DownPath = filepath.Join(dir, mf.Base()+downSuffix)

	if err := os.WriteFile(mf.UpPath, []byte("-- "+name+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(mf.DownPath, []byte("-- rollback: "+name+"\n"), 0o644); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

// sanitizeName lowercases name and collapses separators into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}
