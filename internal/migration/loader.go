package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SourceBuiltin marks migrations compiled into the binary.
const SourceBuiltin = "builtin"

// filenamePattern matches migration files in two formats:
//
//	m{date}_{seq}_{name}.up.sql             (e.g., m20240101_000001_create_users.up.sql)
//	{timestamp}_{name}.up.sql               (e.g., 20240101120000_create_users.up.sql)
//
// Both carry a date so that file migrations interleave with the builtin
// ones by name. A 14-digit timestamp is normalized to the m{date}_{time}
// form; the name is otherwise the file name without the direction suffix.
var filenamePattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by LoadFromDir
	`^(?:m(\d{8})_(\d{6})|(\d{8})(\d{6}))_(.+)\.(up|down)\.sql$`,
)

// migrationName returns the normalized migration name for a file name, or
// false when the file is not a migration.
func migrationName(file string) (name, direction string, ok bool) {
	m := filenamePattern.FindStringSubmatch(file)
	if m == nil {
		return "", "", false
	}

	date, seq := m[1], m[2]
	if date == "" {
		date, seq = m[3], m[4]
	}

	return "m" + date + "_" + seq + "_" + m[5], m[6], true
}

// LoadFromDir scans a directory for SQL migration files and returns them as
// unsorted Migration values. Files that do not match the expected naming
// pattern are skipped. An up file without a down file yields an
// irreversible migration.
func LoadFromDir(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	grouped := scanEntries(entries)

	return buildMigrations(grouped, dir)
}

// migrationFile is an intermediate struct for pairing up/down files.
type migrationFile struct {
	name     string
	upFile   string // filename only (not full path)
	downFile string // filename only (not full path)
}

// scanEntries groups directory entries by migration name.
func scanEntries(entries []os.DirEntry) map[string]*migrationFile {
	grouped := make(map[string]*migrationFile)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name, direction, ok := migrationName(entry.Name())
		if !ok {
			continue
		}

		mf, ok := grouped[name]
		if !ok {
			mf = &migrationFile{name: name}
			grouped[name] = mf
		}

		if direction == "up" {
			mf.upFile = entry.Name()
		} else {
			mf.downFile = entry.Name()
		}
	}

	return grouped
}

// buildMigrations reads file contents and constructs Migration values from grouped files.
func buildMigrations(grouped map[string]*migrationFile, dir string) ([]Migration, error) {
	var migrations []Migration

	for _, mf := range grouped {
		if mf.upFile == "" {
			continue // orphan .down.sql
		}

		m, err := readMigration(mf, dir)
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	return migrations, nil
}

// readMigration reads up/down SQL files and builds a Migration.
func readMigration(mf *migrationFile, dir string) (Migration, error) {
	upPath := filepath.Join(dir, mf.upFile)

	upSQL, err := readSQL(upPath)
	if err != nil {
		return Migration{}, err
	}

	if upSQL == "" {
		return Migration{}, fmt.Errorf("%w: %s is empty", ErrInvalidSet, upPath)
	}

	m := Migration{
		Name:   mf.name,
		Up:     SQLAction(upSQL),
		Source: upPath,
	}

	if mf.downFile != "" {
		downSQL, err := readSQL(filepath.Join(dir, mf.downFile))
		if err != nil {
			return Migration{}, err
		}

		if downSQL != "" {
			m.Down = SQLAction(downSQL)
		}
	}

	return m, nil
}

func readSQL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading migration file %s: %w", path, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// Merge combines builtin and loaded migrations into a single set. A name
// present in both fails with ErrInvalidSet.
func Merge(sets ...[]Migration) ([]Migration, error) {
	var all []Migration
	for _, s := range sets {
		all = append(all, s...)
	}

	if err := ValidateSet(all); err != nil {
		return nil, err
	}

	return Sort(all), nil
}
