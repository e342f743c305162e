// Package migration applies versioned SQL files to a SQLite database.
//
// Files are named {version}_{description}.sql. Versions are applied in
// numeric order, each inside its own transaction, and recorded in the
// schema_migrations table.
package migration

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Migration is a single versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
	FileName    string
}

// Scan reads every migration file in dir of fsys, sorted by version.
func Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, &Error{Operation: "read directory", Err: err}
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := parseFileName(entry.Name())
		if err != nil {
			return nil, err
		}
		if other, ok := seen[m.Version]; ok {
			return nil, &Error{Version: m.Version, FileName: entry.Name(), Operation: "check duplicates",
				Err: fmt.Errorf("%w: also defined in %s", ErrDuplicateVersion, other)}
		}
		seen[m.Version] = entry.Name()

		body, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, &Error{Version: m.Version, FileName: entry.Name(), Operation: "read file", Err: err}
		}
		m.SQL = string(body)
		if len(splitStatements(m.SQL)) == 0 {
			return nil, &Error{Version: m.Version, FileName: entry.Name(), Operation: "parse SQL", Err: ErrEmptyMigration}
		}
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func parseFileName(name string) (Migration, error) {
	matches := fileNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return Migration{}, &Error{FileName: name, Operation: "validate filename",
			Err: fmt.Errorf("%w: %q does not match {version}_{description}.sql", ErrInvalidFileName, name)}
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return Migration{}, &Error{FileName: name, Operation: "parse version", Err: ErrInvalidFileName}
	}
	return Migration{
		Version:     version,
		Description: strings.ReplaceAll(matches[2], "_", " "),
		FileName:    name,
	}, nil
}

// splitStatements splits on semicolons and drops comment-only lines.
func splitStatements(sql string) []string {
	var statements []string
	for _, stmt := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
