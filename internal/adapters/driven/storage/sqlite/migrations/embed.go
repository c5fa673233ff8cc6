// Package migrations holds the SQLite schema as numbered up/down files.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var files embed.FS

// Migration is one forward schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Pending returns the up migrations newer than applied, oldest first.
// Files are named "NNN_description.up.sql".
func Pending(applied int) ([]Migration, error) {
	return pending(files, applied)
}

func pending(fsys fs.FS, applied int) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	var out []Migration
	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			return nil, fmt.Errorf("migration %s: bad version prefix", name)
		}
		if version <= applied {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{
			Version: version,
			Name:    strings.TrimSuffix(name, ".up.sql"),
			SQL:     string(content),
		})
	}
	return out, nil
}
