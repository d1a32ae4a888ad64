package storage

import (
	"strings"

	"tally/internal/core"
)

// docMigration upgrades a document from exactly one version to the next.
type docMigration struct {
	from  int
	apply func(core.StorageData) core.StorageData
}

// docMigrations run in order; each step bumps the version by one. The SQL
// migrations in migrations/ cover the table schema, these cover the JSON
// document inside it.
var docMigrations = []docMigration{
	{from: 1, apply: lowercaseTags},
}

// MigrateDocument brings an older document up to the current version by
// applying each step in sequence. Documents at or above the current version
// are returned unchanged. Unversioned documents are treated as version 1.
func MigrateDocument(data core.StorageData) core.StorageData {
	if data.Version == 0 {
		data.Version = 1
	}
	for _, m := range docMigrations {
		if data.Version != m.from {
			continue
		}
		data = m.apply(data)
		data.Version = m.from + 1
	}
	return data
}

// lowercaseTags normalizes expense tags that version 1 stored with their
// original casing.
func lowercaseTags(data core.StorageData) core.StorageData {
	for i, e := range data.Expenses {
		for j, tag := range e.Tags {
			data.Expenses[i].Tags[j] = strings.ToLower(strings.TrimSpace(tag))
		}
	}
	return data
}
