package database

import (
	"testing"
	"testing/fstest"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_indexes.sql":        {Data: []byte("CREATE INDEX x ON y (z);")},
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE y (z INT);")},
		"README.md":              {Data: []byte("notes")},
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 sql files got %v", files)
	}
	if files[0] != "001_initial_schema.sql" || files[1] != "002_indexes.sql" {
		t.Fatalf("unexpected order %v", files)
	}
}
