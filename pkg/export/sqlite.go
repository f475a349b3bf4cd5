package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/tables"

	_ "modernc.org/sqlite"
)

// SnapshotSchemaVersion is stored in the meta table.
const SnapshotSchemaVersion = "1"

var nonIdent = regexp.MustCompile(`[^a-z0-9]+`)

// SQLName turns a table id or header into a SQL identifier
// ("top-hospitals-table" -> "top_hospitals_table", "Avg Score" -> "avg_score").
func SQLName(s string) string {
	name := strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(s), "_"), "_")
	if name == "" {
		name = "col"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// SnapshotName returns the default snapshot file name for region.
func SnapshotName(region model.Region) string {
	return Filename("dashboard", region, "sqlite3")
}

// SQLiteSnapshot writes every given table into a fresh SQLite database at
// path, one SQL table per panel, plus a meta table recording the region and
// export time. The database is built in a temp file next to path and
// renamed over it, so a failed snapshot leaves any previous one intact.
func SQLiteSnapshot(path string, region model.Region, at time.Time, panels ...*tables.Table) error {
	defer metrics.Timer(metrics.Export)()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp database: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()

	if err := writeSnapshot(tmpName, region, at, panels); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp database: %w", err)
	}
	debug.Log("export: wrote snapshot %s", path)
	return nil
}

func writeSnapshot(path string, region model.Region, at time.Time, panels []*tables.Table) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	for _, t := range panels {
		if t == nil {
			continue
		}
		if err := insertPanel(db, t); err != nil {
			return fmt.Errorf("insert %s: %w", t.ID, err)
		}
	}
	meta := [][2]string{
		{"region", region.Label()},
		{"exported_at", at.UTC().Format(time.RFC3339)},
		{"schema_version", SnapshotSchemaVersion},
	}
	for _, kv := range meta {
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert meta %s: %w", kv[0], err)
		}
	}
	return db.Close()
}

func insertPanel(db *sql.DB, t *tables.Table) error {
	name := SQLName(t.ID)
	cols := make([]string, len(t.Headers))
	seen := make(map[string]int, len(cols))
	for i, h := range t.Headers {
		c := SQLName(h)
		if n := seen[c]; n > 0 {
			c = fmt.Sprintf("%s_%d", c, n+1)
		}
		seen[SQLName(h)]++
		cols[i] = c
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%q TEXT", c)
	}
	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE %q (%s)`, name, strings.Join(defs, ", "))); err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q VALUES (%s)`, name, placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range t.Rows() {
		args := make([]any, len(cols))
		for j := range cols {
			if j < len(row) {
				args[j] = row[j]
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
