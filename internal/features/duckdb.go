package features

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// ExportDuckDB writes the feature table into a DuckDB database file so the
// labeled data can be explored with SQL or handed to model-training
// notebooks. Missing cells become NULL. An existing table of the same name
// is replaced.
func ExportDuckDB(t *Table, path, tableName string) error {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	cols := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		cols = append(cols, fmt.Sprintf("%s DOUBLE", quoteIdent(c)))
	}
	cols = append(cols, "target INTEGER", "indel BOOLEAN")

	create := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)",
		quoteIdent(tableName), strings.Join(cols, ", "))
	if _, err := db.Exec(create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)+2), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(tableName), placeholders)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(t.Columns)+2)
	for _, row := range t.Rows {
		for i, cell := range row.Cells {
			if cell.Missing {
				args[i] = nil
			} else {
				args[i] = cell.Value
			}
		}
		args[len(t.Columns)] = row.Target
		args[len(t.Columns)+1] = row.Indel

		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// quoteIdent double-quotes an identifier for DuckDB, escaping embedded
// quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
