package database

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"gar-go/internal/gar"
)

// buildIn expands IN (?) clauses for slice arguments.
func buildIn(query string, args ...any) (string, []any, error) {
	return sqlx.In(query, args...)
}

// quoteIdent double-quotes an identifier. Column names include reserved
// words ("desc", "value"), so every generated statement quotes them.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

func quotedColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}

// insertSQL builds a multi-row INSERT for the table with ? placeholders.
func insertSQL(def *gar.TableDef, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(def.DBTable))
	b.WriteString(" (")
	b.WriteString(quotedColumns(def.Columns))
	b.WriteString(") VALUES ")

	placeholders := "(" + strings.Repeat("?, ", len(def.Columns)-1) + "?)"
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
	}
	return b.String()
}

// updateSQL builds a full-row UPDATE keyed on the primary key.
func updateSQL(def *gar.TableDef) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(def.DBTable))
	b.WriteString(" SET ")
	first := true
	for _, col := range def.Columns {
		if col == def.PKColumn {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(quoteIdent(col))
		b.WriteString(" = ?")
	}
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(def.PKColumn))
	b.WriteString(" = ?")
	return b.String()
}

// updateArgs reorders record args to match updateSQL: non-key columns in
// declaration order, primary key last.
func updateArgs(def *gar.TableDef, rec gar.Record) []any {
	all := def.Args(rec)
	args := make([]any, 0, len(all))
	for i, col := range def.Columns {
		if col == def.PKColumn {
			continue
		}
		args = append(args, all[i])
	}
	return append(args, rec.PK())
}
