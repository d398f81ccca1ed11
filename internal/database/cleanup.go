package database

import (
	"context"
	"fmt"
	"strings"

	"gar-go/internal/gar"
)

// UpdateTreeVer pushes versions from referring tables (params, hierarchies)
// onto the tree_ver of the object rows they point at. Only refs at or above
// minVer are considered, and tree_ver never moves backwards.
func (d *Database) UpdateTreeVer(ctx context.Context, tables []gar.TableName, minVer int) error {
	for _, name := range tables {
		src := gar.Tables[name]
		for _, ref := range src.Refs {
			dst := gar.Tables[ref.Table]
			query := fmt.Sprintf(`UPDATE %[1]s SET "tree_ver" = (
					SELECT MAX(src."ver") FROM %[2]s AS src
					WHERE src.%[3]s = %[1]s.%[3]s AND src."ver" >= ?
				)
				WHERE EXISTS (
					SELECT 1 FROM %[2]s AS src
					WHERE src.%[3]s = %[1]s.%[3]s
					  AND src."ver" >= ? AND src."ver" > %[1]s."tree_ver"
				)`,
				quoteIdent(dst.DBTable), quoteIdent(src.DBTable), quoteIdent(ref.Key))
			if err := d.exec(ctx, query, minVer, minVer); err != nil {
				return fmt.Errorf("propagating tree version %s -> %s: %w", name, ref.Table, err)
			}
		}
	}
	return nil
}

// RemoveNotActive deletes rows whose isactive flag went false.
func (d *Database) RemoveNotActive(ctx context.Context, tables []gar.TableName) error {
	for _, name := range tables {
		def := gar.Tables[name]
		query := fmt.Sprintf(`DELETE FROM %s WHERE "isactive" = ?`, quoteIdent(def.DBTable))
		if err := d.exec(ctx, query, false); err != nil {
			return fmt.Errorf("removing inactive rows from %s: %w", name, err)
		}
	}
	return nil
}

// RemoveOrphans deletes referring rows whose key matches no row in any of
// the table's ref targets. A hierarchy row survives as long as either an
// address object or a house carries its key.
func (d *Database) RemoveOrphans(ctx context.Context, tables []gar.TableName) error {
	for _, name := range tables {
		src := gar.Tables[name]
		if len(src.Refs) == 0 {
			continue
		}
		var conditions []string
		for _, ref := range src.Refs {
			dst := gar.Tables[ref.Table]
			conditions = append(conditions, fmt.Sprintf(
				`NOT EXISTS (SELECT 1 FROM %[1]s WHERE %[1]s.%[3]s = %[2]s.%[3]s)`,
				quoteIdent(dst.DBTable), quoteIdent(src.DBTable), quoteIdent(ref.Key)))
		}
		query := fmt.Sprintf("DELETE FROM %s WHERE %s",
			quoteIdent(src.DBTable), strings.Join(conditions, " AND "))
		if err := d.exec(ctx, query); err != nil {
			return fmt.Errorf("removing orphans from %s: %w", name, err)
		}
	}
	return nil
}
