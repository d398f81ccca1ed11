package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gar-go/internal/gar"
)

func (d *Database) GetUpdateDate(ctx context.Context, def *gar.TableDef, pk int64) (time.Time, bool, error) {
	query := fmt.Sprintf(`SELECT "updatedate" FROM %s WHERE %s = ?`,
		quoteIdent(def.DBTable), quoteIdent(def.PKColumn))

	var updated time.Time
	err := d.db.GetContext(ctx, &updated, d.rebind(query), pk)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading %s %d: %w", def.Name, pk, err)
	}
	return updated, true, nil
}

func (d *Database) UpdateRecord(ctx context.Context, def *gar.TableDef, rec gar.Record) error {
	if err := d.exec(ctx, updateSQL(def), updateArgs(def, rec)...); err != nil {
		return fmt.Errorf("updating %s %d: %w", def.Name, rec.PK(), err)
	}
	return nil
}

func (d *Database) Truncate(ctx context.Context, def *gar.TableDef) error {
	query := "DELETE FROM " + quoteIdent(def.DBTable)
	if d.vendor == VendorPostgres {
		query = "TRUNCATE " + quoteIdent(def.DBTable)
	}
	if err := d.exec(ctx, query); err != nil {
		return fmt.Errorf("truncating %s: %w", def.Name, err)
	}
	return nil
}

func (d *Database) ActiveTypeIDs(ctx context.Context, def *gar.TableDef) (map[int64]bool, error) {
	query := fmt.Sprintf(`SELECT "id" FROM %s WHERE "isactive" = ?`, quoteIdent(def.DBTable))

	var ids []int64
	if err := d.db.SelectContext(ctx, &ids, d.rebind(query), true); err != nil {
		return nil, fmt.Errorf("listing active %s ids: %w", def.Name, err)
	}
	active := make(map[int64]bool, len(ids))
	for _, id := range ids {
		active[id] = true
	}
	return active, nil
}

func (d *Database) ListHouseParams(ctx context.Context, typeIDs []int, minVer int, regions []string) ([]*gar.HouseParam, error) {
	query := `SELECT "id", "region", "objectid", "typeid", "value",
		"updatedate", "startdate", "enddate", "ver"
		FROM "house_param" WHERE "typeid" IN (?) AND "ver" >= ?`
	args := []any{typeIDs, minVer}
	if len(regions) > 0 {
		query += ` AND "region" IN (?)`
		args = append(args, regions)
	}
	query += ` ORDER BY "region", "objectid", "typeid"`

	query, flat, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("building house param query: %w", err)
	}
	var params []*gar.HouseParam
	if err := d.db.SelectContext(ctx, &params, d.rebind(query), flat...); err != nil {
		return nil, fmt.Errorf("listing house params: %w", err)
	}
	return params, nil
}
