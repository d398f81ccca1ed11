package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gar-go/internal/gar"
)

func (d *Database) UpsertVersion(ctx context.Context, v *gar.Version) error {
	query := `INSERT INTO "version" ("ver", "dumpdate", "complete_xml_url", "delta_xml_url")
		VALUES (?, ?, ?, ?)
		ON CONFLICT ("ver") DO UPDATE SET
			"dumpdate" = excluded."dumpdate",
			"complete_xml_url" = excluded."complete_xml_url",
			"delta_xml_url" = excluded."delta_xml_url"`
	if err := d.exec(ctx, query, v.Ver, v.DumpDate, v.CompleteXMLURL, v.DeltaXMLURL); err != nil {
		return fmt.Errorf("upserting version %d: %w", v.Ver, err)
	}
	return nil
}

const versionColumns = `"ver", "dumpdate", "complete_xml_url", "delta_xml_url"`

func (d *Database) getVersion(ctx context.Context, query string, args ...any) (*gar.Version, error) {
	var v gar.Version
	err := d.db.GetContext(ctx, &v, d.rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *Database) GetVersion(ctx context.Context, ver int) (*gar.Version, error) {
	return d.getVersion(ctx, `SELECT `+versionColumns+` FROM "version" WHERE "ver" = ?`, ver)
}

func (d *Database) LatestVersion(ctx context.Context) (*gar.Version, error) {
	return d.getVersion(ctx, `SELECT `+versionColumns+` FROM "version" ORDER BY "ver" DESC LIMIT 1`)
}

func (d *Database) NearestVersionByDate(ctx context.Context, date time.Time) (*gar.Version, error) {
	exact, err := d.getVersion(ctx,
		`SELECT `+versionColumns+` FROM "version" WHERE "dumpdate" = ?`, date)
	if err != nil || exact != nil {
		return exact, err
	}
	return d.getVersion(ctx,
		`SELECT `+versionColumns+` FROM "version" WHERE "dumpdate" >= ? ORDER BY "dumpdate", "ver" LIMIT 1`, date)
}

func (d *Database) VersionsAfter(ctx context.Context, after int) ([]*gar.Version, error) {
	var versions []*gar.Version
	query := `SELECT ` + versionColumns + ` FROM "version" WHERE "ver" > ? ORDER BY "ver"`
	if err := d.db.SelectContext(ctx, &versions, d.rebind(query), after); err != nil {
		return nil, fmt.Errorf("listing versions after %d: %w", after, err)
	}
	return versions, nil
}

// statusRow is the storage shape of a watermark. The empty region stands in
// for "not regional" so the (table_name, region) key stays unique and
// comparable in both engines.
type statusRow struct {
	TableName string `db:"table_name"`
	Region    string `db:"region"`
	Ver       int    `db:"ver"`
}

func (r statusRow) toStatus() *gar.Status {
	s := &gar.Status{Table: gar.TableName(r.TableName), Ver: r.Ver}
	if r.Region != "" {
		region := r.Region
		s.Region = &region
	}
	return s
}

func regionKey(region *string) string {
	if region == nil {
		return ""
	}
	return *region
}

func (d *Database) GetStatus(ctx context.Context, table gar.TableName, region *string) (*gar.Status, error) {
	var row statusRow
	query := `SELECT "table_name", "region", "ver" FROM "status" WHERE "table_name" = ? AND "region" = ?`
	err := d.db.GetContext(ctx, &row, d.rebind(query), string(table), regionKey(region))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading status of %s: %w", table, err)
	}
	return row.toStatus(), nil
}

func (d *Database) SetStatus(ctx context.Context, s *gar.Status) error {
	query := `INSERT INTO "status" ("table_name", "region", "ver") VALUES (?, ?, ?)
		ON CONFLICT ("table_name", "region") DO UPDATE SET "ver" = excluded."ver"`
	if err := d.exec(ctx, query, string(s.Table), regionKey(s.Region), s.Ver); err != nil {
		return fmt.Errorf("writing status of %s: %w", s.Table, err)
	}
	return nil
}

func (d *Database) DeleteStatuses(ctx context.Context, table gar.TableName) error {
	if err := d.exec(ctx, `DELETE FROM "status" WHERE "table_name" = ?`, string(table)); err != nil {
		return fmt.Errorf("deleting statuses of %s: %w", table, err)
	}
	return nil
}

func (d *Database) ListStatuses(ctx context.Context) ([]*gar.Status, error) {
	var rows []statusRow
	query := `SELECT "table_name", "region", "ver" FROM "status" ORDER BY "table_name", "region"`
	if err := d.db.SelectContext(ctx, &rows, d.rebind(query)); err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}
	statuses := make([]*gar.Status, len(rows))
	for i, row := range rows {
		statuses[i] = row.toStatus()
	}
	return statuses, nil
}

func (d *Database) MinStatusVersion(ctx context.Context, tables []gar.TableName) (int, bool, error) {
	if len(tables) == 0 {
		return 0, false, nil
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = string(t)
	}
	query, args, err := buildIn(`SELECT MIN("ver") FROM "status" WHERE "table_name" IN (?)`, names)
	if err != nil {
		return 0, false, err
	}

	var min sql.NullInt64
	if err := d.db.GetContext(ctx, &min, d.rebind(query), args...); err != nil {
		return 0, false, fmt.Errorf("reading minimum status version: %w", err)
	}
	if !min.Valid {
		return 0, false, nil
	}
	return int(min.Int64), true, nil
}

func (d *Database) CountStatuses(ctx context.Context) (int, error) {
	var count int
	if err := d.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM "status"`); err != nil {
		return 0, fmt.Errorf("counting statuses: %w", err)
	}
	return count, nil
}
