package database

import (
	"context"
	"fmt"

	"gar-go/internal/gar"
)

// maxRowsPerStatement keeps multi-row inserts under both engines' bind
// parameter limits (32766 for sqlite, 65535 for postgres) at 16 columns.
const maxRowsPerStatement = 500

// InsertBatch commits the records atomically. When the batch fails it is
// split in three and each part retried, recursively, so one bad row cannot
// sink its neighbors. Records that fail on their own come back in Dropped.
func (d *Database) InsertBatch(ctx context.Context, def *gar.TableDef, recs []gar.Record) (*gar.BatchResult, error) {
	result := &gar.BatchResult{}
	if err := d.insertSplit(ctx, def, recs, 0, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Database) insertSplit(ctx context.Context, def *gar.TableDef, recs []gar.Record, depth int, result *gar.BatchResult) error {
	if len(recs) == 0 {
		return nil
	}
	err := d.tryInsert(ctx, def, recs)
	if err == nil {
		result.Inserted += len(recs)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(recs) == 1 {
		d.log.Debug("insert rejected", "table", def.Name, "pk", recs[0].PK(), "depth", depth, "error", err)
		result.Dropped = append(result.Dropped, recs[0])
		return nil
	}

	depth++
	if depth > result.MaxDepth {
		result.MaxDepth = depth
	}
	part := len(recs) / 3
	if part < 1 {
		part = 1
	}
	d.log.Debug("insert failed, splitting", "table", def.Name, "size", len(recs), "depth", depth, "error", err)
	for start := 0; start < len(recs); {
		end := start + part
		// The last part absorbs the remainder.
		if len(recs)-end < part {
			end = len(recs)
		}
		if err := d.insertSplit(ctx, def, recs[start:end], depth, result); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// tryInsert writes the whole slice in one transaction, chunked to stay under
// the engines' parameter limits. Any failure rolls everything back.
func (d *Database) tryInsert(ctx context.Context, def *gar.TableDef, recs []gar.Record) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert into %s: %w", def.Name, err)
	}
	defer tx.Rollback()

	for start := 0; start < len(recs); start += maxRowsPerStatement {
		end := start + maxRowsPerStatement
		if end > len(recs) {
			end = len(recs)
		}
		chunk := recs[start:end]

		args := make([]any, 0, len(chunk)*len(def.Columns))
		for _, rec := range chunk {
			args = append(args, def.Args(rec)...)
		}
		if _, err := tx.ExecContext(ctx, d.rebind(insertSQL(def, len(chunk))), args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
