package gar

import (
	"context"
	"fmt"
	"io"
)

// updateLogInterval is how many updated rows pass between progress lines.
const updateLogInterval = 100

// UpdateResult counts what one table update did.
type UpdateResult struct {
	Created int
	Updated int
	Skipped int
	Errors  int
	Depth   int
}

// Updater applies a delta dump: rows unknown to the store are batch-created,
// known rows are rewritten one by one when the dump's copy is newer.
type Updater struct {
	store      Store
	log        Logger
	validators *Validators
	limit      int
}

func NewUpdater(store Store, log Logger, validators *Validators, limit int) *Updater {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Updater{store: store, log: log, validators: validators, limit: limit}
}

// Update drains the iterator against the current store contents.
func (u *Updater) Update(ctx context.Context, def *TableDef, it RecordIterator) (*UpdateResult, error) {
	result := &UpdateResult{}
	pending := newPendingSet(u.limit)

	for {
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, err
		}
		if rec == nil {
			continue
		}
		if !u.validators.Common(rec) {
			result.Skipped++
			continue
		}

		stored, exists, err := u.store.GetUpdateDate(ctx, def, rec.PK())
		if err != nil {
			return result, fmt.Errorf("look up %s %d: %w", def.Name, rec.PK(), err)
		}
		if !exists {
			if !u.validators.Create(def, rec) {
				result.Skipped++
				continue
			}
			pending.add(rec)
			if pending.len() >= u.limit {
				if err := u.flush(ctx, def, pending, result); err != nil {
					return result, err
				}
			}
			continue
		}

		if !stored.Before(rec.Updated()) {
			result.Skipped++
			continue
		}
		if err := u.store.UpdateRecord(ctx, def, rec); err != nil {
			result.Errors++
			u.log.Error("row update failed", "table", def.Name, "pk", rec.PK(), "error", err)
			continue
		}
		result.Updated++
		if result.Updated%updateLogInterval == 0 {
			u.log.Info("update progress",
				"table", def.Name,
				"created", result.Created,
				"updated", result.Updated,
				"skipped", result.Skipped)
		}
	}
	if err := u.flush(ctx, def, pending, result); err != nil {
		return result, err
	}
	return result, nil
}

func (u *Updater) flush(ctx context.Context, def *TableDef, pending *pendingSet, result *UpdateResult) error {
	recs := pending.drain()
	if len(recs) == 0 {
		return nil
	}
	batch, err := u.store.InsertBatch(ctx, def, recs)
	if err != nil {
		return fmt.Errorf("insert batch into %s: %w", def.Name, err)
	}
	result.Created += batch.Inserted
	result.Skipped += len(batch.Dropped)
	result.Errors += len(batch.Dropped)
	if batch.MaxDepth > result.Depth {
		result.Depth = batch.MaxDepth
	}
	for _, rec := range batch.Dropped {
		u.log.Error("row rejected", "table", def.Name, "pk", rec.PK(), "row", fmt.Sprintf("%+v", rec))
	}
	return nil
}
