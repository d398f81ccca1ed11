package gar

import (
	"context"
	"fmt"
	"io"
)

// DefaultLimit is the number of pending records per insert batch.
const DefaultLimit = 10000

// LoadResult counts what one table load did.
type LoadResult struct {
	Loaded  int
	Skipped int
	Errors  int
	// Depth is the deepest batch split reached while isolating bad rows.
	Depth int
}

// Loader streams records from a dump file into the store in batches.
// Later rows with a repeated primary key replace earlier pending ones.
type Loader struct {
	store      Store
	log        Logger
	validators *Validators
	limit      int
}

func NewLoader(store Store, log Logger, validators *Validators, limit int) *Loader {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Loader{store: store, log: log, validators: validators, limit: limit}
}

// Load drains the iterator into the store. Bad rows are dropped and counted,
// never fatal; a parse error aborts the load and surfaces as ErrBadTable.
func (l *Loader) Load(ctx context.Context, def *TableDef, it RecordIterator) (*LoadResult, error) {
	result := &LoadResult{}
	pending := newPendingSet(l.limit)

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
		if !l.validators.Common(rec) || !l.validators.Create(def, rec) {
			result.Skipped++
			continue
		}
		pending.add(rec)
		if pending.len() >= l.limit {
			if err := l.flush(ctx, def, pending, result); err != nil {
				return result, err
			}
		}
	}
	if err := l.flush(ctx, def, pending, result); err != nil {
		return result, err
	}
	return result, nil
}

func (l *Loader) flush(ctx context.Context, def *TableDef, pending *pendingSet, result *LoadResult) error {
	recs := pending.drain()
	if len(recs) == 0 {
		return nil
	}
	batch, err := l.store.InsertBatch(ctx, def, recs)
	if err != nil {
		return fmt.Errorf("insert batch into %s: %w", def.Name, err)
	}
	result.Loaded += batch.Inserted
	result.Skipped += len(batch.Dropped)
	result.Errors += len(batch.Dropped)
	if batch.MaxDepth > result.Depth {
		result.Depth = batch.MaxDepth
	}
	for _, rec := range batch.Dropped {
		l.log.Error("row rejected", "table", def.Name, "pk", rec.PK(), "row", fmt.Sprintf("%+v", rec))
	}
	l.log.Info("load progress",
		"table", def.Name,
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"errors", result.Errors)
	return nil
}

// pendingSet keeps insertion order while deduplicating on primary key.
type pendingSet struct {
	order []Record
	index map[int64]int
}

func newPendingSet(capacity int) *pendingSet {
	return &pendingSet{
		order: make([]Record, 0, capacity),
		index: make(map[int64]int, capacity),
	}
}

func (s *pendingSet) add(rec Record) {
	if at, ok := s.index[rec.PK()]; ok {
		s.order[at] = rec
		return
	}
	s.index[rec.PK()] = len(s.order)
	s.order = append(s.order, rec)
}

func (s *pendingSet) len() int { return len(s.order) }

func (s *pendingSet) drain() []Record {
	recs := s.order
	s.order = make([]Record, 0, cap(recs))
	s.index = make(map[int64]int, cap(recs))
	return recs
}
