package gar

import (
	"context"
	"io"
	"testing"
	"time"
)

// fakeStore implements Store in memory for loader and updater tests.
type fakeStore struct {
	batches     [][]Record
	insertFn    func(def *TableDef, recs []Record) (*BatchResult, error)
	updated     []Record
	updateErr   error
	updateDates map[int64]time.Time
	params      []*HouseParam
}

func newFakeStore() *fakeStore {
	return &fakeStore{updateDates: make(map[int64]time.Time)}
}

func (s *fakeStore) InsertBatch(_ context.Context, def *TableDef, recs []Record) (*BatchResult, error) {
	s.batches = append(s.batches, recs)
	if s.insertFn != nil {
		return s.insertFn(def, recs)
	}
	return &BatchResult{Inserted: len(recs)}, nil
}

func (s *fakeStore) GetUpdateDate(_ context.Context, _ *TableDef, pk int64) (time.Time, bool, error) {
	date, ok := s.updateDates[pk]
	return date, ok, nil
}

func (s *fakeStore) UpdateRecord(_ context.Context, _ *TableDef, rec Record) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, rec)
	return nil
}

func (s *fakeStore) UpsertVersion(context.Context, *Version) error          { return nil }
func (s *fakeStore) GetVersion(context.Context, int) (*Version, error)      { return nil, nil }
func (s *fakeStore) LatestVersion(context.Context) (*Version, error)        { return nil, nil }
func (s *fakeStore) NearestVersionByDate(context.Context, time.Time) (*Version, error) {
	return nil, nil
}
func (s *fakeStore) VersionsAfter(context.Context, int) ([]*Version, error) { return nil, nil }
func (s *fakeStore) GetStatus(context.Context, TableName, *string) (*Status, error) {
	return nil, nil
}
func (s *fakeStore) SetStatus(context.Context, *Status) error       { return nil }
func (s *fakeStore) DeleteStatuses(context.Context, TableName) error { return nil }
func (s *fakeStore) ListStatuses(context.Context) ([]*Status, error) { return nil, nil }
func (s *fakeStore) MinStatusVersion(context.Context, []TableName) (int, bool, error) {
	return 0, false, nil
}
func (s *fakeStore) CountStatuses(context.Context) (int, error)        { return 0, nil }
func (s *fakeStore) Truncate(context.Context, *TableDef) error         { return nil }
func (s *fakeStore) UpdateTreeVer(context.Context, []TableName, int) error { return nil }
func (s *fakeStore) RemoveNotActive(context.Context, []TableName) error    { return nil }
func (s *fakeStore) RemoveOrphans(context.Context, []TableName) error      { return nil }
func (s *fakeStore) ActiveTypeIDs(context.Context, *TableDef) (map[int64]bool, error) {
	return nil, nil
}
func (s *fakeStore) ListHouseParams(context.Context, []int, int, []string) ([]*HouseParam, error) {
	return s.params, nil
}
func (s *fakeStore) DropIndexes(context.Context) error    { return nil }
func (s *fakeStore) RestoreIndexes(context.Context) error { return nil }
func (s *fakeStore) Close() error                         { return nil }

// sliceIterator feeds canned records to a loader or updater.
type sliceIterator struct {
	recs []Record
	at   int
	err  error
}

func (it *sliceIterator) Next() (Record, error) {
	if it.at >= len(it.recs) {
		if it.err != nil {
			return nil, it.err
		}
		return nil, io.EOF
	}
	rec := it.recs[it.at]
	it.at++
	return rec, nil
}

func (it *sliceIterator) Close() error { return nil }

func validParam(id int64) *HouseParam {
	return &HouseParam{
		ID:         id,
		Region:     "99",
		ObjectID:   1,
		TypeID:     7,
		Value:      "55000000",
		UpdateDate: time.Date(2022, 11, 20, 0, 0, 0, 0, time.UTC),
		StartDate:  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2079, 6, 6, 0, 0, 0, 0, time.UTC),
		Ver:        20221125,
	}
}

func testValidators() *Validators {
	return NewValidators(fixedClock{now: time.Date(2022, 11, 26, 0, 0, 0, 0, time.UTC)}, nil)
}

func TestLoader(t *testing.T) {
	t.Parallel()

	def := Tables[TableHouseParam]

	t.Run("flushes at the batch limit", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		loader := NewLoader(store, NewNopLogger(), testValidators(), 2)

		it := &sliceIterator{recs: []Record{validParam(1), validParam(2), validParam(3)}}
		result, err := loader.Load(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if result.Loaded != 3 {
			t.Errorf("loaded = %d, want 3", result.Loaded)
		}
		if len(store.batches) != 2 || len(store.batches[0]) != 2 || len(store.batches[1]) != 1 {
			t.Errorf("batches = %v, want sizes 2 and 1", store.batches)
		}
	})

	t.Run("repeated primary key replaces the pending row", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		loader := NewLoader(store, NewNopLogger(), testValidators(), 10)

		first := validParam(1)
		second := validParam(1)
		second.Value = "66000000"
		it := &sliceIterator{recs: []Record{first, second}}

		result, err := loader.Load(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if result.Loaded != 1 {
			t.Errorf("loaded = %d, want 1", result.Loaded)
		}
		got := store.batches[0][0].(*HouseParam)
		if got.Value != "66000000" {
			t.Errorf("value = %q, want the later row to win", got.Value)
		}
	})

	t.Run("invalid rows counted as skipped", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		loader := NewLoader(store, NewNopLogger(), testValidators(), 10)

		expired := validParam(2)
		expired.EndDate = time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)
		it := &sliceIterator{recs: []Record{validParam(1), expired, &HouseParam{ID: 0}}}

		result, err := loader.Load(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if result.Loaded != 1 || result.Skipped != 2 {
			t.Errorf("loaded/skipped = %d/%d, want 1/2", result.Loaded, result.Skipped)
		}
	})

	t.Run("dropped rows adjust the counters", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.insertFn = func(_ *TableDef, recs []Record) (*BatchResult, error) {
			return &BatchResult{Inserted: len(recs) - 1, Dropped: recs[:1], MaxDepth: 3}, nil
		}
		loader := NewLoader(store, NewNopLogger(), testValidators(), 10)

		it := &sliceIterator{recs: []Record{validParam(1), validParam(2), validParam(3)}}
		result, err := loader.Load(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if result.Loaded != 2 || result.Skipped != 1 || result.Errors != 1 || result.Depth != 3 {
			t.Errorf("result = %+v, want loaded 2, skipped 1, errors 1, depth 3", result)
		}
	})

	t.Run("parse error aborts", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		loader := NewLoader(store, NewNopLogger(), testValidators(), 10)

		it := &sliceIterator{recs: []Record{validParam(1)}, err: ErrBadTable}
		if _, err := loader.Load(context.Background(), def, it); err == nil {
			t.Fatal("Load() error = nil, want ErrBadTable")
		}
	})
}

func TestUpdater(t *testing.T) {
	t.Parallel()

	def := Tables[TableHouseParam]

	t.Run("unknown rows batch created", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		updater := NewUpdater(store, NewNopLogger(), testValidators(), 10)

		it := &sliceIterator{recs: []Record{validParam(1), validParam(2)}}
		result, err := updater.Update(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if result.Created != 2 || result.Updated != 0 {
			t.Errorf("created/updated = %d/%d, want 2/0", result.Created, result.Updated)
		}
	})

	t.Run("newer rows rewrite existing ones", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.updateDates[1] = time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC)
		updater := NewUpdater(store, NewNopLogger(), testValidators(), 10)

		it := &sliceIterator{recs: []Record{validParam(1)}}
		result, err := updater.Update(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if result.Updated != 1 || len(store.updated) != 1 {
			t.Errorf("updated = %d, want 1", result.Updated)
		}
	})

	t.Run("stale rows skipped regardless of order", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.updateDates[1] = time.Date(2022, 11, 20, 0, 0, 0, 0, time.UTC)
		updater := NewUpdater(store, NewNopLogger(), testValidators(), 10)

		// Same date: not strictly newer, so no rewrite.
		it := &sliceIterator{recs: []Record{validParam(1)}}
		result, err := updater.Update(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if result.Updated != 0 || result.Skipped != 1 {
			t.Errorf("updated/skipped = %d/%d, want 0/1", result.Updated, result.Skipped)
		}

		store.updateDates[1] = time.Date(2022, 11, 25, 0, 0, 0, 0, time.UTC)
		it = &sliceIterator{recs: []Record{validParam(1)}}
		result, err = updater.Update(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if result.Updated != 0 || result.Skipped != 1 {
			t.Errorf("older incoming row: updated/skipped = %d/%d, want 0/1", result.Updated, result.Skipped)
		}
	})

	t.Run("invalid new rows skipped", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		updater := NewUpdater(store, NewNopLogger(), testValidators(), 10)

		expired := validParam(1)
		expired.EndDate = time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)
		it := &sliceIterator{recs: []Record{expired}}

		result, err := updater.Update(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if result.Created != 0 || result.Skipped != 1 {
			t.Errorf("created/skipped = %d/%d, want 0/1", result.Created, result.Skipped)
		}
	})

	t.Run("row update failure is counted, not fatal", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.updateDates[1] = time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC)
		store.updateErr = context.DeadlineExceeded
		updater := NewUpdater(store, NewNopLogger(), testValidators(), 10)

		it := &sliceIterator{recs: []Record{validParam(1), validParam(2)}}
		result, err := updater.Update(context.Background(), def, it)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if result.Errors != 1 || result.Created != 1 {
			t.Errorf("errors/created = %d/%d, want 1/1", result.Errors, result.Created)
		}
	})
}
