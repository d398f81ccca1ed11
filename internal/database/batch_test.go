package database_test

import (
	"context"
	"testing"
	"time"

	"gar-go/internal/gar"
	"gar-go/internal/testutil"
)

var fixtureDates = struct {
	updated, start, end time.Time
}{
	updated: time.Date(2022, 11, 20, 0, 0, 0, 0, time.UTC),
	start:   time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	end:     time.Date(2079, 6, 6, 0, 0, 0, 0, time.UTC),
}

func houseParam(id int64) *gar.HouseParam {
	return &gar.HouseParam{
		ID:         id,
		Region:     "99",
		ObjectID:   19273112,
		TypeID:     7,
		Value:      "45382000",
		UpdateDate: fixtureDates.updated,
		StartDate:  fixtureDates.start,
		EndDate:    fixtureDates.end,
		Ver:        20221125,
	}
}

func houseParams(ids ...int64) []gar.Record {
	recs := make([]gar.Record, len(ids))
	for i, id := range ids {
		recs[i] = houseParam(id)
	}
	return recs
}

func TestInsertBatch(t *testing.T) {
	def := gar.Tables[gar.TableHouseParam]

	t.Run("clean batch inserts whole", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		ctx := context.Background()

		result, err := db.InsertBatch(ctx, def, houseParams(1, 2, 3, 4, 5))
		if err != nil {
			t.Fatalf("InsertBatch() error = %v", err)
		}
		if result.Inserted != 5 || len(result.Dropped) != 0 || result.MaxDepth != 0 {
			t.Errorf("result = %+v, want 5 inserted, nothing dropped, depth 0", result)
		}
	})

	t.Run("conflicting rows isolated by splitting", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		ctx := context.Background()

		if _, err := db.InsertBatch(ctx, def, houseParams(1, 5, 10)); err != nil {
			t.Fatalf("seeding: %v", err)
		}

		// 1, 5 and 10 collide with seeded primary keys at the front, middle
		// and back of the batch.
		result, err := db.InsertBatch(ctx, def, houseParams(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
		if err != nil {
			t.Fatalf("InsertBatch() error = %v", err)
		}
		if result.Inserted != 7 {
			t.Errorf("inserted = %d, want 7", result.Inserted)
		}
		if len(result.Dropped) != 3 {
			t.Fatalf("dropped = %d rows, want 3", len(result.Dropped))
		}
		droppedPKs := map[int64]bool{}
		for _, rec := range result.Dropped {
			droppedPKs[rec.PK()] = true
		}
		for _, pk := range []int64{1, 5, 10} {
			if !droppedPKs[pk] {
				t.Errorf("conflicting pk %d not in dropped set %v", pk, droppedPKs)
			}
		}
		if result.MaxDepth == 0 {
			t.Error("depth = 0, want at least one split")
		}

		var total int
		if err := db.DB().GetContext(ctx, &total, `SELECT COUNT(*) FROM house_param`); err != nil {
			t.Fatalf("counting rows: %v", err)
		}
		if total != 10 {
			t.Errorf("rows in table = %d, want 10", total)
		}
	})

	t.Run("single bad row dropped without splitting", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		ctx := context.Background()

		if _, err := db.InsertBatch(ctx, def, houseParams(1)); err != nil {
			t.Fatalf("seeding: %v", err)
		}
		result, err := db.InsertBatch(ctx, def, houseParams(1))
		if err != nil {
			t.Fatalf("InsertBatch() error = %v", err)
		}
		if result.Inserted != 0 || len(result.Dropped) != 1 || result.MaxDepth != 0 {
			t.Errorf("result = %+v, want 0 inserted, 1 dropped, depth 0", result)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		result, err := db.InsertBatch(context.Background(), def, nil)
		if err != nil {
			t.Fatalf("InsertBatch() error = %v", err)
		}
		if result.Inserted != 0 || len(result.Dropped) != 0 {
			t.Errorf("result = %+v, want nothing", result)
		}
	})
}
