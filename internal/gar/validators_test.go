package gar

import (
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestValidatorsCommon(t *testing.T) {
	t.Parallel()

	v := NewValidators(fixedClock{now: time.Now()}, nil)
	if v.Common(&House{ObjectID: 0}) {
		t.Error("zero primary key accepted")
	}
	if !v.Common(&House{ObjectID: 1}) {
		t.Error("valid primary key rejected")
	}
}

func TestValidatorsCreateTemporal(t *testing.T) {
	t.Parallel()

	today := time.Date(2022, 11, 26, 10, 30, 0, 0, time.UTC)
	v := NewValidators(fixedClock{now: today}, nil)
	def := Tables[TableHouseParam]

	base := func() *HouseParam {
		return &HouseParam{
			ID:        1,
			TypeID:    7,
			StartDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2079, 6, 6, 0, 0, 0, 0, time.UTC),
		}
	}

	t.Run("open interval passes", func(t *testing.T) {
		t.Parallel()
		if !v.Create(def, base()) {
			t.Error("current row rejected")
		}
	})

	t.Run("startdate today passes", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.StartDate = time.Date(2022, 11, 26, 0, 0, 0, 0, time.UTC)
		if !v.Create(def, p) {
			t.Error("row starting today rejected")
		}
	})

	t.Run("enddate today fails", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.EndDate = time.Date(2022, 11, 26, 0, 0, 0, 0, time.UTC)
		if v.Create(def, p) {
			t.Error("row ending today accepted")
		}
	})

	t.Run("future start fails", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.StartDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		if v.Create(def, p) {
			t.Error("future row accepted")
		}
	})

	t.Run("expired fails", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.EndDate = time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
		if v.Create(def, p) {
			t.Error("expired row accepted")
		}
	})
}

func TestValidatorsCreateFlags(t *testing.T) {
	t.Parallel()

	today := time.Date(2022, 11, 26, 10, 30, 0, 0, time.UTC)
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2079, 6, 6, 0, 0, 0, 0, time.UTC)

	house := func(active, actual bool) *House {
		return &House{ObjectID: 1, StartDate: start, EndDate: end, Active: active, Actual: actual}
	}

	t.Run("objects must be actual", func(t *testing.T) {
		t.Parallel()
		v := NewValidators(fixedClock{now: today}, nil)
		if v.Create(Tables[TableHouse], house(true, false)) {
			t.Error("non-actual object accepted")
		}
		if !v.Create(Tables[TableHouse], house(true, true)) {
			t.Error("actual object rejected")
		}
	})

	t.Run("inactive rows rejected by default", func(t *testing.T) {
		t.Parallel()
		v := NewValidators(fixedClock{now: today}, nil)
		if v.Create(Tables[TableHouse], house(false, true)) {
			t.Error("inactive object accepted")
		}
		if v.Create(Tables[TableHouseType], &HouseType{ID: 1, Active: false}) {
			t.Error("inactive dictionary row accepted")
		}
	})

	t.Run("retain list keeps inactive rows", func(t *testing.T) {
		t.Parallel()
		v := NewValidators(fixedClock{now: today}, []TableName{TableHouse})
		if !v.Create(Tables[TableHouse], house(false, true)) {
			t.Error("retained inactive object rejected")
		}
	})

	t.Run("dictionaries skip the temporal check", func(t *testing.T) {
		t.Parallel()
		v := NewValidators(fixedClock{now: today}, nil)
		expired := &HouseType{ID: 1, Active: true, StartDate: start, EndDate: start}
		if !v.Create(Tables[TableHouseType], expired) {
			t.Error("dictionary row rejected on dates")
		}
	})

	t.Run("params have no actual flag to check", func(t *testing.T) {
		t.Parallel()
		v := NewValidators(fixedClock{now: today}, nil)
		p := &HouseParam{ID: 1, TypeID: 7, StartDate: start, EndDate: end}
		if !v.Create(Tables[TableHouseParam], p) {
			t.Error("param rejected")
		}
	})
}
