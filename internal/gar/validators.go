package gar

import "time"

// dateOf truncates a moment to its UTC calendar date for interval checks.
func dateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Validators gate which records enter the store. The common validator runs on
// every record; the create validator additionally runs on records about to be
// inserted. Updates of existing rows have no extra validation beyond the
// newer-updatedate check in the updater.
type Validators struct {
	clock Clock
	// retainInactive lists tables whose inactive rows are kept anyway.
	retainInactive map[TableName]bool
}

func NewValidators(clock Clock, retainInactive []TableName) *Validators {
	retain := make(map[TableName]bool, len(retainInactive))
	for _, name := range retainInactive {
		retain[name] = true
	}
	return &Validators{clock: clock, retainInactive: retain}
}

// Common rejects records without a usable primary key.
func (v *Validators) Common(rec Record) bool {
	return rec.PK() != 0
}

// Create decides whether a new record is worth storing: its validity interval
// must cover today, objects must be actual, and flagged tables must be active
// unless configured to retain inactive rows.
func (v *Validators) Create(def *TableDef, rec Record) bool {
	if def.IsObject || def.IsParam || def.IsHierarchy {
		temporal, ok := rec.(Temporal)
		if !ok {
			return false
		}
		start, end := temporal.Lifespan()
		today := dateOf(v.clock.Now())
		if start.After(today) || !end.After(today) {
			return false
		}
	}
	if def.IsObject {
		if actual, ok := rec.(Actual); !ok || !actual.IsActual() {
			return false
		}
	}
	if def.HasIsActive && !v.retainInactive[def.Name] {
		if active, ok := rec.(Activatable); !ok || !active.IsActive() {
			return false
		}
	}
	return true
}
