package gar

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HouseParamReport writes a CSV of suspicious house parameter values:
// classifier codes that are not purely numeric or that collapse to a single
// repeated digit. Only the tracked parameter types are inspected.
type HouseParamReport struct {
	store Store
	// MinVer skips params older than the given version; zero checks all.
	MinVer int
	// Regions restricts the report; empty means all regions.
	Regions []string
}

func NewHouseParamReport(store Store, minVer int, regions []string) *HouseParamReport {
	return &HouseParamReport{store: store, MinVer: minVer, Regions: regions}
}

// Write emits the report with a header row. It returns the number of
// suspicious params found.
func (r *HouseParamReport) Write(ctx context.Context, w io.Writer) (int, error) {
	var typeIDs []int
	for id := range ParamTypeIDs(TableHouseParam) {
		typeIDs = append(typeIDs, id)
	}
	params, err := r.store.ListHouseParams(ctx, typeIDs, r.MinVer, r.Regions)
	if err != nil {
		return 0, fmt.Errorf("list house params: %w", err)
	}

	out := csv.NewWriter(w)
	if err := out.Write([]string{"region", "objectid", "typeid", "value", "ver"}); err != nil {
		return 0, err
	}
	found := 0
	for _, p := range params {
		if !suspiciousParamValue(p.Value) {
			continue
		}
		found++
		record := []string{
			p.Region,
			strconv.FormatInt(p.ObjectID, 10),
			strconv.Itoa(p.TypeID),
			p.Value,
			strconv.Itoa(p.Ver),
		}
		if err := out.Write(record); err != nil {
			return found, err
		}
	}
	out.Flush()
	return found, out.Error()
}

// suspiciousParamValue reports whether a classifier code looks broken.
func suspiciousParamValue(value string) bool {
	if value == "" {
		return true
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return true
		}
	}
	return strings.Count(value, value[:1]) == len(value)
}
