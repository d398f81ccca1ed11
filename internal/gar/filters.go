package gar

import "strings"

// Filter inspects a freshly built record and reports whether to keep it.
// Filters may normalize the record in place.
type Filter func(Record) bool

// FilterSet holds the per-table filter chains applied between record build
// and validation.
type FilterSet map[TableName][]Filter

// NewFilterSet builds the default filter chains. houseTypes, when non-empty,
// restricts houses to the listed house type ids.
func NewFilterSet(houseTypes []int64) FilterSet {
	houseFilters := []Filter{filterActual}
	if len(houseTypes) > 0 {
		houseFilters = append(houseFilters, filterHouseTypes(houseTypes))
	}

	return FilterSet{
		TableHouse:        houseFilters,
		TableAddrObj:      {filterActual, normalizeAddrObjName},
		TableHouseParam:   filterParamTypes(TableHouseParam),
		TableAddrObjParam: filterParamTypes(TableAddrObjParam),
	}
}

// Keep runs the table's chain. Records of tables without filters always pass.
func (f FilterSet) Keep(name TableName, rec Record) bool {
	for _, filter := range f[name] {
		if !filter(rec) {
			return false
		}
	}
	return true
}

func filterActual(rec Record) bool {
	actual, ok := rec.(Actual)
	return !ok || actual.IsActual()
}

func filterHouseTypes(ids []int64) Filter {
	allowed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	return func(rec Record) bool {
		house, ok := rec.(*House)
		if !ok || house.HouseType == nil {
			return true
		}
		return allowed[*house.HouseType]
	}
}

func filterParamTypes(name TableName) []Filter {
	ids := ParamTypeIDs(name)
	return []Filter{func(rec Record) bool {
		switch p := rec.(type) {
		case *HouseParam:
			return ids[p.TypeID]
		case *AddrObjParam:
			return ids[p.TypeID]
		}
		return true
	}}
}

// normalizeAddrObjName unescapes the double-quote entity the dumps leave in
// address object names.
func normalizeAddrObjName(rec Record) bool {
	if obj, ok := rec.(*AddrObj); ok {
		obj.Name = strings.ReplaceAll(obj.Name, "&quot;", `"`)
	}
	return true
}
