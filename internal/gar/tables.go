package gar

import (
	"time"

	"github.com/google/uuid"
)

// FieldKind selects the coercion applied to a raw XML attribute value.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindBool
	KindDate
	KindUUID
	// KindRef is an integer key referencing another table. Empty values
	// become null instead of failing.
	KindRef
)

// Ref names a table whose rows the referring table points at, and the
// column carrying the key on both sides.
type Ref struct {
	Table TableName
	Key   string
}

// TableDef describes one registry table: how its XML rows decode, how its
// records map to columns, and how it participates in cleanup.
type TableDef struct {
	Name     TableName
	DBTable  string
	PKColumn string
	// Columns in insert order, matching Args.
	Columns []string
	// Fields maps lowercased XML attribute names to coercion kinds.
	// Keys absent from the map are dropped during conversion.
	Fields map[string]FieldKind
	// Renames maps raw attribute names to field names, applied before
	// the Fields lookup.
	Renames map[string]string

	Regional    bool
	IsObject    bool
	IsParam     bool
	IsHierarchy bool
	HasIsActive bool

	// Refs lists the object tables this table's rows point at. Hierarchy
	// rows may reference either object table; a row is an orphan when its
	// key matches none of them.
	Refs []Ref

	Build func(Row) Record
	Args  func(Record) []any
}

// Tables is the registry of every table the loader knows about.
var Tables = map[TableName]*TableDef{
	TableHouseType:    houseTypeDef,
	TableAddHouseType: addHouseTypeDef,
	TableAddrObjType:  addrObjTypeDef,
	TableParamType:    paramTypeDef,
	TableAddrObj:      addrObjDef,
	TableHouse:        houseDef,
	TableAddrObjParam: addrObjParamDef,
	TableHouseParam:   houseParamDef,
	TableAdmHierarchy: admHierarchyDef,
	TableMunHierarchy: munHierarchyDef,
}

func typeFields() map[string]FieldKind {
	return map[string]FieldKind{
		"id":         KindInt,
		"name":       KindString,
		"shortname":  KindString,
		"desc":       KindString,
		"updatedate": KindDate,
		"startdate":  KindDate,
		"enddate":    KindDate,
		"isactive":   KindBool,
		"ver":        KindInt,
	}
}

var houseTypeDef = &TableDef{
	Name:        TableHouseType,
	DBTable:     "house_type",
	PKColumn:    "id",
	Columns:     []string{"id", "name", "shortname", "desc", "updatedate", "startdate", "enddate", "isactive", "ver"},
	Fields:      typeFields(),
	HasIsActive: true,
	Build: func(r Row) Record {
		return &HouseType{
			ID:         rowInt(r, "id"),
			Name:       rowString(r, "name"),
			ShortName:  rowStringPtr(r, "shortname"),
			Desc:       rowStringPtr(r, "desc"),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Active:     rowBool(r, "isactive"),
			Ver:        int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		t := rec.(*HouseType)
		return []any{t.ID, t.Name, t.ShortName, t.Desc, t.UpdateDate, t.StartDate, t.EndDate, t.Active, t.Ver}
	},
}

var addHouseTypeDef = &TableDef{
	Name:        TableAddHouseType,
	DBTable:     "add_house_type",
	PKColumn:    "id",
	Columns:     []string{"id", "name", "shortname", "desc", "updatedate", "startdate", "enddate", "isactive", "ver"},
	Fields:      typeFields(),
	HasIsActive: true,
	Build: func(r Row) Record {
		return &AddHouseType{
			ID:         rowInt(r, "id"),
			Name:       rowString(r, "name"),
			ShortName:  rowStringPtr(r, "shortname"),
			Desc:       rowStringPtr(r, "desc"),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Active:     rowBool(r, "isactive"),
			Ver:        int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		t := rec.(*AddHouseType)
		return []any{t.ID, t.Name, t.ShortName, t.Desc, t.UpdateDate, t.StartDate, t.EndDate, t.Active, t.Ver}
	},
}

var addrObjTypeDef = &TableDef{
	Name:     TableAddrObjType,
	DBTable:  "addr_obj_type",
	PKColumn: "id",
	Columns:  []string{"id", "level", "name", "shortname", "desc", "updatedate", "startdate", "enddate", "isactive", "ver"},
	Fields: func() map[string]FieldKind {
		f := typeFields()
		f["level"] = KindInt
		return f
	}(),
	HasIsActive: true,
	Build: func(r Row) Record {
		return &AddrObjType{
			ID:         rowInt(r, "id"),
			Level:      int(rowInt(r, "level")),
			Name:       rowString(r, "name"),
			ShortName:  rowStringPtr(r, "shortname"),
			Desc:       rowStringPtr(r, "desc"),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Active:     rowBool(r, "isactive"),
			Ver:        int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		t := rec.(*AddrObjType)
		return []any{t.ID, t.Level, t.Name, t.ShortName, t.Desc, t.UpdateDate, t.StartDate, t.EndDate, t.Active, t.Ver}
	},
}

var paramTypeDef = &TableDef{
	Name:     TableParamType,
	DBTable:  "param_type",
	PKColumn: "id",
	Columns:  []string{"id", "name", "code", "desc", "updatedate", "startdate", "enddate", "isactive", "ver"},
	Fields: map[string]FieldKind{
		"id":         KindInt,
		"name":       KindString,
		"code":       KindString,
		"desc":       KindString,
		"updatedate": KindDate,
		"startdate":  KindDate,
		"enddate":    KindDate,
		"isactive":   KindBool,
		"ver":        KindInt,
	},
	HasIsActive: true,
	Build: func(r Row) Record {
		return &ParamType{
			ID:         rowInt(r, "id"),
			Name:       rowString(r, "name"),
			Code:       rowStringPtr(r, "code"),
			Desc:       rowStringPtr(r, "desc"),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Active:     rowBool(r, "isactive"),
			Ver:        int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		t := rec.(*ParamType)
		return []any{t.ID, t.Name, t.Code, t.Desc, t.UpdateDate, t.StartDate, t.EndDate, t.Active, t.Ver}
	},
}

var addrObjDef = &TableDef{
	Name:     TableAddrObj,
	DBTable:  "addr_obj",
	PKColumn: "objectid",
	Columns: []string{
		"region", "objectid", "objectguid", "name", "typename", "level",
		"updatedate", "startdate", "enddate", "isactive", "isactual", "ver", "tree_ver",
	},
	Fields: map[string]FieldKind{
		"region":     KindString,
		"objectid":   KindInt,
		"objectguid": KindUUID,
		"name":       KindString,
		"typename":   KindString,
		"level":      KindInt,
		"updatedate": KindDate,
		"startdate":  KindDate,
		"enddate":    KindDate,
		"isactive":   KindBool,
		"isactual":   KindBool,
		"ver":        KindInt,
	},
	Regional:    true,
	IsObject:    true,
	HasIsActive: true,
	Build: func(r Row) Record {
		ver := int(rowInt(r, "ver"))
		return &AddrObj{
			Region:     rowString(r, "region"),
			ObjectID:   rowInt(r, "objectid"),
			ObjectGUID: rowUUID(r, "objectguid"),
			Name:       rowString(r, "name"),
			TypeName:   rowString(r, "typename"),
			Level:      int(rowInt(r, "level")),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Active:     rowBool(r, "isactive"),
			Actual:     rowBool(r, "isactual"),
			Ver:        ver,
			TreeVer:    ver,
		}
	},
	Args: func(rec Record) []any {
		o := rec.(*AddrObj)
		return []any{
			o.Region, o.ObjectID, o.ObjectGUID, o.Name, o.TypeName, o.Level,
			o.UpdateDate, o.StartDate, o.EndDate, o.Active, o.Actual, o.Ver, o.TreeVer,
		}
	},
}

var houseDef = &TableDef{
	Name:     TableHouse,
	DBTable:  "house",
	PKColumn: "objectid",
	Columns: []string{
		"region", "objectid", "objectguid", "housenum", "addnum1", "addnum2",
		"housetype", "addtype1", "addtype2",
		"updatedate", "startdate", "enddate", "isactive", "isactual", "ver", "tree_ver",
	},
	Fields: map[string]FieldKind{
		"region":     KindString,
		"objectid":   KindInt,
		"objectguid": KindUUID,
		"housenum":   KindString,
		"addnum1":    KindString,
		"addnum2":    KindString,
		"housetype":  KindRef,
		"addtype1":   KindRef,
		"addtype2":   KindRef,
		"updatedate": KindDate,
		"startdate":  KindDate,
		"enddate":    KindDate,
		"isactive":   KindBool,
		"isactual":   KindBool,
		"ver":        KindInt,
	},
	Regional:    true,
	IsObject:    true,
	HasIsActive: true,
	Build: func(r Row) Record {
		ver := int(rowInt(r, "ver"))
		return &House{
			Region:     rowString(r, "region"),
			ObjectID:   rowInt(r, "objectid"),
			ObjectGUID: rowUUID(r, "objectguid"),
			HouseNum:   rowStringPtr(r, "housenum"),
			AddNum1:    rowStringPtr(r, "addnum1"),
			AddNum2:    rowStringPtr(r, "addnum2"),
			HouseType:  rowIntPtr(r, "housetype"),
			AddType1:   rowIntPtr(r, "addtype1"),
			AddType2:   rowIntPtr(r, "addtype2"),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Active:     rowBool(r, "isactive"),
			Actual:     rowBool(r, "isactual"),
			Ver:        ver,
			TreeVer:    ver,
		}
	},
	Args: func(rec Record) []any {
		h := rec.(*House)
		return []any{
			h.Region, h.ObjectID, h.ObjectGUID, h.HouseNum, h.AddNum1, h.AddNum2,
			h.HouseType, h.AddType1, h.AddType2,
			h.UpdateDate, h.StartDate, h.EndDate, h.Active, h.Actual, h.Ver, h.TreeVer,
		}
	},
}

func paramFields() map[string]FieldKind {
	return map[string]FieldKind{
		"region":     KindString,
		"id":         KindInt,
		"objectid":   KindRef,
		"typeid":     KindInt,
		"value":      KindString,
		"updatedate": KindDate,
		"startdate":  KindDate,
		"enddate":    KindDate,
		"ver":        KindInt,
	}
}

var paramColumns = []string{
	"id", "region", "objectid", "typeid", "value",
	"updatedate", "startdate", "enddate", "ver",
}

var addrObjParamDef = &TableDef{
	Name:     TableAddrObjParam,
	DBTable:  "addr_obj_param",
	PKColumn: "id",
	Columns:  paramColumns,
	Fields:   paramFields(),
	Regional: true,
	IsParam:  true,
	Refs:     []Ref{{Table: TableAddrObj, Key: "objectid"}},
	Build: func(r Row) Record {
		return &AddrObjParam{
			ID:         rowInt(r, "id"),
			Region:     rowString(r, "region"),
			ObjectID:   rowInt(r, "objectid"),
			TypeID:     int(rowInt(r, "typeid")),
			Value:      rowString(r, "value"),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Ver:        int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		p := rec.(*AddrObjParam)
		return []any{p.ID, p.Region, p.ObjectID, p.TypeID, p.Value, p.UpdateDate, p.StartDate, p.EndDate, p.Ver}
	},
}

var houseParamDef = &TableDef{
	Name:     TableHouseParam,
	DBTable:  "house_param",
	PKColumn: "id",
	Columns:  paramColumns,
	Fields:   paramFields(),
	Regional: true,
	IsParam:  true,
	Refs:     []Ref{{Table: TableHouse, Key: "objectid"}},
	Build: func(r Row) Record {
		return &HouseParam{
			ID:         rowInt(r, "id"),
			Region:     rowString(r, "region"),
			ObjectID:   rowInt(r, "objectid"),
			TypeID:     int(rowInt(r, "typeid")),
			Value:      rowString(r, "value"),
			UpdateDate: rowTime(r, "updatedate"),
			StartDate:  rowTime(r, "startdate"),
			EndDate:    rowTime(r, "enddate"),
			Ver:        int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		p := rec.(*HouseParam)
		return []any{p.ID, p.Region, p.ObjectID, p.TypeID, p.Value, p.UpdateDate, p.StartDate, p.EndDate, p.Ver}
	},
}

func hierarchyFields() map[string]FieldKind {
	return map[string]FieldKind{
		"region":      KindString,
		"id":          KindInt,
		"objectid":    KindRef,
		"parentobjid": KindRef,
		"path":        KindString,
		"updatedate":  KindDate,
		"startdate":   KindDate,
		"enddate":     KindDate,
		"isactive":    KindBool,
		"ver":         KindInt,
	}
}

var hierarchyColumns = []string{
	"id", "region", "objectid", "parentobjid", "path",
	"updatedate", "startdate", "enddate", "isactive", "ver",
}

// hierarchyRefs: a hierarchy row may attach either an address object or a
// house to the tree.
var hierarchyRefs = []Ref{
	{Table: TableAddrObj, Key: "objectid"},
	{Table: TableHouse, Key: "objectid"},
}

var admHierarchyDef = &TableDef{
	Name:        TableAdmHierarchy,
	DBTable:     "adm_hierarchy",
	PKColumn:    "id",
	Columns:     hierarchyColumns,
	Fields:      hierarchyFields(),
	Regional:    true,
	IsHierarchy: true,
	HasIsActive: true,
	Refs:        hierarchyRefs,
	Build: func(r Row) Record {
		return &AdmHierarchy{
			ID:          rowInt(r, "id"),
			Region:      rowString(r, "region"),
			ObjectID:    rowInt(r, "objectid"),
			ParentObjID: rowIntPtr(r, "parentobjid"),
			Path:        rowStringPtr(r, "path"),
			UpdateDate:  rowTime(r, "updatedate"),
			StartDate:   rowTime(r, "startdate"),
			EndDate:     rowTime(r, "enddate"),
			Active:      rowBool(r, "isactive"),
			Ver:         int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		h := rec.(*AdmHierarchy)
		return []any{h.ID, h.Region, h.ObjectID, h.ParentObjID, h.Path, h.UpdateDate, h.StartDate, h.EndDate, h.Active, h.Ver}
	},
}

var munHierarchyDef = &TableDef{
	Name:        TableMunHierarchy,
	DBTable:     "mun_hierarchy",
	PKColumn:    "id",
	Columns:     hierarchyColumns,
	Fields:      hierarchyFields(),
	Regional:    true,
	IsHierarchy: true,
	HasIsActive: true,
	Refs:        hierarchyRefs,
	Build: func(r Row) Record {
		return &MunHierarchy{
			ID:          rowInt(r, "id"),
			Region:      rowString(r, "region"),
			ObjectID:    rowInt(r, "objectid"),
			ParentObjID: rowIntPtr(r, "parentobjid"),
			Path:        rowStringPtr(r, "path"),
			UpdateDate:  rowTime(r, "updatedate"),
			StartDate:   rowTime(r, "startdate"),
			EndDate:     rowTime(r, "enddate"),
			Active:      rowBool(r, "isactive"),
			Ver:         int(rowInt(r, "ver")),
		}
	},
	Args: func(rec Record) []any {
		h := rec.(*MunHierarchy)
		return []any{h.ID, h.Region, h.ObjectID, h.ParentObjID, h.Path, h.UpdateDate, h.StartDate, h.EndDate, h.Active, h.Ver}
	},
}

// Row accessors. Decoded rows hold nil for nulls, otherwise the coerced type.

func rowString(r Row, key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func rowStringPtr(r Row, key string) *string {
	if v, ok := r[key].(string); ok {
		return &v
	}
	return nil
}

func rowInt(r Row, key string) int64 {
	if v, ok := r[key].(int64); ok {
		return v
	}
	return 0
}

func rowIntPtr(r Row, key string) *int64 {
	if v, ok := r[key].(int64); ok {
		return &v
	}
	return nil
}

func rowBool(r Row, key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

func rowTime(r Row, key string) time.Time {
	if v, ok := r[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func rowUUID(r Row, key string) uuid.UUID {
	if v, ok := r[key].(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
