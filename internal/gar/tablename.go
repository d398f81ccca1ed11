package gar

// TableName identifies one logical registry table.
type TableName string

const (
	TableHouseType    TableName = "house_type"
	TableAddHouseType TableName = "add_house_type"
	TableAddrObjType  TableName = "addr_obj_type"
	TableParamType    TableName = "param_type"
	TableAddrObj      TableName = "addr_obj"
	TableAddrObjParam TableName = "addr_obj_param"
	TableHouse        TableName = "house"
	TableHouseParam   TableName = "house_param"
	TableAdmHierarchy TableName = "adm_hierarchy"
	TableMunHierarchy TableName = "mun_hierarchy"
)

// TablesStats are the small dictionary tables without regional partitions.
// They are always imported, ahead of the data tables that reference them.
var TablesStats = []TableName{
	TableHouseType,
	TableAddHouseType,
	TableAddrObjType,
	TableParamType,
}

// TablesDefault are the regional data tables imported after the dictionaries.
var TablesDefault = []TableName{
	TableHouse,
	TableHouseParam,
	TableAddrObj,
	TableAddrObjParam,
	TableAdmHierarchy,
	TableMunHierarchy,
}

// nameAliases maps the plural table names used in dump file names to the
// canonical table names.
var nameAliases = map[string]TableName{
	"houses":          TableHouse,
	"house_types":     TableHouseType,
	"addhouse_types":  TableAddHouseType,
	"addr_obj_types":  TableAddrObjType,
	"param_types":     TableParamType,
	"houses_params":   TableHouseParam,
	"addr_obj_params": TableAddrObjParam,
}

// ParseTableName resolves a raw (lower-cased) name from a dump file name to a
// registered TableName. ok is false for tables we do not track.
func ParseTableName(raw string) (TableName, bool) {
	if alias, found := nameAliases[raw]; found {
		raw = string(alias)
	}
	_, ok := Tables[TableName(raw)]
	return TableName(raw), ok
}

// ParamTarget binds a parameter table to the object table its rows describe
// and the parameter type ids worth keeping, each with the denormalized field
// it feeds downstream.
type ParamTarget struct {
	Target TableName
	Params []ParamField
}

// ParamField is one tracked parameter kind.
type ParamField struct {
	TypeID int
	Field  string
}

// ParamMap describes which parameter kinds each param table retains.
var ParamMap = map[TableName]ParamTarget{
	TableHouseParam: {
		Target: TableHouse,
		Params: []ParamField{
			{TypeID: 5, Field: "postalcode"},
			{TypeID: 6, Field: "okato"},
			{TypeID: 7, Field: "oktmo"},
		},
	},
	TableAddrObjParam: {
		Target: TableAddrObj,
		Params: []ParamField{
			{TypeID: 6, Field: "okato"},
			{TypeID: 7, Field: "oktmo"},
		},
	},
}

// ParamTypeIDs returns the set of parameter type ids retained for a param table.
func ParamTypeIDs(name TableName) map[int]bool {
	target, ok := ParamMap[name]
	if !ok {
		return nil
	}
	ids := make(map[int]bool, len(target.Params))
	for _, p := range target.Params {
		ids[p.TypeID] = true
	}
	return ids
}
