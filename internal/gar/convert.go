package gar

// Context carries per-file defaults injected into every row. An attribute
// present in the XML always wins over the context value.
type Context struct {
	Ver    int
	Region string
}

// ConvertRow fills context defaults into a decoded row and strips keys the
// table does not declare. The result holds exactly the table's fields.
func ConvertRow(def *TableDef, row Row, ctx Context) Row {
	if _, ok := row["ver"]; !ok {
		row["ver"] = int64(ctx.Ver)
	}
	if def.Regional {
		if _, ok := row["region"]; !ok {
			row["region"] = ctx.Region
		}
	}
	for key := range row {
		if _, known := def.Fields[key]; !known {
			delete(row, key)
		}
	}
	return row
}
