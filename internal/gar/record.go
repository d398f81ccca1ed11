package gar

import (
	"time"

	"github.com/google/uuid"
)

// Record is one decoded registry row ready for storage.
type Record interface {
	// Table returns the table this record belongs to.
	Table() TableName
	// PK returns the primary key value.
	PK() int64
	// RecordVer returns the dump version the row came from.
	RecordVer() int
	// Updated returns the registry-side modification date.
	Updated() time.Time
}

// Temporal is implemented by records carrying a validity interval.
type Temporal interface {
	Lifespan() (start, end time.Time)
}

// Actual is implemented by records with an isactual flag.
type Actual interface {
	IsActual() bool
}

// Activatable is implemented by records with an isactive flag.
type Activatable interface {
	IsActive() bool
}

// HouseType is a dictionary row describing a kind of house.
type HouseType struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	ShortName  *string   `db:"shortname"`
	Desc       *string   `db:"desc"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Active     bool      `db:"isactive"`
	Ver        int       `db:"ver"`
}

func (t *HouseType) Table() TableName                 { return TableHouseType }
func (t *HouseType) PK() int64                        { return t.ID }
func (t *HouseType) RecordVer() int                   { return t.Ver }
func (t *HouseType) Updated() time.Time               { return t.UpdateDate }
func (t *HouseType) IsActive() bool                   { return t.Active }
func (t *HouseType) Lifespan() (time.Time, time.Time) { return t.StartDate, t.EndDate }

// AddHouseType is a dictionary row describing a kind of house addendum.
type AddHouseType struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	ShortName  *string   `db:"shortname"`
	Desc       *string   `db:"desc"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Active     bool      `db:"isactive"`
	Ver        int       `db:"ver"`
}

func (t *AddHouseType) Table() TableName                 { return TableAddHouseType }
func (t *AddHouseType) PK() int64                        { return t.ID }
func (t *AddHouseType) RecordVer() int                   { return t.Ver }
func (t *AddHouseType) Updated() time.Time               { return t.UpdateDate }
func (t *AddHouseType) IsActive() bool                   { return t.Active }
func (t *AddHouseType) Lifespan() (time.Time, time.Time) { return t.StartDate, t.EndDate }

// AddrObjType is a dictionary row describing a kind of address object at a level.
type AddrObjType struct {
	ID         int64     `db:"id"`
	Level      int       `db:"level"`
	Name       string    `db:"name"`
	ShortName  *string   `db:"shortname"`
	Desc       *string   `db:"desc"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Active     bool      `db:"isactive"`
	Ver        int       `db:"ver"`
}

func (t *AddrObjType) Table() TableName                 { return TableAddrObjType }
func (t *AddrObjType) PK() int64                        { return t.ID }
func (t *AddrObjType) RecordVer() int                   { return t.Ver }
func (t *AddrObjType) Updated() time.Time               { return t.UpdateDate }
func (t *AddrObjType) IsActive() bool                   { return t.Active }
func (t *AddrObjType) Lifespan() (time.Time, time.Time) { return t.StartDate, t.EndDate }

// ParamType is a dictionary row describing a kind of object parameter.
type ParamType struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Code       *string   `db:"code"`
	Desc       *string   `db:"desc"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Active     bool      `db:"isactive"`
	Ver        int       `db:"ver"`
}

func (t *ParamType) Table() TableName                 { return TableParamType }
func (t *ParamType) PK() int64                        { return t.ID }
func (t *ParamType) RecordVer() int                   { return t.Ver }
func (t *ParamType) Updated() time.Time               { return t.UpdateDate }
func (t *ParamType) IsActive() bool                   { return t.Active }
func (t *ParamType) Lifespan() (time.Time, time.Time) { return t.StartDate, t.EndDate }

// AddrObj is an address object (region, city, street and so on).
type AddrObj struct {
	Region     string    `db:"region"`
	ObjectID   int64     `db:"objectid"`
	ObjectGUID uuid.UUID `db:"objectguid"`
	Name       string    `db:"name"`
	TypeName   string    `db:"typename"`
	Level      int       `db:"level"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Active     bool      `db:"isactive"`
	Actual     bool      `db:"isactual"`
	Ver        int       `db:"ver"`
	TreeVer    int       `db:"tree_ver"`
}

func (o *AddrObj) Table() TableName                 { return TableAddrObj }
func (o *AddrObj) PK() int64                        { return o.ObjectID }
func (o *AddrObj) RecordVer() int                   { return o.Ver }
func (o *AddrObj) Updated() time.Time               { return o.UpdateDate }
func (o *AddrObj) IsActive() bool                   { return o.Active }
func (o *AddrObj) IsActual() bool                   { return o.Actual }
func (o *AddrObj) Lifespan() (time.Time, time.Time) { return o.StartDate, o.EndDate }

// House is a numbered building on an address object.
type House struct {
	Region     string    `db:"region"`
	ObjectID   int64     `db:"objectid"`
	ObjectGUID uuid.UUID `db:"objectguid"`
	HouseNum   *string   `db:"housenum"`
	AddNum1    *string   `db:"addnum1"`
	AddNum2    *string   `db:"addnum2"`
	HouseType  *int64    `db:"housetype"`
	AddType1   *int64    `db:"addtype1"`
	AddType2   *int64    `db:"addtype2"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Active     bool      `db:"isactive"`
	Actual     bool      `db:"isactual"`
	Ver        int       `db:"ver"`
	TreeVer    int       `db:"tree_ver"`
}

func (h *House) Table() TableName                 { return TableHouse }
func (h *House) PK() int64                        { return h.ObjectID }
func (h *House) RecordVer() int                   { return h.Ver }
func (h *House) Updated() time.Time               { return h.UpdateDate }
func (h *House) IsActive() bool                   { return h.Active }
func (h *House) IsActual() bool                   { return h.Actual }
func (h *House) Lifespan() (time.Time, time.Time) { return h.StartDate, h.EndDate }

// AddrObjParam is a keyed parameter value attached to an address object.
type AddrObjParam struct {
	ID         int64     `db:"id"`
	Region     string    `db:"region"`
	ObjectID   int64     `db:"objectid"`
	TypeID     int       `db:"typeid"`
	Value      string    `db:"value"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Ver        int       `db:"ver"`
}

func (p *AddrObjParam) Table() TableName                 { return TableAddrObjParam }
func (p *AddrObjParam) PK() int64                        { return p.ID }
func (p *AddrObjParam) RecordVer() int                   { return p.Ver }
func (p *AddrObjParam) Updated() time.Time               { return p.UpdateDate }
func (p *AddrObjParam) Lifespan() (time.Time, time.Time) { return p.StartDate, p.EndDate }

// HouseParam is a keyed parameter value attached to a house.
type HouseParam struct {
	ID         int64     `db:"id"`
	Region     string    `db:"region"`
	ObjectID   int64     `db:"objectid"`
	TypeID     int       `db:"typeid"`
	Value      string    `db:"value"`
	UpdateDate time.Time `db:"updatedate"`
	StartDate  time.Time `db:"startdate"`
	EndDate    time.Time `db:"enddate"`
	Ver        int       `db:"ver"`
}

func (p *HouseParam) Table() TableName                 { return TableHouseParam }
func (p *HouseParam) PK() int64                        { return p.ID }
func (p *HouseParam) RecordVer() int                   { return p.Ver }
func (p *HouseParam) Updated() time.Time               { return p.UpdateDate }
func (p *HouseParam) Lifespan() (time.Time, time.Time) { return p.StartDate, p.EndDate }

// AdmHierarchy places an object in the administrative division tree.
type AdmHierarchy struct {
	ID          int64     `db:"id"`
	Region      string    `db:"region"`
	ObjectID    int64     `db:"objectid"`
	ParentObjID *int64    `db:"parentobjid"`
	Path        *string   `db:"path"`
	UpdateDate  time.Time `db:"updatedate"`
	StartDate   time.Time `db:"startdate"`
	EndDate     time.Time `db:"enddate"`
	Active      bool      `db:"isactive"`
	Ver         int       `db:"ver"`
}

func (h *AdmHierarchy) Table() TableName                 { return TableAdmHierarchy }
func (h *AdmHierarchy) PK() int64                        { return h.ID }
func (h *AdmHierarchy) RecordVer() int                   { return h.Ver }
func (h *AdmHierarchy) Updated() time.Time               { return h.UpdateDate }
func (h *AdmHierarchy) IsActive() bool                   { return h.Active }
func (h *AdmHierarchy) Lifespan() (time.Time, time.Time) { return h.StartDate, h.EndDate }

// MunHierarchy places an object in the municipal division tree.
type MunHierarchy struct {
	ID          int64     `db:"id"`
	Region      string    `db:"region"`
	ObjectID    int64     `db:"objectid"`
	ParentObjID *int64    `db:"parentobjid"`
	Path        *string   `db:"path"`
	UpdateDate  time.Time `db:"updatedate"`
	StartDate   time.Time `db:"startdate"`
	EndDate     time.Time `db:"enddate"`
	Active      bool      `db:"isactive"`
	Ver         int       `db:"ver"`
}

func (h *MunHierarchy) Table() TableName                 { return TableMunHierarchy }
func (h *MunHierarchy) PK() int64                        { return h.ID }
func (h *MunHierarchy) RecordVer() int                   { return h.Ver }
func (h *MunHierarchy) Updated() time.Time               { return h.UpdateDate }
func (h *MunHierarchy) IsActive() bool                   { return h.Active }
func (h *MunHierarchy) Lifespan() (time.Time, time.Time) { return h.StartDate, h.EndDate }

// Version is one published dump of the registry.
type Version struct {
	Ver            int       `db:"ver"`
	DumpDate       time.Time `db:"dumpdate"`
	CompleteXMLURL *string   `db:"complete_xml_url"`
	DeltaXMLURL    *string   `db:"delta_xml_url"`
}

// Status is the per-table, per-region watermark of the last applied version.
type Status struct {
	Table  TableName `db:"table_name"`
	Region *string   `db:"region"`
	Ver    int       `db:"ver"`
}
