package gar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row is one XML element's attributes after key normalization and value
// coercion. Null values are stored as untyped nil.
type Row map[string]any

// Date formats seen in registry dumps, tried in order.
var dateFormats = []string{"2006-01-02", "02.01.06 15:04:05"}

// truthy values accepted for boolean attributes.
var truthy = map[string]bool{
	"1": true, "y": true, "yes": true, "t": true, "true": true, "on": true, "+": true,
}

// DecodeRow coerces a raw attribute map into a Row according to the table's
// field kinds. Keys are lowercased first, then renamed, then coerced; keys the
// table does not declare pass through untouched for the convertor to drop.
// An unparseable date is a hard error: the whole file is considered broken.
func DecodeRow(def *TableDef, raw map[string]string) (Row, error) {
	row := make(Row, len(raw))
	for key, value := range raw {
		key = strings.ToLower(key)
		if renamed, ok := def.Renames[key]; ok {
			key = renamed
		}
		kind, known := def.Fields[key]
		if !known {
			row[key] = value
			continue
		}
		coerced, err := coerce(kind, value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		row[key] = coerced
	}
	return row, nil
}

func coerce(kind FieldKind, value string) (any, error) {
	switch kind {
	case KindString:
		return value, nil
	case KindInt, KindRef:
		if value == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q: %w", value, err)
		}
		return n, nil
	case KindBool:
		return truthy[strings.ToLower(value)], nil
	case KindDate:
		if value == "" {
			return nil, nil
		}
		return parseDate(value)
	case KindUUID:
		if value == "" {
			return nil, nil
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("bad uuid %q: %w", value, err)
		}
		return id, nil
	}
	return value, nil
}

func parseDate(value string) (time.Time, error) {
	var err error
	for _, format := range dateFormats {
		var t time.Time
		if t, err = time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q: %w", value, err)
}
