package gar

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
)

// RecordIterator streams records out of one dump file. Next returns
// (nil, nil) for rows dropped by a filter, and io.EOF when exhausted.
// Any parse failure wraps ErrBadTable: the rest of the file is unusable.
type RecordIterator interface {
	Next() (Record, error)
	Close() error
}

type xmlIterator struct {
	def     *TableDef
	ctx     Context
	filters FilterSet
	decoder *xml.Decoder
	closer  io.Closer
	depth   int
	done    bool
}

// NewXMLIterator reads a registry dump file: a single root element whose
// children carry one row each in their attributes. The reader is closed by
// Close, not by reaching EOF.
func NewXMLIterator(def *TableDef, rc io.ReadCloser, ctx Context, filters FilterSet) RecordIterator {
	decoder := xml.NewDecoder(newBOMReader(rc))
	return &xmlIterator{
		def:     def,
		ctx:     ctx,
		filters: filters,
		decoder: decoder,
		closer:  rc,
	}
}

func (it *xmlIterator) Next() (Record, error) {
	if it.done {
		return nil, io.EOF
	}
	for {
		token, err := it.decoder.Token()
		if err == io.EOF {
			it.done = true
			return nil, io.EOF
		}
		if err != nil {
			it.done = true
			return nil, fmt.Errorf("%w: %s: %v", ErrBadTable, it.def.Name, err)
		}
		switch element := token.(type) {
		case xml.StartElement:
			it.depth++
			if it.depth < 2 {
				continue
			}
			rec, err := it.row(element)
			if err != nil {
				it.done = true
				return nil, err
			}
			if err := it.decoder.Skip(); err != nil {
				it.done = true
				return nil, fmt.Errorf("%w: %s: %v", ErrBadTable, it.def.Name, err)
			}
			it.depth--
			return rec, nil
		case xml.EndElement:
			it.depth--
		}
	}
}

// row decodes one element's attributes into a record. A nil record with nil
// error means a filter dropped the row.
func (it *xmlIterator) row(element xml.StartElement) (Record, error) {
	raw := make(map[string]string, len(element.Attr))
	for _, attr := range element.Attr {
		raw[attr.Name.Local] = attr.Value
	}
	row, err := DecodeRow(it.def, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadTable, it.def.Name, err)
	}
	rec := it.def.Build(ConvertRow(it.def, row, it.ctx))
	if !it.filters.Keep(it.def.Name, rec) {
		return nil, nil
	}
	return rec, nil
}

func (it *xmlIterator) Close() error {
	it.done = true
	return it.closer.Close()
}

// emptyIterator yields nothing. Deletion-marked dump files use it.
type emptyIterator struct{}

func (emptyIterator) Next() (Record, error) { return nil, io.EOF }
func (emptyIterator) Close() error          { return nil }

// NewEmptyIterator returns an iterator that is immediately exhausted.
func NewEmptyIterator() RecordIterator { return emptyIterator{} }

// newBOMReader strips a UTF-8 byte order mark, which encoding/xml rejects
// when it precedes the declaration.
func newBOMReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(3); err == nil && lead[0] == 0xEF && lead[1] == 0xBB && lead[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
