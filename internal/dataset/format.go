package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Format selects the in-memory representation returned when elements
// or batches are accessed. It affects only the access path; a dataset
// and its format views share the same record storage.
type Format int

const (
	// FormatRows returns elements as column-keyed maps (the default).
	FormatRows Format = iota
	// FormatColumns returns elements and batches as columnar frames.
	FormatColumns
	// FormatArrow returns elements and batches as raw Arrow records.
	FormatArrow
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatColumns:
		return "columns"
	case FormatArrow:
		return "arrow"
	default:
		return "rows"
	}
}

// WithFormat returns a view of the dataset whose accessors use the
// given representation. The view shares record storage with the
// receiver; no data is copied or transformed.
func (d *Dataset) WithFormat(format Format) *Dataset {
	records := make([]arrow.Record, len(d.records))
	for i, rec := range d.records {
		rec.Retain()
		records[i] = rec
	}
	return fromOwned(d.schema, records, format, d.fingerprint)
}

// Format returns the representation currently selected for access.
func (d *Dataset) Format() Format {
	return d.format
}
