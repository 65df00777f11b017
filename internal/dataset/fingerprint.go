package dataset

import (
	"encoding/binary"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	xxhash "github.com/cespare/xxhash/v2"
)

// Fingerprint returns the dataset's lineage fingerprint: a cheap
// identity for the combination of schema, size, and the chain of
// transforms that produced it. Equal fingerprints identify datasets
// derived the same way from the same source.
func (d *Dataset) Fingerprint() uint64 {
	return d.fingerprint
}

// fingerprintSchema hashes field names, types, and the row count.
func fingerprintSchema(schema *arrow.Schema, rows int) uint64 {
	h := xxhash.New()
	if schema != nil {
		for _, field := range schema.Fields() {
			_, _ = h.WriteString(field.Name)
			_, _ = h.WriteString(field.Type.String())
		}
	}
	_, _ = h.WriteString(fmt.Sprintf("#%d", rows))
	return h.Sum64()
}

// deriveFingerprint extends a parent fingerprint with an operation
// name and its arguments.
func deriveFingerprint(parent uint64, op string, args ...string) uint64 {
	h := xxhash.New()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], parent)
	_, _ = h.Write(buf[:])

	_, _ = h.WriteString(op)
	for _, arg := range args {
		_, _ = h.WriteString("/")
		_, _ = h.WriteString(arg)
	}
	return h.Sum64()
}
