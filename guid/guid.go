// Package guid computes the stable 64-bit symbol fingerprints used to
// identify functions, methods and types across module boundaries.
package guid

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// GUID is a stable, content-derived identifier for a mangled symbol name.
// Two summaries referring to the same symbol always carry the same GUID,
// regardless of which module produced them.
type GUID uint64

// Zero is the reserved value for "no GUID" (e.g. an unresolved call target).
const Zero GUID = 0

// Of derives the GUID for a mangled symbol name.
//
// This takes the low 8 bytes of the MD5 digest of name, read as a
// little-endian uint64. MD5 is used purely as a fast, well distributed
// fingerprint; no cryptographic property of it is relied upon.
func Of(name string) GUID {
	sum := md5.Sum([]byte(name))
	return GUID(binary.LittleEndian.Uint64(sum[:8]))
}

func (g GUID) String() string {
	return fmt.Sprintf("%016x", uint64(g))
}

// IsZero reports whether g is the reserved zero value.
func (g GUID) IsZero() bool {
	return g == Zero
}
