// Package serialize implements the on-disk .modsum format: a 4-byte
// magic signature followed by a flat sequence of self-describing
// records.
//
// The upstream format this is modeled on packs records into a true
// sub-byte bitstream (LLVM's Bitstream container). This implementation
// keeps the record schema and field types bit-for-bit compatible in
// spirit — vbr16 variable-length integers, fixed1 flags, fixed32 enums,
// length-prefixed blobs — but lays each field out byte-aligned. This is
// a deliberate simplification: it trades the bitstream's density for a
// format that a Go reader can decode without a custom bit-cursor type,
// at the cost of a few extra bytes per record. Producers and consumers
// of a given .modsum file must agree on this layout bit-for-bit, exactly
// as they must for the GUID reduction.
package serialize

import "fmt"

// Magic is the 4-byte signature every .modsum file begins with.
var Magic = [4]byte{'M', 'O', 'D', 'S'}

// RecordCode identifies the schema of one record.
type RecordCode uint8

const (
	ModuleMetadata RecordCode = 0
	FuncMetadata   RecordCode = 1
	CallGraphEdge  RecordCode = 2
	MethodMetadata RecordCode = 3
	MethodImpl     RecordCode = 4
	// FuncPreserveOnly records a GUID this module preserves but does not
	// itself define: the placeholder an indexer's Preserve call creates
	// for a cross-module implementation. Fields are guid, live, name; no
	// preserved bit, since Preserve always sets it. It is an addition
	// beyond the upstream record set, kept separate from FUNC_METADATA so
	// that record's schema stays exactly as upstream defines it; folding
	// "defined or placeholder" into FUNC_METADATA itself would need a
	// fifth field there instead. It still carries live, because a
	// placeholder is a root by construction and can be marked live by the
	// liveness engine before the annotated index is re-serialized.
	FuncPreserveOnly RecordCode = 5
)

func (c RecordCode) String() string {
	switch c {
	case ModuleMetadata:
		return "MODULE_METADATA"
	case FuncMetadata:
		return "FUNC_METADATA"
	case CallGraphEdge:
		return "CALL_GRAPH_EDGE"
	case MethodMetadata:
		return "METHOD_METADATA"
	case MethodImpl:
		return "METHOD_IMPL"
	case FuncPreserveOnly:
		return "FUNC_PRESERVE_ONLY"
	default:
		return fmt.Sprintf("RecordCode(%d)", uint8(c))
	}
}

// EdgeKind is the 32-bit encoding of a CALL_GRAPH_EDGE's kind field.
type EdgeKind uint32

const (
	EdgeDirect  EdgeKind = 0
	EdgeVTable  EdgeKind = 1
	EdgeWitness EdgeKind = 2
)

// SlotKind is the 1-bit encoding of a METHOD_METADATA's slotKind field.
type SlotKind uint8

const (
	SlotWitness SlotKind = 0
	SlotVTable  SlotKind = 1
)
