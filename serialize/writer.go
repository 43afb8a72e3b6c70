package serialize

import (
	"io"
	"sort"

	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/summary"
)

// WriteIndex encodes idx as a .modsum byte stream: the magic signature,
// one MODULE_METADATA record, then one entry per function (FUNC_METADATA
// followed by its CALL_GRAPH_EDGE records in source order, for a real
// definition; or a single standalone FUNC_PRESERVE_ONLY for a
// placeholder this module only preserves), then one method group per
// virtual slot (METHOD_METADATA followed by one METHOD_IMPL per
// registered implementation).
//
// Functions are written in GUID order, and slots in kind-then-GUID order,
// so that two runs over
// the same in-memory index always produce byte-identical output; the
// data model itself treats map order as irrelevant.
func WriteIndex(w io.Writer, idx *summary.ModuleSummaryIndex) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}

	if err := writeModuleMetadata(w, idx.ModuleName); err != nil {
		return err
	}

	for _, fs := range sortedFunctions(idx) {
		if !fs.Defined {
			if err := writePreserveOnly(w, fs); err != nil {
				return err
			}
			continue
		}
		if err := writeFunctionGroup(w, fs); err != nil {
			return err
		}
	}

	for _, slot := range sortedSlots(idx) {
		if err := writeMethodGroup(w, slot, idx.Implementations[slot]); err != nil {
			return err
		}
	}

	return nil
}

func sortedFunctions(idx *summary.ModuleSummaryIndex) []*summary.FunctionSummary {
	out := make([]*summary.FunctionSummary, 0, len(idx.Functions))
	for _, fs := range idx.Functions {
		out = append(out, fs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GUID < out[j].GUID })
	return out
}

func sortedSlots(idx *summary.ModuleSummaryIndex) []summary.VirtualMethodSlot {
	out := make([]summary.VirtualMethodSlot, 0, len(idx.Implementations))
	for slot := range idx.Implementations {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].DeclGUID < out[j].DeclGUID
	})
	return out
}

func writeModuleMetadata(w io.Writer, name string) error {
	fw := &fieldWriter{}
	fw.writeBlob([]byte(name))
	if fw.err != nil {
		return fw.err
	}
	return writeRawRecord(w, rawRecord{code: ModuleMetadata, payload: fw.buf})
}

func writeFunctionGroup(w io.Writer, fs *summary.FunctionSummary) error {
	fw := &fieldWriter{}
	fw.writeVBR16(uint64(fs.GUID))
	fw.writeFixed1(fs.Live)
	fw.writeFixed1(fs.Preserved)
	fw.writeBlob([]byte(fs.Name))
	if fw.err != nil {
		return fw.err
	}
	if err := writeRawRecord(w, rawRecord{code: FuncMetadata, payload: fw.buf}); err != nil {
		return err
	}

	for _, call := range fs.Calls {
		if err := writeCallEdge(w, call); err != nil {
			return err
		}
	}
	return nil
}

// writePreserveOnly emits a placeholder entry: a GUID this module
// preserves without defining. It carries no calls, since a placeholder
// is never visited by the indexer's instruction walk, and no preserved
// bit since Preserve always sets it. It does carry live, since liveness
// can mark a placeholder reachable (it is a root by construction) and
// that bit must survive a re-serialize of an already-annotated index.
func writePreserveOnly(w io.Writer, fs *summary.FunctionSummary) error {
	fw := &fieldWriter{}
	fw.writeVBR16(uint64(fs.GUID))
	fw.writeFixed1(fs.Live)
	fw.writeBlob([]byte(fs.Name))
	if fw.err != nil {
		return fw.err
	}
	return writeRawRecord(w, rawRecord{code: FuncPreserveOnly, payload: fw.buf})
}

func writeCallEdge(w io.Writer, call summary.Call) error {
	ew := &fieldWriter{}
	ew.writeFixed32(uint32(callEdgeKind(call.Kind)))
	ew.writeVBR16(uint64(call.Callee))
	ew.writeBlob([]byte(call.Name))
	if ew.err != nil {
		return ew.err
	}
	return writeRawRecord(w, rawRecord{code: CallGraphEdge, payload: ew.buf})
}

func callEdgeKind(k summary.CallKind) EdgeKind {
	switch k {
	case summary.Direct:
		return EdgeDirect
	case summary.VTable:
		return EdgeVTable
	case summary.Witness:
		return EdgeWitness
	default:
		return EdgeKind(^uint32(0)) // unreachable for well-formed data; readers reject it as out of range
	}
}

func writeMethodGroup(w io.Writer, slot summary.VirtualMethodSlot, impls map[guid.GUID]struct{}) error {
	mw := &fieldWriter{}
	mw.writeFixed1(slot.Kind == summary.VTable)
	mw.writeVBR16(uint64(slot.DeclGUID))
	if mw.err != nil {
		return mw.err
	}
	if err := writeRawRecord(w, rawRecord{code: MethodMetadata, payload: mw.buf}); err != nil {
		return err
	}

	implList := make([]guid.GUID, 0, len(impls))
	for g := range impls {
		implList = append(implList, g)
	}
	sort.Slice(implList, func(i, j int) bool { return implList[i] < implList[j] })

	for _, g := range implList {
		iw := &fieldWriter{}
		iw.writeVBR16(uint64(g))
		if err := writeRawRecord(w, rawRecord{code: MethodImpl, payload: iw.buf}); err != nil {
			return err
		}
	}
	return nil
}
