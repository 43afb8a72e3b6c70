package serialize

import (
	"bufio"
	"errors"
	"io"

	"github.com/hupe1980/modsum"
	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/summary"
)

// ReadIndex decodes a .modsum byte stream written by WriteIndex.
//
// Record ordering is enforced exactly as the format requires: one
// MODULE_METADATA, then zero or more function groups (FUNC_METADATA
// followed by its CALL_GRAPH_EDGE records, or a standalone
// FUNC_PRESERVE_ONLY placeholder with no edges of its own), then zero
// or more method groups (METHOD_METADATA followed by its METHOD_IMPL
// records). Any other ordering, an unknown record code, an out-of-range
// edge kind, or a truncated record yields a *modsum.FormatError.
func ReadIndex(r io.Reader) (*summary.ModuleSummaryIndex, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, modsum.NewFormatError("truncated magic", err)
	}
	if magic != Magic {
		return nil, modsum.NewFormatError("bad magic signature", nil)
	}

	p := &parser{r: br}
	return p.run()
}

type parserState int

const (
	stateExpectModule parserState = iota
	stateFunctions
	stateMethods
)

type parser struct {
	r     *bufio.Reader
	state parserState
	idx   *summary.ModuleSummaryIndex

	curFunc *summary.FunctionSummary
	curSlot *summary.VirtualMethodSlot
}

func (p *parser) run() (*summary.ModuleSummaryIndex, error) {
	for {
		rr, err := readRawRecord(p.r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if p.state == stateExpectModule {
					return nil, modsum.NewFormatError("missing MODULE_METADATA record", nil)
				}
				return p.idx, nil
			}
			return nil, modsum.NewFormatError("truncated record", err)
		}

		if err := p.apply(rr); err != nil {
			return nil, err
		}
	}
}

func (p *parser) apply(rr rawRecord) error {
	switch rr.code {
	case ModuleMetadata:
		if p.state != stateExpectModule {
			return modsum.NewFormatError("MODULE_METADATA record out of order", nil)
		}
		name, err := decodeModuleMetadata(rr.payload)
		if err != nil {
			return err
		}
		p.idx = summary.New(name)
		p.state = stateFunctions
		return nil

	case FuncMetadata:
		if p.state != stateFunctions {
			return modsum.NewFormatError("FUNC_METADATA record out of order", nil)
		}
		fs, err := decodeFuncMetadata(rr.payload)
		if err != nil {
			return err
		}
		p.idx.AddFunction(fs)
		p.curFunc = fs
		return nil

	case FuncPreserveOnly:
		if p.state != stateFunctions {
			return modsum.NewFormatError("FUNC_PRESERVE_ONLY record out of order", nil)
		}
		g, name, live, err := decodeFuncPreserveOnly(rr.payload)
		if err != nil {
			return err
		}
		p.idx.Preserve(g, name)
		p.idx.SetLive(g, live)
		p.curFunc = nil
		return nil

	case CallGraphEdge:
		if p.state != stateFunctions || p.curFunc == nil {
			return modsum.NewFormatError("CALL_GRAPH_EDGE record out of order", nil)
		}
		call, err := decodeCallEdge(rr.payload)
		if err != nil {
			return err
		}
		p.curFunc.Calls = append(p.curFunc.Calls, call)
		return nil

	case MethodMetadata:
		if p.state != stateFunctions && p.state != stateMethods {
			return modsum.NewFormatError("METHOD_METADATA record out of order", nil)
		}
		slot, err := decodeMethodMetadata(rr.payload)
		if err != nil {
			return err
		}
		p.state = stateMethods
		p.curSlot = &slot
		p.curFunc = nil
		return nil

	case MethodImpl:
		if p.state != stateMethods || p.curSlot == nil {
			return modsum.NewFormatError("METHOD_IMPL record out of order", nil)
		}
		impl, err := decodeMethodImpl(rr.payload)
		if err != nil {
			return err
		}
		p.idx.AddImplementation(*p.curSlot, impl)
		return nil

	default:
		return modsum.NewFormatError("unknown record code", nil)
	}
}

func decodeModuleMetadata(payload []byte) (string, error) {
	fr := &fieldReader{buf: payload}
	name := fr.readBlob()
	if fr.err != nil || !fr.finished() {
		return "", modsum.NewFormatError("malformed MODULE_METADATA record", fr.err)
	}
	return string(name), nil
}

func decodeFuncMetadata(payload []byte) (*summary.FunctionSummary, error) {
	fr := &fieldReader{buf: payload}
	g := fr.readVBR16()
	live := fr.readFixed1()
	preserved := fr.readFixed1()
	name := fr.readBlob()
	if fr.err != nil || !fr.finished() {
		return nil, modsum.NewFormatError("malformed FUNC_METADATA record", fr.err)
	}
	return &summary.FunctionSummary{
		GUID:      guid.GUID(g),
		Name:      string(name),
		Live:      live,
		Preserved: preserved,
		Defined:   true,
	}, nil
}

func decodeFuncPreserveOnly(payload []byte) (guid.GUID, string, bool, error) {
	fr := &fieldReader{buf: payload}
	g := fr.readVBR16()
	live := fr.readFixed1()
	name := fr.readBlob()
	if fr.err != nil || !fr.finished() {
		return 0, "", false, modsum.NewFormatError("malformed FUNC_PRESERVE_ONLY record", fr.err)
	}
	return guid.GUID(g), string(name), live, nil
}

func decodeCallEdge(payload []byte) (summary.Call, error) {
	fr := &fieldReader{buf: payload}
	kind := fr.readFixed32()
	callee := fr.readVBR16()
	name := fr.readBlob()
	if fr.err != nil || !fr.finished() {
		return summary.Call{}, modsum.NewFormatError("malformed CALL_GRAPH_EDGE record", fr.err)
	}

	ck, err := decodeEdgeKind(EdgeKind(kind))
	if err != nil {
		return summary.Call{}, err
	}
	return summary.Call{Kind: ck, Callee: guid.GUID(callee), Name: string(name)}, nil
}

func decodeEdgeKind(k EdgeKind) (summary.CallKind, error) {
	switch k {
	case EdgeDirect:
		return summary.Direct, nil
	case EdgeVTable:
		return summary.VTable, nil
	case EdgeWitness:
		return summary.Witness, nil
	default:
		return 0, modsum.NewFormatError("CALL_GRAPH_EDGE kind out of range", nil)
	}
}

func decodeMethodMetadata(payload []byte) (summary.VirtualMethodSlot, error) {
	fr := &fieldReader{buf: payload}
	isVTable := fr.readFixed1()
	declGUID := fr.readVBR16()
	if fr.err != nil || !fr.finished() {
		return summary.VirtualMethodSlot{}, modsum.NewFormatError("malformed METHOD_METADATA record", fr.err)
	}
	kind := summary.Witness
	if isVTable {
		kind = summary.VTable
	}
	return summary.VirtualMethodSlot{Kind: kind, DeclGUID: guid.GUID(declGUID)}, nil
}

func decodeMethodImpl(payload []byte) (guid.GUID, error) {
	fr := &fieldReader{buf: payload}
	impl := fr.readVBR16()
	if fr.err != nil || !fr.finished() {
		return 0, modsum.NewFormatError("malformed METHOD_IMPL record", fr.err)
	}
	return guid.GUID(impl), nil
}
