// Package summary defines the call-graph and virtual-dispatch index that
// flows between the indexer, serializer, merger and liveness engine.
package summary

import (
	"fmt"

	"github.com/hupe1980/modsum/guid"
)

// CallKind tags an outgoing edge from a function.
type CallKind int

const (
	Direct CallKind = iota
	VTable
	Witness
)

func (k CallKind) String() string {
	switch k {
	case Direct:
		return "Direct"
	case VTable:
		return "VTable"
	case Witness:
		return "Witness"
	default:
		return fmt.Sprintf("CallKind(%d)", int(k))
	}
}

// Call is one outgoing reference from a function.
type Call struct {
	Kind CallKind
	// Callee is the target's GUID. For Direct it names the target
	// function directly; for VTable/Witness it names the abstract
	// declaration, not any implementation.
	Callee guid.GUID
	// Name is a diagnostic label for the callee, not necessarily the
	// resolved implementation's name.
	Name string
}

// VirtualMethodSlot is the composite key under which concrete
// implementations of a virtual declaration are registered.
type VirtualMethodSlot struct {
	Kind     CallKind // VTable or Witness
	DeclGUID guid.GUID
}

// FunctionSummary represents one defined function.
type FunctionSummary struct {
	GUID guid.GUID
	// Name is the mangled name used to compute GUID, retained for
	// diagnostics. May be empty in a stripped summary.
	Name string
	// Live is set true exactly once, by the liveness engine.
	Live bool
	// Preserved marks the function as a liveness root regardless of
	// references.
	Preserved bool
	// Calls is the outgoing edge list, in source order. Duplicates are
	// permitted.
	Calls []Call
	// TypeRefs lists types the function references, used to populate
	// UsedTypes during liveness.
	TypeRefs []guid.GUID
	// Defined is true for a real definition added through AddFunction
	// and false for a bare placeholder created by Preserve standing in
	// for a GUID this module only references. The merger uses this,
	// not the presence of a name or calls, to tell a genuine duplicate
	// definition apart from a placeholder that a later module resolves.
	Defined bool
}

// ModuleSummaryIndex is the top-level container produced by the indexer,
// merged by the merger, and mutated in place by the liveness engine.
type ModuleSummaryIndex struct {
	// ModuleName is a human identifier; not semantically significant
	// after merge (the merged index is always named "combined").
	ModuleName string
	Functions  map[guid.GUID]*FunctionSummary
	// Implementations maps each virtual slot to the set of GUIDs that
	// may resolve a call to it.
	Implementations map[VirtualMethodSlot]map[guid.GUID]struct{}
	// UsedTypes is the set of type GUIDs transitively reachable from
	// live functions. Recomputed by the liveness engine; absent or
	// ignored before that.
	UsedTypes map[guid.GUID]struct{}
}

// New creates an empty index for the named module.
func New(moduleName string) *ModuleSummaryIndex {
	return &ModuleSummaryIndex{
		ModuleName:      moduleName,
		Functions:       make(map[guid.GUID]*FunctionSummary),
		Implementations: make(map[VirtualMethodSlot]map[guid.GUID]struct{}),
		UsedTypes:       make(map[guid.GUID]struct{}),
	}
}

// AddFunction inserts or replaces the summary for fs.GUID as a real
// definition.
func (m *ModuleSummaryIndex) AddFunction(fs *FunctionSummary) {
	fs.Defined = true
	m.Functions[fs.GUID] = fs
}

// Preserve marks the summary for g as preserved, creating a bare
// placeholder summary if none exists yet. Indexers call this both for
// functions this module defines and for GUIDs it never defines at all
// (an implementation declared in another module). A placeholder it
// creates is left with Defined false. A later AddFunction for g replaces
// the entry, Preserved bit included.
func (m *ModuleSummaryIndex) Preserve(g guid.GUID, name string) {
	fs, ok := m.Functions[g]
	if !ok {
		fs = &FunctionSummary{GUID: g, Name: name}
		m.Functions[g] = fs
	}
	fs.Preserved = true
}

// SetLive sets the Live bit on the summary for g, if one exists. The
// deserializer uses this to restore a placeholder's liveness bit after
// Preserve, which only ever sets Preserved, has created or located it.
func (m *ModuleSummaryIndex) SetLive(g guid.GUID, live bool) {
	if fs, ok := m.Functions[g]; ok {
		fs.Live = live
	}
}

// AddImplementation registers impl as a possible resolution of slot.
func (m *ModuleSummaryIndex) AddImplementation(slot VirtualMethodSlot, impl guid.GUID) {
	set, ok := m.Implementations[slot]
	if !ok {
		set = make(map[guid.GUID]struct{})
		m.Implementations[slot] = set
	}
	set[impl] = struct{}{}
}

// FunctionNames returns a GUID->name lookup across all functions, used
// by diagnostics that need to resolve a declaration name after the fact.
func (m *ModuleSummaryIndex) FunctionNames() map[guid.GUID]string {
	names := make(map[guid.GUID]string, len(m.Functions))
	for g, fs := range m.Functions {
		if fs.Name != "" {
			names[g] = fs.Name
		}
	}
	return names
}
