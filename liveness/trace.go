package liveness

import (
	"fmt"
	"io"

	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/summary"
)

// Reason records why a trace node was pushed onto the worklist.
type Reason int

const (
	Preserved Reason = iota
	StaticReferenced
	IndirectReferenced
)

func (r Reason) String() string {
	switch r {
	case Preserved:
		return "Preserved"
	case StaticReferenced:
		return "StaticReferenced"
	case IndirectReferenced:
		return "IndirectReferenced"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// nodeID indexes into a traceArena. Nodes form a DAG whose parents
// outlive their children, but since at most one node is ever retained
// for a dump, allocating every node by value in one growing slice and
// addressing parents by index avoids both pointer-cycle hazards and a
// per-node heap allocation.
type nodeID int32

const noParent nodeID = -1

type traceNode struct {
	parent nodeID
	guid   guid.GUID
	reason Reason
}

type traceArena struct {
	nodes []traceNode
}

func (a *traceArena) push(parent nodeID, g guid.GUID, reason Reason) nodeID {
	a.nodes = append(a.nodes, traceNode{parent: parent, guid: g, reason: reason})
	return nodeID(len(a.nodes) - 1)
}

func (a *traceArena) at(id nodeID) traceNode {
	return a.nodes[id]
}

// Trace is the retained provenance chain for one symbol of interest,
// captured the first time the engine marks it live.
type Trace struct {
	arena *traceArena
	leaf  nodeID
}

// DumpTo writes the trace in the format:
//
//	<sym> (GUID) is referenced by:
//	 - <parent-sym> (GUID)
//	 - <grandparent-sym> (GUID)
//	 ...
//
// resolved supplies the display name for each GUID in the chain; a GUID
// with no resolved name prints as "**missing name**", matching a
// declaration GUID that never became a function entry of its own.
func (t *Trace) DumpTo(w io.Writer, resolved map[guid.GUID]string) error {
	leaf := t.arena.at(t.leaf)
	if _, err := fmt.Fprintf(w, "%s (%s) is referenced by:\n", displayName(resolved, leaf.guid), leaf.guid); err != nil {
		return err
	}

	for id := leaf.parent; id != noParent; {
		n := t.arena.at(id)
		if _, err := fmt.Fprintf(w, " - %s (%s)\n", displayName(resolved, n.guid), n.guid); err != nil {
			return err
		}
		id = n.parent
	}
	return nil
}

func displayName(resolved map[guid.GUID]string, g guid.GUID) string {
	if name, ok := resolved[g]; ok && name != "" {
		return name
	}
	return "**missing name**"
}

// resolvedNames builds the GUID->name lookup DumpTo needs from the final
// combined index.
func resolvedNames(idx *summary.ModuleSummaryIndex) map[guid.GUID]string {
	return idx.FunctionNames()
}
