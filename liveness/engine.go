// Package liveness implements whole-program reachability over a merged
// module summary index: a worklist walk from the root set through
// direct and virtual call edges, with an optional trace recorder for
// diagnosing why one symbol survived.
package liveness

import (
	"fmt"

	"github.com/hupe1980/modsum"
	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/summary"
)

// Config configures one liveness run.
type Config struct {
	// TraceTarget, if non-empty, retains the provenance chain for the
	// function whose resolved name equals TraceTarget, captured the
	// first time liveness reaches it.
	TraceTarget string
}

// Result is the outcome of one liveness run.
type Result struct {
	LiveCount int
	// Trace is nil unless Config.TraceTarget was set and reached.
	Trace *Trace
}

// Run marks every function reachable from the root set live, mutating
// idx in place, and recomputes idx.UsedTypes from the type references
// of the functions this run marks live. A function already live when
// Run starts is not visited again: its calls are not followed and its
// type references are not recorded.
//
// The worklist is LIFO; traversal order is not deterministic across the
// iteration order of implementation sets, but the final live set is —
// liveness only grows, and every push is driven solely by the index's
// own data.
func Run(idx *summary.ModuleSummaryIndex, cfg Config) (*Result, error) {
	arena := &traceArena{}
	var worklist []nodeID

	for _, g := range Roots(idx) {
		worklist = append(worklist, arena.push(noParent, g, Preserved))
	}

	idx.UsedTypes = make(map[guid.GUID]struct{})

	var liveCount int
	var trace *Trace

	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		node := arena.at(id)

		fs, ok := idx.Functions[node.guid]
		if !ok {
			switch {
			case node.guid == MainGUID:
				continue // absent main is simply unreachable, not an error
			case node.reason == StaticReferenced:
				continue // I1: unresolved direct callee is an external symbol
			default:
				return nil, modsum.NewInternalError(
					fmt.Sprintf("call references GUID %s absent from the merged index", node.guid), nil)
			}
		}
		if fs.Live {
			continue
		}
		fs.Live = true
		liveCount++

		for _, t := range fs.TypeRefs {
			idx.UsedTypes[t] = struct{}{}
		}

		if trace == nil && cfg.TraceTarget != "" && fs.Name == cfg.TraceTarget {
			trace = &Trace{arena: arena, leaf: id}
		}

		for _, call := range fs.Calls {
			switch call.Kind {
			case summary.Direct:
				worklist = append(worklist, arena.push(id, call.Callee, StaticReferenced))
			case summary.VTable, summary.Witness:
				slot := summary.VirtualMethodSlot{Kind: call.Kind, DeclGUID: call.Callee}
				for impl := range idx.Implementations[slot] {
					worklist = append(worklist, arena.push(id, impl, IndirectReferenced))
				}
			}
		}
	}

	return &Result{LiveCount: liveCount, Trace: trace}, nil
}

// ResolvedNames exposes the GUID->name lookup a Trace needs to dump
// itself, built from the index's own function summaries.
func ResolvedNames(idx *summary.ModuleSummaryIndex) map[guid.GUID]string {
	return resolvedNames(idx)
}
