// Package indexer walks one compilation unit's producer output and
// builds its module summary: function call edges, virtual-dispatch
// implementation tables, and the preservation marks that seed the root
// set for liveness.
package indexer

import (
	"fmt"

	"github.com/hupe1980/modsum"
	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/ir"
	"github.com/hupe1980/modsum/summary"
)

// Index builds the module summary for mod.
//
// Ordering follows the producer's own structure: functions first, then
// key-path descriptors, then witness tables, then v-tables. Since every
// function is indexed before any preservation stage runs, a preservation
// mark creates a placeholder FunctionSummary only for a GUID this module
// does not define; the merger fills that placeholder in when another
// module defines the GUID, or leaves it as-is.
func Index(mod ir.Module) (*summary.ModuleSummaryIndex, error) {
	idx := summary.New(mod.Name)

	for i := range mod.Functions {
		if err := indexFunction(idx, &mod.Functions[i]); err != nil {
			return nil, err
		}
	}

	for i := range mod.KeyPaths {
		if err := preserveKeyPath(idx, &mod.KeyPaths[i]); err != nil {
			return nil, err
		}
	}

	for i := range mod.WitnessTables {
		indexWitnessTable(idx, mod.Name, &mod.WitnessTables[i])
	}

	for i := range mod.VTables {
		indexVTable(idx, mod.Name, &mod.VTables[i])
	}

	return idx, nil
}

func indexFunction(idx *summary.ModuleSummaryIndex, fn *ir.Function) error {
	g := guid.Of(fn.Name)
	fs := &summary.FunctionSummary{
		GUID:      g,
		Name:      fn.Name,
		Preserved: shouldPreserveFunction(fn),
	}

	for _, inst := range fn.Instructions {
		switch inst.Kind {
		case ir.FunctionRef:
			fs.Calls = append(fs.Calls, summary.Call{
				Kind:   summary.Direct,
				Callee: guid.Of(inst.CalleeName),
				Name:   inst.CalleeName,
			})
		case ir.WitnessMethodRef:
			fs.Calls = append(fs.Calls, summary.Call{
				Kind:   summary.Witness,
				Callee: guid.Of(inst.DeclName),
				Name:   inst.DeclName,
			})
		case ir.ClassMethodRef:
			fs.Calls = append(fs.Calls, summary.Call{
				Kind:   summary.VTable,
				Callee: guid.Of(inst.DeclName),
				Name:   inst.DeclName,
			})
		case ir.KeyPathRef:
			if inst.KeyPath == nil {
				return fmt.Errorf("key-path instruction in %q carries no descriptor", fn.Name)
			}
			if err := appendKeyPathCalls(fs, inst.KeyPath); err != nil {
				return err
			}
		default:
			return fmt.Errorf("function %q: unknown instruction kind %d", fn.Name, inst.Kind)
		}
	}

	idx.AddFunction(fs)
	return nil
}

// shouldPreserveFunction implements the intrinsic preservation rule: a
// function is always a root when it uses the foreign/Objective-C
// compatible calling convention, or when it has direct references from C.
func shouldPreserveFunction(fn *ir.Function) bool {
	return fn.ObjCCompatible || fn.HasCReferences
}

// appendKeyPathCalls turns an in-body key-path reference into ordinary
// call edges on the holding function fs: a concrete function component
// is a Direct call, a method component is a VTable or Witness call
// depending on its declaring context. Unlike a module-level key-path
// descriptor (see preserveKeyPath), an in-body reference is just another
// use site and is reachable transitively, not an unconditional root.
func appendKeyPathCalls(fs *summary.FunctionSummary, kp *ir.KeyPathDescriptor) error {
	for _, comp := range kp.Components {
		switch comp.Kind {
		case ir.KeyPathComponentFunction:
			fs.Calls = append(fs.Calls, summary.Call{
				Kind:   summary.Direct,
				Callee: guid.Of(comp.Name),
				Name:   comp.Name,
			})
		case ir.KeyPathComponentMethod:
			switch comp.Context {
			case ir.ContextClass:
				fs.Calls = append(fs.Calls, summary.Call{Kind: summary.VTable, Callee: guid.Of(comp.Name), Name: comp.Name})
			case ir.ContextProtocol:
				fs.Calls = append(fs.Calls, summary.Call{Kind: summary.Witness, Callee: guid.Of(comp.Name), Name: comp.Name})
			default:
				return modsum.NewInternalError(fmt.Sprintf("key-path %q: method %q has no class or protocol context", kp.Name, comp.Name), nil)
			}
		default:
			return fmt.Errorf("key-path %q: unknown component kind %d", kp.Name, comp.Kind)
		}
	}
	return nil
}

// preserveKeyPath marks every function or method referenced by a
// module-level key-path descriptor as preserved, a deliberate
// conservative over-approximation: key-path liveness of a SILProperty
// descriptor cannot yet be proven, so it is preserved outright rather
// than turned into call edges (there is no holding function to attach
// the edge to).
func preserveKeyPath(idx *summary.ModuleSummaryIndex, kp *ir.KeyPathDescriptor) error {
	for _, comp := range kp.Components {
		switch comp.Kind {
		case ir.KeyPathComponentFunction:
			idx.Preserve(guid.Of(comp.Name), comp.Name)
		case ir.KeyPathComponentMethod:
			switch comp.Context {
			case ir.ContextClass, ir.ContextProtocol:
				idx.Preserve(guid.Of(comp.Name), comp.Name)
			default:
				return modsum.NewInternalError(fmt.Sprintf("key-path %q: method %q has no class or protocol context", kp.Name, comp.Name), nil)
			}
		default:
			return fmt.Errorf("key-path %q: unknown component kind %d", kp.Name, comp.Kind)
		}
	}
	return nil
}

// indexWitnessTable registers every implemented requirement of wt and
// applies the external-use preservation rule: an implementation is
// preserved when the witness table's declaring module differs from the
// protocol's declaring module, or either differs from the current
// module, since either case means the table may be looked up from
// outside this compilation unit.
func indexWitnessTable(idx *summary.ModuleSummaryIndex, currentModule string, wt *ir.WitnessTable) {
	usedExternally := wt.DeclaringModule != currentModule || wt.ProtocolModule != currentModule

	for _, entry := range wt.Entries {
		if entry.ImplName == "" {
			continue
		}
		slot := summary.VirtualMethodSlot{Kind: summary.Witness, DeclGUID: guid.Of(entry.RequirementName)}
		implGUID := guid.Of(entry.ImplName)
		idx.AddImplementation(slot, implGUID)

		if usedExternally {
			idx.Preserve(implGUID, entry.ImplName)
		}
	}
}

// indexVTable registers every entry of vt and applies the two
// preservation triggers: Deallocator/IVarDestroyer slots may always be
// invoked dynamically by the runtime, and an Override slot whose method
// is declared in another module may be called virtually from outside
// this compilation unit.
func indexVTable(idx *summary.ModuleSummaryIndex, currentModule string, vt *ir.VTable) {
	for _, entry := range vt.Entries {
		if entry.ImplName == "" {
			continue
		}
		slot := summary.VirtualMethodSlot{Kind: summary.VTable, DeclGUID: guid.Of(entry.MethodName)}
		implGUID := guid.Of(entry.ImplName)
		idx.AddImplementation(slot, implGUID)

		preserve := entry.Kind == ir.MethodDeallocator || entry.Kind == ir.MethodIVarDestroyer
		if entry.Kind == ir.MethodOverride && entry.DeclaringModule != currentModule {
			preserve = true
		}
		if preserve {
			idx.Preserve(implGUID, entry.ImplName)
		}
	}
}
