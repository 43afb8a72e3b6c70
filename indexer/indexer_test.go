package indexer_test

import (
	"testing"

	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/indexer"
	"github.com/hupe1980/modsum/ir"
	"github.com/hupe1980/modsum/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexDirectCall(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		Functions: []ir.Function{
			{Name: "main", Instructions: []ir.Instruction{{Kind: ir.FunctionRef, CalleeName: "f"}}},
			{Name: "f"},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)

	main := idx.Functions[guid.Of("main")]
	require.NotNil(t, main)
	require.Len(t, main.Calls, 1)
	assert.Equal(t, summary.Direct, main.Calls[0].Kind)
	assert.Equal(t, guid.Of("f"), main.Calls[0].Callee)
}

func TestIndexObjCCompatiblePreserved(t *testing.T) {
	mod := ir.Module{
		Name:      "A",
		Functions: []ir.Function{{Name: "objcMethod", ObjCCompatible: true}},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)
	assert.True(t, idx.Functions[guid.Of("objcMethod")].Preserved)
}

func TestIndexCReferencedPreserved(t *testing.T) {
	mod := ir.Module{
		Name:      "A",
		Functions: []ir.Function{{Name: "cFunc", HasCReferences: true}},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)
	assert.True(t, idx.Functions[guid.Of("cFunc")].Preserved)
}

func TestIndexWitnessTableExternalPreservation(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		WitnessTables: []ir.WitnessTable{
			{
				ProtocolName:    "P",
				ProtocolModule:  "B",
				DeclaringModule: "A",
				Entries:         []ir.WitnessEntry{{RequirementName: "P.m", ImplName: "impl_A"}},
			},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)

	slot := summary.VirtualMethodSlot{Kind: summary.Witness, DeclGUID: guid.Of("P.m")}
	_, has := idx.Implementations[slot][guid.Of("impl_A")]
	assert.True(t, has)
	assert.True(t, idx.Functions[guid.Of("impl_A")].Preserved)
}

func TestIndexWitnessTableInternalNotPreserved(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		WitnessTables: []ir.WitnessTable{
			{
				ProtocolName:    "P",
				ProtocolModule:  "A",
				DeclaringModule: "A",
				Entries:         []ir.WitnessEntry{{RequirementName: "P.m", ImplName: "impl_A"}},
			},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)
	fs, ok := idx.Functions[guid.Of("impl_A")]
	if ok {
		assert.False(t, fs.Preserved)
	}
}

func TestIndexVTableDeallocatorAlwaysPreserved(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		VTables: []ir.VTable{
			{
				ClassName: "C",
				Entries: []ir.VTableEntry{
					{MethodName: "C.deinit", ImplName: "C.deinit.impl", Kind: ir.MethodDeallocator, DeclaringModule: "A"},
				},
			},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)
	assert.True(t, idx.Functions[guid.Of("C.deinit.impl")].Preserved)
}

func TestIndexVTableExternalOverridePreserved(t *testing.T) {
	mod := ir.Module{
		Name: "M2",
		VTables: []ir.VTable{
			{
				ClassName: "D",
				Entries: []ir.VTableEntry{
					{MethodName: "C.m", ImplName: "D.m", Kind: ir.MethodOverride, DeclaringModule: "M1"},
				},
			},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)
	assert.True(t, idx.Functions[guid.Of("D.m")].Preserved)
}

func TestIndexVTableInternalOverrideNotPreserved(t *testing.T) {
	mod := ir.Module{
		Name: "M1",
		VTables: []ir.VTable{
			{
				ClassName: "D",
				Entries: []ir.VTableEntry{
					{MethodName: "C.m", ImplName: "D.m", Kind: ir.MethodOverride, DeclaringModule: "M1"},
				},
			},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)
	fs, ok := idx.Functions[guid.Of("D.m")]
	if ok {
		assert.False(t, fs.Preserved)
	}
}

func TestIndexKeyPathPreservesFunctionAndMethod(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		KeyPaths: []ir.KeyPathDescriptor{
			{
				Name: "\\C.prop",
				Components: []ir.KeyPathComponent{
					{Kind: ir.KeyPathComponentFunction, Name: "getter"},
					{Kind: ir.KeyPathComponentMethod, Name: "C.setter", Context: ir.ContextClass},
				},
			},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)
	assert.True(t, idx.Functions[guid.Of("getter")].Preserved)
	assert.True(t, idx.Functions[guid.Of("C.setter")].Preserved)
}

func TestIndexInBodyKeyPathEmitsCallEdgesNotPreservation(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		Functions: []ir.Function{
			{
				Name: "makeKeyPath",
				Instructions: []ir.Instruction{
					{
						Kind: ir.KeyPathRef,
						KeyPath: &ir.KeyPathDescriptor{
							Name: "\\C.prop",
							Components: []ir.KeyPathComponent{
								{Kind: ir.KeyPathComponentFunction, Name: "getter"},
								{Kind: ir.KeyPathComponentMethod, Name: "C.setter", Context: ir.ContextClass},
								{Kind: ir.KeyPathComponentMethod, Name: "P.req", Context: ir.ContextProtocol},
							},
						},
					},
				},
			},
		},
	}

	idx, err := indexer.Index(mod)
	require.NoError(t, err)

	caller := idx.Functions[guid.Of("makeKeyPath")]
	require.NotNil(t, caller)
	require.Len(t, caller.Calls, 3)
	assert.Equal(t, summary.Direct, caller.Calls[0].Kind)
	assert.Equal(t, guid.Of("getter"), caller.Calls[0].Callee)
	assert.Equal(t, summary.VTable, caller.Calls[1].Kind)
	assert.Equal(t, guid.Of("C.setter"), caller.Calls[1].Callee)
	assert.Equal(t, summary.Witness, caller.Calls[2].Kind)
	assert.Equal(t, guid.Of("P.req"), caller.Calls[2].Callee)

	// None of the referenced callees exist in this module, so none of
	// them were indexed, let alone preserved: a key-path in a function
	// body is an ordinary, transitively-reachable use site.
	_, hasGetter := idx.Functions[guid.Of("getter")]
	assert.False(t, hasGetter)
}

func TestIndexInBodyKeyPathMethodWithoutContextIsError(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		Functions: []ir.Function{
			{
				Name: "makeKeyPath",
				Instructions: []ir.Instruction{
					{
						Kind: ir.KeyPathRef,
						KeyPath: &ir.KeyPathDescriptor{
							Name: "\\bad",
							Components: []ir.KeyPathComponent{
								{Kind: ir.KeyPathComponentMethod, Name: "orphan.m", Context: ir.ContextNone},
							},
						},
					},
				},
			},
		},
	}

	_, err := indexer.Index(mod)
	assert.Error(t, err)
}

func TestIndexKeyPathMethodWithoutContextIsError(t *testing.T) {
	mod := ir.Module{
		Name: "A",
		KeyPaths: []ir.KeyPathDescriptor{
			{
				Name: "\\bad",
				Components: []ir.KeyPathComponent{
					{Kind: ir.KeyPathComponentMethod, Name: "orphan.m", Context: ir.ContextNone},
				},
			},
		},
	}

	_, err := indexer.Index(mod)
	assert.Error(t, err)
}
