package liveness_test

import (
	"bytes"
	"testing"

	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/liveness"
	"github.com/hupe1980/modsum/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func direct(name string) summary.Call {
	return summary.Call{Kind: summary.Direct, Callee: guid.Of(name), Name: name}
}

func TestTrivialPreservation(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main"})

	res, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.LiveCount)
	assert.True(t, idx.Functions[guid.Of("main")].Live)
}

func TestDirectChain(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main", Calls: []summary.Call{direct("f")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("f"), Name: "f", Calls: []summary.Call{direct("g")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("g"), Name: "g", Calls: []summary.Call{direct("h")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("h"), Name: "h"})

	res, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.LiveCount)
}

func TestDirectChainBrokenEdgeLeavesTailDead(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main", Calls: []summary.Call{direct("f")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("f"), Name: "f", Calls: []summary.Call{direct("g")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("g"), Name: "g"}) // edge g->h removed
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("h"), Name: "h"})

	_, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.False(t, idx.Functions[guid.Of("h")].Live)
}

func TestUnreachedRootRequiresPreservation(t *testing.T) {
	run := func(preserved bool) bool {
		idx := summary.New("A")
		idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main"})
		idx.AddFunction(&summary.FunctionSummary{
			GUID: guid.Of("orphan"), Name: "orphan", Preserved: preserved,
			Calls: []summary.Call{direct("leaf")},
		})
		idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("leaf"), Name: "leaf"})

		_, err := liveness.Run(idx, liveness.Config{})
		require.NoError(t, err)
		return idx.Functions[guid.Of("leaf")].Live
	}

	assert.False(t, run(false))
	assert.True(t, run(true))
}

func TestWitnessDispatch(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{
		GUID: guid.Of("main"), Name: "main",
		Calls: []summary.Call{{Kind: summary.Witness, Callee: guid.Of("P.m"), Name: "P.m"}},
	})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("impl_A"), Name: "impl_A"})
	idx.AddImplementation(summary.VirtualMethodSlot{Kind: summary.Witness, DeclGUID: guid.Of("P.m")}, guid.Of("impl_A"))

	_, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.True(t, idx.Functions[guid.Of("impl_A")].Live)
}

func TestVTableOverridePreservation(t *testing.T) {
	idx := summary.New("combined")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main"})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("D.m"), Name: "D.m", Preserved: true})
	idx.AddImplementation(summary.VirtualMethodSlot{Kind: summary.VTable, DeclGUID: guid.Of("C.m")}, guid.Of("D.m"))

	_, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.True(t, idx.Functions[guid.Of("D.m")].Live)
}

func TestEmptyImplementationSetContributesNothing(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{
		GUID: guid.Of("main"), Name: "main",
		Calls: []summary.Call{{Kind: summary.VTable, Callee: guid.Of("C.m"), Name: "C.m"}},
	})

	res, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.LiveCount)
}

func TestDirectCallToExternalSymbolIsSkipped(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{
		GUID: guid.Of("main"), Name: "main",
		Calls: []summary.Call{direct("extern_symbol")},
	})

	res, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.LiveCount)
}

func TestMainRootWithoutDeclarationIsHarmless(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("orphan"), Name: "orphan"})

	res, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.LiveCount)
}

func TestMonotonicityLiveNeverResets(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main", Calls: []summary.Call{direct("f"), direct("f")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("f"), Name: "f"})

	res, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.LiveCount)
}

func TestRootIdempotence(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main", Calls: []summary.Call{direct("f")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("f"), Name: "f"})

	res1, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	res2, err := liveness.Run(idx, liveness.Config{})
	require.NoError(t, err)
	assert.Equal(t, res1.LiveCount, 2)
	assert.Equal(t, 0, res2.LiveCount, "a second run has nothing left to newly mark live")
}

func TestTraceDump(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("main"), Name: "main", Calls: []summary.Call{direct("f1")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("f1"), Name: "f1", Calls: []summary.Call{direct("f2")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("f2"), Name: "f2", Calls: []summary.Call{direct("f3")}})
	idx.AddFunction(&summary.FunctionSummary{GUID: guid.Of("f3"), Name: "f3"})

	res, err := liveness.Run(idx, liveness.Config{TraceTarget: "f3"})
	require.NoError(t, err)
	require.NotNil(t, res.Trace)

	var buf bytes.Buffer
	require.NoError(t, res.Trace.DumpTo(&buf, liveness.ResolvedNames(idx)))

	out := buf.String()
	assert.Contains(t, out, "f3 ("+guid.Of("f3").String()+") is referenced by:")
	assert.Contains(t, out, " - f2 ("+guid.Of("f2").String()+")")
	assert.Contains(t, out, " - f1 ("+guid.Of("f1").String()+")")
	assert.Contains(t, out, " - main ("+guid.Of("main").String()+")")
}

func TestInternalInvariantOnMissingImplementationTarget(t *testing.T) {
	idx := summary.New("A")
	idx.AddFunction(&summary.FunctionSummary{
		GUID: guid.Of("main"), Name: "main",
		Calls: []summary.Call{{Kind: summary.VTable, Callee: guid.Of("C.m"), Name: "C.m"}},
	})
	// Implementation registered but the GUID it points to was never
	// indexed as a function: violates I2.
	idx.AddImplementation(summary.VirtualMethodSlot{Kind: summary.VTable, DeclGUID: guid.Of("C.m")}, guid.Of("ghost"))

	_, err := liveness.Run(idx, liveness.Config{})
	require.Error(t, err)
}
