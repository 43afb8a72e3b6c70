// Package merge combines the per-module summaries produced by separate
// compilation units into one combined index for the liveness engine.
package merge

import (
	"github.com/hupe1980/modsum"
	"github.com/hupe1980/modsum/summary"
)

// CombinedName is the module name every merged index carries, regardless
// of the names of its inputs.
const CombinedName = "combined"

// Merge combines indices by disjoint union: functions unify by GUID
// (the first definition wins; a later module redefining the same GUID is
// a *modsum.MergeError), implementations unify key-wise by set union, and
// usedTypes is left empty, to be recomputed by the liveness engine.
func Merge(indices ...*summary.ModuleSummaryIndex) (*summary.ModuleSummaryIndex, error) {
	combined := summary.New(CombinedName)

	for _, idx := range indices {
		if err := mergeOne(combined, idx); err != nil {
			return nil, err
		}
	}

	return combined, nil
}

func mergeOne(combined, idx *summary.ModuleSummaryIndex) error {
	for g, fs := range idx.Functions {
		existing, ok := combined.Functions[g]
		if !ok {
			// Insert fs as-is: AddFunction would force Defined true,
			// which must stay false for a placeholder carried over from
			// idx until a real definition arrives from another module.
			combined.Functions[g] = fs
			continue
		}

		if isConflictingDuplicate(existing, fs) {
			return &modsum.MergeError{GUID: g, Name: fs.Name}
		}

		existing.Preserved = existing.Preserved || fs.Preserved

		if !existing.Defined && fs.Defined {
			// The real definition arrived after a placeholder created
			// by a preservation mark in another module: adopt its body.
			existing.Name = fs.Name
			existing.Calls = fs.Calls
			existing.TypeRefs = fs.TypeRefs
			existing.Defined = true
		}
	}

	for slot, impls := range idx.Implementations {
		for impl := range impls {
			combined.AddImplementation(slot, impl)
		}
	}

	return nil
}

// isConflictingDuplicate reports whether existing and incoming are
// genuinely two different definitions of the same GUID, rather than one
// of them being an indexer-created placeholder standing in for the
// other. Two placeholders for the same GUID are never conflicting: they
// agree that the GUID is preserved and carry no body to disagree over.
func isConflictingDuplicate(existing, incoming *summary.FunctionSummary) bool {
	return existing.Defined && incoming.Defined
}
