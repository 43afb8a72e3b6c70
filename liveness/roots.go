package liveness

import (
	"github.com/hupe1980/modsum/guid"
	"github.com/hupe1980/modsum/summary"
)

// MainGUID is the GUID of the literal symbol name "main".
var MainGUID = guid.Of("main")

// Roots computes the root set: every preserved function, plus "main"
// whether or not any summary declares it.
func Roots(idx *summary.ModuleSummaryIndex) []guid.GUID {
	roots := []guid.GUID{MainGUID}
	for g, fs := range idx.Functions {
		if fs.Preserved && g != MainGUID {
			roots = append(roots, g)
		}
	}
	return roots
}
