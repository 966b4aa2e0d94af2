// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package budget distributes a requested word count across outline sections.
package budget

import "github.com/pdiddy/outline-engine/pkg/types"

// Intro and conclusion each receive this percentage of the total (floored).
const edgePercent = 12

// Allocate returns copies of sections whose TargetWords sum exactly to
// total. The first section is the introduction and the last the
// conclusion; interior sections share the remainder evenly, with leftover
// words going to the earliest interior sections. A single section gets
// everything; two sections split the interior share, the first taking the
// odd word. A negative total is treated as zero.
func Allocate(sections []types.OutlineSection, total int) []types.OutlineSection {
	out := types.CloneSections(sections)
	n := len(out)
	if n == 0 {
		return out
	}
	total = max(total, 0)
	if n == 1 {
		out[0].TargetWords = total
		return out
	}

	intro := total * edgePercent / 100
	conclusion := total * edgePercent / 100
	rest := total - intro - conclusion

	if n == 2 {
		half := rest / 2
		out[0].TargetWords = intro + half + rest%2
		out[1].TargetWords = conclusion + half
		return out
	}

	interior := n - 2
	share, remainder := rest/interior, rest%interior
	out[0].TargetWords = intro
	for i := 1; i <= interior; i++ {
		out[i].TargetWords = share
		if i <= remainder {
			out[i].TargetWords++
		}
	}
	out[n-1].TargetWords = conclusion
	return out
}
