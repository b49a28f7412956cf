package trace

import (
	"cmp"
	"slices"
)

var stageRank = map[Stage]int{
	StageContextInit: 0,
	StagePostInit:    1,
	StagePreDraw:     2,
	StageDraw:        3,
	StageSwap:        4,
	StageRelease:     5,
	StageShutdown:    6,
}

// Normalize returns a copy of records ordered by frame, stage, thread and
// viewport, with Seq renumbered from 1.
//
// Render threads interleave their draw records differently on every run.
// Normalized traces of equivalent runs are identical, so they can be
// compared against golden files and digested.
func Normalize(records []Record) []Record {
	out := append([]Record(nil), records...)
	slices.SortStableFunc(out, func(a, b Record) int {
		return cmp.Or(
			cmp.Compare(a.Frame, b.Frame),
			cmp.Compare(stageRank[a.Stage], stageRank[b.Stage]),
			cmp.Compare(a.Thread, b.Thread),
			cmp.Compare(a.Viewport, b.Viewport),
		)
	})
	for i := range out {
		out[i].Seq = int64(i + 1)
	}
	return out
}
