package docstore

import (
	"slices"
	"strings"
)

// Sort orders docs in place according to q. Documents missing the field go
// last regardless of direction; ties break on ID.
func Sort(docs []Document, q Query) {
	if q.OrderBy == "" {
		slices.SortFunc(docs, func(a, b Document) int { return strings.Compare(a.ID, b.ID) })
		return
	}
	slices.SortStableFunc(docs, func(a, b Document) int {
		va, okA := Field(a.Data, q.OrderBy)
		vb, okB := Field(b.Data, q.OrderBy)
		switch {
		case !okA && !okB:
			return strings.Compare(a.ID, b.ID)
		case !okA:
			return 1
		case !okB:
			return -1
		}
		c := Compare(va, vb)
		if q.Direction == Desc {
			c = -c
		}
		if c == 0 {
			return strings.Compare(a.ID, b.ID)
		}
		return c
	})
}
