package feed

import (
	"container/heap"

	"lumen-board/feedcore/internal/models"
)

// itemLess imposes the feed's total order: created_at descending, then
// (type, id) ascending. The deterministic tie-break keeps pagination stable
// across repeated calls over a static dataset.
func itemLess(a, b models.Item) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.ID < b.ID
}

// mergeHead tracks the cursor into one sorted source slice.
type mergeHead struct {
	items []models.Item
	pos   int
}

type mergeHeap []mergeHead

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	return itemLess(h[i].items[h[i].pos], h[j].items[h[j].pos])
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(mergeHead)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	head := old[n-1]
	*h = old[:n-1]
	return head
}

// mergeDesc k-way merges already-sorted slices into one descending sequence,
// stopping once max items have been produced or every source is exhausted.
func mergeDesc(sorted [][]models.Item, max int) []models.Item {
	h := make(mergeHeap, 0, len(sorted))
	for _, items := range sorted {
		if len(items) > 0 {
			h = append(h, mergeHead{items: items})
		}
	}
	heap.Init(&h)

	merged := make([]models.Item, 0, max)
	for len(merged) < max && h.Len() > 0 {
		head := h[0]
		merged = append(merged, head.items[head.pos])
		if head.pos+1 < len(head.items) {
			h[0].pos++
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}
	return merged
}
