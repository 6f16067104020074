package scheduler

import "container/heap"

// eventHeap orders Events by (next_due, -priority, insertion_order), the
// exact key spec §4.4 specifies for the min-heap. Tombstoned entries are
// left in place (removing from a heap mid-slice is awkward and unnecessary)
// and are simply skipped by the ticker on pop.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if !a.nextDue.Equal(b.nextDue) {
		return a.nextDue.Before(b.nextDue)
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority // higher priority sorts first
	}
	return a.insertionSeq < b.insertionSeq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ = heap.Interface(&eventHeap{})
