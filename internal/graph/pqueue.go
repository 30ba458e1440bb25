// Generic min-priority queue backing the Dijkstra frontiers.
package graph

import "container/heap"

type pqItem[T any] struct {
	value    T
	priority float64
}

type pqHeap[T any] []pqItem[T]

func (h pqHeap[T]) Len() int           { return len(h) }
func (h pqHeap[T]) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h pqHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *pqHeap[T]) Push(x any)        { *h = append(*h, x.(pqItem[T])) }
func (h *pqHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// minQueue pops values in ascending priority order.
type minQueue[T any] struct {
	h pqHeap[T]
}

func (q *minQueue[T]) push(value T, priority float64) {
	heap.Push(&q.h, pqItem[T]{value: value, priority: priority})
}

func (q *minQueue[T]) pop() (T, float64) {
	item := heap.Pop(&q.h).(pqItem[T])
	return item.value, item.priority
}

func (q *minQueue[T]) empty() bool {
	return len(q.h) == 0
}
