// Implements Queue1, the per-agent holding queue for transactions awaiting a
// Release/Hold/Split decision from the agent's payment tree.

package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Queue1Ordering selects the discipline used to order an agent's Queue1.
type Queue1Ordering string

const (
	// Queue1FIFO orders by arrival (insertion order).
	Queue1FIFO Queue1Ordering = "fifo"
	// Queue1PriorityDeadline orders by priority descending, deadline
	// ascending as tie-break, then arrival order.
	Queue1PriorityDeadline Queue1Ordering = "priority_deadline"
)

// validQueue1Orderings maps accepted queue1_ordering strings.
var validQueue1Orderings = map[Queue1Ordering]bool{
	Queue1FIFO:             true,
	Queue1PriorityDeadline: true,
	"":                     true, // empty defaults to fifo
}

// Queue1 is one agent's internal payment queue. Iteration order is the
// decision order the payment tree sees each tick.
type Queue1 struct {
	ordering Queue1Ordering
	queue    []*Transaction
	nextSeq  int64
	seq      map[string]int64 // tx ID -> insertion sequence, the final tie-break
}

// NewQueue1 creates an empty Queue1 with the given discipline.
func NewQueue1(ordering Queue1Ordering) *Queue1 {
	if ordering == "" {
		ordering = Queue1FIFO
	}
	return &Queue1{ordering: ordering, seq: make(map[string]int64)}
}

// Enqueue adds a transaction and restores the discipline's order.
func (q *Queue1) Enqueue(tx *Transaction) {
	if tx == nil {
		panic("Queue1.Enqueue: tx must not be nil")
	}
	q.seq[tx.ID] = q.nextSeq
	q.nextSeq++
	q.queue = append(q.queue, tx)
	q.sort()
}

// Remove deletes a transaction by ID. Returns the removed transaction or nil.
func (q *Queue1) Remove(txID string) *Transaction {
	for i, tx := range q.queue {
		if tx.ID == txID {
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			delete(q.seq, txID)
			return tx
		}
	}
	return nil
}

// Len returns the number of queued transactions.
func (q *Queue1) Len() int {
	return len(q.queue)
}

// TotalValue returns the summed remaining amounts of all queued transactions.
func (q *Queue1) TotalValue() int64 {
	var total int64
	for _, tx := range q.queue {
		total += tx.RemainingAmount()
	}
	return total
}

// Items returns the queue contents in decision order. The returned slice is
// the queue's internal storage -- callers within the sim package may iterate
// over it but MUST NOT append to or reslice it.
func (q *Queue1) Items() []*Transaction {
	return q.queue
}

func (q *Queue1) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, tx := range q.queue {
		sb.WriteString(fmt.Sprintf("%s(%d)", tx.ID, tx.RemainingAmount()))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// sort re-applies the configured discipline. FIFO never reorders; the
// priority-deadline discipline is a stable sort over (priority desc,
// deadline asc) with insertion sequence as the final key, so equal
// transactions keep arrival order.
func (q *Queue1) sort() {
	if q.ordering == Queue1FIFO {
		return
	}
	sort.SliceStable(q.queue, func(i, j int) bool {
		a, b := q.queue[i], q.queue[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.DeadlineTick != b.DeadlineTick {
			return a.DeadlineTick < b.DeadlineTick
		}
		return q.seq[a.ID] < q.seq[b.ID]
	})
}
