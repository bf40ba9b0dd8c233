// Implements Queue2, the shared RTGS/LSM settlement queue. Transactions land
// here when released from Queue1 but lacking immediate liquidity, and leave
// through liquidity releases, bilateral offsets or cycle settlements.

package sim

import "sort"

// Priority bands used when priority_mode is enabled, mirroring the T2
// urgency classes.
const (
	bandUrgent = 2 // priority 8-10
	bandNormal = 1 // priority 4-7
	bandLow    = 0 // priority 0-3
)

// bandOf maps a transaction priority (0-10) onto its band.
func bandOf(priority int) int {
	switch {
	case priority >= 8:
		return bandUrgent
	case priority >= 4:
		return bandNormal
	default:
		return bandLow
	}
}

// Queue2 is the shared settlement queue. Entry order always mirrors Queue1
// release order (queue2Seq). With priority_mode off, processing order is
// strict FIFO by entry; with it on, bands are processed Urgent, Normal, Low
// with FIFO preserved inside each band.
type Queue2 struct {
	priorityMode bool
	queue        []*Transaction
	nextSeq      int64
}

// NewQueue2 creates an empty Queue2.
func NewQueue2(priorityMode bool) *Queue2 {
	return &Queue2{priorityMode: priorityMode}
}

// Enqueue appends a transaction in release order and stamps its entry
// sequence.
func (q *Queue2) Enqueue(tx *Transaction) {
	if tx == nil {
		panic("Queue2.Enqueue: tx must not be nil")
	}
	tx.queue2Seq = q.nextSeq
	q.nextSeq++
	tx.Status = TxQueued2
	q.queue = append(q.queue, tx)
}

// Remove deletes a transaction by ID. Returns the removed transaction or nil.
func (q *Queue2) Remove(txID string) *Transaction {
	for i, tx := range q.queue {
		if tx.ID == txID {
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			return tx
		}
	}
	return nil
}

// Len returns the number of queued transactions.
func (q *Queue2) Len() int {
	return len(q.queue)
}

// Items returns the queue contents in entry order (NOT processing order).
// Callers within the sim package may iterate but MUST NOT mutate the slice.
func (q *Queue2) Items() []*Transaction {
	return q.queue
}

// ProcessingOrder returns a copy of the queue in the order settlement passes
// must visit it: FIFO by entry when priority_mode is off, band-by-band with
// FIFO inside bands when on.
func (q *Queue2) ProcessingOrder() []*Transaction {
	out := make([]*Transaction, len(q.queue))
	copy(out, q.queue)
	if !q.priorityMode {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].queue2Seq < out[j].queue2Seq
		})
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := bandOf(out[i].Priority), bandOf(out[j].Priority)
		if bi != bj {
			return bi > bj
		}
		return out[i].queue2Seq < out[j].queue2Seq
	})
	return out
}

// QueuedValueBySender sums remaining amounts per sending agent. Used by
// policy contexts and the collateral hysteresis band.
func (q *Queue2) QueuedValueBySender() map[string]int64 {
	totals := make(map[string]int64)
	for _, tx := range q.queue {
		totals[tx.SenderID] += tx.RemainingAmount()
	}
	return totals
}

// TotalValue returns the summed remaining amounts across the whole queue.
func (q *Queue2) TotalValue() int64 {
	var total int64
	for _, tx := range q.queue {
		total += tx.RemainingAmount()
	}
	return total
}
