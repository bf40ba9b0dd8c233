package sim

import "testing"

func q1tx(id string, priority int, deadline int64) *Transaction {
	return &Transaction{ID: id, Amount: 100, Priority: priority, DeadlineTick: deadline}
}

func queueIDs(q *Queue1) []string {
	var ids []string
	for _, tx := range q.Items() {
		ids = append(ids, tx.ID)
	}
	return ids
}

// === Queue1 Tests ===

func TestQueue1_FIFOKeepsArrivalOrder(t *testing.T) {
	// BDD: FIFO discipline never reorders, regardless of priority
	q := NewQueue1(Queue1FIFO)
	q.Enqueue(q1tx("t1", 1, 50))
	q.Enqueue(q1tx("t2", 9, 10))
	q.Enqueue(q1tx("t3", 5, 30))

	got := queueIDs(q)
	want := []string{"t1", "t2", "t3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestQueue1_PriorityDeadlineOrdering(t *testing.T) {
	// BDD: priority desc, deadline asc, then arrival order
	q := NewQueue1(Queue1PriorityDeadline)
	q.Enqueue(q1tx("low", 2, 20))
	q.Enqueue(q1tx("high_late", 9, 80))
	q.Enqueue(q1tx("high_early", 9, 10))
	q.Enqueue(q1tx("mid", 5, 5))

	got := queueIDs(q)
	want := []string{"high_early", "high_late", "mid", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestQueue1_EqualKeysKeepArrivalOrder(t *testing.T) {
	// BDD: fully tied transactions stay in arrival order (stable)
	q := NewQueue1(Queue1PriorityDeadline)
	q.Enqueue(q1tx("a", 5, 10))
	q.Enqueue(q1tx("b", 5, 10))
	q.Enqueue(q1tx("c", 5, 10))

	got := queueIDs(q)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestQueue1_RemoveAndTotals(t *testing.T) {
	q := NewQueue1(Queue1FIFO)
	q.Enqueue(&Transaction{ID: "t1", Amount: 100})
	q.Enqueue(&Transaction{ID: "t2", Amount: 250})

	if q.TotalValue() != 350 {
		t.Errorf("TotalValue = %d, want 350", q.TotalValue())
	}
	removed := q.Remove("t1")
	if removed == nil || removed.ID != "t1" {
		t.Fatalf("Remove(t1) = %v", removed)
	}
	if q.Len() != 1 || q.TotalValue() != 250 {
		t.Errorf("after remove: len=%d value=%d, want 1/250", q.Len(), q.TotalValue())
	}
	if q.Remove("missing") != nil {
		t.Error("Remove of unknown ID should return nil")
	}
}

func TestQueue1_PartialSettlementValue(t *testing.T) {
	// BDD: TotalValue sums remaining, not original, amounts
	q := NewQueue1(Queue1FIFO)
	tx := &Transaction{ID: "t1", Amount: 100, Divisible: true}
	tx.AmountSettled = 40
	q.Enqueue(tx)
	if q.TotalValue() != 60 {
		t.Errorf("TotalValue = %d, want 60", q.TotalValue())
	}
}
