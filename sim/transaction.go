package sim

import "fmt"

// TxStatus is the lifecycle state of a transaction.
type TxStatus string

const (
	// TxPending means the transaction exists but has not entered Queue1 yet.
	TxPending TxStatus = "Pending"
	// TxQueued1 means the transaction sits in the sender's internal queue.
	TxQueued1 TxStatus = "Queued1"
	// TxQueued2 means the transaction was released and waits in the shared
	// RTGS/LSM queue for liquidity.
	TxQueued2 TxStatus = "Queued2"
	// TxSettled means the full amount has settled.
	TxSettled TxStatus = "Settled"
	// TxPartiallySettled means some but not all value has settled
	// (only possible for divisible transactions via splitting).
	TxPartiallySettled TxStatus = "PartiallySettled"
	// TxOverdue means the transaction passed its deadline unsettled and was
	// penalized at end of day.
	TxOverdue TxStatus = "Overdue"
)

// Transaction is a single payment obligation between two agents.
// All monetary fields are integer minor units; floats never touch money.
type Transaction struct {
	ID             string
	SenderID       string
	ReceiverID     string
	Amount         int64
	Priority       int // 0..10
	ArrivalTick    int64
	DeadlineTick   int64
	Divisible      bool
	Status         TxStatus
	SettlementTick *int64
	AmountSettled  int64

	// Split lineage. Children of a split reference their parent; SplitIndex
	// orders siblings deterministically.
	ParentTxID string
	SplitIndex int

	// queue2Seq is the entry order into Queue2, assigned on enqueue.
	// It mirrors Queue1 release order and is the FIFO key inside bands.
	queue2Seq int64
}

// RemainingAmount returns the unsettled portion of the obligation.
func (t *Transaction) RemainingAmount() int64 {
	return t.Amount - t.AmountSettled
}

// MarkSettled records full settlement at the given tick.
// Panics if the transaction would over-settle; amount_settled may never
// exceed amount.
func (t *Transaction) MarkSettled(tick int64) {
	t.AmountSettled = t.Amount
	t.Status = TxSettled
	t.SettlementTick = &tick
}

// RecordPartial adds a settled portion without completing the transaction.
func (t *Transaction) RecordPartial(amount int64, tick int64) {
	if amount <= 0 || t.AmountSettled+amount > t.Amount {
		panic(fmt.Sprintf("RecordPartial: tx %s settled %d + %d exceeds amount %d",
			t.ID, t.AmountSettled, amount, t.Amount))
	}
	t.AmountSettled += amount
	if t.AmountSettled == t.Amount {
		t.Status = TxSettled
		t.SettlementTick = &tick
	} else {
		t.Status = TxPartiallySettled
	}
}

// Split divides a divisible transaction into two child transactions whose
// amounts sum to the parent's remaining amount. The parent leaves the queueing
// system; the children inherit priority, deadline and divisibility.
// firstAmount must be in (0, remaining).
func (t *Transaction) Split(firstAmount int64, idGen func() string) (*Transaction, *Transaction, error) {
	if !t.Divisible {
		return nil, nil, fmt.Errorf("tx %s is not divisible", t.ID)
	}
	remaining := t.RemainingAmount()
	if firstAmount <= 0 || firstAmount >= remaining {
		return nil, nil, fmt.Errorf("tx %s: split amount %d out of range (0, %d)", t.ID, firstAmount, remaining)
	}
	child := func(idx int, amount int64) *Transaction {
		return &Transaction{
			ID:           idGen(),
			SenderID:     t.SenderID,
			ReceiverID:   t.ReceiverID,
			Amount:       amount,
			Priority:     t.Priority,
			ArrivalTick:  t.ArrivalTick,
			DeadlineTick: t.DeadlineTick,
			Divisible:    t.Divisible,
			Status:       TxPending,
			ParentTxID:   t.ID,
			SplitIndex:   idx,
		}
	}
	a := child(0, firstAmount)
	b := child(1, remaining-firstAmount)
	return a, b, nil
}
