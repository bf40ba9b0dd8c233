package sim

import "github.com/sirupsen/logrus"

// Immediate RTGS settlement and the liquidity-release scan over Queue2.
// Multi-party netting lives in lsm.go; both share the transfer primitive.

// transfer moves amount from sender to receiver. The caller must have
// verified liquidity; the assertion backstops the invariant the checks
// exist to preserve.
func transfer(sender, receiver *Agent, amount int64) {
	sender.Balance -= amount
	receiver.Balance += amount
	assertInvariant(sender.WithinCreditLimit(), "agent %s breached credit limit paying %d", sender.ID, amount)
}

// trySettleImmediate attempts gross settlement of the transaction's
// remaining amount. Returns true if it settled.
func (o *Orchestrator) trySettleImmediate(tx *Transaction, tick int64) bool {
	sender := o.agents[tx.SenderID]
	receiver := o.agents[tx.ReceiverID]
	amount := tx.RemainingAmount()
	if !sender.CanPay(amount) {
		return false
	}
	transfer(sender, receiver, amount)
	tx.MarkSettled(tick)
	return true
}

// releaseQueue2Liquidity scans Queue2 in processing order and settles every
// transaction whose sender now has the liquidity, logging each as a
// Queue2LiquidityRelease. Runs every tick: settlements earlier in the scan
// can free liquidity for later entries, so the scan repeats until a full
// pass settles nothing.
func (o *Orchestrator) releaseQueue2Liquidity(tick int64) int {
	released := 0
	for {
		progress := false
		for _, tx := range o.queue2.ProcessingOrder() {
			sender := o.agents[tx.SenderID]
			amount := tx.RemainingAmount()
			if !sender.CanPay(amount) {
				continue
			}
			transfer(sender, o.agents[tx.ReceiverID], amount)
			o.queue2.Remove(tx.ID)
			tx.MarkSettled(tick)
			o.recordSettlement(tx, false)
			o.logEvent(eventQueue2Release(tx, amount))
			released++
			progress = true
		}
		if !progress {
			return released
		}
		logrus.Debugf("[tick %07d] liquidity release pass freed more liquidity, rescanning", tick)
	}
}
