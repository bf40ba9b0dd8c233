package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Liquidity-saving mechanism: bilateral offsetting followed by multilateral
// cycle netting over Queue2. Both are atomic: a netting commits for every
// participant or for none.
//
// Deterministic tie-break rule (replay depends on it): agent pairs are
// visited in ascending lexicographic order of (low ID, high ID); cycle
// discovery starts from agents in ascending ID order and DFS visits
// neighbors in ascending ID order; the first feasible cycle found settles,
// then the search restarts on the reduced queue.

// runLSMPass executes one full LSM pass. Returns the number of transactions
// settled by netting.
func (o *Orchestrator) runLSMPass(tick int64) int {
	settled := o.bilateralPass(tick)
	settled += o.cyclePass(tick)
	return settled
}

// pairKey orders two agent IDs lexicographically.
type pairKey struct {
	a, b string
}

func makePairKey(x, y string) pairKey {
	if x < y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// bilateralPass nets opposing queued obligations per agent pair. All queued
// transactions between the pair settle simultaneously; only the net payer
// needs headroom for the net amount. Either every leg commits or none does.
func (o *Orchestrator) bilateralPass(tick int64) int {
	byPair := make(map[pairKey][]*Transaction)
	for _, tx := range o.queue2.Items() {
		byPair[makePairKey(tx.SenderID, tx.ReceiverID)] = append(
			byPair[makePairKey(tx.SenderID, tx.ReceiverID)], tx)
	}
	pairs := make([]pairKey, 0, len(byPair))
	for k := range byPair {
		pairs = append(pairs, k)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	settled := 0
	for _, pk := range pairs {
		txs := byPair[pk]
		var grossAB, grossBA int64
		for _, tx := range txs {
			if tx.SenderID == pk.a {
				grossAB += tx.RemainingAmount()
			} else {
				grossBA += tx.RemainingAmount()
			}
		}
		if grossAB == 0 || grossBA == 0 {
			continue // nothing opposing to offset
		}
		agentA, agentB := o.agents[pk.a], o.agents[pk.b]

		// Tentatively apply the net transfer and verify both credit lines.
		agentA.Balance += grossBA - grossAB
		agentB.Balance += grossAB - grossBA
		if !agentA.WithinCreditLimit() || !agentB.WithinCreditLimit() {
			agentA.Balance -= grossBA - grossAB
			agentB.Balance -= grossAB - grossBA
			logrus.Debugf("[tick %07d] bilateral offset %s<->%s rejected: would breach credit limit", tick, pk.a, pk.b)
			continue
		}

		txIDs := make([]string, 0, len(txs))
		for _, tx := range txs {
			o.queue2.Remove(tx.ID)
			tx.MarkSettled(tick)
			o.recordSettlement(tx, true)
			txIDs = append(txIDs, tx.ID)
			settled++
		}
		o.logEvent(eventBilateralOffset(pk.a, pk.b, grossAB, grossBA, txIDs))
		logrus.Infof("[tick %07d] bilateral offset %s<->%s settled %d txs (gross %d / %d)",
			tick, pk.a, pk.b, len(txIDs), grossAB, grossBA)
	}
	return settled
}

// cycleLeg is one edge of a settlement cycle: the earliest queued
// transaction from one agent to the next.
type cycleLeg struct {
	tx *Transaction
}

// cyclePass finds and settles obligation cycles. Each discovered cycle
// settles one transaction per edge simultaneously; a cycle that would breach
// any participant's credit limit is rejected in full and the search
// continues.
func (o *Orchestrator) cyclePass(tick int64) int {
	settled := 0
	for {
		legs := o.findFeasibleCycle()
		if legs == nil {
			return settled
		}
		agents := make([]string, 0, len(legs))
		details := make([]map[string]any, 0, len(legs))
		txIDs := make([]string, 0, len(legs))
		for _, leg := range legs {
			tx := leg.tx
			o.queue2.Remove(tx.ID)
			tx.MarkSettled(tick)
			o.recordSettlement(tx, true)
			agents = append(agents, tx.SenderID)
			txIDs = append(txIDs, tx.ID)
			details = append(details, map[string]any{
				"sender_id":   tx.SenderID,
				"receiver_id": tx.ReceiverID,
				"amount":      tx.Amount,
				"tx_id":       tx.ID,
			})
			settled++
		}
		o.logEvent(eventCycleSettlement(agents, details, txIDs))
		logrus.Infof("[tick %07d] cycle settlement across %v (%d legs)", tick, agents, len(legs))
	}
}

// earliestTxPerEdge maps each (sender, receiver) edge to the queued
// transaction with the lowest Queue2 entry sequence.
func (o *Orchestrator) earliestTxPerEdge() map[string]map[string]*Transaction {
	edges := make(map[string]map[string]*Transaction)
	for _, tx := range o.queue2.Items() {
		m, ok := edges[tx.SenderID]
		if !ok {
			m = make(map[string]*Transaction)
			edges[tx.SenderID] = m
		}
		if prev, ok := m[tx.ReceiverID]; !ok || tx.queue2Seq < prev.queue2Seq {
			m[tx.ReceiverID] = tx
		}
	}
	return edges
}

// findFeasibleCycle returns the legs of the first cycle (per the documented
// tie-break) whose simultaneous settlement keeps every participant within
// its credit limit,
// or nil if none exists. Applies the balance deltas as a side effect when a
// cycle is found.
func (o *Orchestrator) findFeasibleCycle() []cycleLeg {
	edges := o.earliestTxPerEdge()
	starts := make([]string, 0, len(edges))
	for id := range edges {
		starts = append(starts, id)
	}
	sort.Strings(starts)

	for _, start := range starts {
		if legs := o.dfsCycle(start, start, edges, map[string]bool{start: true}, nil); legs != nil {
			return legs
		}
	}
	return nil
}

// dfsCycle walks edges depth-first from current, looking for a path back to
// start. Neighbors are visited in ascending ID order. On closing a cycle it
// checks feasibility; infeasible cycles are skipped and the search
// continues.
func (o *Orchestrator) dfsCycle(start, current string, edges map[string]map[string]*Transaction, onPath map[string]bool, path []cycleLeg) []cycleLeg {
	neighbors := make([]string, 0, len(edges[current]))
	for n := range edges[current] {
		neighbors = append(neighbors, n)
	}
	sort.Strings(neighbors)

	for _, next := range neighbors {
		leg := cycleLeg{tx: edges[current][next]}
		if next == start && len(path) >= 1 {
			candidate := append(append([]cycleLeg(nil), path...), leg)
			if o.applyCycleIfFeasible(candidate) {
				return candidate
			}
			continue
		}
		if onPath[next] {
			continue
		}
		onPath[next] = true
		if legs := o.dfsCycle(start, next, edges, onPath, append(path, leg)); legs != nil {
			return legs
		}
		delete(onPath, next)
	}
	return nil
}

// applyCycleIfFeasible tentatively applies the cycle's net balance deltas
// and verifies every participant's credit limit. On any breach the whole
// cycle is rolled back and rejected; netting is never partially applied.
func (o *Orchestrator) applyCycleIfFeasible(legs []cycleLeg) bool {
	deltas := make(map[string]int64)
	for _, leg := range legs {
		deltas[leg.tx.SenderID] -= leg.tx.RemainingAmount()
		deltas[leg.tx.ReceiverID] += leg.tx.RemainingAmount()
	}
	for id, delta := range deltas {
		o.agents[id].Balance += delta
	}
	for id := range deltas {
		if !o.agents[id].WithinCreditLimit() {
			for rid, delta := range deltas {
				o.agents[rid].Balance -= delta
			}
			return false
		}
	}
	return true
}
