// Package eventlog provides the append-only event record types for the
// settlement engine. This package has no dependencies on sim/ -- it stores
// pure data types, and the log's total order (tick, sequence) is the replay
// contract.
package eventlog

// EventType identifies the kind of an event record.
type EventType string

const (
	// EventArrival records a new transaction entering an agent's Queue1.
	EventArrival EventType = "Arrival"
	// EventPolicySubmit records a payment-tree decision for one transaction.
	EventPolicySubmit EventType = "PolicySubmit"
	// EventTransactionSplit records a divisible transaction split in two.
	EventTransactionSplit EventType = "TransactionSplit"
	// EventRtgsImmediateSettlement records an immediate gross settlement.
	EventRtgsImmediateSettlement EventType = "RtgsImmediateSettlement"
	// EventQueue2LiquidityRelease records a queued transaction settling once
	// liquidity became available.
	EventQueue2LiquidityRelease EventType = "Queue2LiquidityRelease"
	// EventLsmBilateralOffset records an atomic bilateral netting.
	EventLsmBilateralOffset EventType = "LsmBilateralOffset"
	// EventLsmCycleSettlement records an atomic multilateral cycle netting.
	EventLsmCycleSettlement EventType = "LsmCycleSettlement"
	// EventCollateralPosted records a successful collateral post.
	EventCollateralPosted EventType = "CollateralPosted"
	// EventCollateralWithdrawn records a successful collateral withdrawal.
	EventCollateralWithdrawn EventType = "CollateralWithdrawn"
	// EventScenarioExecuted records an exogenous scenario event firing.
	EventScenarioExecuted EventType = "ScenarioEventExecuted"
	// EventTransactionOverdue records a transaction passing its deadline
	// unsettled at end of day.
	EventTransactionOverdue EventType = "TransactionOverdue"
	// EventEodForcedSettlement records an end-of-day forced settlement of a
	// past-deadline queued transaction.
	EventEodForcedSettlement EventType = "EodForcedSettlement"
	// EventCostAccrued records the per-tick cost accrual across agents.
	EventCostAccrued EventType = "CostAccrued"
)

// Event is one record in the append-only log.
//
// Agents holds the canonical acting-agent list: [sender, receiver] for
// transfers, [agent] for single-agent events, the full ring for cycle
// settlements. Details carries the variant-specific payload with integer
// monetary values.
type Event struct {
	Seq     int64          `json:"seq"`
	Tick    int64          `json:"tick"`
	Day     int64          `json:"day"`
	Type    EventType      `json:"event_type"`
	Agents  []string       `json:"agents,omitempty"`
	TxID    string         `json:"tx_id,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// AgentAliases enumerates every historical field name downstream filters use
// for "the acting agent". DetailsWithAliases populates all of them so no
// consumer's filter silently misses events.
var AgentAliases = []string{
	"sender_id", "sender", "agent_id", "agent_a", "agent_b", "agents", "agent_ids",
}

// DetailsWithAliases returns a copy of the event details with every accepted
// acting-agent alias filled in from the canonical Agents list. The canonical
// representation stays internal; this is the boundary form.
func (e *Event) DetailsWithAliases() map[string]any {
	out := make(map[string]any, len(e.Details)+len(AgentAliases))
	for k, v := range e.Details {
		out[k] = v
	}
	if len(e.Agents) == 0 {
		return out
	}
	out["agents"] = append([]string(nil), e.Agents...)
	out["agent_ids"] = append([]string(nil), e.Agents...)
	out["agent_id"] = e.Agents[0]
	out["sender_id"] = e.Agents[0]
	out["sender"] = e.Agents[0]
	out["agent_a"] = e.Agents[0]
	if len(e.Agents) > 1 {
		out["agent_b"] = e.Agents[1]
	}
	return out
}
