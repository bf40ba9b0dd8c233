package sim

import "github.com/rtgs-sim/rtgs-sim/sim/eventlog"

// Event constructors. Each returns an eventlog.Event without tick/day/seq;
// Orchestrator.logEvent stamps those at append time. Details only ever carry
// integer monetary values.

func eventArrival(tx *Transaction) eventlog.Event {
	return eventlog.Event{
		Type:   eventlog.EventArrival,
		Agents: []string{tx.SenderID, tx.ReceiverID},
		TxID:   tx.ID,
		Details: map[string]any{
			"amount":        tx.Amount,
			"priority":      tx.Priority,
			"deadline_tick": tx.DeadlineTick,
			"divisible":     tx.Divisible,
		},
	}
}

func eventPolicySubmit(tx *Transaction, decision string) eventlog.Event {
	return eventlog.Event{
		Type:   eventlog.EventPolicySubmit,
		Agents: []string{tx.SenderID},
		TxID:   tx.ID,
		Details: map[string]any{
			"decision": decision,
			"amount":   tx.RemainingAmount(),
		},
	}
}

func eventSplit(parent, first, second *Transaction) eventlog.Event {
	return eventlog.Event{
		Type:   eventlog.EventTransactionSplit,
		Agents: []string{parent.SenderID},
		TxID:   parent.ID,
		Details: map[string]any{
			"child_tx_ids":  []string{first.ID, second.ID},
			"first_amount":  first.Amount,
			"second_amount": second.Amount,
		},
	}
}

func eventRtgsSettlement(tx *Transaction, amount int64) eventlog.Event {
	return eventlog.Event{
		Type:    eventlog.EventRtgsImmediateSettlement,
		Agents:  []string{tx.SenderID, tx.ReceiverID},
		TxID:    tx.ID,
		Details: map[string]any{"amount": amount},
	}
}

func eventQueue2Release(tx *Transaction, amount int64) eventlog.Event {
	return eventlog.Event{
		Type:    eventlog.EventQueue2LiquidityRelease,
		Agents:  []string{tx.SenderID, tx.ReceiverID},
		TxID:    tx.ID,
		Details: map[string]any{"amount": amount},
	}
}

func eventBilateralOffset(agentA, agentB string, grossAB, grossBA int64, txIDs []string) eventlog.Event {
	return eventlog.Event{
		Type:   eventlog.EventLsmBilateralOffset,
		Agents: []string{agentA, agentB},
		Details: map[string]any{
			"amount_a_to_b": grossAB,
			"amount_b_to_a": grossBA,
			"tx_ids":        txIDs,
		},
	}
}

func eventCycleSettlement(agents []string, legs []map[string]any, txIDs []string) eventlog.Event {
	anyLegs := make([]any, len(legs))
	for i, leg := range legs {
		anyLegs[i] = leg
	}
	return eventlog.Event{
		Type:   eventlog.EventLsmCycleSettlement,
		Agents: agents,
		Details: map[string]any{
			"legs":   anyLegs,
			"tx_ids": txIDs,
		},
	}
}

func eventCollateralPosted(agentID string, amount, newLimit int64) eventlog.Event {
	return eventlog.Event{
		Type:   eventlog.EventCollateralPosted,
		Agents: []string{agentID},
		Details: map[string]any{
			"amount":                      amount,
			"new_allowed_overdraft_limit": newLimit,
		},
	}
}

func eventCollateralWithdrawn(agentID string, amount int64, reason WithdrawReason) eventlog.Event {
	return eventlog.Event{
		Type:   eventlog.EventCollateralWithdrawn,
		Agents: []string{agentID},
		Details: map[string]any{
			"amount": amount,
			"reason": string(reason),
		},
	}
}

func eventScenarioExecuted(scenarioType string, agents []string, details map[string]any) eventlog.Event {
	merged := map[string]any{"scenario_type": scenarioType}
	for k, v := range details {
		merged[k] = v
	}
	return eventlog.Event{
		Type:    eventlog.EventScenarioExecuted,
		Agents:  agents,
		Details: merged,
	}
}

func eventTransactionOverdue(tx *Transaction, penalty int64) eventlog.Event {
	return eventlog.Event{
		Type:   eventlog.EventTransactionOverdue,
		Agents: []string{tx.SenderID, tx.ReceiverID},
		TxID:   tx.ID,
		Details: map[string]any{
			"amount":        tx.RemainingAmount(),
			"deadline_tick": tx.DeadlineTick,
			"penalty":       penalty,
		},
	}
}

func eventForcedSettlement(tx *Transaction, amount int64) eventlog.Event {
	return eventlog.Event{
		Type:    eventlog.EventEodForcedSettlement,
		Agents:  []string{tx.SenderID, tx.ReceiverID},
		TxID:    tx.ID,
		Details: map[string]any{"amount": amount},
	}
}

func eventCostAccrued(total int64, perAgent map[string]int64) eventlog.Event {
	byAgent := make(map[string]any, len(perAgent))
	for id, cost := range perAgent {
		byAgent[id] = cost
	}
	return eventlog.Event{
		Type: eventlog.EventCostAccrued,
		Details: map[string]any{
			"total":    total,
			"by_agent": byAgent,
		},
	}
}
