package sim

import (
	"encoding/json"

	"github.com/rtgs-sim/rtgs-sim/sim/eventlog"
	"github.com/rtgs-sim/rtgs-sim/sim/policy"
)

// Public query and command surface of the orchestrator. Commands are only
// legal between ticks; queries never mutate.

// SubmitTransaction injects a payment obligation directly, bypassing the
// stochastic arrival process. Returns the minted transaction ID on success.
func (o *Orchestrator) SubmitTransaction(senderID, receiverID string, amount int64, priority int, deadlineTick int64, divisible bool) (string, OpResult) {
	if _, ok := o.agents[senderID]; !ok {
		return "", Rejected(RejectUnknownAgent, "unknown sender %q", senderID)
	}
	if _, ok := o.agents[receiverID]; !ok {
		return "", Rejected(RejectUnknownAgent, "unknown receiver %q", receiverID)
	}
	if senderID == receiverID {
		return "", Rejected(RejectInvalidAmount, "sender and receiver must differ")
	}
	if amount <= 0 {
		return "", Rejected(RejectInvalidAmount, "amount must be positive, got %d", amount)
	}
	if priority < 0 || priority > 10 {
		return "", Rejected(RejectInvalidAmount, "priority %d out of [0, 10]", priority)
	}

	tick := o.clock.CurrentTick()
	if tick < 0 {
		tick = 0
	}
	tx := &Transaction{
		ID:           o.mintTxID(),
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Amount:       amount,
		Priority:     priority,
		ArrivalTick:  tick,
		DeadlineTick: deadlineTick,
		Divisible:    divisible,
		Status:       TxPending,
	}
	o.registerArrival(tx, tick)
	return tx.ID, Accepted()
}

// PostCollateral posts gross collateral for an agent and logs the event.
func (o *Orchestrator) PostCollateral(agentID string, amount int64) OpResult {
	agent, ok := o.agents[agentID]
	if !ok {
		return Rejected(RejectUnknownAgent, "unknown agent %q", agentID)
	}
	tick := o.clock.CurrentTick()
	if tick < 0 {
		tick = 0
	}
	res := agent.PostCollateral(amount, tick)
	if res.Success {
		o.logEvent(eventCollateralPosted(agentID, amount, agent.AllowedOverdraftLimit()))
	}
	return res
}

// WithdrawCollateral withdraws gross collateral for an agent, subject to the
// holding-period and headroom checks, and logs the event.
func (o *Orchestrator) WithdrawCollateral(agentID string, amount int64) OpResult {
	agent, ok := o.agents[agentID]
	if !ok {
		return Rejected(RejectUnknownAgent, "unknown agent %q", agentID)
	}
	tick := o.clock.CurrentTick()
	if tick < 0 {
		tick = 0
	}
	queued := agent.Queue1.TotalValue() + o.queue2.QueuedValueBySender()[agentID]
	reason := classifyWithdrawal(agent, queued)
	res := agent.WithdrawCollateral(amount, tick)
	if res.Success {
		o.logEvent(eventCollateralWithdrawn(agentID, amount, reason))
	}
	return res
}

// AgentState returns the ledger snapshot for one agent.
func (o *Orchestrator) AgentState(agentID string) (AgentState, bool) {
	agent, ok := o.agents[agentID]
	if !ok {
		return AgentState{}, false
	}
	return agent.Snapshot(), true
}

// AgentIDs returns all agent IDs in configuration order.
func (o *Orchestrator) AgentIDs() []string {
	return append([]string(nil), o.agentOrder...)
}

// Transaction returns a copy of the transaction with the given ID.
func (o *Orchestrator) Transaction(id string) (Transaction, bool) {
	tx, ok := o.txs[id]
	if !ok {
		return Transaction{}, false
	}
	return *tx, true
}

// DayTransactions returns copies of every transaction that arrived on the
// given day, in arrival order.
func (o *Orchestrator) DayTransactions(day int64) []Transaction {
	ids := o.txsByDay[day]
	out := make([]Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, *o.txs[id])
	}
	return out
}

// Queue2Contents returns copies of the shared queue in processing order.
func (o *Orchestrator) Queue2Contents() []Transaction {
	items := o.queue2.ProcessingOrder()
	out := make([]Transaction, 0, len(items))
	for _, tx := range items {
		out = append(out, *tx)
	}
	return out
}

// TickEvents returns the events recorded at the given tick.
func (o *Orchestrator) TickEvents(tick int64) []eventlog.Event {
	return o.log.ForTick(tick)
}

// Events returns the full event history.
func (o *Orchestrator) Events() []eventlog.Event {
	return o.log.All()
}

// EventsJSON serializes the event log. Identical runs produce byte-identical
// output.
func (o *Orchestrator) EventsJSON() ([]byte, error) {
	return json.Marshal(o.log)
}

// OpeningBalances returns the configured opening balance per agent, the
// starting point for replaying the event log.
func (o *Orchestrator) OpeningBalances() map[string]int64 {
	out := make(map[string]int64, len(o.openingBalances))
	for id, bal := range o.openingBalances {
		out[id] = bal
	}
	return out
}

// OpeningCollateral returns the configured opening collateral per agent,
// the collateral starting point for replaying the event log.
func (o *Orchestrator) OpeningCollateral() map[string]int64 {
	out := make(map[string]int64, len(o.openingCollateral))
	for id, col := range o.openingCollateral {
		out[id] = col
	}
	return out
}

// DayMetricsFor returns the finalized metrics for a completed day.
func (o *Orchestrator) DayMetricsFor(day int64) (DayMetrics, bool) {
	return o.metrics.Day(day)
}

// AllDayMetrics returns every finalized day's metrics.
func (o *Orchestrator) AllDayMetrics() []DayMetrics {
	return o.metrics.Days()
}

// PrintMetrics displays the per-day summary.
func (o *Orchestrator) PrintMetrics() {
	o.metrics.Print()
}

// AgentCost returns an agent's total accrued cost for the run so far.
func (o *Orchestrator) AgentCost(agentID string) int64 {
	return o.costs.Total(agentID)
}

// CurrentTick returns the last executed tick, or -1 before the first.
func (o *Orchestrator) CurrentTick() int64 {
	return o.clock.CurrentTick()
}

// buildContext assembles the policy evaluation context for one agent and,
// for payment trees, the transaction under consideration. Every field in
// policy.ValidFields is populated here; tx fields read zero outside the
// payment tree.
func (o *Orchestrator) buildContext(agent *Agent, tx *Transaction) *policy.Context {
	tick := o.clock.CurrentTick()
	queuedSender := o.queue2.QueuedValueBySender()[agent.ID]

	fields := map[string]float64{
		"balance":                 float64(agent.Balance),
		"credit_limit":            float64(agent.CreditLimit),
		"credit_used":             float64(agent.CreditUsed()),
		"posted_collateral":       float64(agent.PostedCollateral),
		"collateral_haircut":      agent.CollateralHaircut,
		"allowed_overdraft_limit": float64(agent.AllowedOverdraftLimit()),
		"headroom":                float64(agent.Headroom()),
		"available_liquidity":     float64(agent.AvailableLiquidity()),
		"max_collateral_capacity": float64(agent.MaxCollateralCapacity),
		"max_withdrawable":        float64(agent.MaxWithdrawableCollateral()),
		"ticks_since_last_post":   float64(agent.TicksSinceLastPost(tick)),

		"queue1_length":       float64(agent.Queue1.Len()),
		"queue1_value":        float64(agent.Queue1.TotalValue()),
		"queue2_length":       float64(o.queue2.Len()),
		"queue2_value":        float64(o.queue2.TotalValue()),
		"queue2_value_sender": float64(queuedSender),

		"cost_overdraft_per_tick": float64(bpCost(agent.CreditUsed(), o.cfg.Costs.OverdraftBpPerTick)),
		"cost_delay_per_tick":     float64(bpCost(queuedSender, o.cfg.Costs.DelayBpPerTick)),
		"cost_accrued_today":      float64(o.costs.TotalToday(agent.ID)),

		"tick":          float64(tick),
		"day":           float64(o.clock.CurrentDay()),
		"tick_of_day":   float64(o.clock.TickOfDay()),
		"ticks_per_day": float64(o.clock.TicksPerDay()),
		"ticks_to_eod":  float64(o.clock.TicksPerDay() - 1 - o.clock.TickOfDay()),

		"release_budget": float64(agent.ReleaseBudget),
	}
	if tx != nil {
		fields["tx_amount"] = float64(tx.Amount)
		fields["tx_remaining"] = float64(tx.RemainingAmount())
		fields["tx_priority"] = float64(tx.Priority)
		fields["tx_arrival_tick"] = float64(tx.ArrivalTick)
		fields["tx_deadline_tick"] = float64(tx.DeadlineTick)
		fields["tx_ticks_to_deadline"] = float64(tx.DeadlineTick - tick)
		if tx.Divisible {
			fields["tx_divisible"] = 1
		}
	}
	return &policy.Context{
		Fields:    fields,
		Params:    o.policies[agent.ID].Parameters,
		Registers: agent.Registers,
	}
}
