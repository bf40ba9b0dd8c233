package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/rtgs-sim/rtgs-sim/sim/eventlog"
	"github.com/rtgs-sim/rtgs-sim/sim/policy"
)

// Orchestrator composes the clock, agents, queues, settlement algorithms,
// policy interpreter, scenario events, cost accountant and event log into
// the public tick API.
//
// Single-threaded by contract: Tick runs to completion atomically, and
// mutating calls (SubmitTransaction, PostCollateral, WithdrawCollateral) are
// only legal between ticks. Parallel exploration runs independent
// Orchestrator instances, never a shared one.
type Orchestrator struct {
	cfg     *SimulationConfig
	clock   *Clock
	rng     *StreamRNG
	log     *eventlog.Log
	costs   *CostAccountant
	metrics *Metrics
	queue2  *Queue2

	// agents in config order; the fixed iteration order for every phase.
	agentOrder []string
	agents     map[string]*Agent
	policies   map[string]*policy.TreeSet
	arrivals   map[string]*ArrivalGenerator

	// all transactions ever created, by ID.
	txs      map[string]*Transaction
	txsByDay map[int64][]string
	nextTxID int64

	openingBalances   map[string]int64
	openingCollateral map[string]int64
}

// TickSummary is the per-tick result returned to callers.
type TickSummary struct {
	Tick        int64 `json:"tick"`
	Day         int64 `json:"day"`
	Arrivals    int   `json:"arrivals"`
	Settlements int   `json:"settlements"`
	LsmReleases int   `json:"lsm_releases"`
	TotalCost   int64 `json:"total_cost"`
}

// New builds an Orchestrator from a validated configuration. The whole
// config is checked eagerly: unknown scenario-event types, missing required
// fields, malformed policies or schema violations all fail here, and no
// partially built instance is ever returned.
func New(cfg *SimulationConfig) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	o := &Orchestrator{
		cfg:               cfg,
		clock:             NewClock(cfg.TicksPerDay),
		rng:               NewStreamRNG(NewRunKey(cfg.RNGSeed)),
		log:               eventlog.NewLog(),
		costs:             NewCostAccountant(cfg.Costs),
		metrics:           NewMetrics(),
		queue2:            NewQueue2(cfg.PriorityMode),
		agents:            make(map[string]*Agent, len(cfg.Agents)),
		policies:          make(map[string]*policy.TreeSet, len(cfg.Agents)),
		arrivals:          make(map[string]*ArrivalGenerator, len(cfg.Agents)),
		txs:               make(map[string]*Transaction),
		txsByDay:          make(map[int64][]string),
		openingBalances:   make(map[string]int64, len(cfg.Agents)),
		openingCollateral: make(map[string]int64, len(cfg.Agents)),
	}

	allIDs := make([]string, 0, len(cfg.Agents))
	for _, ac := range cfg.Agents {
		allIDs = append(allIDs, ac.ID)
	}

	for i := range cfg.Agents {
		ac := &cfg.Agents[i]
		agent := NewAgent(ac.ID, ac.OpeningBalance, ac.CreditLimit, ac.CollateralHaircut,
			ac.MaxCollateralCapacity, ac.CollateralMinHoldingTicks, cfg.Queue1Ordering)
		agent.PostedCollateral = ac.OpeningCollateral
		o.agents[ac.ID] = agent
		o.agentOrder = append(o.agentOrder, ac.ID)
		o.openingBalances[ac.ID] = ac.OpeningBalance
		o.openingCollateral[ac.ID] = ac.OpeningCollateral

		ts, err := loadPolicy(ac.Policy)
		if err != nil {
			return nil, fmt.Errorf("agents[%d] (%s): %w", i, ac.ID, err)
		}
		o.policies[ac.ID] = ts

		gen, err := NewArrivalGenerator(ac.ID, ac.Arrival, allIDs)
		if err != nil {
			return nil, err
		}
		if gen != nil {
			o.arrivals[ac.ID] = gen
		}
	}
	return o, nil
}

// loadPolicy resolves a PolicySpec into a validated tree set.
func loadPolicy(spec PolicySpec) (*policy.TreeSet, error) {
	if spec.JSON != "" {
		return policy.LoadTreeSet([]byte(spec.JSON))
	}
	return policy.NewBuiltin(spec.Name)
}

// TotalTicks returns the configured run length.
func (o *Orchestrator) TotalTicks() int64 {
	return o.cfg.TicksPerDay * o.cfg.NumDays
}

// Run executes the full configured horizon and returns every tick summary.
func (o *Orchestrator) Run() []TickSummary {
	total := o.TotalTicks()
	out := make([]TickSummary, 0, total)
	for i := int64(0); i < total; i++ {
		out = append(out, o.Tick())
	}
	return out
}

// Tick advances time by exactly one unit, running the fixed sub-phases in
// order. Every externally observable effect is recorded as an event; the
// tick never silently mutates state.
func (o *Orchestrator) Tick() TickSummary {
	tick := o.clock.Advance()
	logrus.Debugf("[tick %07d] day %d begins phase run", tick, o.clock.CurrentDay())

	summary := TickSummary{Tick: tick, Day: o.clock.CurrentDay()}

	o.runScenarioEvents(tick)
	summary.Arrivals = o.runArrivals(tick)
	o.runBankTrees(tick)
	summary.Settlements = o.runPaymentPhase(tick)
	summary.Settlements += o.releaseQueue2Liquidity(tick)
	if o.queue2.Len() > 0 && tick%o.cfg.LSMFrequency == 0 {
		summary.LsmReleases = o.runLSMPass(tick)
		summary.Settlements += summary.LsmReleases
	}
	o.runCollateralPhase(tick)
	summary.TotalCost = o.runCostPhase(tick)
	o.metrics.ObserveQueue2Depth(o.queue2.Len())

	if o.clock.IsEndOfDay() {
		o.runEndOfDay(tick)
	}
	return summary
}

// === Phase 1: scenario events ===

func (o *Orchestrator) runScenarioEvents(tick int64) {
	for i := range o.cfg.ScenarioEvents {
		ev := &o.cfg.ScenarioEvents[i]
		if !ev.Schedule.FiresAt(tick) {
			continue
		}
		o.executeScenario(ev, tick)
	}
}

func (o *Orchestrator) executeScenario(ev *ScenarioEventConfig, tick int64) {
	switch ev.Type {
	case ScenarioDirectTransfer:
		// Exogenous transfer: applied unconditionally, outside the credit
		// checks that govern settlement.
		o.agents[ev.From].Balance -= ev.Amount
		o.agents[ev.To].Balance += ev.Amount
		o.logEvent(eventScenarioExecuted(ev.Type, []string{ev.From, ev.To}, map[string]any{
			"amount": ev.Amount,
		}))

	case ScenarioCollateralAdjustment:
		agent := o.agents[ev.Agent]
		old := agent.PostedCollateral
		adjusted := old + ev.Delta
		if adjusted < 0 {
			adjusted = 0
		}
		if adjusted > agent.MaxCollateralCapacity {
			adjusted = agent.MaxCollateralCapacity
		}
		agent.PostedCollateral = adjusted
		if adjusted > old {
			agent.lastPostTick = tick
		}
		o.logEvent(eventScenarioExecuted(ev.Type, []string{ev.Agent}, map[string]any{
			"delta":          adjusted - old,
			"old_collateral": old,
			"new_collateral": adjusted,
		}))

	case ScenarioGlobalArrivalRateChange:
		changed := map[string]any{}
		for _, id := range o.agentOrder {
			if gen, ok := o.arrivals[id]; ok {
				oldRate, newRate := gen.ScaleRate(ev.Multiplier)
				changed["old_rate_"+id] = oldRate
				changed["new_rate_"+id] = newRate
			}
		}
		changed["multiplier"] = ev.Multiplier
		o.logEvent(eventScenarioExecuted(ev.Type, nil, changed))

	case ScenarioAgentArrivalRateChange:
		// Firing is always recorded, even when there is no generator to
		// scale; the replayed log must account for every scheduled tick.
		details := map[string]any{"multiplier": ev.Multiplier}
		if gen, ok := o.arrivals[ev.Agent]; ok {
			oldRate, newRate := gen.ScaleRate(ev.Multiplier)
			details["old_rate"] = oldRate
			details["new_rate"] = newRate
		} else {
			logrus.Warnf("[tick %07d] arrival rate change for agent %s with no arrival config", tick, ev.Agent)
			details["old_rate"] = float64(0)
			details["new_rate"] = float64(0)
		}
		o.logEvent(eventScenarioExecuted(ev.Type, []string{ev.Agent}, details))

	case ScenarioDeadlineWindowChange:
		if gen, ok := o.arrivals[ev.Agent]; ok {
			gen.SetDeadlineWindow(ev.DeadlineMinOffset, ev.DeadlineMaxOffset)
		} else {
			logrus.Warnf("[tick %07d] deadline window change for agent %s with no arrival config", tick, ev.Agent)
		}
		o.logEvent(eventScenarioExecuted(ev.Type, []string{ev.Agent}, map[string]any{
			"deadline_min_offset": ev.DeadlineMinOffset,
			"deadline_max_offset": ev.DeadlineMaxOffset,
		}))
	}
}

// === Phase 2: arrivals ===

func (o *Orchestrator) runArrivals(tick int64) int {
	count := 0
	for _, id := range o.agentOrder {
		gen, ok := o.arrivals[id]
		if !ok {
			continue
		}
		for _, tx := range gen.Draw(tick, o.rng, o.mintTxID) {
			o.registerArrival(tx, tick)
			count++
		}
	}
	return count
}

func (o *Orchestrator) registerArrival(tx *Transaction, tick int64) {
	o.txs[tx.ID] = tx
	o.txsByDay[o.clock.DayOf(tick)] = append(o.txsByDay[o.clock.DayOf(tick)], tx.ID)
	tx.Status = TxQueued1
	o.agents[tx.SenderID].Queue1.Enqueue(tx)
	o.metrics.RecordArrival()
	o.logEvent(eventArrival(tx))
	logrus.Debugf("<< Arrival: %s %s->%s amount %d at tick %d",
		tx.ID, tx.SenderID, tx.ReceiverID, tx.Amount, tick)
}

func (o *Orchestrator) mintTxID() string {
	o.nextTxID++
	return fmt.Sprintf("tx_%06d", o.nextTxID)
}

// === Phase 3: bank trees ===

func (o *Orchestrator) runBankTrees(tick int64) {
	for _, id := range o.agentOrder {
		agent := o.agents[id]
		agent.ReleaseBudget = -1 // budgets do not carry across ticks
		tree := o.policies[id].Bank
		if tree == nil {
			continue
		}
		decision := policy.Evaluate(tree, o.buildContext(agent, nil))
		switch decision.Action {
		case policy.ActionSetReleaseBudget:
			agent.ReleaseBudget = int64(decision.Params["amount"])
		case policy.ActionSetRegister:
			agent.Registers[decision.Target] = decision.Params["value"]
		}
	}
}

// === Phase 4: payment trees + settlement attempt ===

func (o *Orchestrator) runPaymentPhase(tick int64) int {
	settled := 0
	for _, id := range o.agentOrder {
		agent := o.agents[id]
		tree := o.policies[id].Payment

		// Snapshot: split children enqueued during the pass are decided
		// next tick.
		pending := append([]*Transaction(nil), agent.Queue1.Items()...)
		for _, tx := range pending {
			decision := policy.Decision{Action: policy.ActionRelease}
			if tree != nil {
				decision = policy.Evaluate(tree, o.buildContext(agent, tx))
			}
			switch decision.Action {
			case policy.ActionHold:
				// Stays in Queue1; no observable effect.

			case policy.ActionSplit:
				o.applySplit(agent, tx, decision.Params["fraction"], tick)

			case policy.ActionRelease:
				if agent.ReleaseBudget >= 0 && tx.RemainingAmount() > agent.ReleaseBudget {
					continue // over budget; retried next tick
				}
				agent.Queue1.Remove(tx.ID)
				if agent.ReleaseBudget >= 0 {
					agent.ReleaseBudget -= tx.RemainingAmount()
				}
				o.logEvent(eventPolicySubmit(tx, "Release"))
				if o.trySettleImmediate(tx, tick) {
					o.recordSettlement(tx, false)
					o.logEvent(eventRtgsSettlement(tx, tx.Amount))
					settled++
				} else {
					o.queue2.Enqueue(tx)
				}
			}
		}
	}
	return settled
}

// applySplit replaces a divisible transaction with two children in Queue1.
// Degenerate splits (indivisible tx, or remaining too small) fall back to
// holding.
func (o *Orchestrator) applySplit(agent *Agent, tx *Transaction, fraction float64, tick int64) {
	remaining := tx.RemainingAmount()
	if !tx.Divisible || remaining < 2 {
		return
	}
	firstAmount := int64(math.Round(float64(remaining) * fraction))
	if firstAmount < 1 {
		firstAmount = 1
	}
	if firstAmount >= remaining {
		firstAmount = remaining - 1
	}
	first, second, err := tx.Split(firstAmount, o.mintTxID)
	if err != nil {
		logrus.Warnf("[tick %07d] split of %s failed: %v", tick, tx.ID, err)
		return
	}
	agent.Queue1.Remove(tx.ID)
	day := o.clock.DayOf(tick)
	for _, child := range []*Transaction{first, second} {
		o.txs[child.ID] = child
		o.txsByDay[day] = append(o.txsByDay[day], child.ID)
		child.Status = TxQueued1
		agent.Queue1.Enqueue(child)
	}
	o.logEvent(eventSplit(tx, first, second))
}

// recordSettlement updates metrics and split-parent accounting after a
// transaction fully settles.
func (o *Orchestrator) recordSettlement(tx *Transaction, viaLSM bool) {
	o.metrics.RecordSettlement(tx.Amount, *tx.SettlementTick-tx.ArrivalTick, viaLSM)
	if tx.ParentTxID != "" {
		if parent, ok := o.txs[tx.ParentTxID]; ok {
			parent.RecordPartial(tx.Amount, *tx.SettlementTick)
		}
	}
}

// === Phase 6: collateral trees ===

func (o *Orchestrator) runCollateralPhase(tick int64) {
	queuedBySender := o.queue2.QueuedValueBySender()
	for _, id := range o.agentOrder {
		agent := o.agents[id]
		ts := o.policies[id]
		hasTrees := ts.CollateralPost != nil || ts.CollateralWithdraw != nil
		queued := agent.Queue1.TotalValue() + queuedBySender[id]

		if ts.CollateralPost != nil {
			decision := policy.Evaluate(ts.CollateralPost, o.buildContext(agent, nil))
			if decision.Action == policy.ActionPostCollateral {
				o.applyPost(agent, int64(decision.Params["amount"]), tick)
			}
		}
		if ts.CollateralWithdraw != nil {
			decision := policy.Evaluate(ts.CollateralWithdraw, o.buildContext(agent, nil))
			if decision.Action == policy.ActionWithdrawCollateral {
				o.applyWithdraw(agent, int64(decision.Params["amount"]), tick, classifyWithdrawal(agent, queued))
			}
		}

		// Hysteresis auto-policy only drives agents without explicit
		// collateral trees.
		if !hasTrees && o.cfg.Hysteresis.Enabled {
			action, amount := EvaluateHysteresis(agent, o.cfg.Hysteresis, queued, tick)
			switch action {
			case HysteresisPost:
				o.applyPost(agent, amount, tick)
			case HysteresisWithdraw:
				o.applyWithdraw(agent, amount, tick, classifyWithdrawal(agent, queued))
			}
		}
	}
}

func (o *Orchestrator) applyPost(agent *Agent, amount, tick int64) {
	res := agent.PostCollateral(amount, tick)
	if !res.Success {
		logrus.Debugf("[tick %07d] collateral post rejected for %s: %s", tick, agent.ID, res.Message)
		return
	}
	o.logEvent(eventCollateralPosted(agent.ID, amount, agent.AllowedOverdraftLimit()))
}

func (o *Orchestrator) applyWithdraw(agent *Agent, amount, tick int64, reason WithdrawReason) {
	res := agent.WithdrawCollateral(amount, tick)
	if !res.Success {
		logrus.Debugf("[tick %07d] collateral withdrawal rejected for %s: %s", tick, agent.ID, res.Message)
		return
	}
	o.logEvent(eventCollateralWithdrawn(agent.ID, amount, reason))
}

// === Phase 7: costs ===

func (o *Orchestrator) runCostPhase(tick int64) int64 {
	queuedBySender := o.queue2.QueuedValueBySender()
	perAgent := make(map[string]int64)
	var total int64
	for _, id := range o.agentOrder {
		cost := o.costs.AccrueTick(o.agents[id], queuedBySender[id])
		if cost != 0 {
			perAgent[id] = cost
			total += cost
		}
	}
	if total > 0 {
		o.logEvent(eventCostAccrued(total, perAgent))
	}
	return total
}

// === Phase 8: end of day ===

func (o *Orchestrator) runEndOfDay(tick int64) {
	// Past-deadline transactions still in Queue2: force-settle when
	// headroom allows, otherwise mark overdue and charge the penalty.
	for _, tx := range o.queue2.ProcessingOrder() {
		if tx.DeadlineTick >= tick {
			continue
		}
		sender := o.agents[tx.SenderID]
		amount := tx.RemainingAmount()
		if sender.CanPay(amount) {
			transfer(sender, o.agents[tx.ReceiverID], amount)
			o.queue2.Remove(tx.ID)
			tx.MarkSettled(tick)
			o.recordSettlement(tx, false)
			o.logEvent(eventForcedSettlement(tx, amount))
			continue
		}
		o.queue2.Remove(tx.ID)
		tx.Status = TxOverdue
		penalty := o.costs.ChargeOverduePenalty(tx.SenderID, amount)
		o.metrics.RecordOverdue()
		o.logEvent(eventTransactionOverdue(tx, penalty))
	}

	// Past-deadline transactions never released from Queue1 go overdue too.
	for _, id := range o.agentOrder {
		agent := o.agents[id]
		for _, tx := range append([]*Transaction(nil), agent.Queue1.Items()...) {
			if tx.DeadlineTick >= tick {
				continue
			}
			agent.Queue1.Remove(tx.ID)
			tx.Status = TxOverdue
			penalty := o.costs.ChargeOverduePenalty(tx.SenderID, tx.RemainingAmount())
			o.metrics.RecordOverdue()
			o.logEvent(eventTransactionOverdue(tx, penalty))
		}
	}

	// Optional unwind: agents reclaim whatever collateral the credit line no
	// longer needs before the day closes.
	if o.cfg.EodCollateralUnwind {
		for _, id := range o.agentOrder {
			agent := o.agents[id]
			if amount := agent.MaxWithdrawableCollateral(); amount > 0 {
				o.applyWithdraw(agent, amount, tick, WithdrawEndOfDay)
			}
		}
	}

	closed := o.metrics.CloseDay(o.costs.ResetDay())
	logrus.Infof("[tick %07d] day %d closed: settled=%d overdue=%d cost=%d",
		tick, closed.Day, closed.SettledCount, closed.OverdueCount, closed.TotalCost)
}

// === Event logging ===

// logEvent stamps the current tick/day and appends to the run log.
func (o *Orchestrator) logEvent(ev eventlog.Event) {
	tick := o.clock.CurrentTick()
	if tick < 0 {
		tick = 0
	}
	ev.Tick = tick
	ev.Day = o.clock.DayOf(tick)
	o.log.Append(ev)
}
