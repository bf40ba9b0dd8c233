package sim

import "math"

// Cost accountant: accrues intraday liquidity costs per tick and one-time
// penalties. Costs are tracked on a side ledger in integer minor units; they
// never move settlement balances.

// CostAccountant accumulates per-agent costs for the run.
type CostAccountant struct {
	cfg CostConfig

	// accrued maps agent ID -> total cost in minor units.
	accrued map[string]int64
	// accruedToday maps agent ID -> cost accrued since the last EOD reset.
	accruedToday map[string]int64
}

// NewCostAccountant creates an accountant with zeroed ledgers.
func NewCostAccountant(cfg CostConfig) *CostAccountant {
	return &CostAccountant{
		cfg:          cfg,
		accrued:      make(map[string]int64),
		accruedToday: make(map[string]int64),
	}
}

// bpCost converts a base amount and a basis-point rate into an integer cost,
// rounded half-away from zero.
func bpCost(base int64, bp float64) int64 {
	if base <= 0 || bp <= 0 {
		return 0
	}
	return int64(math.Round(float64(base) * bp / 10000.0))
}

// AccrueTick charges one tick of overdraft, collateral-opportunity and
// queue2-delay cost for an agent. queuedValue is the agent's total remaining
// value sitting in Queue2. Returns the amount charged this tick.
func (c *CostAccountant) AccrueTick(a *Agent, queuedValue int64) int64 {
	cost := bpCost(a.CreditUsed(), c.cfg.OverdraftBpPerTick)
	cost += bpCost(a.PostedCollateral, c.cfg.CollateralBpPerTick)
	cost += bpCost(queuedValue, c.cfg.DelayBpPerTick)
	if cost != 0 {
		c.accrued[a.ID] += cost
		c.accruedToday[a.ID] += cost
	}
	return cost
}

// ChargeOverduePenalty applies the one-time overdue penalty for a
// transaction that missed its deadline. Returns the penalty charged.
func (c *CostAccountant) ChargeOverduePenalty(agentID string, amount int64) int64 {
	penalty := bpCost(amount, c.cfg.OverduePenaltyBp)
	if penalty != 0 {
		c.accrued[agentID] += penalty
		c.accruedToday[agentID] += penalty
	}
	return penalty
}

// Total returns an agent's accrued cost for the whole run.
func (c *CostAccountant) Total(agentID string) int64 {
	return c.accrued[agentID]
}

// TotalToday returns an agent's cost accrued since the last day rollover.
func (c *CostAccountant) TotalToday(agentID string) int64 {
	return c.accruedToday[agentID]
}

// GrandTotal sums accrued costs across all agents.
func (c *CostAccountant) GrandTotal() int64 {
	var total int64
	for _, v := range c.accrued {
		total += v
	}
	return total
}

// ResetDay clears the per-day accrual at end of day and returns the day's
// grand total.
func (c *CostAccountant) ResetDay() int64 {
	var total int64
	for _, v := range c.accruedToday {
		total += v
	}
	c.accruedToday = make(map[string]int64)
	return total
}

// PreviewTickCost estimates the next tick's accrual for an agent without
// charging it. Policy contexts expose this as a cost field.
func (c *CostAccountant) PreviewTickCost(a *Agent, queuedValue int64) int64 {
	return bpCost(a.CreditUsed(), c.cfg.OverdraftBpPerTick) +
		bpCost(a.PostedCollateral, c.cfg.CollateralBpPerTick) +
		bpCost(queuedValue, c.cfg.DelayBpPerTick)
}
