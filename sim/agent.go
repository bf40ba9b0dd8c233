package sim

import "math"

// Agent is one settlement bank: a balance, an intraday credit line backed by
// posted collateral, an internal payment queue, and the policy trees that
// drive its decisions. All monetary fields are integer minor units.
type Agent struct {
	ID string

	// Balance is the settlement-account balance. Negative balance means the
	// agent is drawing on intraday credit.
	Balance int64

	// CreditLimit is the unsecured overdraft cap.
	CreditLimit int64

	// PostedCollateral is the gross collateral currently posted.
	PostedCollateral int64

	// CollateralHaircut is the fraction of posted collateral value excluded
	// from credit headroom, in [0, 1].
	CollateralHaircut float64

	// MaxCollateralCapacity bounds total postable collateral.
	MaxCollateralCapacity int64

	// MinHoldingTicks is the minimum number of ticks collateral must be held
	// after the most recent post before any withdrawal is allowed.
	MinHoldingTicks int64

	// lastPostTick is the tick of the most recent collateral post, or -1 if
	// the agent has never posted.
	lastPostTick int64

	// Queue1 holds transactions awaiting a Release/Hold/Split decision.
	Queue1 *Queue1

	// ReleaseBudget caps the value this agent releases from Queue1 in the
	// current tick. Negative means unlimited. Set by the bank tree.
	ReleaseBudget int64

	// Registers are per-agent persistent policy state, readable and writable
	// across ticks by policy trees.
	Registers map[string]float64
}

// NewAgent creates an agent with an empty queue and no collateral history.
func NewAgent(id string, balance, creditLimit int64, haircut float64, maxCapacity, minHolding int64, q1 Queue1Ordering) *Agent {
	return &Agent{
		ID:                    id,
		Balance:               balance,
		CreditLimit:           creditLimit,
		CollateralHaircut:     haircut,
		MaxCollateralCapacity: maxCapacity,
		MinHoldingTicks:       minHolding,
		lastPostTick:          -1,
		Queue1:                NewQueue1(q1),
		ReleaseBudget:         -1,
		Registers:             make(map[string]float64),
	}
}

// CreditUsed returns max(0, -balance): the intraday credit currently drawn.
func (a *Agent) CreditUsed() int64 {
	if a.Balance < 0 {
		return -a.Balance
	}
	return 0
}

// collateralValue converts a gross collateral amount into headroom value
// after the haircut. Rounded half-away-from-zero so integer identities like
// 100000 at haircut 0.05 -> 95000 hold exactly.
func (a *Agent) collateralValue(gross int64) int64 {
	return int64(math.Round(float64(gross) * (1.0 - a.CollateralHaircut)))
}

// AllowedOverdraftLimit returns credit_limit + posted_collateral*(1-haircut).
func (a *Agent) AllowedOverdraftLimit() int64 {
	return a.CreditLimit + a.collateralValue(a.PostedCollateral)
}

// Headroom returns the remaining intraday credit capacity:
// allowed_overdraft_limit - credit_used. Never negative while the credit
// invariant holds.
func (a *Agent) Headroom() int64 {
	h := a.AllowedOverdraftLimit() - a.CreditUsed()
	if h < 0 {
		return 0
	}
	return h
}

// AvailableLiquidity returns the total value the agent could pay right now:
// positive balance plus unused credit headroom.
func (a *Agent) AvailableLiquidity() int64 {
	avail := int64(0)
	if a.Balance > 0 {
		avail = a.Balance
	}
	return avail + a.Headroom()
}

// CanPay reports whether paying amount would keep
// credit_used <= allowed_overdraft_limit true.
func (a *Agent) CanPay(amount int64) bool {
	return a.AvailableLiquidity() >= amount
}

// WithinCreditLimit reports the core credit invariant for this agent:
// credit used never exceeds the allowed overdraft limit.
func (a *Agent) WithinCreditLimit() bool {
	return a.CreditUsed() <= a.AllowedOverdraftLimit()
}

// TicksSinceLastPost returns the holding-clock reading at the given tick.
// Returns a value >= MinHoldingTicks when the agent has never posted, so a
// fresh agent is never blocked by the holding period.
func (a *Agent) TicksSinceLastPost(tick int64) int64 {
	if a.lastPostTick < 0 {
		return a.MinHoldingTicks
	}
	return tick - a.lastPostTick
}

// AgentState is the externally visible snapshot of an agent's ledger.
type AgentState struct {
	AgentID               string  `json:"agent_id"`
	Balance               int64   `json:"balance"`
	CreditLimit           int64   `json:"credit_limit"`
	CreditUsed            int64   `json:"credit_used"`
	PostedCollateral      int64   `json:"posted_collateral"`
	CollateralHaircut     float64 `json:"collateral_haircut"`
	AllowedOverdraftLimit int64   `json:"allowed_overdraft_limit"`
	Headroom              int64   `json:"headroom"`
	AvailableLiquidity    int64   `json:"available_liquidity"`
	Queue1Length          int     `json:"queue1_length"`
}

// Snapshot captures the current ledger state.
func (a *Agent) Snapshot() AgentState {
	return AgentState{
		AgentID:               a.ID,
		Balance:               a.Balance,
		CreditLimit:           a.CreditLimit,
		CreditUsed:            a.CreditUsed(),
		PostedCollateral:      a.PostedCollateral,
		CollateralHaircut:     a.CollateralHaircut,
		AllowedOverdraftLimit: a.AllowedOverdraftLimit(),
		Headroom:              a.Headroom(),
		AvailableLiquidity:    a.AvailableLiquidity(),
		Queue1Length:          a.Queue1.Len(),
	}
}
