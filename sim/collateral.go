package sim

// Collateral engine: post/withdraw commands and the headroom arithmetic that
// keeps the credit-limit and holding-period invariants true at every
// observable point.

// WithdrawReason labels why a successful withdrawal happened. Events always
// carry one of these specific labels, never a vague catch-all.
type WithdrawReason string

const (
	// WithdrawLiquidityRestored: excess liquidity made the collateral
	// unnecessary (hysteresis upper band, or a withdrawal while liquidity
	// already covers everything queued).
	WithdrawLiquidityRestored WithdrawReason = "LiquidityRestored"
	// WithdrawHoldingExpired: no liquidity surplus motivated the withdrawal;
	// the agent reclaims collateral the holding period has released.
	WithdrawHoldingExpired WithdrawReason = "MinimumHoldingPeriodExpired"
	// WithdrawEndOfDay: end-of-day collateral unwind.
	WithdrawEndOfDay WithdrawReason = "EndOfDay"
)

// classifyWithdrawal labels a voluntary (non-EOD) withdrawal. When available
// liquidity already exceeds the agent's queued obligations the collateral
// came free; otherwise the agent is reclaiming what the holding period has
// released.
func classifyWithdrawal(a *Agent, queuedValue int64) WithdrawReason {
	if a.AvailableLiquidity() > queuedValue {
		return WithdrawLiquidityRestored
	}
	return WithdrawHoldingExpired
}

// PostCollateral posts gross collateral for the agent at the given tick.
// Fails only when capacity would be exceeded. On success the allowed
// overdraft limit rises immediately by amount*(1-haircut) and the holding
// clock resets.
func (a *Agent) PostCollateral(amount int64, tick int64) OpResult {
	if amount <= 0 {
		return Rejected(RejectInvalidAmount, "post amount must be positive, got %d", amount)
	}
	if a.PostedCollateral+amount > a.MaxCollateralCapacity {
		return Rejected(RejectCapacityExceeded,
			"agent %s: posting %d would exceed capacity %d (currently posted %d)",
			a.ID, amount, a.MaxCollateralCapacity, a.PostedCollateral)
	}
	a.PostedCollateral += amount
	a.lastPostTick = tick
	return Accepted()
}

// WithdrawCollateral withdraws gross collateral at the given tick.
//
// Fails while ticks_since_last_post < min_holding_ticks, regardless of
// headroom, and fails when the post-withdrawal allowed_overdraft_limit would
// fall below current credit_used. The holding-period check runs first.
func (a *Agent) WithdrawCollateral(amount int64, tick int64) OpResult {
	if amount <= 0 {
		return Rejected(RejectInvalidAmount, "withdraw amount must be positive, got %d", amount)
	}
	if amount > a.PostedCollateral {
		return Rejected(RejectInvalidAmount,
			"agent %s: withdraw %d exceeds posted collateral %d", a.ID, amount, a.PostedCollateral)
	}
	if since := a.TicksSinceLastPost(tick); since < a.MinHoldingTicks {
		return Rejected(RejectMinimumHoldingPeriod,
			"agent %s: %d ticks since last post, minimum holding is %d", a.ID, since, a.MinHoldingTicks)
	}
	postLimit := a.CreditLimit + a.collateralValue(a.PostedCollateral-amount)
	if postLimit < a.CreditUsed() {
		return Rejected(RejectInsufficientHeadroom,
			"agent %s: withdrawing %d would drop overdraft limit to %d below credit used %d",
			a.ID, amount, postLimit, a.CreditUsed())
	}
	a.PostedCollateral -= amount
	assertInvariant(a.WithinCreditLimit(), "agent %s breached credit limit after collateral withdrawal", a.ID)
	return Accepted()
}

// MaxWithdrawableCollateral returns the largest gross amount withdrawable
// right now while keeping credit_used covered, ignoring the holding period
// (the caller checks that separately via WithdrawCollateral).
//
// Solved from credit_limit + (collateral - w)*(1 - haircut) >= credit_used.
// When haircut = 1 collateral contributes no headroom, so everything is
// withdrawable as long as the unsecured line alone already covers credit
// used.
func (a *Agent) MaxWithdrawableCollateral() int64 {
	need := a.CreditUsed() - a.CreditLimit
	if need <= 0 {
		return a.PostedCollateral
	}
	factor := 1.0 - a.CollateralHaircut
	if factor <= 0 {
		// No headroom comes from collateral; if we get here the credit line
		// is carried unsecured or already breached, and need > 0 means
		// nothing may leave.
		return 0
	}
	// Smallest gross collateral to keep such that its haircut value still
	// covers the secured part of credit_used. Start from the continuous
	// solution and correct for rounding in collateralValue.
	keep := int64(float64(need) / factor)
	for keep > 0 && a.collateralValue(keep-1) >= need {
		keep--
	}
	for a.collateralValue(keep) < need {
		keep++
	}
	if keep > a.PostedCollateral {
		return 0
	}
	return a.PostedCollateral - keep
}

// HysteresisConfig is the optional two-sided auto post/withdraw band.
// Posts only when the liquidity gap exceeds PostThresholdPct of queued value;
// withdraws only when excess liquidity exceeds WithdrawThresholdPct of queued
// value. The dead band between the thresholds is what prevents post/withdraw
// thrashing under sustained pressure. Both sides are additionally gated by
// the agent's min_holding_ticks.
type HysteresisConfig struct {
	Enabled              bool    `yaml:"enabled"`
	PostThresholdPct     float64 `yaml:"post_threshold_pct" validate:"gte=0"`
	WithdrawThresholdPct float64 `yaml:"withdraw_threshold_pct" validate:"gte=0"`
	PostIncrement        int64   `yaml:"post_increment" validate:"gte=0"`
}

// HysteresisAction is what the band evaluation decided for this tick.
type HysteresisAction int

const (
	HysteresisHold HysteresisAction = iota
	HysteresisPost
	HysteresisWithdraw
)

// EvaluateHysteresis decides the collateral action for an agent given the
// total value it has queued (Queue1 + its Queue2 obligations).
//
// min_holding_ticks is evaluated first and gates both sides: inside the
// holding window the band is not consulted at all and the agent holds.
// TODO: product has not confirmed this precedence; see DESIGN.md.
func EvaluateHysteresis(a *Agent, cfg HysteresisConfig, queuedValue int64, tick int64) (HysteresisAction, int64) {
	if !cfg.Enabled || queuedValue < 0 {
		return HysteresisHold, 0
	}
	if a.TicksSinceLastPost(tick) < a.MinHoldingTicks {
		return HysteresisHold, 0
	}
	liquidity := a.AvailableLiquidity()
	gap := queuedValue - liquidity
	postTrigger := int64(float64(queuedValue) * cfg.PostThresholdPct / 100.0)
	if gap > postTrigger && gap > 0 {
		amount := cfg.PostIncrement
		if amount <= 0 {
			amount = gap
		}
		if room := a.MaxCollateralCapacity - a.PostedCollateral; amount > room {
			amount = room
		}
		if amount > 0 {
			return HysteresisPost, amount
		}
		return HysteresisHold, 0
	}
	excess := liquidity - queuedValue
	withdrawTrigger := int64(float64(queuedValue) * cfg.WithdrawThresholdPct / 100.0)
	if excess > withdrawTrigger && a.PostedCollateral > 0 {
		amount := a.MaxWithdrawableCollateral()
		if amount > 0 {
			return HysteresisWithdraw, amount
		}
	}
	return HysteresisHold, 0
}
