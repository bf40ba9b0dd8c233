package sim

import "fmt"

// RejectReason classifies a rejected runtime command.
type RejectReason string

const (
	// RejectInsufficientHeadroom means a withdrawal would push credit_used
	// above the post-withdrawal allowed_overdraft_limit.
	RejectInsufficientHeadroom RejectReason = "InsufficientHeadroom"
	// RejectMinimumHoldingPeriod means collateral was posted too recently.
	RejectMinimumHoldingPeriod RejectReason = "MinimumHoldingPeriodNotElapsed"
	// RejectCapacityExceeded means a post would exceed max collateral capacity.
	RejectCapacityExceeded RejectReason = "CollateralCapacityExceeded"
	// RejectUnknownAgent means the named agent does not exist.
	RejectUnknownAgent RejectReason = "UnknownAgent"
	// RejectInvalidAmount means the amount was zero or negative.
	RejectInvalidAmount RejectReason = "InvalidAmount"
)

// OpResult is the structured outcome of a runtime command. Rejections are
// ordinary return values, never panics: callers are expected to branch on
// Success and possibly retry with different parameters.
type OpResult struct {
	Success bool         `json:"success"`
	Reason  RejectReason `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Accepted returns a successful OpResult.
func Accepted() OpResult {
	return OpResult{Success: true}
}

// Rejected returns a failed OpResult with a reason and formatted message.
func Rejected(reason RejectReason, format string, args ...any) OpResult {
	return OpResult{Success: false, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// assertInvariant panics with a diagnostic when a financial invariant that
// the engine is designed to make unreachable has been breached. This is a
// programming error, not a recoverable condition.
func assertInvariant(ok bool, format string, args ...any) {
	if !ok {
		panic("invariant violation: " + fmt.Sprintf(format, args...))
	}
}
