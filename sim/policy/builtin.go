package policy

import "fmt"

// Built-in named policies, constructed as ordinary tree sets so the engine
// has exactly one evaluation path.

// NewBuiltin returns the tree set for a named built-in policy.
// Valid names: "fifo" (the default), "deadline".
func NewBuiltin(name string) (*TreeSet, error) {
	switch name {
	case "", "fifo":
		return newFifoPolicy(), nil
	case "deadline":
		return newDeadlinePolicy(), nil
	default:
		return nil, fmt.Errorf("unknown built-in policy %q; valid policies: [fifo, deadline]", name)
	}
}

// newFifoPolicy releases every transaction unconditionally and leaves
// collateral alone.
func newFifoPolicy() *TreeSet {
	ts := &TreeSet{
		Parameters: map[string]float64{},
		Payment: &Tree{Kind: TreePayment, Root: &Action{
			ID: "fifo_release", Kind: ActionRelease, Params: map[string]float64{},
		}},
	}
	mustBeValid(ts)
	return ts
}

// newDeadlinePolicy holds a transaction until its deadline is near (within
// the urgency_window parameter) or the agent has ample liquidity, then
// releases it.
func newDeadlinePolicy() *TreeSet {
	ts := &TreeSet{
		Parameters: map[string]float64{"urgency_window": 5},
		Payment: &Tree{Kind: TreePayment, Root: &Condition{
			ID: "deadline_near",
			Predicate: &Logical{Op: "or", Operands: []Predicate{
				&Comparison{
					Op:    "le",
					Left:  &FieldRef{Name: "tx_ticks_to_deadline"},
					Right: &ParamRef{Name: "urgency_window"},
				},
				&Comparison{
					Op:    "ge",
					Left:  &FieldRef{Name: "available_liquidity"},
					Right: &Computed{Op: "mul", Left: &FieldRef{Name: "tx_remaining"}, Right: &Literal{Value: 2}},
				},
			}},
			OnTrue:  &Action{ID: "deadline_release", Kind: ActionRelease, Params: map[string]float64{}},
			OnFalse: &Action{ID: "deadline_hold", Kind: ActionHold, Params: map[string]float64{}},
		}},
	}
	mustBeValid(ts)
	return ts
}

// mustBeValid panics if a built-in tree set fails validation; built-ins are
// engine code, so a failure here is a bug, not user input.
func mustBeValid(ts *TreeSet) {
	if err := ValidateTreeSet(ts); err != nil {
		panic(fmt.Sprintf("built-in policy invalid: %v", err))
	}
}
