package policy

// Context is the read-only view a tree is evaluated against. Fields are
// flattened to float64 for uniform predicate arithmetic; all monetary values
// remain integers at the engine boundary and are only widened here for
// comparison.
type Context struct {
	Fields    map[string]float64
	Params    map[string]float64
	Registers map[string]float64
}

// Context field names the validator accepts. Grouped by origin; the
// orchestrator fills every applicable group before each evaluation.
var ValidFields = map[string]bool{
	// Agent ledger
	"balance":                 true,
	"credit_limit":            true,
	"credit_used":             true,
	"posted_collateral":       true,
	"collateral_haircut":      true,
	"allowed_overdraft_limit": true,
	"headroom":                true,
	"available_liquidity":     true,
	"max_collateral_capacity": true,
	"max_withdrawable":        true,
	"ticks_since_last_post":   true,

	// Transaction under consideration (payment tree only; zero elsewhere)
	"tx_amount":            true,
	"tx_remaining":         true,
	"tx_priority":          true,
	"tx_arrival_tick":      true,
	"tx_deadline_tick":     true,
	"tx_ticks_to_deadline": true,
	"tx_divisible":         true,

	// Queue aggregates
	"queue1_length":       true,
	"queue1_value":        true,
	"queue2_length":       true,
	"queue2_value":        true,
	"queue2_value_sender": true,

	// Cost previews
	"cost_overdraft_per_tick": true,
	"cost_delay_per_tick":     true,
	"cost_accrued_today":      true,

	// Time
	"tick":          true,
	"day":           true,
	"tick_of_day":   true,
	"ticks_per_day": true,
	"ticks_to_eod":  true,

	// Bank-tree state
	"release_budget": true,
}

// Field returns a context field value. Reading a validated field that the
// orchestrator did not populate yields zero, which is well-defined for every
// field above.
func (c *Context) Field(name string) float64 {
	return c.Fields[name]
}

// Param returns a named policy parameter.
func (c *Context) Param(name string) float64 {
	return c.Params[name]
}

// Register returns a per-agent state register; unset registers read as zero.
func (c *Context) Register(name string) float64 {
	return c.Registers[name]
}
