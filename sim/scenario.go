package sim

import "fmt"

// Scenario event kinds. Closed set: unknown discriminators are rejected at
// construction, naming the offending key.
const (
	ScenarioDirectTransfer          = "DirectTransfer"
	ScenarioCollateralAdjustment    = "CollateralAdjustment"
	ScenarioGlobalArrivalRateChange = "GlobalArrivalRateChange"
	ScenarioAgentArrivalRateChange  = "AgentArrivalRateChange"
	ScenarioDeadlineWindowChange    = "DeadlineWindowChange"
)

// validScenarioTypes maps accepted scenario event discriminators.
var validScenarioTypes = map[string]bool{
	ScenarioDirectTransfer:          true,
	ScenarioCollateralAdjustment:    true,
	ScenarioGlobalArrivalRateChange: true,
	ScenarioAgentArrivalRateChange:  true,
	ScenarioDeadlineWindowChange:    true,
}

// ScheduleConfig says when a scenario event fires: exactly once at Tick, or
// repeatedly from StartTick every Interval ticks.
type ScheduleConfig struct {
	Kind      string `yaml:"kind"` // "one_time" or "repeating"
	Tick      int64  `yaml:"tick,omitempty"`
	StartTick int64  `yaml:"start_tick,omitempty"`
	Interval  int64  `yaml:"interval,omitempty"`
}

// FiresAt reports whether the schedule matches the given tick.
func (s *ScheduleConfig) FiresAt(tick int64) bool {
	switch s.Kind {
	case "one_time":
		return tick == s.Tick
	case "repeating":
		return tick >= s.StartTick && (tick-s.StartTick)%s.Interval == 0
	default:
		return false
	}
}

// ScenarioEventConfig is one exogenous perturbation. The struct is the union
// of every variant's fields; validate() checks that the fields required by
// Type are present and the rest are ignored.
type ScenarioEventConfig struct {
	Type     string         `yaml:"type"`
	Schedule ScheduleConfig `yaml:"schedule"`

	// DirectTransfer
	From   string `yaml:"from,omitempty"`
	To     string `yaml:"to,omitempty"`
	Amount int64  `yaml:"amount,omitempty"`

	// CollateralAdjustment / AgentArrivalRateChange / DeadlineWindowChange
	Agent string `yaml:"agent,omitempty"`

	// CollateralAdjustment
	Delta int64 `yaml:"delta,omitempty"`

	// GlobalArrivalRateChange / AgentArrivalRateChange
	Multiplier float64 `yaml:"multiplier,omitempty"`

	// DeadlineWindowChange
	DeadlineMinOffset int64 `yaml:"deadline_min_offset,omitempty"`
	DeadlineMaxOffset int64 `yaml:"deadline_max_offset,omitempty"`
}

// validate checks the discriminator, schedule and variant-required fields.
// knownAgents guards agent references.
func (e *ScenarioEventConfig) validate(idx int, knownAgents map[string]bool) error {
	prefix := fmt.Sprintf("scenario_events[%d]", idx)
	if !validScenarioTypes[e.Type] {
		return fmt.Errorf("%s: Invalid event type %q", prefix, e.Type)
	}
	switch e.Schedule.Kind {
	case "one_time":
		if e.Schedule.Tick < 0 {
			return fmt.Errorf("%s: schedule.tick must be non-negative, got %d", prefix, e.Schedule.Tick)
		}
	case "repeating":
		if e.Schedule.Interval <= 0 {
			return fmt.Errorf("%s: schedule.interval must be positive, got %d", prefix, e.Schedule.Interval)
		}
		if e.Schedule.StartTick < 0 {
			return fmt.Errorf("%s: schedule.start_tick must be non-negative, got %d", prefix, e.Schedule.StartTick)
		}
	case "":
		return fmt.Errorf("%s: missing required field schedule.kind", prefix)
	default:
		return fmt.Errorf("%s: unknown schedule kind %q; valid: one_time, repeating", prefix, e.Schedule.Kind)
	}

	requireAgent := func(field, id string) error {
		if id == "" {
			return fmt.Errorf("%s: missing required field %s", prefix, field)
		}
		if !knownAgents[id] {
			return fmt.Errorf("%s: %s references unknown agent %q", prefix, field, id)
		}
		return nil
	}

	switch e.Type {
	case ScenarioDirectTransfer:
		if err := requireAgent("from", e.From); err != nil {
			return err
		}
		if err := requireAgent("to", e.To); err != nil {
			return err
		}
		if e.From == e.To {
			return fmt.Errorf("%s: from and to must differ", prefix)
		}
		if e.Amount <= 0 {
			return fmt.Errorf("%s: missing required field amount (must be positive)", prefix)
		}
	case ScenarioCollateralAdjustment:
		if err := requireAgent("agent", e.Agent); err != nil {
			return err
		}
		if e.Delta == 0 {
			return fmt.Errorf("%s: missing required field delta (must be non-zero)", prefix)
		}
	case ScenarioGlobalArrivalRateChange:
		if e.Multiplier <= 0 {
			return fmt.Errorf("%s: missing required field multiplier (must be positive)", prefix)
		}
	case ScenarioAgentArrivalRateChange:
		if err := requireAgent("agent", e.Agent); err != nil {
			return err
		}
		if e.Multiplier <= 0 {
			return fmt.Errorf("%s: missing required field multiplier (must be positive)", prefix)
		}
	case ScenarioDeadlineWindowChange:
		if err := requireAgent("agent", e.Agent); err != nil {
			return err
		}
		if e.DeadlineMaxOffset < e.DeadlineMinOffset || e.DeadlineMaxOffset <= 0 {
			return fmt.Errorf("%s: deadline window [%d, %d] invalid", prefix, e.DeadlineMinOffset, e.DeadlineMaxOffset)
		}
	}
	return nil
}
