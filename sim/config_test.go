package sim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfigYAML = `
rng_seed: 42
ticks_per_day: 100
num_days: 2
lsm_frequency: 5
priority_mode: true
queue1_ordering: priority_deadline
agents:
  - id: bank_a
    opening_balance: 1000000
    credit_limit: 500000
    collateral_haircut: 0.05
    max_collateral_capacity: 2000000
    collateral_min_holding_ticks: 10
    opening_collateral: 100000
    policy:
      name: deadline
    arrival_config:
      rate_per_tick: 1.5
      amount_distribution:
        type: lognormal
        params:
          mu: 10.0
          sigma: 1.2
      counterparty_weights:
        bank_b: 1.0
      deadline_min_offset: 5
      deadline_max_offset: 30
      priority_distribution:
        type: categorical
        weights:
          3: 0.7
          9: 0.3
      divisible: true
  - id: bank_b
    opening_balance: 500000
    credit_limit: 250000
    policy:
      name: fifo
costs:
  overdraft_bp_per_tick: 0.5
  collateral_bp_per_tick: 0.1
  delay_bp_per_tick: 0.2
  overdue_penalty_bp: 50
collateral_hysteresis:
  enabled: true
  post_threshold_pct: 20
  withdraw_threshold_pct: 60
  post_increment: 50000
scenario_events:
  - type: DirectTransfer
    schedule:
      kind: one_time
      tick: 10
    from: bank_a
    to: bank_b
    amount: 100000
`

// === ParseConfig Tests ===

func TestParseConfig_Valid(t *testing.T) {
	cfg, err := ParseConfig([]byte(baseConfigYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(42), cfg.RNGSeed)
	assert.Equal(t, int64(100), cfg.TicksPerDay)
	assert.Equal(t, int64(5), cfg.LSMFrequency)
	assert.True(t, cfg.PriorityMode)
	assert.Equal(t, Queue1PriorityDeadline, cfg.Queue1Ordering)
	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "bank_a", cfg.Agents[0].ID)
	assert.Equal(t, 1.5, cfg.Agents[0].Arrival.RatePerTick)
	assert.Equal(t, "lognormal", cfg.Agents[0].Arrival.AmountDist.Type)
	require.Len(t, cfg.ScenarioEvents, 1)
	assert.Equal(t, ScenarioDirectTransfer, cfg.ScenarioEvents[0].Type)
}

func TestParseConfig_UnknownKeyRejected(t *testing.T) {
	// BDD: strict parsing catches typos instead of silently ignoring them
	yaml := strings.Replace(baseConfigYAML, "rng_seed:", "rng_sede:", 1)
	_, err := ParseConfig([]byte(yaml))
	assert.Error(t, err)
}

func TestParseConfig_Malformed(t *testing.T) {
	_, err := ParseConfig([]byte("agents: [not : valid : yaml"))
	assert.Error(t, err)
}

// === Validate Tests ===

func mustParse(t *testing.T, yaml string) *SimulationConfig {
	t.Helper()
	cfg, err := ParseConfig([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			"zero ticks_per_day",
			func(y string) string { return strings.Replace(y, "ticks_per_day: 100", "ticks_per_day: 0", 1) },
			"ticks_per_day",
		},
		{
			"duplicate agent id",
			func(y string) string { return strings.Replace(y, "id: bank_b", "id: bank_a", 1) },
			"duplicate agent id",
		},
		{
			"unknown built-in policy",
			func(y string) string { return strings.Replace(y, "name: fifo", "name: lifo", 1) },
			"unknown built-in policy",
		},
		{
			"unknown counterparty",
			func(y string) string { return strings.Replace(y, "bank_b: 1.0", "bank_z: 1.0", 1) },
			"unknown agent",
		},
		{
			"unknown scenario type",
			func(y string) string { return strings.Replace(y, "type: DirectTransfer", "type: MeteorStrike", 1) },
			"Invalid event type",
		},
		{
			"opening collateral beyond capacity",
			func(y string) string {
				return strings.Replace(y, "opening_collateral: 100000", "opening_collateral: 9000000", 1)
			},
			"max_collateral_capacity",
		},
		{
			"haircut above one",
			func(y string) string {
				return strings.Replace(y, "collateral_haircut: 0.05", "collateral_haircut: 1.5", 1)
			},
			"collateral_haircut",
		},
		{
			"unknown amount distribution",
			func(y string) string { return strings.Replace(y, "type: lognormal", "type: pareto", 1) },
			"amount distribution",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustParse(t, tt.mutate(baseConfigYAML))
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)
		})
	}
}

func TestValidate_LSMFrequencyDefaultsToEveryTick(t *testing.T) {
	yaml := strings.Replace(baseConfigYAML, "lsm_frequency: 5", "lsm_frequency: 0", 1)
	cfg := mustParse(t, yaml)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(1), cfg.LSMFrequency)
}

func TestValidate_PolicyNameAndJSONMutuallyExclusive(t *testing.T) {
	cfg := mustParse(t, baseConfigYAML)
	cfg.Agents[0].Policy.JSON = `{"trees": {}}`
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

// === Scenario event validation Tests ===

func TestScenarioEventValidate(t *testing.T) {
	known := map[string]bool{"bank_a": true, "bank_b": true}
	tests := []struct {
		name    string
		ev      ScenarioEventConfig
		wantSub string // empty means valid
	}{
		{
			"valid direct transfer",
			ScenarioEventConfig{
				Type: ScenarioDirectTransfer, Schedule: ScheduleConfig{Kind: "one_time", Tick: 5},
				From: "bank_a", To: "bank_b", Amount: 100,
			},
			"",
		},
		{
			"unknown type names the key",
			ScenarioEventConfig{Type: "SolarFlare", Schedule: ScheduleConfig{Kind: "one_time"}},
			`Invalid event type "SolarFlare"`,
		},
		{
			"missing schedule kind",
			ScenarioEventConfig{Type: ScenarioDirectTransfer, From: "bank_a", To: "bank_b", Amount: 1},
			"missing required field schedule.kind",
		},
		{
			"missing from",
			ScenarioEventConfig{
				Type: ScenarioDirectTransfer, Schedule: ScheduleConfig{Kind: "one_time"},
				To: "bank_b", Amount: 1,
			},
			"missing required field from",
		},
		{
			"missing amount",
			ScenarioEventConfig{
				Type: ScenarioDirectTransfer, Schedule: ScheduleConfig{Kind: "one_time"},
				From: "bank_a", To: "bank_b",
			},
			"missing required field amount",
		},
		{
			"unknown agent reference",
			ScenarioEventConfig{
				Type: ScenarioCollateralAdjustment, Schedule: ScheduleConfig{Kind: "one_time"},
				Agent: "bank_z", Delta: 100,
			},
			`unknown agent "bank_z"`,
		},
		{
			"missing multiplier",
			ScenarioEventConfig{
				Type: ScenarioGlobalArrivalRateChange, Schedule: ScheduleConfig{Kind: "repeating", Interval: 10},
			},
			"missing required field multiplier",
		},
		{
			"repeating needs positive interval",
			ScenarioEventConfig{
				Type: ScenarioGlobalArrivalRateChange, Schedule: ScheduleConfig{Kind: "repeating"},
				Multiplier: 2,
			},
			"schedule.interval",
		},
		{
			"valid repeating rate change",
			ScenarioEventConfig{
				Type: ScenarioAgentArrivalRateChange, Schedule: ScheduleConfig{Kind: "repeating", StartTick: 10, Interval: 50},
				Agent: "bank_a", Multiplier: 0.5,
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.validate(0, known)
			if tt.wantSub == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantSub)
			}
		})
	}
}

func TestScheduleConfig_FiresAt(t *testing.T) {
	oneTime := ScheduleConfig{Kind: "one_time", Tick: 7}
	assert.True(t, oneTime.FiresAt(7))
	assert.False(t, oneTime.FiresAt(8))

	repeating := ScheduleConfig{Kind: "repeating", StartTick: 10, Interval: 5}
	assert.False(t, repeating.FiresAt(9))
	assert.True(t, repeating.FiresAt(10))
	assert.False(t, repeating.FiresAt(12))
	assert.True(t, repeating.FiresAt(25))
}
