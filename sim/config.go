package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DistSpec parameterizes an amount distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// PriorityDistSpec parameterizes a priority distribution.
type PriorityDistSpec struct {
	Type    string          `yaml:"type"` // "uniform" or "categorical"
	Min     int             `yaml:"min,omitempty"`
	Max     int             `yaml:"max,omitempty"`
	Weights map[int]float64 `yaml:"weights,omitempty"`
}

// ArrivalConfig defines one agent's stochastic transaction generation.
type ArrivalConfig struct {
	// RatePerTick is the Poisson lambda for arrival counts per tick.
	RatePerTick float64 `yaml:"rate_per_tick" validate:"gte=0"`

	AmountDist DistSpec `yaml:"amount_distribution"`

	// CounterpartyWeights maps receiving agent ID -> relative weight.
	// Empty means uniform across all other agents.
	CounterpartyWeights map[string]float64 `yaml:"counterparty_weights,omitempty"`

	// Deadline offsets from the arrival tick, drawn uniformly.
	DeadlineMinOffset int64 `yaml:"deadline_min_offset" validate:"gte=0"`
	DeadlineMaxOffset int64 `yaml:"deadline_max_offset" validate:"gte=0"`

	// Priority is a fixed priority; PriorityDist overrides it when set.
	Priority     *int              `yaml:"priority,omitempty"`
	PriorityDist *PriorityDistSpec `yaml:"priority_distribution,omitempty"`

	// Divisible marks generated transactions as splittable.
	Divisible bool `yaml:"divisible"`
}

// PolicySpec selects an agent's decision policy: a named built-in or an
// inline JSON tree set.
type PolicySpec struct {
	// Name of a built-in policy ("fifo", "deadline"). Mutually exclusive
	// with JSON.
	Name string `yaml:"name,omitempty"`
	// JSON holds an inline policy tree-set document.
	JSON string `yaml:"json,omitempty"`
}

// AgentConfig defines one agent's opening state and behavior.
type AgentConfig struct {
	ID                        string         `yaml:"id" validate:"required"`
	OpeningBalance            int64          `yaml:"opening_balance"`
	CreditLimit               int64          `yaml:"credit_limit" validate:"gte=0"`
	CollateralHaircut         float64        `yaml:"collateral_haircut" validate:"gte=0,lte=1"`
	MaxCollateralCapacity     int64          `yaml:"max_collateral_capacity" validate:"gte=0"`
	CollateralMinHoldingTicks int64          `yaml:"collateral_min_holding_ticks" validate:"gte=0"`
	OpeningCollateral         int64          `yaml:"opening_collateral" validate:"gte=0"`
	Policy                    PolicySpec     `yaml:"policy"`
	Arrival                   *ArrivalConfig `yaml:"arrival_config,omitempty"`
}

// CostConfig sets the accrual rates, in basis points per tick of the
// relevant base amount. The overdue penalty is a one-time charge in basis
// points of the transaction amount.
type CostConfig struct {
	OverdraftBpPerTick  float64 `yaml:"overdraft_bp_per_tick" validate:"gte=0"`
	CollateralBpPerTick float64 `yaml:"collateral_bp_per_tick" validate:"gte=0"`
	DelayBpPerTick      float64 `yaml:"delay_bp_per_tick" validate:"gte=0"`
	OverduePenaltyBp    float64 `yaml:"overdue_penalty_bp" validate:"gte=0"`
}

// SimulationConfig is the top-level configuration.
// Loaded from YAML via LoadConfig(path); strict parsing rejects unknown keys.
type SimulationConfig struct {
	RNGSeed      int64 `yaml:"rng_seed"`
	TicksPerDay  int64 `yaml:"ticks_per_day" validate:"gt=0"`
	NumDays      int64 `yaml:"num_days" validate:"gt=0"`
	LSMFrequency int64 `yaml:"lsm_frequency" validate:"gte=0"`

	// PriorityMode enables T2-style priority bands in Queue2.
	PriorityMode bool `yaml:"priority_mode"`
	// Queue1Ordering: "fifo" (default) or "priority_deadline".
	Queue1Ordering Queue1Ordering `yaml:"queue1_ordering"`

	// EodCollateralUnwind withdraws each agent's unneeded collateral at the
	// close of every day.
	EodCollateralUnwind bool `yaml:"eod_collateral_unwind"`

	Agents         []AgentConfig         `yaml:"agents" validate:"min=1,dive"`
	ScenarioEvents []ScenarioEventConfig `yaml:"scenario_events,omitempty"`
	Costs          CostConfig            `yaml:"costs"`
	Hysteresis     HysteresisConfig      `yaml:"collateral_hysteresis"`
}

// Valid value registries.
var (
	validAmountDistTypes = map[string]bool{
		"uniform": true, "normal": true, "lognormal": true,
	}
	validPriorityDistTypes = map[string]bool{
		"uniform": true, "categorical": true,
	}
	validBuiltinPolicies = map[string]bool{
		"": true, "fifo": true, "deadline": true,
	}
)

// LoadConfig reads and parses a YAML simulation configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes with strict field checking.
func ParseConfig(data []byte) (*SimulationConfig, error) {
	var cfg SimulationConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// structValidator applies the scalar-range struct tags. Field names in
// violation messages use the yaml keys users actually wrote.
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the whole configuration eagerly. Any error is fatal at
// construction; no partially built orchestrator ever exists.
func (c *SimulationConfig) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("config field %s violates %q constraint (got %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	if c.LSMFrequency == 0 {
		c.LSMFrequency = 1
	}
	if !validQueue1Orderings[c.Queue1Ordering] {
		return fmt.Errorf("unknown queue1_ordering %q; valid: fifo, priority_deadline", c.Queue1Ordering)
	}

	seen := make(map[string]bool, len(c.Agents))
	for i := range c.Agents {
		if err := validateAgent(&c.Agents[i], i, c); err != nil {
			return err
		}
		if seen[c.Agents[i].ID] {
			return fmt.Errorf("agents[%d]: duplicate agent id %q", i, c.Agents[i].ID)
		}
		seen[c.Agents[i].ID] = true
	}
	for i := range c.Agents {
		if arr := c.Agents[i].Arrival; arr != nil {
			for cp := range arr.CounterpartyWeights {
				if !seen[cp] {
					return fmt.Errorf("agents[%d]: counterparty_weights references unknown agent %q", i, cp)
				}
				if cp == c.Agents[i].ID {
					return fmt.Errorf("agents[%d]: counterparty_weights must not reference the agent itself", i)
				}
			}
		}
	}
	for j := range c.ScenarioEvents {
		if err := c.ScenarioEvents[j].validate(j, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateAgent(a *AgentConfig, idx int, c *SimulationConfig) error {
	prefix := fmt.Sprintf("agents[%d]", idx)
	if a.Policy.Name != "" && a.Policy.JSON != "" {
		return fmt.Errorf("%s: policy name and inline json are mutually exclusive", prefix)
	}
	if a.Policy.JSON == "" && !validBuiltinPolicies[a.Policy.Name] {
		return fmt.Errorf("%s: unknown built-in policy %q; valid: fifo, deadline", prefix, a.Policy.Name)
	}
	if a.OpeningCollateral > a.MaxCollateralCapacity {
		return fmt.Errorf("%s: opening_collateral %d exceeds max_collateral_capacity %d",
			prefix, a.OpeningCollateral, a.MaxCollateralCapacity)
	}
	if a.Arrival == nil {
		return nil
	}
	arr := a.Arrival
	if arr.RatePerTick > 0 {
		if !validAmountDistTypes[arr.AmountDist.Type] {
			return fmt.Errorf("%s: unknown amount distribution type %q; valid: uniform, normal, lognormal",
				prefix, arr.AmountDist.Type)
		}
		for name, val := range arr.AmountDist.Params {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return fmt.Errorf("%s.amount_distribution.params.%s must be a finite number, got %f", prefix, name, val)
			}
		}
	}
	if arr.DeadlineMaxOffset < arr.DeadlineMinOffset {
		return fmt.Errorf("%s: deadline_max_offset %d below deadline_min_offset %d",
			prefix, arr.DeadlineMaxOffset, arr.DeadlineMinOffset)
	}
	if arr.Priority != nil && (*arr.Priority < 0 || *arr.Priority > 10) {
		return fmt.Errorf("%s: priority must be in [0, 10], got %d", prefix, *arr.Priority)
	}
	if pd := arr.PriorityDist; pd != nil {
		if !validPriorityDistTypes[pd.Type] {
			return fmt.Errorf("%s: unknown priority distribution type %q; valid: uniform, categorical", prefix, pd.Type)
		}
		switch pd.Type {
		case "uniform":
			if pd.Min < 0 || pd.Max > 10 || pd.Min > pd.Max {
				return fmt.Errorf("%s: priority distribution range [%d, %d] invalid", prefix, pd.Min, pd.Max)
			}
		case "categorical":
			if len(pd.Weights) == 0 {
				return fmt.Errorf("%s: categorical priority distribution requires weights", prefix)
			}
			for p := range pd.Weights {
				if p < 0 || p > 10 {
					return fmt.Errorf("%s: categorical priority %d out of [0, 10]", prefix, p)
				}
			}
		}
	}
	return nil
}
