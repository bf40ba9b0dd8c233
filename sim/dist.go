package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// AmountSampler generates transaction amounts in integer minor units.
type AmountSampler interface {
	// Sample returns a positive amount (>= 1 minor unit).
	Sample(rng *rand.Rand) int64
}

// UniformAmountSampler draws uniformly from [min, max].
type UniformAmountSampler struct {
	min, max int64
}

func (s *UniformAmountSampler) Sample(rng *rand.Rand) int64 {
	if s.min >= s.max {
		return maxInt64(1, s.min)
	}
	val := s.min + rng.Int63n(s.max-s.min+1)
	return maxInt64(1, val)
}

// NormalAmountSampler produces clamped Gaussian amounts.
type NormalAmountSampler struct {
	mean, stdDev float64
}

func (s *NormalAmountSampler) Sample(rng *rand.Rand) int64 {
	val := rng.NormFloat64()*s.stdDev + s.mean
	result := int64(math.Round(val))
	return maxInt64(1, result)
}

// LogNormalAmountSampler produces heavy-tailed amounts: X = exp(mu + sigma*Z).
type LogNormalAmountSampler struct {
	mu, sigma float64
}

func (s *LogNormalAmountSampler) Sample(rng *rand.Rand) int64 {
	z := rng.NormFloat64()
	val := math.Exp(s.mu + s.sigma*z)
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 1
	}
	result := int64(math.Round(val))
	return maxInt64(1, result)
}

// NewAmountSampler creates an AmountSampler from a DistSpec.
func NewAmountSampler(spec DistSpec) (AmountSampler, error) {
	switch spec.Type {
	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		return &UniformAmountSampler{
			min: int64(spec.Params["min"]),
			max: int64(spec.Params["max"]),
		}, nil

	case "normal":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		return &NormalAmountSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
		}, nil

	case "lognormal":
		if err := requireParam(spec.Params, "mu", "sigma"); err != nil {
			return nil, err
		}
		return &LogNormalAmountSampler{
			mu:    spec.Params["mu"],
			sigma: spec.Params["sigma"],
		}, nil

	default:
		return nil, fmt.Errorf("unknown amount distribution type %q", spec.Type)
	}
}

// PrioritySampler generates transaction priorities in [0, 10].
type PrioritySampler interface {
	Sample(rng *rand.Rand) int
}

// FixedPrioritySampler always returns the same priority.
type FixedPrioritySampler struct {
	value int
}

func (s *FixedPrioritySampler) Sample(_ *rand.Rand) int {
	return s.value
}

// UniformPrioritySampler draws uniformly from [min, max].
type UniformPrioritySampler struct {
	min, max int
}

func (s *UniformPrioritySampler) Sample(rng *rand.Rand) int {
	if s.min >= s.max {
		return s.min
	}
	return s.min + rng.Intn(s.max-s.min+1)
}

// CategoricalPrioritySampler draws from an explicit priority -> weight table
// using inverse CDF over the priorities in ascending order, so sampling is
// independent of map iteration order.
type CategoricalPrioritySampler struct {
	values []int
	cdf    []float64
}

// NewCategoricalPrioritySampler builds the sampler from a weight table.
// Weights are normalized; non-positive weights are dropped.
func NewCategoricalPrioritySampler(weights map[int]float64) (*CategoricalPrioritySampler, error) {
	keys := make([]int, 0, len(weights))
	total := 0.0
	for k, w := range weights {
		if w > 0 {
			keys = append(keys, k)
			total += w
		}
	}
	if len(keys) == 0 || total <= 0 {
		return nil, fmt.Errorf("categorical priority distribution has no positive weights")
	}
	sort.Ints(keys)
	values := make([]int, 0, len(keys))
	cdf := make([]float64, 0, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		cumulative += weights[k] / total
		values = append(values, k)
		cdf = append(cdf, cumulative)
	}
	cdf[len(cdf)-1] = 1.0
	return &CategoricalPrioritySampler{values: values, cdf: cdf}, nil
}

func (s *CategoricalPrioritySampler) Sample(rng *rand.Rand) int {
	u := rng.Float64()
	idx := sort.SearchFloat64s(s.cdf, u)
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	}
	return s.values[idx]
}

// WeightedChooser picks a string key by configured weight via inverse CDF,
// with keys in ascending lexicographic order for determinism. Used for
// counterparty selection.
type WeightedChooser struct {
	keys []string
	cdf  []float64
}

// NewWeightedChooser builds a chooser from a weight table.
func NewWeightedChooser(weights map[string]float64) (*WeightedChooser, error) {
	keys := make([]string, 0, len(weights))
	total := 0.0
	for k, w := range weights {
		if w > 0 {
			keys = append(keys, k)
			total += w
		}
	}
	if len(keys) == 0 || total <= 0 {
		return nil, fmt.Errorf("weight table has no positive weights")
	}
	sort.Strings(keys)
	cdf := make([]float64, 0, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		cumulative += weights[k] / total
		cdf = append(cdf, cumulative)
	}
	cdf[len(cdf)-1] = 1.0
	return &WeightedChooser{keys: keys, cdf: cdf}, nil
}

// Choose returns one key drawn by weight.
func (c *WeightedChooser) Choose(rng *rand.Rand) string {
	u := rng.Float64()
	idx := sort.SearchFloat64s(c.cdf, u)
	if idx >= len(c.keys) {
		idx = len(c.keys) - 1
	}
	return c.keys[idx]
}

// samplePoissonCount draws a Poisson(lambda) arrival count via Knuth's
// inversion. Exact for the small per-tick rates this engine uses.
func samplePoissonCount(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	count := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return count
		}
		count++
	}
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
