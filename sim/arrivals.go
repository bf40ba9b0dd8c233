package sim

import "fmt"

// ArrivalGenerator draws one agent's stochastic transaction arrivals. All
// randomness flows through the agent's own named sub-streams, so one agent's
// draws never perturb another's sequence.
type ArrivalGenerator struct {
	agentID      string
	rate         float64 // current Poisson lambda per tick
	amounts      AmountSampler
	priorities   PrioritySampler
	counterparty *WeightedChooser
	deadlineMin  int64
	deadlineMax  int64
	divisible    bool
}

// NewArrivalGenerator builds a generator from an agent's arrival config.
// allAgentIDs supplies the uniform counterparty fallback when no weights are
// configured. Returns nil when the agent generates no arrivals.
func NewArrivalGenerator(agentID string, cfg *ArrivalConfig, allAgentIDs []string) (*ArrivalGenerator, error) {
	if cfg == nil || cfg.RatePerTick <= 0 {
		return nil, nil
	}
	amounts, err := NewAmountSampler(cfg.AmountDist)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, err)
	}

	var priorities PrioritySampler
	switch {
	case cfg.PriorityDist != nil && cfg.PriorityDist.Type == "categorical":
		priorities, err = NewCategoricalPrioritySampler(cfg.PriorityDist.Weights)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", agentID, err)
		}
	case cfg.PriorityDist != nil && cfg.PriorityDist.Type == "uniform":
		priorities = &UniformPrioritySampler{min: cfg.PriorityDist.Min, max: cfg.PriorityDist.Max}
	case cfg.Priority != nil:
		priorities = &FixedPrioritySampler{value: *cfg.Priority}
	default:
		priorities = &FixedPrioritySampler{value: 5}
	}

	weights := cfg.CounterpartyWeights
	if len(weights) == 0 {
		weights = make(map[string]float64, len(allAgentIDs))
		for _, id := range allAgentIDs {
			if id != agentID {
				weights[id] = 1.0
			}
		}
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("agent %s: no possible counterparties", agentID)
	}
	chooser, err := NewWeightedChooser(weights)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, err)
	}

	return &ArrivalGenerator{
		agentID:      agentID,
		rate:         cfg.RatePerTick,
		amounts:      amounts,
		priorities:   priorities,
		counterparty: chooser,
		deadlineMin:  cfg.DeadlineMinOffset,
		deadlineMax:  cfg.DeadlineMaxOffset,
		divisible:    cfg.Divisible,
	}, nil
}

// Rate returns the current arrival rate (Poisson lambda per tick).
func (g *ArrivalGenerator) Rate() float64 {
	return g.rate
}

// ScaleRate multiplies the current rate and returns (old, new). Used by
// arrival-rate scenario events.
func (g *ArrivalGenerator) ScaleRate(multiplier float64) (float64, float64) {
	old := g.rate
	g.rate *= multiplier
	return old, g.rate
}

// SetDeadlineWindow replaces the deadline offset window. Used by
// DeadlineWindowChange scenario events.
func (g *ArrivalGenerator) SetDeadlineWindow(minOffset, maxOffset int64) {
	g.deadlineMin = minOffset
	g.deadlineMax = maxOffset
}

// Draw samples this tick's arrivals for the agent. nextID mints transaction
// IDs in deterministic sequence.
func (g *ArrivalGenerator) Draw(tick int64, rng *StreamRNG, nextID func() string) []*Transaction {
	countRNG := rng.Stream(StreamForAgent(StreamArrivals, g.agentID))
	count := samplePoissonCount(countRNG, g.rate)
	if count == 0 {
		return nil
	}
	amountRNG := rng.Stream(StreamForAgent(StreamAmounts, g.agentID))
	priorityRNG := rng.Stream(StreamForAgent(StreamPriorities, g.agentID))
	counterpartyRNG := rng.Stream(StreamForAgent(StreamCounterparties, g.agentID))
	deadlineRNG := rng.Stream(StreamForAgent(StreamDeadlines, g.agentID))

	out := make([]*Transaction, 0, count)
	for i := 0; i < count; i++ {
		deadlineOffset := g.deadlineMin
		if g.deadlineMax > g.deadlineMin {
			deadlineOffset += deadlineRNG.Int63n(g.deadlineMax - g.deadlineMin + 1)
		}
		out = append(out, &Transaction{
			ID:           nextID(),
			SenderID:     g.agentID,
			ReceiverID:   g.counterparty.Choose(counterpartyRNG),
			Amount:       g.amounts.Sample(amountRNG),
			Priority:     g.priorities.Sample(priorityRNG),
			ArrivalTick:  tick,
			DeadlineTick: tick + deadlineOffset,
			Divisible:    g.divisible,
			Status:       TxPending,
		})
	}
	return out
}
