package eventlog

import (
	"encoding/json"
	"fmt"
)

// ReplayState is the ledger state reconstructed from an event log.
type ReplayState struct {
	Balances   map[string]int64
	Collateral map[string]int64
}

// Replay folds an event history over the opening balances and opening
// collateral and returns the reconstructed final state. Driving this from a
// persisted log must reproduce the original run's final state exactly; the
// determinism tests hold the engine to that contract. A nil openingCollateral
// means no agent started with collateral posted.
func Replay(openingBalances, openingCollateral map[string]int64, events []Event) (ReplayState, error) {
	st := ReplayState{
		Balances:   make(map[string]int64, len(openingBalances)),
		Collateral: make(map[string]int64, len(openingCollateral)),
	}
	for id, bal := range openingBalances {
		st.Balances[id] = bal
	}
	for id, col := range openingCollateral {
		st.Collateral[id] = col
	}
	for _, ev := range events {
		if err := applyEvent(&st, ev); err != nil {
			return st, fmt.Errorf("replay: event seq %d (%s): %w", ev.Seq, ev.Type, err)
		}
	}
	return st, nil
}

func applyEvent(st *ReplayState, ev Event) error {
	switch ev.Type {
	case EventRtgsImmediateSettlement, EventQueue2LiquidityRelease, EventEodForcedSettlement:
		amount, err := detailInt(ev.Details, "amount")
		if err != nil {
			return err
		}
		if len(ev.Agents) < 2 {
			return fmt.Errorf("settlement event needs sender and receiver, got %v", ev.Agents)
		}
		st.Balances[ev.Agents[0]] -= amount
		st.Balances[ev.Agents[1]] += amount

	case EventLsmBilateralOffset:
		ab, err := detailInt(ev.Details, "amount_a_to_b")
		if err != nil {
			return err
		}
		ba, err := detailInt(ev.Details, "amount_b_to_a")
		if err != nil {
			return err
		}
		if len(ev.Agents) < 2 {
			return fmt.Errorf("bilateral offset needs two agents, got %v", ev.Agents)
		}
		st.Balances[ev.Agents[0]] += ba - ab
		st.Balances[ev.Agents[1]] += ab - ba

	case EventLsmCycleSettlement:
		legs, ok := ev.Details["legs"].([]any)
		if !ok {
			return fmt.Errorf("cycle settlement missing legs")
		}
		for _, raw := range legs {
			leg, ok := raw.(map[string]any)
			if !ok {
				return fmt.Errorf("malformed cycle leg %v", raw)
			}
			amount, err := detailInt(leg, "amount")
			if err != nil {
				return err
			}
			sender, _ := leg["sender_id"].(string)
			receiver, _ := leg["receiver_id"].(string)
			st.Balances[sender] -= amount
			st.Balances[receiver] += amount
		}

	case EventCollateralPosted:
		amount, err := detailInt(ev.Details, "amount")
		if err != nil {
			return err
		}
		st.Collateral[ev.Agents[0]] += amount

	case EventCollateralWithdrawn:
		amount, err := detailInt(ev.Details, "amount")
		if err != nil {
			return err
		}
		st.Collateral[ev.Agents[0]] -= amount

	case EventScenarioExecuted:
		kind, _ := ev.Details["scenario_type"].(string)
		switch kind {
		case "DirectTransfer":
			amount, err := detailInt(ev.Details, "amount")
			if err != nil {
				return err
			}
			if len(ev.Agents) < 2 {
				return fmt.Errorf("direct transfer needs two agents, got %v", ev.Agents)
			}
			st.Balances[ev.Agents[0]] -= amount
			st.Balances[ev.Agents[1]] += amount
		case "CollateralAdjustment":
			delta, err := detailInt(ev.Details, "delta")
			if err != nil {
				return err
			}
			st.Collateral[ev.Agents[0]] += delta
		}
		// Rate and deadline-window scenarios do not move money.

	default:
		// Arrivals, policy decisions, splits, overdue markers and cost
		// accruals do not move settlement balances.
	}
	return nil
}

// detailInt reads an integer monetary field from a details map, tolerating
// the numeric types a JSON round-trip produces.
func detailInt(details map[string]any, key string) (int64, error) {
	raw, ok := details[key]
	if !ok {
		return 0, fmt.Errorf("missing detail %q", key)
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("detail %q has non-numeric type %T", key, raw)
	}
}
