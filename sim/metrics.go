// Tracks run-wide and per-day settlement metrics for final reporting.

package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DayMetrics summarizes one simulated day, finalized at end of day.
type DayMetrics struct {
	Day                 int64   `json:"day"`
	Arrivals            int     `json:"arrivals"`
	SettledCount        int     `json:"settled_count"`
	SettledValue        int64   `json:"settled_value"`
	OverdueCount        int     `json:"overdue_count"`
	LsmSettledCount     int     `json:"lsm_settled_count"`
	MeanSettlementDelay float64 `json:"mean_settlement_delay"`
	P95SettlementDelay  float64 `json:"p95_settlement_delay"`
	PeakQueue2Depth     int     `json:"peak_queue2_depth"`
	TotalCost           int64   `json:"total_cost"`
}

// Metrics aggregates statistics across the run. The orchestrator feeds it
// during ticks; days are closed out at EOD.
type Metrics struct {
	days    []DayMetrics
	current DayMetrics

	// settlement delays (settlement_tick - arrival_tick) for the open day
	delays []float64
}

// NewMetrics creates an empty Metrics tracking day 0.
func NewMetrics() *Metrics {
	return &Metrics{current: DayMetrics{Day: 0}}
}

// RecordArrival counts one arrival on the open day.
func (m *Metrics) RecordArrival() {
	m.current.Arrivals++
}

// RecordSettlement counts a settlement and its queueing delay.
func (m *Metrics) RecordSettlement(amount int64, delay int64, viaLSM bool) {
	m.current.SettledCount++
	m.current.SettledValue += amount
	if viaLSM {
		m.current.LsmSettledCount++
	}
	m.delays = append(m.delays, float64(delay))
}

// RecordOverdue counts a transaction going overdue on the open day.
func (m *Metrics) RecordOverdue() {
	m.current.OverdueCount++
}

// ObserveQueue2Depth tracks the peak shared-queue depth for the open day.
func (m *Metrics) ObserveQueue2Depth(depth int) {
	if depth > m.current.PeakQueue2Depth {
		m.current.PeakQueue2Depth = depth
	}
}

// CloseDay finalizes the open day's aggregates and starts the next day.
func (m *Metrics) CloseDay(dayCost int64) DayMetrics {
	if len(m.delays) > 0 {
		m.current.MeanSettlementDelay = stat.Mean(m.delays, nil)
		sorted := append([]float64(nil), m.delays...)
		sort.Float64s(sorted)
		m.current.P95SettlementDelay = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	}
	m.current.TotalCost = dayCost
	closed := m.current
	m.days = append(m.days, closed)
	m.current = DayMetrics{Day: closed.Day + 1}
	m.delays = m.delays[:0]
	return closed
}

// Day returns the finalized metrics for a completed day.
func (m *Metrics) Day(day int64) (DayMetrics, bool) {
	if day < 0 || day >= int64(len(m.days)) {
		return DayMetrics{}, false
	}
	return m.days[day], true
}

// Days returns all finalized day metrics.
func (m *Metrics) Days() []DayMetrics {
	out := make([]DayMetrics, len(m.days))
	copy(out, m.days)
	return out
}

// Print displays the per-day summary at the end of a run.
func (m *Metrics) Print() {
	fmt.Println("=== Settlement Metrics ===")
	for _, d := range m.days {
		fmt.Printf("Day %d: arrivals=%d settled=%d (value %d, lsm %d) overdue=%d "+
			"delay mean=%.2f p95=%.2f peak_queue2=%d cost=%d\n",
			d.Day, d.Arrivals, d.SettledCount, d.SettledValue, d.LsmSettledCount,
			d.OverdueCount, d.MeanSettlementDelay, d.P95SettlementDelay,
			d.PeakQueue2Depth, d.TotalCost)
	}
}
