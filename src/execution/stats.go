package execution

import (
	"time"

	"github.com/montanaflynn/stats"
)

// ExecutionStats summarizes the execution history. Recomputing with no new
// orders yields the same values.
type ExecutionStats struct {
	TotalOrders     int           `json:"total_orders"`
	FilledOrders    int           `json:"filled_orders"`
	PartialOrders   int           `json:"partial_orders"`
	RejectedOrders  int           `json:"rejected_orders"`
	AvgFillRate     float64       `json:"avg_fill_rate"`
	AvgSlippageBps  float64       `json:"avg_slippage_bps"`
	AvgLatency      time.Duration `json:"avg_latency"`
	TotalCommission float64       `json:"total_commission"`
}

// GetExecutionStatistics derives summary statistics from the append-only
// execution history.
func (s *Simulator) GetExecutionStatistics() ExecutionStats {
	result := ExecutionStats{
		TotalOrders: len(s.history),
	}

	var fillRates, slippages, latencies []float64

	for _, exec := range s.history {
		switch exec.Status {
		case OrderStatusFilled:
			result.FilledOrders++
		case OrderStatusPartiallyFilled:
			result.PartialOrders++
		case OrderStatusRejected:
			result.RejectedOrders++
		}

		result.TotalCommission += exec.Commission

		if exec.Status == OrderStatusRejected {
			continue
		}

		if exec.RequestedQuantity > 0 {
			fillRates = append(fillRates, exec.FilledQuantity/exec.RequestedQuantity)
		}

		slippages = append(slippages, exec.SlippageBps)
		latencies = append(latencies, float64(exec.Latency))
	}

	if len(fillRates) > 0 {
		result.AvgFillRate, _ = stats.Mean(fillRates)
	}

	if len(slippages) > 0 {
		result.AvgSlippageBps, _ = stats.Mean(slippages)
	}

	if len(latencies) > 0 {
		avgLatency, _ := stats.Mean(latencies)
		result.AvgLatency = time.Duration(avgLatency)
	}

	return result
}
