package trades

import (
	"time"

	"github.com/montanaflynn/stats"
)

// TradeStatistics summarizes the closed-trade collection.
type TradeStatistics struct {
	TotalTrades   int           `json:"total_trades"`
	WinningTrades int           `json:"winning_trades"`
	LosingTrades  int           `json:"losing_trades"`
	WinRate       float64       `json:"win_rate"`
	TotalNetPnL   float64       `json:"total_net_pnl"`
	AvgNetPnL     float64       `json:"avg_net_pnl"`
	NetPnLStdDev  float64       `json:"net_pnl_std_dev"`
	AvgWin        float64       `json:"avg_win"`
	AvgLoss       float64       `json:"avg_loss"`
	LargestWin    float64       `json:"largest_win"`
	LargestLoss   float64       `json:"largest_loss"`
	ProfitFactor  float64       `json:"profit_factor"`
	AvgMAEPct     float64       `json:"avg_mae_pct"`
	AvgMFEPct     float64       `json:"avg_mfe_pct"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// GetTradeStatistics derives summary statistics over closed trades. Open
// trades are excluded.
func (t *TradeTracker) GetTradeStatistics() TradeStatistics {
	result := TradeStatistics{
		TotalTrades: len(t.closedTrades),
	}

	if result.TotalTrades == 0 {
		return result
	}

	var pnls, wins, losses, maes, mfes, durations []float64
	grossWins := 0.0
	grossLosses := 0.0

	for _, trade := range t.closedTrades {
		pnls = append(pnls, trade.NetPnL)
		maes = append(maes, trade.MAEPct)
		mfes = append(mfes, trade.MFEPct)
		durations = append(durations, float64(trade.Duration))

		result.TotalNetPnL += trade.NetPnL

		if trade.NetPnL > 0 {
			result.WinningTrades++
			wins = append(wins, trade.NetPnL)
			grossWins += trade.NetPnL
		} else {
			result.LosingTrades++
			losses = append(losses, trade.NetPnL)
			grossLosses += -trade.NetPnL
		}
	}

	result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades)

	result.AvgNetPnL, _ = stats.Mean(pnls)
	result.NetPnLStdDev, _ = stats.StandardDeviation(pnls)
	result.AvgMAEPct, _ = stats.Mean(maes)
	result.AvgMFEPct, _ = stats.Mean(mfes)

	if len(wins) > 0 {
		result.AvgWin, _ = stats.Mean(wins)
		result.LargestWin, _ = stats.Max(wins)
	}

	if len(losses) > 0 {
		result.AvgLoss, _ = stats.Mean(losses)
		result.LargestLoss, _ = stats.Min(losses)
	}

	if grossLosses > 0 {
		result.ProfitFactor = grossWins / grossLosses
	}

	avgDuration, _ := stats.Mean(durations)
	result.AvgDuration = time.Duration(avgDuration)

	return result
}
