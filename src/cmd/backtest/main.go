package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/market-replay/src/backtest"
	"github.com/jiaming2012/market-replay/src/data"
	"github.com/jiaming2012/market-replay/src/eventmodels"
	"github.com/jiaming2012/market-replay/src/eventpubsub"
	"github.com/jiaming2012/market-replay/src/execution"
	"github.com/jiaming2012/market-replay/src/indicators"
	"github.com/jiaming2012/market-replay/src/playback"
	"github.com/jiaming2012/market-replay/src/strategy"
	"github.com/jiaming2012/market-replay/src/trades"
	"github.com/jiaming2012/market-replay/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replays historical candles through a strategy and reports simulated performance",
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(cmd); err != nil {
			log.Fatalf("backtest failed: %v", err)
		}
	},
}

func buildFeed(cmd *cobra.Command, symbol eventmodels.Instrument) (playback.DataFeed, error) {
	providerName, err := cmd.Flags().GetString("provider")
	if err != nil {
		return nil, err
	}

	switch providerName {
	case "synthetic":
		provider := data.NewSyntheticProvider(100.0, 0.05)
		provider.Noise = 0.5
		return provider, nil

	case "csv":
		csvPath, err := cmd.Flags().GetString("csv")
		if err != nil {
			return nil, err
		}

		if csvPath == "" {
			return nil, fmt.Errorf("--csv is required with the csv provider")
		}

		return data.NewCSVProvider(map[eventmodels.Instrument]string{symbol: csvPath}), nil

	case "polygon":
		apiKey, err := utils.GetEnv("POLYGON_API_KEY")
		if err != nil {
			return nil, err
		}

		return data.NewPolygonProvider(apiKey), nil

	default:
		return nil, fmt.Errorf("unknown provider %q: want synthetic, csv or polygon", providerName)
	}
}

func run(cmd *cobra.Command) error {
	symbolStr, _ := cmd.Flags().GetString("symbol")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	interval, _ := cmd.Flags().GetDuration("interval")
	timeframe, _ := cmd.Flags().GetDuration("timeframe")
	balance, _ := cmd.Flags().GetFloat64("balance")
	speed, _ := cmd.Flags().GetFloat64("speed")
	fastPeriod, _ := cmd.Flags().GetInt("fast")
	slowPeriod, _ := cmd.Flags().GetInt("slow")

	symbol := eventmodels.Instrument(symbolStr)

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return fmt.Errorf("failed to parse --start: %w", err)
	}

	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return fmt.Errorf("failed to parse --end: %w", err)
	}

	feed, err := buildFeed(cmd, symbol)
	if err != nil {
		return err
	}

	backtestConfig := backtest.DefaultBacktestConfig()
	backtestConfig.InitialCash = balance
	backtestConfig.BaseInterval = interval
	backtestConfig.SignalTimeframe = timeframe

	sim := execution.NewSimulator(execution.DefaultSimulatorConfig())
	tracker := trades.NewTradeTracker()
	smaEngine := indicators.NewSMAEngine(fastPeriod, slowPeriod)
	orchestrator := backtest.NewOrchestrator(backtestConfig, sim, tracker, strategy.NewSMACrossover(), smaEngine)

	engine := playback.NewEngine(feed, []eventmodels.Instrument{symbol}, start, end, interval)
	engine.RegisterCandleObserver(orchestrator)

	if err := engine.LoadData(); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	if err := engine.SetSpeed(speed); err != nil {
		return err
	}

	if err := engine.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	for engine.State() != playback.StateStopped {
		if err := orchestrator.FatalErr(); err != nil {
			engine.Stop()
			return err
		}

		time.Sleep(25 * time.Millisecond)
	}

	printReport(orchestrator, sim, tracker, engine)

	return nil
}

func printReport(orchestrator *backtest.Orchestrator, sim *execution.Simulator, tracker *trades.TradeTracker, engine *playback.Engine) {
	tradeStats := tracker.GetTradeStatistics()
	execStats := sim.GetExecutionStatistics()

	finalEquity := orchestrator.Account().Cash
	curve := orchestrator.EquityCurve()
	if len(curve) > 0 {
		finalEquity = curve[len(curve)-1].Equity
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})

	table.Append([]string{"Candles processed", fmt.Sprintf("%d", engine.CandlesProcessed())})
	table.Append([]string{"Final equity", fmt.Sprintf("%.2f", finalEquity)})
	table.Append([]string{"Closed trades", fmt.Sprintf("%d", tradeStats.TotalTrades)})
	table.Append([]string{"Win rate", fmt.Sprintf("%.1f%%", tradeStats.WinRate*100)})
	table.Append([]string{"Total net P&L", fmt.Sprintf("%.2f", tradeStats.TotalNetPnL)})
	table.Append([]string{"Profit factor", fmt.Sprintf("%.2f", tradeStats.ProfitFactor)})
	table.Append([]string{"Avg MAE / MFE", fmt.Sprintf("%.2f%% / %.2f%%", tradeStats.AvgMAEPct, tradeStats.AvgMFEPct)})
	table.Append([]string{"Orders simulated", fmt.Sprintf("%d", execStats.TotalOrders)})
	table.Append([]string{"Avg fill rate", fmt.Sprintf("%.1f%%", execStats.AvgFillRate*100)})
	table.Append([]string{"Avg slippage", fmt.Sprintf("%.2f bps", execStats.AvgSlippageBps)})
	table.Append([]string{"Total commission", fmt.Sprintf("%.2f", execStats.TotalCommission)})

	table.Render()
}

func main() {
	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Fatalf("error initializing environment variables: %v", err)
	}

	eventpubsub.Init()

	rootCmd.Flags().String("symbol", "AAPL", "instrument to replay")
	rootCmd.Flags().String("provider", "synthetic", "candle provider: synthetic, csv or polygon")
	rootCmd.Flags().String("csv", "", "path to a candle csv file (csv provider)")
	rootCmd.Flags().String("start", "2021-01-04", "start date (YYYY-MM-DD)")
	rootCmd.Flags().String("end", "2021-01-08", "end date (YYYY-MM-DD)")
	rootCmd.Flags().Duration("interval", time.Minute, "base candle interval")
	rootCmd.Flags().Duration("timeframe", 0, "signal timeframe for aggregation (0 = trade on base candles)")
	rootCmd.Flags().Float64("balance", 100_000, "starting cash balance")
	rootCmd.Flags().Float64("speed", 0, "playback speed multiplier (0 = unthrottled)")
	rootCmd.Flags().Int("fast", 9, "fast sma period")
	rootCmd.Flags().Int("slow", 21, "slow sma period")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
