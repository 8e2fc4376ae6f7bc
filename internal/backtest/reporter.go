package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/cci-trader/internal/models"
)

// GenerateConsoleReport formats a backtest result for terminal output
func GenerateConsoleReport(result *models.BacktestResult) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Symbol: %s (%s)\n", result.Symbol, result.Timeframe))
	builder.WriteString(fmt.Sprintf("Positions: %d (%d won / %d lost)\n",
		result.TotalPositions, result.WinningPositions, result.LosingPositions))
	builder.WriteString(fmt.Sprintf("Trades: %d\n", result.TotalTrades))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", result.WinRate))
	builder.WriteString(fmt.Sprintf("Total Profit: %.2f\n", result.TotalProfit))
	builder.WriteString(fmt.Sprintf("Total Fees: %.2f\n", result.TotalFees))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", result.MaxDrawdown))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", result.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Final Capital: %.2f\n", result.FinalCapital))

	if len(result.Positions) > 0 {
		builder.WriteString("\nPositions\n")
		builder.WriteString("---------\n")
		for i, p := range result.Positions {
			builder.WriteString(fmt.Sprintf("%3d. %-5s stage=%d exit=%-11s profit=%.2f fees=%.2f duration=%s\n",
				i+1, p.Type, p.MaxStage, p.ExitReason, p.TotalProfit, p.TotalFees, p.Duration))
		}
	}

	return builder.String()
}

// GenerateJSONReport writes the full result as JSON
func GenerateJSONReport(result *models.BacktestResult, outputPath string) error {
	data, err := result.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(data), 0o644)
}

// GenerateCSVExport exports key metrics for spreadsheets
func GenerateCSVExport(result *models.BacktestResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	csv := "metric,value\n" +
		fmt.Sprintf("symbol,%s\n", result.Symbol) +
		fmt.Sprintf("timeframe,%s\n", result.Timeframe) +
		fmt.Sprintf("total_positions,%d\n", result.TotalPositions) +
		fmt.Sprintf("total_trades,%d\n", result.TotalTrades) +
		fmt.Sprintf("win_rate,%.4f\n", result.WinRate) +
		fmt.Sprintf("total_profit,%.4f\n", result.TotalProfit) +
		fmt.Sprintf("total_fees,%.4f\n", result.TotalFees) +
		fmt.Sprintf("max_drawdown,%.4f\n", result.MaxDrawdown) +
		fmt.Sprintf("profit_factor,%.4f\n", result.ProfitFactor) +
		fmt.Sprintf("final_capital,%.4f\n", result.FinalCapital)
	return os.WriteFile(outputPath, []byte(csv), 0o644)
}
