// Package report renders backtest results, live evaluations and order book
// summaries as console tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/rxtech-lab/argo-macd/internal/results"
	"github.com/rxtech-lab/argo-macd/internal/trading"
	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/pkg/marketdata"
)

const timeLayout = "2006-01-02 15:04"

// Printer writes reports to out.
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) title(text string) {
	fmt.Fprintf(p.out, "\n%s\n", TitleStyle.Render(text))
}

// PrintSummary prints the headline statistics of a backtest.
func (p *Printer) PrintSummary(result types.BacktestResult) {
	s := result.Statistics

	p.title(fmt.Sprintf("Backtest %s", result.Symbol))

	table := tablewriter.NewWriter(p.out)
	table.Header("Metric", "Value")

	timeframes := make([]string, len(result.Timeframes))
	for i, tf := range result.Timeframes {
		timeframes[i] = string(tf)
	}

	rows := [][]string{
		{"Period", fmt.Sprintf("%s → %s", result.StartDate.Format(timeLayout), result.EndDate.Format(timeLayout))},
		{"Timeframes", strings.Join(timeframes, ", ")},
		{"Initial capital", fmt.Sprintf("$%.2f", s.InitialCapital)},
		{"Final capital", fmt.Sprintf("$%.2f", s.FinalCapital)},
		{"Total return", Signed("%.2f%%", s.TotalReturn*100)},
		{"Total trades", fmt.Sprintf("%d", s.TotalTrades)},
		{"Winning / losing", fmt.Sprintf("%d / %d", s.WinningTrades, s.LosingTrades)},
		{"Win rate", fmt.Sprintf("%.2f%%", s.WinRate*100)},
		{"Max drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown*100)},
		{"Profit factor", s.ProfitFactor.String()},
		{"Sharpe ratio", s.SharpeRatio.String()},
		{"Sortino ratio", s.SortinoRatio.String()},
		{"Realized PnL", Signed("$%.2f", s.TradePnl.RealizedPnL)},
	}

	for _, row := range rows {
		table.Append(row)
	}

	if len(s.ExitReasons) > 0 {
		reasons := make([]string, 0, len(s.ExitReasons))
		for reason, n := range s.ExitReasons {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}

		sort.Strings(reasons)
		table.Append([]string{"Exit reasons", strings.Join(reasons, " ")})
	}

	if result.OpenPosition != nil {
		table.Append([]string{"Open position", fmt.Sprintf("%s @ %.2f", result.OpenPosition.Type, result.OpenPosition.EntryPrice)})
	}

	table.Render()
}

// PrintTrades prints the trade ledger.
func (p *Printer) PrintTrades(records []results.TradeRecord) {
	p.title("Trades")

	if len(records) == 0 {
		fmt.Fprintln(p.out, HelpStyle.Render("no trades"))

		return
	}

	table := tablewriter.NewWriter(p.out)
	table.Header("#", "Type", "Entry", "Exit", "Entry $", "Exit $", "Change", "PnL", "Reason")

	for i, r := range records {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			string(r.Type),
			r.EntryTime.Format(timeLayout),
			r.ExitTime.Format(timeLayout),
			fmt.Sprintf("%.2f", r.EntryPrice),
			fmt.Sprintf("%.2f", r.ExitPrice),
			Signed("%.2f%%", r.PriceChangePct),
			Signed("%.2f", r.PnL),
			string(r.ExitReason),
		})
	}

	table.Render()
}

// PrintPaths lists the files a result was written to.
func (p *Printer) PrintPaths(paths results.Paths) {
	p.title("Output")

	for _, line := range []struct{ label, path string }{
		{"result", paths.Result},
		{"stats", paths.Stats},
		{"trades", paths.Trades},
		{"balance", paths.Balance},
	} {
		if line.path != "" {
			fmt.Fprintf(p.out, "  %-8s %s\n", line.label, line.path)
		}
	}
}

// PrintEvaluation prints the per-timeframe signals, the vote and the best
// prices of a live evaluation.
func (p *Printer) PrintEvaluation(eval trading.Evaluation) {
	p.title(fmt.Sprintf("Signals %s @ %s", eval.Symbol, eval.Time.Format(timeLayout)))

	table := tablewriter.NewWriter(p.out)
	table.Header("Timeframe", "Signal", "Strength", "Weight", "Price", "Note")

	for _, r := range eval.Timeframes {
		note := ""
		if r.Err != nil {
			note = r.Err.Error()
		}

		table.Append([]string{
			string(r.Timeframe),
			string(r.Signal.Kind),
			fmt.Sprintf("%.2f", r.Signal.Strength),
			fmt.Sprintf("%.2f", r.Weight),
			fmt.Sprintf("%.2f", r.LastPrice),
			note,
		})
	}

	table.Render()

	fmt.Fprintf(p.out, "\nLong score: %.2f | Short score: %.2f\n", eval.Vote.LongScore, eval.Vote.ShortScore)
	fmt.Fprintf(p.out, "Decision: %s\n", DecisionStyle.Render(string(eval.Vote.Decision)))

	if eval.OrderBook != nil && eval.OrderBook.MidPrice.IsSome() {
		fmt.Fprintf(p.out, "Bid %.2f | Ask %.2f | Mid %.2f\n",
			eval.OrderBook.BidPrice.Unwrap(), eval.OrderBook.AskPrice.Unwrap(), eval.OrderBook.MidPrice.Unwrap())
	}
}

// PrintOrderBook prints both sides of an order book summary and their
// statistics.
func (p *Printer) PrintOrderBook(s marketdata.OrderBookSummary) {
	p.title(fmt.Sprintf("Order book %s (top %d)", s.Symbol, s.Depth))

	fmt.Fprintf(p.out, "Bid: %s | Ask: %s | Mid: %s | Spread: %s\n",
		optionalPrice(s.BidPrice.TakeOr(0), s.BidPrice.IsSome()),
		optionalPrice(s.AskPrice.TakeOr(0), s.AskPrice.IsSome()),
		optionalPrice(s.MidPrice.TakeOr(0), s.MidPrice.IsSome()),
		optionalPrice(s.Spread.TakeOr(0), s.Spread.IsSome()),
	)

	p.printLevels("Bids", s.BidsDetail)
	p.printLevels("Asks", s.AsksDetail)

	p.title("Side statistics")

	table := tablewriter.NewWriter(p.out)
	table.Header("Side", "Mean size", "Median size", "Largest", "Price range", "Top 3 %", "Total qty", "Total $")
	table.Append(sideRow("bids", s.BidStats, s.BidsTotalQty, s.BidsTotalUSD))
	table.Append(sideRow("asks", s.AskStats, s.AsksTotalQty, s.AsksTotalUSD))
	table.Render()

	fmt.Fprintf(p.out, "Imbalance: %s\n", Signed("%.4f", s.Imbalance()))
}

func (p *Printer) printLevels(name string, levels []marketdata.LevelDetail) {
	p.title(name)

	table := tablewriter.NewWriter(p.out)
	table.Header("Price", "Amount", "Total $", "% of total", "Cum. amount", "Cum. $")

	for _, l := range levels {
		table.Append([]string{
			fmt.Sprintf("%.2f", l.Price),
			fmt.Sprintf("%.4f", l.Amount),
			fmt.Sprintf("%.2f", l.TotalUSD),
			fmt.Sprintf("%.2f", l.PctOfTotal),
			fmt.Sprintf("%.4f", l.CumulativeQty),
			fmt.Sprintf("%.2f", l.CumulativeUSD),
		})
	}

	table.Render()
}

func sideRow(name string, st marketdata.SideStats, qty, usd float64) []string {
	return []string{
		name,
		fmt.Sprintf("%.4f", st.MeanSize),
		fmt.Sprintf("%.4f", st.MedianSize),
		fmt.Sprintf("%.4f", st.LargestOrder),
		fmt.Sprintf("%.2f", st.PriceRange),
		fmt.Sprintf("%.2f", st.ConcentrationTop3),
		fmt.Sprintf("%.4f", qty),
		fmt.Sprintf("%.2f", usd),
	}
}

func optionalPrice(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}

	return fmt.Sprintf("%.2f", v)
}
