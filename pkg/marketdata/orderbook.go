package marketdata

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-macd/pkg/marketdata/provider"
)

// DefaultOrderBookDepth is the number of levels per side a summary covers.
const DefaultOrderBookDepth = 10

// LevelDetail is one summarized order book level. Amounts are in the base
// asset and USD values in the quote asset.
type LevelDetail struct {
	Price         float64 `json:"price"`
	Amount        float64 `json:"amount"`
	TotalUSD      float64 `json:"total_usd"`
	PctOfTotal    float64 `json:"pct_of_total"`
	CumulativeQty float64 `json:"cumulative_qty"`
	CumulativeUSD float64 `json:"cumulative_usd"`
}

// SideStats describes the size distribution of one book side.
type SideStats struct {
	MeanSize          float64 `json:"mean_size"`
	MedianSize        float64 `json:"median_size"`
	LargestOrder      float64 `json:"largest_order"`
	PriceRange        float64 `json:"price_range"`
	ConcentrationTop3 float64 `json:"concentration_top3"`
}

// OrderBookSummary is a depth-limited digest of an order book snapshot.
// Best prices are absent when the corresponding side is empty.
type OrderBookSummary struct {
	Symbol   string                   `json:"symbol"`
	Time     time.Time                `json:"time"`
	Depth    int                      `json:"depth"`
	BidPrice optional.Option[float64] `json:"bid_price"`
	AskPrice optional.Option[float64] `json:"ask_price"`
	MidPrice optional.Option[float64] `json:"mid_price"`
	Spread   optional.Option[float64] `json:"spread"`

	BidsTotalQty float64 `json:"bids_total_qty"`
	BidsTotalUSD float64 `json:"bids_total_usd"`
	AsksTotalQty float64 `json:"asks_total_qty"`
	AsksTotalUSD float64 `json:"asks_total_usd"`

	BidsDetail []LevelDetail `json:"bids_detail"`
	AsksDetail []LevelDetail `json:"asks_detail"`
	BidStats   SideStats     `json:"bid_stats"`
	AskStats   SideStats     `json:"ask_stats"`
}

// Imbalance returns (bids - asks) / (bids + asks) over the summarized
// quantities, or 0 when both sides are empty.
func (s OrderBookSummary) Imbalance() float64 {
	total := s.BidsTotalQty + s.AsksTotalQty
	if total == 0 {
		return 0
	}

	return (s.BidsTotalQty - s.AsksTotalQty) / total
}

// Summarize digests the first depth levels of each side of book. A depth
// of zero or less uses DefaultOrderBookDepth.
func Summarize(book provider.OrderBook, depth int) OrderBookSummary {
	if depth <= 0 {
		depth = DefaultOrderBookDepth
	}

	summary := OrderBookSummary{
		Symbol:   book.Symbol,
		Time:     book.Time,
		Depth:    depth,
		BidPrice: optional.None[float64](),
		AskPrice: optional.None[float64](),
		MidPrice: optional.None[float64](),
		Spread:   optional.None[float64](),
	}

	if len(book.Bids) > 0 {
		summary.BidPrice = optional.Some(book.Bids[0].Price)
	}

	if len(book.Asks) > 0 {
		summary.AskPrice = optional.Some(book.Asks[0].Price)
	}

	if summary.BidPrice.IsSome() && summary.AskPrice.IsSome() {
		bid := decimal.NewFromFloat(summary.BidPrice.Unwrap())
		ask := decimal.NewFromFloat(summary.AskPrice.Unwrap())
		summary.MidPrice = optional.Some(bid.Add(ask).Div(decimal.NewFromInt(2)).InexactFloat64())
		summary.Spread = optional.Some(ask.Sub(bid).InexactFloat64())
	}

	summary.BidsDetail, summary.BidsTotalQty, summary.BidsTotalUSD = summarizeSide(head(book.Bids, depth))
	summary.AsksDetail, summary.AsksTotalQty, summary.AsksTotalUSD = summarizeSide(head(book.Asks, depth))
	summary.BidStats = sideStats(summary.BidsDetail, summary.BidsTotalQty)
	summary.AskStats = sideStats(summary.AsksDetail, summary.AsksTotalQty)

	return summary
}

func head(levels []provider.PriceLevel, n int) []provider.PriceLevel {
	if len(levels) > n {
		return levels[:n]
	}

	return levels
}

func summarizeSide(levels []provider.PriceLevel) ([]LevelDetail, float64, float64) {
	totalQty := decimal.Zero
	for _, l := range levels {
		totalQty = totalQty.Add(decimal.NewFromFloat(l.Quantity))
	}

	details := make([]LevelDetail, 0, len(levels))
	cumQty := decimal.Zero
	cumUSD := decimal.Zero
	hundred := decimal.NewFromInt(100)

	for _, l := range levels {
		qty := decimal.NewFromFloat(l.Quantity)
		usd := decimal.NewFromFloat(l.Price).Mul(qty)
		cumQty = cumQty.Add(qty)
		cumUSD = cumUSD.Add(usd)

		pct := decimal.Zero
		if !totalQty.IsZero() {
			pct = qty.Div(totalQty).Mul(hundred)
		}

		details = append(details, LevelDetail{
			Price:         l.Price,
			Amount:        l.Quantity,
			TotalUSD:      usd.InexactFloat64(),
			PctOfTotal:    pct.InexactFloat64(),
			CumulativeQty: cumQty.InexactFloat64(),
			CumulativeUSD: cumUSD.InexactFloat64(),
		})
	}

	return details, totalQty.InexactFloat64(), cumUSD.InexactFloat64()
}

func sideStats(details []LevelDetail, totalQty float64) SideStats {
	if len(details) == 0 {
		return SideStats{}
	}

	amounts := make([]float64, len(details))
	minPrice, maxPrice := details[0].Price, details[0].Price
	top3 := 0.0

	for i, d := range details {
		amounts[i] = d.Amount
		minPrice = min(minPrice, d.Price)
		maxPrice = max(maxPrice, d.Price)

		if i < 3 {
			top3 += d.Amount
		}
	}

	sort.Float64s(amounts)

	median := amounts[len(amounts)/2]
	if len(amounts)%2 == 0 {
		median = (amounts[len(amounts)/2-1] + amounts[len(amounts)/2]) / 2
	}

	stats := SideStats{
		MeanSize:     totalQty / float64(len(details)),
		MedianSize:   median,
		LargestOrder: amounts[len(amounts)-1],
		PriceRange:   maxPrice - minPrice,
	}

	if totalQty > 0 {
		stats.ConcentrationTop3 = top3 / totalQty * 100
	}

	return stats
}
