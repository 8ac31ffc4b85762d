package provider

import "time"

// PriceLevel is one resting price level of an order book side.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook is a depth snapshot. Bids are best (highest) first and asks are
// best (lowest) first.
type OrderBook struct {
	Symbol       string       `json:"symbol"`
	Time         time.Time    `json:"time"`
	LastUpdateID int64        `json:"last_update_id"`
	Bids         []PriceLevel `json:"bids"`
	Asks         []PriceLevel `json:"asks"`
}
