package oracleclient

// Ticker is a single asset quote from the price feed. Price carries the
// feed's fixed-point integer representation, Volatility is a percentage.
type Ticker struct {
	Symbol     string `json:"symbol"`
	Price      uint64 `json:"price"`
	Volatility uint64 `json:"volatility"`
}
