package domain

import "context"

// PriceProvider supplies quotes and contract details from an external
// market-data source. Implementations must return an error when a quote is
// unavailable rather than a zero price.
type PriceProvider interface {
	// StockPrice returns the last/close price for a stock ticker.
	StockPrice(ctx context.Context, ticker string) (float64, error)

	// OptionPrice returns the last/close price for an option symbol.
	OptionPrice(ctx context.Context, symbol string) (float64, error)

	// OptionDetails returns contract metadata for an option symbol.
	// Used at entry-creation time to populate leg fields.
	OptionDetails(ctx context.Context, symbol string) (OptionDetails, error)
}
