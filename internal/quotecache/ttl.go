package quotecache

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Quotes change constantly; keep them only long enough to absorb
	// repeated lookups while a page of open legs renders.
	TTLStockQuote  = 10 * time.Minute
	TTLOptionQuote = 10 * time.Minute

	// Contract metadata (strike, expiry, category) is fixed once listed.
	TTLOptionDetails = 30 * 24 * time.Hour
)
