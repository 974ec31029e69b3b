// Package domain provides core domain models and types.
package domain

import "strings"

// Direction represents which side of a leg was taken
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// AssetType represents the kind of instrument a leg trades
type AssetType string

const (
	AssetTypeCall  AssetType = "CALL"
	AssetTypePut   AssetType = "PUT"
	AssetTypeStock AssetType = "STOCK"
)

// IsOption reports whether the asset type is an option contract.
func (t AssetType) IsOption() bool {
	return t == AssetTypeCall || t == AssetTypePut
}

// Structure represents a trading idea grouping one or more entries.
// Its result is always derived from its entries, never stored.
type Structure struct {
	ID              int64  `json:"id"`
	EntryDate       string `json:"entryDate"` // ISO date (YYYY-MM-DD)
	ExitDate        string `json:"exitDate,omitempty"`
	StrategyName    string `json:"strategy"`
	UnderlyingAsset string `json:"asset"`
	Notes           string `json:"notes,omitempty"`
}

// IsOpen reports whether the structure has no recorded exit date.
func (s Structure) IsOpen() bool {
	return s.ExitDate == ""
}

// Entry represents one leg (option or stock) belonging to a structure.
type Entry struct {
	ID          string    `json:"id"` // stable UUID, assigned at creation
	StructureID int64     `json:"structureId"`
	Asset       string    `json:"asset"`
	Type        AssetType `json:"type"`
	Direction   Direction `json:"direction"`
	Strike      float64   `json:"strike"`               // 0 when not applicable
	Expiration  string    `json:"expiration,omitempty"` // ISO date, options only
	Quantity    int64     `json:"quantity"`
	EntryPrice  float64   `json:"entryPrice"`
	ExitPrice   float64   `json:"exitPrice"` // 0 means the leg is still open
	Result      float64   `json:"result"`    // derived, recomputed before every persist
}

// IsOpen reports whether the leg has no recorded exit price.
func (e Entry) IsOpen() bool {
	return e.ExitPrice == 0
}

// Settings holds user-tunable tracker settings, carried in the document
// so they survive backup round-trips.
type Settings struct {
	AutoBackupInterval int    `json:"autoBackupInterval"`
	DefaultCurrency    string `json:"defaultCurrency"` // recorded but not converted
	LastBackup         string `json:"lastBackup,omitempty"`
}

// DefaultSettings returns the settings applied to a fresh document.
func DefaultSettings() Settings {
	return Settings{
		AutoBackupInterval: 25,
		DefaultCurrency:    "BRL",
	}
}

// Document is the full persisted state of the tracker.
type Document struct {
	Structures []Structure `json:"structures"`
	Entries    []Entry     `json:"entries"`
	NextID     int64       `json:"nextId"`
	Settings   *Settings   `json:"config,omitempty"`
}

// EmptyDocument returns the default state used when no data file exists yet.
func EmptyDocument() Document {
	settings := DefaultSettings()
	return Document{
		Structures: []Structure{},
		Entries:    []Entry{},
		NextID:     1,
		Settings:   &settings,
	}
}

// OptionDetails describes an option contract as reported by the market-data provider.
type OptionDetails struct {
	Symbol   string    `json:"symbol"`
	Category AssetType `json:"category"`
	Strike   float64   `json:"strike"`
	DueDate  string    `json:"dueDate"` // ISO date
}

// Stats holds portfolio-wide statistics derived from structures and entries.
type Stats struct {
	TotalStructures int     `json:"totalStructures"`
	TotalResult     float64 `json:"totalResult"`
	OpenStructures  int     `json:"openStructures"`
	HitRate         float64 `json:"hitRate"` // percentage of structures with positive result
	BestResult      float64 `json:"bestResult"`
	WorstResult     float64 `json:"worstResult"`
}

// NormalizeSymbol upper-cases and trims an asset symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
