// Package results implements the profit/loss calculation engine.
//
// All functions here are pure and total: no I/O, no errors, no rounding.
// Currency formatting is a presentation concern and never touches these values.
package results

import "github.com/aristath/optracker/internal/domain"

// EntryResult computes the monetary result of a single leg.
//
// For an open leg (zero exit price) the value is the committed cash flow:
// negative for a BUY (capital paid out), positive for a SELL (credit
// received). It is a placeholder, not a profit figure.
//
// For a closed leg the value is the realized profit/loss.
func EntryResult(e domain.Entry) float64 {
	qty := float64(e.Quantity)

	if e.IsOpen() {
		if e.Direction == domain.DirectionBuy {
			return -(e.EntryPrice * qty)
		}
		return e.EntryPrice * qty
	}

	if e.Direction == domain.DirectionBuy {
		return (e.ExitPrice - e.EntryPrice) * qty
	}
	return (e.EntryPrice - e.ExitPrice) * qty
}

// OpenMark computes the mark-to-market result of an open leg against a live
// price. The value is informational only and is never persisted.
func OpenMark(e domain.Entry, currentPrice float64) float64 {
	qty := float64(e.Quantity)

	if e.Direction == domain.DirectionBuy {
		return (currentPrice - e.EntryPrice) * qty
	}
	return (e.EntryPrice - currentPrice) * qty
}

// StructureResult sums the persisted results of all entries belonging to a
// structure. It deliberately uses the stored Result field rather than
// recomputing, so the value reflects whatever was last saved. An empty set
// sums to zero.
func StructureResult(structureID int64, entries []domain.Entry) float64 {
	var total float64
	for _, e := range entries {
		if e.StructureID == structureID {
			total += e.Result
		}
	}
	return total
}

// Statistics aggregates structure results into portfolio-wide statistics.
//
// Best and worst are clamped at zero: an all-losing portfolio reports best 0
// and an all-winning portfolio reports worst 0, matching the dashboard
// semantics of "best gain" and "worst loss".
func Statistics(structures []domain.Structure, entries []domain.Entry) domain.Stats {
	stats := domain.Stats{TotalStructures: len(structures)}

	var wins int
	for _, s := range structures {
		result := StructureResult(s.ID, entries)
		stats.TotalResult += result

		if s.IsOpen() {
			stats.OpenStructures++
		}
		if result > 0 {
			wins++
		}
		if result > stats.BestResult {
			stats.BestResult = result
		}
		if result < stats.WorstResult {
			stats.WorstResult = result
		}
	}

	if stats.TotalStructures > 0 {
		stats.HitRate = float64(wins) / float64(stats.TotalStructures) * 100
	}

	return stats
}
