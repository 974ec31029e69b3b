package results

import (
	"sort"
	"strings"

	"github.com/aristath/optracker/internal/domain"
)

// ReportItem is one structure line inside a report.
type ReportItem struct {
	StructureID int64   `json:"structureId"`
	Asset       string  `json:"asset"`
	Strategy    string  `json:"strategy"`
	EntryDate   string  `json:"entryDate"`
	Open        bool    `json:"open"`
	Result      float64 `json:"result"`
}

// MonthlyReport summarizes the structures opened in one calendar month.
type MonthlyReport struct {
	Month       string       `json:"month"` // YYYY-MM
	Structures  int          `json:"structures"`
	TotalResult float64      `json:"totalResult"`
	Items       []ReportItem `json:"items"`
}

// AssetReport summarizes results per underlying asset.
type AssetReport struct {
	Asset       string  `json:"asset"`
	Structures  int     `json:"structures"`
	TotalResult float64 `json:"totalResult"`
	Profit      float64 `json:"profit"` // sum of winning structure results
	Loss        float64 `json:"loss"`   // sum of losing structure results (non-positive)
}

// StrategyReport summarizes results per strategy name.
type StrategyReport struct {
	Strategy      string  `json:"strategy"`
	Structures    int     `json:"structures"`
	Wins          int     `json:"wins"`
	HitRate       float64 `json:"hitRate"`
	TotalResult   float64 `json:"totalResult"`
	AverageResult float64 `json:"averageResult"`
}

// Monthly builds the report for the given YYYY-MM month over structure entry dates.
func Monthly(month string, structures []domain.Structure, entries []domain.Entry) MonthlyReport {
	report := MonthlyReport{Month: month, Items: []ReportItem{}}

	for _, s := range structures {
		if !strings.HasPrefix(s.EntryDate, month) {
			continue
		}
		result := StructureResult(s.ID, entries)
		report.Structures++
		report.TotalResult += result
		report.Items = append(report.Items, ReportItem{
			StructureID: s.ID,
			Asset:       s.UnderlyingAsset,
			Strategy:    s.StrategyName,
			EntryDate:   s.EntryDate,
			Open:        s.IsOpen(),
			Result:      result,
		})
	}

	return report
}

// ByAsset groups structure results per underlying asset, best total first.
func ByAsset(structures []domain.Structure, entries []domain.Entry) []AssetReport {
	byAsset := make(map[string]*AssetReport)

	for _, s := range structures {
		result := StructureResult(s.ID, entries)

		report, ok := byAsset[s.UnderlyingAsset]
		if !ok {
			report = &AssetReport{Asset: s.UnderlyingAsset}
			byAsset[s.UnderlyingAsset] = report
		}

		report.Structures++
		report.TotalResult += result
		if result > 0 {
			report.Profit += result
		} else {
			report.Loss += result
		}
	}

	reports := make([]AssetReport, 0, len(byAsset))
	for _, r := range byAsset {
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].TotalResult > reports[j].TotalResult
	})

	return reports
}

// ByStrategy groups structure results per strategy name, best total first.
func ByStrategy(structures []domain.Structure, entries []domain.Entry) []StrategyReport {
	byStrategy := make(map[string]*StrategyReport)

	for _, s := range structures {
		result := StructureResult(s.ID, entries)

		report, ok := byStrategy[s.StrategyName]
		if !ok {
			report = &StrategyReport{Strategy: s.StrategyName}
			byStrategy[s.StrategyName] = report
		}

		report.Structures++
		report.TotalResult += result
		if result > 0 {
			report.Wins++
		}
	}

	reports := make([]StrategyReport, 0, len(byStrategy))
	for _, r := range byStrategy {
		if r.Structures > 0 {
			r.HitRate = float64(r.Wins) / float64(r.Structures) * 100
			r.AverageResult = r.TotalResult / float64(r.Structures)
		}
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].TotalResult > reports[j].TotalResult
	})

	return reports
}
