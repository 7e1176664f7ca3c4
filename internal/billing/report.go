package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type TaxTransaction struct {
	LotID      uint             `json:"lot_id"`
	LotNumber  string           `json:"lot_number"`
	Date       time.Time        `json:"date"`
	FarmerID   uint             `json:"farmer_id"`
	FarmerName string           `json:"farmer_name"`
	BuyerName  string           `json:"buyer_name"`
	Variety    string           `json:"variety"`
	LotPrice   *decimal.Decimal `json:"lot_price"`
	LotAmounts
}

type TaxSummary struct {
	ReportType        ReportType `json:"report_type"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`
	TotalTransactions int        `json:"total_transactions"`
	UnpricedLots      int        `json:"unpriced_lots"`
	LotAmounts
}

type TaxReport struct {
	Summary      TaxSummary       `json:"summary"`
	Transactions []TaxTransaction `json:"transactions"`
}

// BuildTaxReport aggregates every completed lot created inside r. Lots without
// a price are counted in UnpricedLots and contribute only per-bag charges.
func BuildTaxReport(r Range, lots []Lot, s Settings) TaxReport {
	selected := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if l.Status == StatusCompleted && r.Contains(l.CreatedAt) {
			selected = append(selected, l)
		}
	}
	sortLots(selected)

	report := TaxReport{
		Summary: TaxSummary{
			ReportType: r.Type,
			StartDate:  r.Start,
			EndDate:    r.End,
		},
		Transactions: make([]TaxTransaction, 0, len(selected)),
	}

	for _, l := range selected {
		amounts := ComputeLotAmounts(l, s)
		report.Transactions = append(report.Transactions, TaxTransaction{
			LotID:      l.ID,
			LotNumber:  l.LotNumber,
			Date:       l.CreatedAt,
			FarmerID:   l.FarmerID,
			FarmerName: l.FarmerName,
			BuyerName:  l.BuyerName,
			Variety:    l.Variety,
			LotPrice:   l.LotPrice,
			LotAmounts: amounts,
		})
		report.Summary.LotAmounts = report.Summary.LotAmounts.Add(amounts)
		if l.LotPrice == nil || !l.LotPrice.IsPositive() {
			report.Summary.UnpricedLots++
		}
	}
	report.Summary.TotalTransactions = len(report.Transactions)
	return report
}

// sortLots orders by creation time, then id, so reports are stable.
func sortLots(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		}
		return lots[i].ID < lots[j].ID
	})
}
