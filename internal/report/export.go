package report

import (
	"fmt"

	"apmc-backend/internal/billing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet      = "Summary"
	transactionsSheet = "Transactions"
	XLSXContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var transactionHeaders = []string{
	"Date", "Lot Number", "Farmer", "Buyer", "Variety", "Bags", "Weight (kg)", "Quintals",
	"Lot Price", "Basic Amount", "Packaging", "Weighing", "Commission", "Taxable Amount",
	"CESS", "SGST", "CGST", "Total Tax", "Total Amount",
}

// ExportFileName is the attachment name used for a tax report download.
func ExportFileName(r billing.TaxReport) string {
	return fmt.Sprintf("tax-report-%s-%s-%s.xlsx",
		r.Summary.ReportType,
		r.Summary.StartDate.Format("20060102"),
		r.Summary.EndDate.Format("20060102"))
}

// ExportTaxReportXLSX renders a tax report as a workbook with a summary sheet
// and one row per transaction.
func ExportTaxReportXLSX(r billing.TaxReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	if err := writeSummary(f, r.Summary, headerStyle, moneyStyle); err != nil {
		return nil, err
	}
	if err := writeTransactions(f, r.Transactions, headerStyle, moneyStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, s billing.TaxSummary, headerStyle, moneyStyle int) error {
	rows := []struct {
		label string
		value any
		money bool
	}{
		{"Report Type", string(s.ReportType), false},
		{"Start Date", s.StartDate.Format("2006-01-02"), false},
		{"End Date", s.EndDate.Format("2006-01-02"), false},
		{"Transactions", s.TotalTransactions, false},
		{"Unpriced Lots", s.UnpricedLots, false},
		{"Bags", s.BagCount, false},
		{"Total Weight (kg)", num(s.TotalWeight), true},
		{"Total Quintals", num(s.TotalWeightQuintals), true},
		{"Basic Amount", num(s.BasicAmount), true},
		{"Packaging", num(s.Packaging), true},
		{"Weighing Charges", num(s.WeighingCharges), true},
		{"Commission", num(s.Commission), true},
		{"Taxable Amount", num(s.TaxableAmount), true},
		{"CESS", num(s.CessAmount), true},
		{"SGST", num(s.SGSTAmount), true},
		{"CGST", num(s.CGSTAmount), true},
		{"Total Tax", num(s.TotalTaxAmount), true},
		{"Total Amount", num(s.TotalAmount), true},
	}

	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Field", "Value"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		n := i + 2
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", n), &[]any{row.label, row.value}); err != nil {
			return err
		}
		if row.money {
			cell := fmt.Sprintf("B%d", n)
			if err := f.SetCellStyle(summarySheet, cell, cell, moneyStyle); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 22)
}

func writeTransactions(f *excelize.File, txs []billing.TaxTransaction, headerStyle, moneyStyle int) error {
	header := make([]any, len(transactionHeaders))
	for i, h := range transactionHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(transactionHeaders))
	if err := f.SetCellStyle(transactionsSheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for i, tx := range txs {
		n := i + 2
		var price any
		if tx.LotPrice != nil {
			price = num(*tx.LotPrice)
		}
		row := []any{
			tx.Date.Format("2006-01-02"), tx.LotNumber, tx.FarmerName, tx.BuyerName, tx.Variety,
			tx.BagCount, num(tx.TotalWeight), num(tx.TotalWeightQuintals), price,
			num(tx.BasicAmount), num(tx.Packaging), num(tx.WeighingCharges), num(tx.Commission),
			num(tx.TaxableAmount), num(tx.CessAmount), num(tx.SGSTAmount), num(tx.CGSTAmount),
			num(tx.TotalTaxAmount), num(tx.TotalAmount),
		}
		if err := f.SetSheetRow(transactionsSheet, fmt.Sprintf("A%d", n), &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(transactionsSheet, fmt.Sprintf("G%d", n), fmt.Sprintf("%s%d", last, n), moneyStyle); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 12, "B": 14, "C": 22, "D": 22, "E": 14}
	for col, w := range widths {
		if err := f.SetColWidth(transactionsSheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// num converts an exact amount to a spreadsheet number.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
