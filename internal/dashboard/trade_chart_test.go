package dashboard

import (
	"testing"
	"time"

	"apmc-backend/internal/billing"

	"github.com/shopspring/decimal"
)

func lot(id uint, created time.Time, status string) billing.Lot {
	price := decimal.NewFromInt(10000)
	w := decimal.NewFromInt(50)
	return billing.Lot{
		ID: id, NumberOfBags: 2, LotPrice: &price, Status: status, CreatedAt: created,
		Bags: []billing.Bag{{BagNumber: 1, Weight: &w}, {BagNumber: 2, Weight: &w}},
	}
}

func TestChartWindow(t *testing.T) {
	today := time.Date(2025, 3, 19, 15, 0, 0, 0, time.UTC) // Wednesday

	period, start, until := chartWindow("daily", 7, today)
	if period != "daily" || !start.Equal(time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)) || !until.Equal(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily window = %s %s %s", period, start, until)
	}

	_, start, until = chartWindow("weekly", 2, today)
	if !start.Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)) || !until.Equal(time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("weekly window = %s %s", start, until)
	}

	_, start, until = chartWindow("monthly", 3, today)
	if !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) || !until.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly window = %s %s", start, until)
	}

	if period, _, _ := chartWindow("hourly", 1, today); period != "daily" {
		t.Errorf("unknown period falls back to %s", period)
	}
}

func TestBuildTradeChart(t *testing.T) {
	mon := time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)
	lots := []billing.Lot{
		lot(1, mon, billing.StatusCompleted),
		lot(2, mon.Add(2*time.Hour), billing.StatusCompleted),
		lot(3, mon.AddDate(0, 0, 1), billing.StatusCompleted),
		lot(4, mon, billing.StatusActive),
	}
	s := billing.Settings{CommissionRate: decimal.Zero}

	points, grand := buildTradeChart("daily", lots, s, time.UTC)
	if len(points) != 2 || points[0].Label != "2025-03-17" || points[0].Lots != 2 {
		t.Fatalf("points = %+v", points)
	}
	// 1 quintal at 10000 per lot, no fees or taxes
	if !grand.BasicAmount.Equal(decimal.NewFromInt(30000)) || grand.Lots != 3 {
		t.Errorf("grand = %+v", grand)
	}

	weekly, _ := buildTradeChart("weekly", lots, s, time.UTC)
	if len(weekly) != 1 || weekly[0].Label != "2025-03-16" || weekly[0].Lots != 3 {
		t.Errorf("weekly = %+v", weekly)
	}
}
