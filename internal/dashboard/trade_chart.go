package dashboard

import (
	"fmt"
	"sort"
	"time"

	"apmc-backend/internal/billing"
	"apmc-backend/internal/report"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TradeChartPoint struct {
	Label               string          `json:"label"` // bucket start: day / week (Sunday) / month
	Lots                int             `json:"lots"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	BasicAmount         decimal.Decimal `json:"basic_amount"`
	TotalTaxAmount      decimal.Decimal `json:"total_tax_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
}

type TradeChartResponse struct {
	Period      string            `json:"period"` // daily | weekly | monthly
	From        string            `json:"from"`
	To          string            `json:"to"`
	Points      []TradeChartPoint `json:"points"`
	GrandTotals TradeChartPoint   `json:"grand_totals"`
}

// chartWindow returns the first bucket start and the start of the bucket after
// today's, for count buckets ending with the one that contains today.
func chartWindow(period string, count int, today time.Time) (string, time.Time, time.Time) {
	day := billing.StartOfDay(today)
	switch period {
	case "weekly":
		last := day.AddDate(0, 0, -int(day.Weekday()))
		start := last.AddDate(0, 0, -7*(count-1))
		return period, start, last.AddDate(0, 0, 7)
	case "monthly":
		last := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		start := last.AddDate(0, -(count - 1), 0)
		return period, start, last.AddDate(0, 1, 0)
	default:
		start := day.AddDate(0, 0, -(count - 1))
		return "daily", start, day.AddDate(0, 0, 1)
	}
}

func bucketOf(period string, t time.Time) time.Time {
	day := billing.StartOfDay(t)
	switch period {
	case "weekly":
		return day.AddDate(0, 0, -int(day.Weekday()))
	case "monthly":
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

// buildTradeChart groups completed lots into buckets. Empty buckets are
// omitted, as the chart only plots days with trade.
func buildTradeChart(period string, lots []billing.Lot, s billing.Settings, loc *time.Location) ([]TradeChartPoint, TradeChartPoint) {
	buckets := make(map[time.Time]*TradeChartPoint)
	for _, l := range lots {
		if l.Status != billing.StatusCompleted {
			continue
		}
		key := bucketOf(period, l.CreatedAt.In(loc))
		p, ok := buckets[key]
		if !ok {
			p = &TradeChartPoint{Label: key.Format("2006-01-02")}
			buckets[key] = p
		}
		a := billing.ComputeLotAmounts(l, s)
		p.Lots++
		p.TotalWeightQuintals = p.TotalWeightQuintals.Add(a.TotalWeightQuintals)
		p.BasicAmount = p.BasicAmount.Add(a.BasicAmount)
		p.TotalTaxAmount = p.TotalTaxAmount.Add(a.TotalTaxAmount)
		p.TotalAmount = p.TotalAmount.Add(a.TotalAmount)
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]TradeChartPoint, 0, len(keys))
	grand := TradeChartPoint{Label: "total"}
	for _, k := range keys {
		p := *buckets[k]
		points = append(points, p)
		grand.Lots += p.Lots
		grand.TotalWeightQuintals = grand.TotalWeightQuintals.Add(p.TotalWeightQuintals)
		grand.BasicAmount = grand.BasicAmount.Add(p.BasicAmount)
		grand.TotalTaxAmount = grand.TotalTaxAmount.Add(p.TotalTaxAmount)
		grand.TotalAmount = grand.TotalAmount.Add(p.TotalAmount)
	}
	return points, grand
}

// GET /api/dashboard/trade-chart?period=daily&count=7
func TradeChartHandler(svc *report.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		count := c.QueryInt("count", 0)
		if count < 0 || count > 366 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("count must be between 1 and 366, got %d", count))
		}
		if count == 0 {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				count = 7
			}
		}

		t, err := tenant.TenantFrom(c)
		if err != nil {
			return err
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}

		period, start, until := chartWindow(period, count, svc.Today())
		rows, err := store.ListCompletedLots(c.UserContext(), start, until)
		if err != nil {
			return err
		}

		points, grand := buildTradeChart(period, tenant.ToBillingLots(rows), t.Settings.Resolve(), svc.Location())
		return c.JSON(TradeChartResponse{
			Period:      period,
			From:        start.Format("2006-01-02"),
			To:          until.AddDate(0, 0, -1).Format("2006-01-02"),
			Points:      points,
			GrandTotals: grand,
		})
	}
}
