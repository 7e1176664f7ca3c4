package report

import (
	"fmt"
	"time"

	"apmc-backend/internal/billing"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request Types
// -------------------------

type FarmerDayBillRequest struct {
	FarmerID   uint                     `json:"farmer_id"`
	Date       string                   `json:"date"` // "2025-01-15"
	Deductions billing.ManualDeductions `json:"deductions"`
}

// -------------------------
// Helpers
// -------------------------

// scope returns the request's row source and its resolved tenant settings.
func scope(c *fiber.Ctx) (*tenant.Store, billing.Settings, error) {
	t, err := tenant.TenantFrom(c)
	if err != nil {
		return nil, billing.Settings{}, err
	}
	store, err := tenant.StoreFrom(c)
	if err != nil {
		return nil, billing.Settings{}, err
	}
	return store, t.Settings.Resolve(), nil
}

func parseTaxQuery(c *fiber.Ctx, svc *Service) (TaxQuery, error) {
	rt, err := billing.ParseReportType(c.Query("report_type", string(billing.ReportDaily)))
	if err != nil {
		return TaxQuery{}, err
	}
	q := TaxQuery{Type: rt}
	if q.Date, err = svc.ParseDate("date", c.Query("date")); err != nil {
		return TaxQuery{}, err
	}
	if q.Start, err = svc.ParseDate("start_date", c.Query("start_date")); err != nil {
		return TaxQuery{}, err
	}
	if q.End, err = svc.ParseDate("end_date", c.Query("end_date")); err != nil {
		return TaxQuery{}, err
	}
	return q, nil
}

// -------------------------
// Report Handlers
// -------------------------

// GET /api/reports/tax?report_type=daily|weekly|monthly|yearly|custom&date=...&start_date=...&end_date=...
func TaxReportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseTaxQuery(c, svc)
		if err != nil {
			return err
		}
		store, settings, err := scope(c)
		if err != nil {
			return err
		}
		report, err := svc.GenerateTaxReport(c.UserContext(), store, settings, q)
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}

// GET /api/reports/tax/export (same query as /api/reports/tax)
func TaxReportExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseTaxQuery(c, svc)
		if err != nil {
			return err
		}
		store, settings, err := scope(c)
		if err != nil {
			return err
		}
		report, err := svc.GenerateTaxReport(c.UserContext(), store, settings, q)
		if err != nil {
			return err
		}
		data, err := ExportTaxReportXLSX(report)
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, XLSXContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", ExportFileName(report)))
		return c.Send(data)
	}
}

// POST /api/bills/farmer-day
func FarmerDayBillHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body FarmerDayBillRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.FarmerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "farmer_id is required")
		}

		store, settings, err := scope(c)
		if err != nil {
			return err
		}
		date, err := svc.ParseDate("date", body.Date)
		if err != nil {
			return err
		}

		bill, err := svc.GenerateFarmerDayBill(c.UserContext(), store, settings, body.FarmerID, date, body.Deductions)
		if err != nil {
			return err
		}
		return c.JSON(bill)
	}
}

// GET /api/reports/missing-bags?date=...
func MissingBagsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, _, err := scope(c)
		if err != nil {
			return err
		}
		date, err := svc.ParseDate("date", c.Query("date"))
		if err != nil {
			return err
		}
		report, err := svc.DetectMissingBags(c.UserContext(), store, date)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"date":                 dateOrToday(svc, date).Format(dateLayout),
			"summary":              report.Summary,
			"missing_bags_details": report.MissingBagsDetails,
		})
	}
}

func dateOrToday(svc *Service, d time.Time) time.Time {
	if d.IsZero() {
		return svc.Today()
	}
	return d
}
