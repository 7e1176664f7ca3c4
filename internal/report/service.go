// Package report runs the billing engine over one tenant's rows and shapes
// the results for the API: JSON tax reports, farmer-day bills, missing-bag
// analyses and XLSX exports.
package report

import (
	"context"
	"fmt"
	"time"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/billing"
	"apmc-backend/internal/metrics"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// LotSource supplies the rows of a single tenant. *tenant.Store satisfies it.
type LotSource interface {
	ListCompletedLots(ctx context.Context, start, until time.Time) ([]models.Lot, error)
	ListLotsCreatedBetween(ctx context.Context, start, until time.Time) ([]models.Lot, error)
	GetFarmer(ctx context.Context, id uint) (*models.Farmer, error)
}

var _ LotSource = (*tenant.Store)(nil)

// TaxQuery selects the window of a tax report. Dates are interpreted in the
// service's location; Start/End are only read for custom reports.
type TaxQuery struct {
	Type  billing.ReportType
	Date  time.Time
	Start time.Time
	End   time.Time
}

// Service holds no tenant state: the row source and settings are passed on
// every call.
type Service struct {
	loc *time.Location
	log *zap.Logger
	now func() time.Time
}

func NewService(loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{loc: loc, log: log, now: time.Now}
}

func (s *Service) Location() *time.Location { return s.loc }

// Today is the current date in the service's location.
func (s *Service) Today() time.Time { return s.now().In(s.loc) }

func (s *Service) GenerateTaxReport(ctx context.Context, src LotSource, settings billing.Settings, q TaxQuery) (billing.TaxReport, error) {
	date := q.Date
	if date.IsZero() {
		date = s.Today()
	}
	r, err := billing.ResolveRange(q.Type, date.In(s.loc), s.inLoc(q.Start), s.inLoc(q.End))
	if err != nil {
		return billing.TaxReport{}, err
	}

	rows, err := src.ListCompletedLots(ctx, r.Start, r.Until())
	if err != nil {
		return billing.TaxReport{}, fmt.Errorf("load completed lots: %w", err)
	}

	report := billing.BuildTaxReport(r, tenant.ToBillingLots(rows), settings)
	metrics.ReportsGenerated.WithLabelValues("tax", string(r.Type)).Inc()
	s.log.Debug("tax report generated",
		zap.String("report_type", string(r.Type)),
		zap.Time("start", r.Start),
		zap.Time("end", r.End),
		zap.Int("transactions", report.Summary.TotalTransactions),
	)
	return report, nil
}

func (s *Service) GenerateFarmerDayBill(ctx context.Context, src LotSource, settings billing.Settings, farmerID uint, date time.Time, manual billing.ManualDeductions) (billing.FarmerDayBill, error) {
	if err := manual.Validate(); err != nil {
		return billing.FarmerDayBill{}, err
	}
	if date.IsZero() {
		date = s.Today()
	}
	date = date.In(s.loc)

	farmer, err := src.GetFarmer(ctx, farmerID)
	if err != nil {
		return billing.FarmerDayBill{}, err
	}

	day := billing.DayRange(date)
	rows, err := src.ListCompletedLots(ctx, day.Start, day.Until())
	if err != nil {
		return billing.FarmerDayBill{}, fmt.Errorf("load completed lots: %w", err)
	}

	bill := billing.BuildFarmerDayBill(billing.Farmer{
		ID:     farmer.ID,
		Name:   farmer.Name,
		Mobile: farmer.Mobile,
		Place:  farmer.Place,
	}, date, tenant.ToBillingLots(rows), settings, manual)
	metrics.ReportsGenerated.WithLabelValues("farmer_day_bill", string(billing.ReportDaily)).Inc()
	return bill, nil
}

// DetectMissingBags analyses the lots created on date's calendar day.
func (s *Service) DetectMissingBags(ctx context.Context, src LotSource, date time.Time) (billing.MissingBagsReport, error) {
	if date.IsZero() {
		date = s.Today()
	}
	day := billing.DayRange(date.In(s.loc))
	rows, err := src.ListLotsCreatedBetween(ctx, day.Start, day.Until())
	if err != nil {
		return billing.MissingBagsReport{}, fmt.Errorf("load lots: %w", err)
	}
	report := billing.DetectMissingBags(tenant.ToBillingLots(rows))
	metrics.ReportsGenerated.WithLabelValues("missing_bags", string(billing.ReportDaily)).Inc()
	return report, nil
}

// LotAmounts computes the amounts of a single lot with its bags attached.
func (s *Service) LotAmounts(lot models.Lot, settings billing.Settings) billing.LotAmounts {
	return billing.ComputeLotAmounts(tenant.ToBillingLot(lot), settings)
}

// ParseDate reads a YYYY-MM-DD date in the service's location. Empty input
// yields the zero time.
func (s *Service) ParseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, apperror.Validationf(field, "must be a YYYY-MM-DD date, got %q", v)
	}
	return t, nil
}

func (s *Service) inLoc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(s.loc)
}
