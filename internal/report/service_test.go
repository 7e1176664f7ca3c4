package report

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/billing"
	"apmc-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type fakeSource struct {
	lots    []models.Lot
	farmers map[uint]*models.Farmer
	err     error
	calls   [][2]time.Time
}

func (f *fakeSource) inRange(start, until time.Time, keep func(models.Lot) bool) []models.Lot {
	f.calls = append(f.calls, [2]time.Time{start, until})
	var out []models.Lot
	for _, l := range f.lots {
		if !l.CreatedAt.Before(start) && l.CreatedAt.Before(until) && keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (f *fakeSource) ListCompletedLots(_ context.Context, start, end time.Time) ([]models.Lot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inRange(start, end, func(l models.Lot) bool { return l.Status == models.LotStatusCompleted }), nil
}

func (f *fakeSource) ListLotsCreatedBetween(_ context.Context, start, end time.Time) ([]models.Lot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inRange(start, end, func(l models.Lot) bool { return l.Status != models.LotStatusCancelled }), nil
}

func (f *fakeSource) GetFarmer(_ context.Context, id uint) (*models.Farmer, error) {
	if fm, ok := f.farmers[id]; ok {
		return fm, nil
	}
	return nil, apperror.NotFound("farmer", id)
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func bags(numbers []int, weight string) []models.Bag {
	out := make([]models.Bag, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, models.Bag{BagNumber: n, Weight: dp(weight)})
	}
	return out
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func settings() billing.Settings {
	s := billing.DefaultSettings()
	s.PackagingPerBag = decimal.NewFromInt(5)
	s.WeighingFeePerBag = decimal.NewFromInt(2)
	return s
}

func newSource() *fakeSource {
	farmer := &models.Farmer{ID: 9, Name: "Ramesh", Mobile: "9876543210", Place: "Guntur"}
	day := time.Date(2025, 1, 15, 10, 0, 0, 0, ist)
	return &fakeSource{
		farmers: map[uint]*models.Farmer{9: farmer},
		lots: []models.Lot{
			{
				ID: 1, LotNumber: "L-001", FarmerID: 9, NumberOfBags: 10, LotPrice: dp("9000"),
				Status: models.LotStatusCompleted, CreatedAt: day, Bags: bags(seq(10), "45"), Farmer: farmer,
			},
			{
				ID: 2, LotNumber: "L-002", FarmerID: 9, NumberOfBags: 5,
				Status: models.LotStatusActive, CreatedAt: day.Add(time.Hour), Bags: bags([]int{1, 2, 4}, "40"), Farmer: farmer,
			},
			{
				ID: 3, LotNumber: "L-003", FarmerID: 9, NumberOfBags: 2, LotPrice: dp("8000"),
				Status: models.LotStatusCompleted, CreatedAt: day.AddDate(0, 0, 1), Bags: bags(seq(2), "50"), Farmer: farmer,
			},
		},
	}
}

func newService() *Service {
	svc := NewService(ist, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC) }
	return svc
}

func TestGenerateTaxReportDaily(t *testing.T) {
	src, svc := newSource(), newService()
	report, err := svc.GenerateTaxReport(context.Background(), src, settings(), TaxQuery{Type: billing.ReportDaily})
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.TotalTransactions != 1 || report.Transactions[0].LotNumber != "L-001" {
		t.Fatalf("report = %+v", report.Summary)
	}
	if !report.Summary.TotalAmount.Equal(decimal.RequireFromString("44117.25")) {
		t.Errorf("TotalAmount = %s", report.Summary.TotalAmount)
	}
	if report.Transactions[0].FarmerName != "Ramesh" {
		t.Errorf("farmer name = %q", report.Transactions[0].FarmerName)
	}

	// "now" is 23:30 IST on Jan 15
	start, until := src.calls[0][0], src.calls[0][1]
	if !start.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, ist)) || !until.Equal(time.Date(2025, 1, 16, 0, 0, 0, 0, ist)) {
		t.Errorf("window = %s .. %s", start, until)
	}
	if !report.Summary.EndDate.Equal(time.Date(2025, 1, 15, 23, 59, 59, 999_000_000, ist)) {
		t.Errorf("EndDate = %s", report.Summary.EndDate)
	}
}

func TestGenerateTaxReportWeeklyAndIdempotent(t *testing.T) {
	src, svc := newSource(), newService()
	q := TaxQuery{Type: billing.ReportWeekly, Date: time.Date(2025, 1, 16, 0, 0, 0, 0, ist)}
	first, err := svc.GenerateTaxReport(context.Background(), src, settings(), q)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := svc.GenerateTaxReport(context.Background(), src, settings(), q)
	if first.Summary.TotalTransactions != 2 {
		t.Errorf("transactions = %d", first.Summary.TotalTransactions)
	}
	if !first.Summary.TotalAmount.Equal(second.Summary.TotalAmount) {
		t.Errorf("reports differ: %s vs %s", first.Summary.TotalAmount, second.Summary.TotalAmount)
	}
}

func TestGenerateTaxReportErrors(t *testing.T) {
	svc := newService()
	_, err := svc.GenerateTaxReport(context.Background(), newSource(), settings(), TaxQuery{Type: "fortnightly"})
	if !apperror.IsInvalidReportType(err) {
		t.Errorf("err = %v", err)
	}

	boom := errors.New("connection reset")
	_, err = svc.GenerateTaxReport(context.Background(), &fakeSource{err: boom}, settings(), TaxQuery{Type: billing.ReportDaily})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped source error", err)
	}
}

func TestGenerateFarmerDayBill(t *testing.T) {
	svc := newService()
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, ist)

	bill, err := svc.GenerateFarmerDayBill(context.Background(), newSource(), settings(), 9, date, billing.ManualDeductions{Other: dp("100")})
	if err != nil {
		t.Fatal(err)
	}
	if bill.PattiNumber != "P-20250115-9" || bill.Summary.TotalLots != 1 {
		t.Errorf("bill = %+v", bill)
	}
	// gross 40500, commission 1215, other 100
	if !bill.Summary.NetAmount.Equal(decimal.RequireFromString("39185")) {
		t.Errorf("net = %s", bill.Summary.NetAmount)
	}

	if _, err := svc.GenerateFarmerDayBill(context.Background(), newSource(), settings(), 404, date, billing.ManualDeductions{}); !apperror.IsNotFound(err) {
		t.Errorf("unknown farmer err = %v", err)
	}
	if _, err := svc.GenerateFarmerDayBill(context.Background(), newSource(), settings(), 9, date, billing.ManualDeductions{Advance: dp("-1")}); !apperror.IsValidation(err) {
		t.Errorf("negative deduction err = %v", err)
	}
}

func TestDetectMissingBagsForDay(t *testing.T) {
	svc := newService()
	report, err := svc.DetectMissingBags(context.Background(), newSource(), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.TotalLots != 2 || report.Summary.IncompleteLots != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	got := report.MissingBagsDetails[0]
	if got.LotNumber != "L-002" || len(got.MissingBagNumbers) != 2 || got.MissingBagNumbers[0] != 3 || got.MissingBagNumbers[1] != 5 {
		t.Errorf("details = %+v", got)
	}
	if !got.CompletionPercentage.Equal(decimal.NewFromInt(60)) {
		t.Errorf("completion = %s", got.CompletionPercentage)
	}
}

func TestParseDate(t *testing.T) {
	svc := newService()
	if d, err := svc.ParseDate("date", ""); err != nil || !d.IsZero() {
		t.Errorf("empty: %v %v", d, err)
	}
	if _, err := svc.ParseDate("date", "15/01/2025"); !apperror.IsValidation(err) {
		t.Errorf("bad format err = %v", err)
	}
	d, err := svc.ParseDate("date", "2025-01-15")
	if err != nil || d.Location() != ist || d.Day() != 15 {
		t.Errorf("parsed = %v err = %v", d, err)
	}
}

func TestExportTaxReportXLSX(t *testing.T) {
	svc := newService()
	report, err := svc.GenerateTaxReport(context.Background(), newSource(), settings(), TaxQuery{Type: billing.ReportDaily})
	if err != nil {
		t.Fatal(err)
	}
	data, err := ExportTaxReportXLSX(report)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(transactionsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][1] != "Lot Number" || rows[1][1] != "L-001" {
		t.Errorf("transactions sheet = %v", rows)
	}
	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if summary[1][0] != "Report Type" || summary[1][1] != "daily" {
		t.Errorf("summary sheet = %v", summary[:2])
	}
	if name := ExportFileName(report); name != "tax-report-daily-20250115-20250115.xlsx" {
		t.Errorf("file name = %s", name)
	}
}

func TestTaxReportHandlerRejectsBadQuery(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(zap.NewNop())})
	app.Get("/tax", TaxReportHandler(newService()))

	for _, target := range []string{"/tax?report_type=hourly", "/tax?date=yesterday"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("%s status = %d", target, resp.StatusCode)
		}
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/tax", nil))
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("unbound tenant status = %d", resp.StatusCode)
	}
}
