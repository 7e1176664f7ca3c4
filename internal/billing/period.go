package billing

import (
	"time"

	"apmc-backend/internal/apperror"
)

type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportYearly  ReportType = "yearly"
	ReportCustom  ReportType = "custom"
)

// endOfDayOffset makes a window end at 23:59:59.999.
const endOfDayOffset = -time.Millisecond

// Range is a time window. End is the last displayed instant; membership is
// [Start, Until()) so sub-millisecond timestamps before the next window count.
type Range struct {
	Type  ReportType `json:"report_type"`
	Start time.Time  `json:"start_date"`
	End   time.Time  `json:"end_date"`
}

// Until is the start of the following window.
func (r Range) Until() time.Time {
	return r.End.Add(-endOfDayOffset)
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.Until())
}

func ParseReportType(s string) (ReportType, error) {
	switch rt := ReportType(s); rt {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportYearly, ReportCustom:
		return rt, nil
	default:
		return "", &apperror.InvalidReportTypeError{ReportType: s}
	}
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayRange is the daily window containing t.
func DayRange(t time.Time) Range {
	start := StartOfDay(t)
	return Range{Type: ReportDaily, Start: start, End: start.AddDate(0, 0, 1).Add(endOfDayOffset)}
}

// ResolveRange turns a report granularity and anchor date into a window in the
// anchor's location. customStart/customEnd are only read for ReportCustom.
func ResolveRange(rt ReportType, date, customStart, customEnd time.Time) (Range, error) {
	switch rt {
	case ReportDaily:
		return DayRange(date), nil

	case ReportWeekly:
		start := StartOfDay(date).AddDate(0, 0, -int(date.Weekday()))
		return Range{Type: rt, Start: start, End: start.AddDate(0, 0, 7).Add(endOfDayOffset)}, nil

	case ReportMonthly:
		start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
		return Range{Type: rt, Start: start, End: start.AddDate(0, 1, 0).Add(endOfDayOffset)}, nil

	case ReportYearly:
		start := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
		return Range{Type: rt, Start: start, End: start.AddDate(1, 0, 0).Add(endOfDayOffset)}, nil

	case ReportCustom:
		if customStart.IsZero() || customEnd.IsZero() {
			return Range{}, apperror.Validation("start_date", "custom reports need both start_date and end_date")
		}
		start := StartOfDay(customStart)
		end := StartOfDay(customEnd).AddDate(0, 0, 1).Add(endOfDayOffset)
		if end.Before(start) {
			return Range{}, apperror.Validation("end_date", "must not be before start_date")
		}
		return Range{Type: rt, Start: start, End: end}, nil

	default:
		return Range{}, &apperror.InvalidReportTypeError{ReportType: string(rt)}
	}
}
