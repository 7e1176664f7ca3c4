package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

type LotBagStatus struct {
	LotID                 uint            `json:"lot_id"`
	LotNumber             string          `json:"lot_number"`
	FarmerName            string          `json:"farmer_name"`
	Status                string          `json:"status"`
	NumberOfBags          int             `json:"number_of_bags"`
	EnteredBags           int             `json:"entered_bags"`
	MissingBagNumbers     []int           `json:"missing_bag_numbers"`
	MissingCount          int             `json:"missing_count"`
	EmptyWeightBagNumbers []int           `json:"empty_weight_bag_numbers"`
	EmptyWeightCount      int             `json:"empty_weight_count"`
	OutOfRangeBagNumbers  []int           `json:"out_of_range_bag_numbers,omitempty"`
	CompletionPercentage  decimal.Decimal `json:"completion_percentage"`
}

// Complete is true when every bag 1..N exists and carries a weight.
func (s LotBagStatus) Complete() bool {
	return s.MissingCount == 0 && s.EmptyWeightCount == 0
}

type MissingBagsSummary struct {
	TotalLots            int             `json:"total_lots"`
	CompleteLots         int             `json:"complete_lots"`
	IncompleteLots       int             `json:"incomplete_lots"`
	TotalExpectedBags    int             `json:"total_expected_bags"`
	TotalEnteredBags     int             `json:"total_entered_bags"`
	TotalMissingBags     int             `json:"total_missing_bags"`
	TotalEmptyWeightBags int             `json:"total_empty_weight_bags"`
	OverallCompletion    decimal.Decimal `json:"overall_completion_percentage"`
}

type MissingBagsReport struct {
	Summary            MissingBagsSummary `json:"summary"`
	MissingBagsDetails []LotBagStatus     `json:"missing_bags_details"`
}

// AnalyzeLotBags compares the bag numbers present on a lot against 1..N.
// A bag counts as entered when its number is inside the range, whatever its
// weight; entered bags with a null or zero weight are also listed as empty.
// Bag numbers outside 1..N are reported separately and never count as entered.
func AnalyzeLotBags(lot Lot) LotBagStatus {
	status := LotBagStatus{
		LotID:                 lot.ID,
		LotNumber:             lot.LotNumber,
		FarmerName:            lot.FarmerName,
		Status:                lot.Status,
		NumberOfBags:          lot.NumberOfBags,
		MissingBagNumbers:     []int{},
		EmptyWeightBagNumbers: []int{},
	}

	present := make(map[int]bool, len(lot.Bags))
	for _, b := range lot.Bags {
		if b.BagNumber < 1 || b.BagNumber > lot.NumberOfBags {
			status.OutOfRangeBagNumbers = append(status.OutOfRangeBagNumbers, b.BagNumber)
			continue
		}
		if present[b.BagNumber] {
			continue
		}
		present[b.BagNumber] = true
		if !b.weighed() {
			status.EmptyWeightBagNumbers = append(status.EmptyWeightBagNumbers, b.BagNumber)
		}
	}
	sort.Ints(status.EmptyWeightBagNumbers)
	sort.Ints(status.OutOfRangeBagNumbers)

	for n := 1; n <= lot.NumberOfBags; n++ {
		if !present[n] {
			status.MissingBagNumbers = append(status.MissingBagNumbers, n)
		}
	}

	status.EnteredBags = len(present)
	status.MissingCount = len(status.MissingBagNumbers)
	status.EmptyWeightCount = len(status.EmptyWeightBagNumbers)
	status.CompletionPercentage = completion(status.EnteredBags, lot.NumberOfBags)
	return status
}

// DetectMissingBags analyses every non-cancelled lot. Only lots with gaps or
// empty weights are listed in the details; all of them feed the summary.
func DetectMissingBags(lots []Lot) MissingBagsReport {
	sorted := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if l.Status != StatusCancelled {
			sorted = append(sorted, l)
		}
	}
	sortLots(sorted)

	report := MissingBagsReport{MissingBagsDetails: []LotBagStatus{}}
	sum := &report.Summary
	for _, l := range sorted {
		st := AnalyzeLotBags(l)
		sum.TotalLots++
		sum.TotalExpectedBags += st.NumberOfBags
		sum.TotalEnteredBags += st.EnteredBags
		sum.TotalMissingBags += st.MissingCount
		sum.TotalEmptyWeightBags += st.EmptyWeightCount
		if st.Complete() {
			sum.CompleteLots++
			continue
		}
		sum.IncompleteLots++
		report.MissingBagsDetails = append(report.MissingBagsDetails, st)
	}
	sum.OverallCompletion = completion(sum.TotalEnteredBags, sum.TotalExpectedBags)
	return report
}

// completion is entered/total*100 rounded to two places; zero total gives 0.
func completion(entered, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(entered) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
