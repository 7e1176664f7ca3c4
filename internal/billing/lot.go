package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Lot is the engine's view of a lot row with its bags and resolved names.
type Lot struct {
	ID           uint
	LotNumber    string
	FarmerID     uint
	FarmerName   string
	BuyerName    string
	Variety      string
	Grade        string
	NumberOfBags int
	LotPrice     *decimal.Decimal
	Status       string
	VehicleRent  decimal.Decimal
	Advance      decimal.Decimal
	UnloadHamali decimal.Decimal
	CreatedAt    time.Time
	Bags         []Bag
}

type Bag struct {
	BagNumber int
	Weight    *decimal.Decimal
}

// weighed reports whether the bag carries a positive weight.
func (b Bag) weighed() bool {
	return b.Weight != nil && b.Weight.IsPositive()
}

// LotAmounts is the result of the per-lot algorithm.
type LotAmounts struct {
	BagCount            int             `json:"bag_count"`
	TotalWeight         decimal.Decimal `json:"total_weight"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	BasicAmount         decimal.Decimal `json:"basic_amount"`
	Packaging           decimal.Decimal `json:"packaging"`
	WeighingCharges     decimal.Decimal `json:"weighing_charges"`
	Commission          decimal.Decimal `json:"commission"`
	TaxableAmount       decimal.Decimal `json:"taxable_amount"`
	CessAmount          decimal.Decimal `json:"cess_amount"`
	SGSTAmount          decimal.Decimal `json:"sgst_amount"`
	CGSTAmount          decimal.Decimal `json:"cgst_amount"`
	TotalTaxAmount      decimal.Decimal `json:"total_tax_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
}

// TotalWeight sums bag weights in kg; bags without a weight add nothing.
func TotalWeight(bags []Bag) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bags {
		if b.Weight != nil {
			total = total.Add(*b.Weight)
		}
	}
	return total
}

// ComputeLotAmounts runs the per-lot tax algorithm. A missing or zero price
// yields a zero basic amount; per-bag charges still apply.
func ComputeLotAmounts(lot Lot, s Settings) LotAmounts {
	bagCount := len(lot.Bags)
	weight := TotalWeight(lot.Bags)
	quintals := weight.Shift(-2)

	basic := decimal.Zero
	if lot.LotPrice != nil && lot.LotPrice.IsPositive() {
		basic = quintals.Mul(*lot.LotPrice)
	}

	packaging := decimal.Zero
	weighing := decimal.Zero
	if bagCount > 0 {
		n := decimal.NewFromInt(int64(bagCount))
		packaging = n.Mul(s.PackagingPerBag)
		weighing = n.Mul(s.WeighingFeePerBag)
	}
	commission := percentOf(basic, s.CommissionRate)

	taxable := basic.Add(packaging).Add(weighing).Add(commission)
	cess := percentOf(basic, s.CESSRate)
	sgst := percentOf(taxable, s.SGSTRate)
	cgst := percentOf(taxable, s.CGSTRate)
	totalTax := cess.Add(sgst).Add(cgst)

	return LotAmounts{
		BagCount:            bagCount,
		TotalWeight:         weight,
		TotalWeightQuintals: quintals,
		BasicAmount:         basic,
		Packaging:           packaging,
		WeighingCharges:     weighing,
		Commission:          commission,
		TaxableAmount:       taxable,
		CessAmount:          cess,
		SGSTAmount:          sgst,
		CGSTAmount:          cgst,
		TotalTaxAmount:      totalTax,
		TotalAmount:         taxable.Add(totalTax),
	}
}

// Add accumulates o into a.
func (a LotAmounts) Add(o LotAmounts) LotAmounts {
	return LotAmounts{
		BagCount:            a.BagCount + o.BagCount,
		TotalWeight:         a.TotalWeight.Add(o.TotalWeight),
		TotalWeightQuintals: a.TotalWeightQuintals.Add(o.TotalWeightQuintals),
		BasicAmount:         a.BasicAmount.Add(o.BasicAmount),
		Packaging:           a.Packaging.Add(o.Packaging),
		WeighingCharges:     a.WeighingCharges.Add(o.WeighingCharges),
		Commission:          a.Commission.Add(o.Commission),
		TaxableAmount:       a.TaxableAmount.Add(o.TaxableAmount),
		CessAmount:          a.CessAmount.Add(o.CessAmount),
		SGSTAmount:          a.SGSTAmount.Add(o.SGSTAmount),
		CGSTAmount:          a.CGSTAmount.Add(o.CGSTAmount),
		TotalTaxAmount:      a.TotalTaxAmount.Add(o.TotalTaxAmount),
		TotalAmount:         a.TotalAmount.Add(o.TotalAmount),
	}
}
