package billing

import (
	"fmt"
	"time"

	"apmc-backend/internal/apperror"

	"github.com/shopspring/decimal"
)

type Farmer struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Place  string `json:"place"`
}

// ManualDeductions are entered at the counter when settling a farmer. A nil
// field means "not entered"; see BuildFarmerDayBill for the fallbacks.
type ManualDeductions struct {
	Hamali          *decimal.Decimal `json:"hamali"`
	VehicleRent     *decimal.Decimal `json:"vehicle_rent"`
	Advance         *decimal.Decimal `json:"advance"`
	EmptyBagCharges *decimal.Decimal `json:"empty_bag_charges"`
	Other           *decimal.Decimal `json:"other"`
}

func (m ManualDeductions) Validate() error {
	fields := []struct {
		name string
		v    *decimal.Decimal
	}{
		{"hamali", m.Hamali},
		{"vehicle_rent", m.VehicleRent},
		{"advance", m.Advance},
		{"empty_bag_charges", m.EmptyBagCharges},
		{"other", m.Other},
	}
	for _, f := range fields {
		if f.v != nil && f.v.IsNegative() {
			return apperror.Validationf(f.name, "must not be negative, got %s", f.v.String())
		}
	}
	return nil
}

type Deductions struct {
	Hamali          decimal.Decimal `json:"hamali"`
	VehicleRent     decimal.Decimal `json:"vehicle_rent"`
	Advance         decimal.Decimal `json:"advance"`
	EmptyBagCharges decimal.Decimal `json:"empty_bag_charges"`
	Other           decimal.Decimal `json:"other"`
	Commission      decimal.Decimal `json:"commission"`
}

func (d Deductions) Total() decimal.Decimal {
	return d.Hamali.Add(d.VehicleRent).Add(d.Advance).Add(d.EmptyBagCharges).Add(d.Other).Add(d.Commission)
}

type BillLine struct {
	LotID               uint             `json:"lot_id"`
	LotNumber           string           `json:"lot_number"`
	Variety             string           `json:"variety"`
	Grade               string           `json:"grade"`
	NumberOfBags        int              `json:"number_of_bags"`
	WeighedBags         int              `json:"weighed_bags"`
	TotalWeight         decimal.Decimal  `json:"total_weight"`
	TotalWeightQuintals decimal.Decimal  `json:"total_weight_quintals"`
	LotPrice            *decimal.Decimal `json:"lot_price"`
	BasicAmount         decimal.Decimal  `json:"basic_amount"`
	Commission          decimal.Decimal  `json:"commission"`
}

type BillSummary struct {
	TotalLots           int             `json:"total_lots"`
	TotalBags           int             `json:"total_bags"`
	TotalWeighedBags    int             `json:"total_weighed_bags"`
	TotalWeight         decimal.Decimal `json:"total_weight"`
	TotalWeightQuintals decimal.Decimal `json:"total_weight_quintals"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	NetAmount           decimal.Decimal `json:"net_amount"`
}

type FarmerDayBill struct {
	PattiNumber string      `json:"patti_number"`
	Date        string      `json:"date"`
	Farmer      Farmer      `json:"farmer"`
	Lots        []BillLine  `json:"lots"`
	Deductions  Deductions  `json:"deductions"`
	Summary     BillSummary `json:"summary"`
}

// PattiNumber is the settlement serial for one farmer-day.
func PattiNumber(farmerID uint, date time.Time) string {
	return fmt.Sprintf("P-%s-%d", date.Format("20060102"), farmerID)
}

// BuildFarmerDayBill settles one farmer's completed lots created on date's
// calendar day. Deductions that were not entered fall back to the lots' own
// charges: vehicle rent and advance are summed from the lots, hamali uses the
// lot's unload hamali or, when that is zero, unloadHamaliPerBag times its bags.
// Empty-bag and other charges default to zero. netAmount = gross - deductions.
func BuildFarmerDayBill(farmer Farmer, date time.Time, lots []Lot, s Settings, manual ManualDeductions) FarmerDayBill {
	day := DayRange(date)

	selected := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if l.FarmerID == farmer.ID && l.Status == StatusCompleted && day.Contains(l.CreatedAt) {
			selected = append(selected, l)
		}
	}
	sortLots(selected)

	bill := FarmerDayBill{
		PattiNumber: PattiNumber(farmer.ID, day.Start),
		Date:        day.Start.Format("2006-01-02"),
		Farmer:      farmer,
		Lots:        make([]BillLine, 0, len(selected)),
	}

	var lotHamali, lotVehicle, lotAdvance decimal.Decimal
	for _, l := range selected {
		amounts := ComputeLotAmounts(l, s)

		weighed := 0
		for _, b := range l.Bags {
			if b.weighed() {
				weighed++
			}
		}

		bill.Lots = append(bill.Lots, BillLine{
			LotID:               l.ID,
			LotNumber:           l.LotNumber,
			Variety:             l.Variety,
			Grade:               l.Grade,
			NumberOfBags:        l.NumberOfBags,
			WeighedBags:         weighed,
			TotalWeight:         amounts.TotalWeight,
			TotalWeightQuintals: amounts.TotalWeightQuintals,
			LotPrice:            l.LotPrice,
			BasicAmount:         amounts.BasicAmount,
			Commission:          amounts.Commission,
		})

		sum := &bill.Summary
		sum.TotalLots++
		sum.TotalBags += l.NumberOfBags
		sum.TotalWeighedBags += weighed
		sum.TotalWeight = sum.TotalWeight.Add(amounts.TotalWeight)
		sum.TotalWeightQuintals = sum.TotalWeightQuintals.Add(amounts.TotalWeightQuintals)
		sum.GrossAmount = sum.GrossAmount.Add(amounts.BasicAmount)
		bill.Deductions.Commission = bill.Deductions.Commission.Add(amounts.Commission)

		if l.UnloadHamali.IsPositive() {
			lotHamali = lotHamali.Add(l.UnloadHamali)
		} else if amounts.BagCount > 0 {
			lotHamali = lotHamali.Add(decimal.NewFromInt(int64(amounts.BagCount)).Mul(s.UnloadHamaliPerBag))
		}
		lotVehicle = lotVehicle.Add(l.VehicleRent)
		lotAdvance = lotAdvance.Add(l.Advance)
	}

	bill.Deductions.Hamali = orDefault(manual.Hamali, lotHamali)
	bill.Deductions.VehicleRent = orDefault(manual.VehicleRent, lotVehicle)
	bill.Deductions.Advance = orDefault(manual.Advance, lotAdvance)
	bill.Deductions.EmptyBagCharges = orDefault(manual.EmptyBagCharges, decimal.Zero)
	bill.Deductions.Other = orDefault(manual.Other, decimal.Zero)

	bill.Summary.TotalDeductions = bill.Deductions.Total()
	bill.Summary.NetAmount = bill.Summary.GrossAmount.Sub(bill.Summary.TotalDeductions)
	return bill
}

func orDefault(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v != nil {
		return *v
	}
	return def
}
