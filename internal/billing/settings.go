package billing

import "github.com/shopspring/decimal"

// Settings are a tenant's resolved rates and per-bag fees.
type Settings struct {
	SGSTRate           decimal.Decimal `json:"sgst_rate"`
	CGSTRate           decimal.Decimal `json:"cgst_rate"`
	CESSRate           decimal.Decimal `json:"cess_rate"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
	UnloadHamaliPerBag decimal.Decimal `json:"unload_hamali_per_bag"`
	PackagingPerBag    decimal.Decimal `json:"packaging_per_bag"`
	WeighingFeePerBag  decimal.Decimal `json:"weighing_fee_per_bag"`
}

var (
	DefaultSGSTRate       = decimal.RequireFromString("2.5")
	DefaultCGSTRate       = decimal.RequireFromString("2.5")
	DefaultCESSRate       = decimal.RequireFromString("0.6")
	DefaultCommissionRate = decimal.NewFromInt(3)
)

// DefaultSettings applies when a tenant has not configured a value. Per-bag
// fees default to zero.
func DefaultSettings() Settings {
	return Settings{
		SGSTRate:       DefaultSGSTRate,
		CGSTRate:       DefaultCGSTRate,
		CESSRate:       DefaultCESSRate,
		CommissionRate: DefaultCommissionRate,
	}
}

// percentOf returns amount * rate / 100 without rounding.
func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate.Shift(-2))
}
