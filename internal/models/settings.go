package models

import (
	"apmc-backend/internal/apperror"
	"apmc-backend/internal/billing"

	"github.com/shopspring/decimal"
)

// TenantSettings is the persisted settings blob. Nil fields fall back to the
// billing defaults when resolved.
type TenantSettings struct {
	SGSTRate                 *decimal.Decimal `json:"sgstRate,omitempty"`
	CGSTRate                 *decimal.Decimal `json:"cgstRate,omitempty"`
	CESSRate                 *decimal.Decimal `json:"cessRate,omitempty"`
	UnloadHamaliPerBag       *decimal.Decimal `json:"unloadHamaliPerBag,omitempty"`
	PackagingPerBag          *decimal.Decimal `json:"packagingPerBag,omitempty"`
	WeighingFeePerBag        *decimal.Decimal `json:"weighingFeePerBag,omitempty"`
	APMCCommissionPercentage *decimal.Decimal `json:"apmcCommissionPercentage,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Validate rejects negative values and percentages above 100.
func (s TenantSettings) Validate() error {
	percents := []struct {
		field string
		v     *decimal.Decimal
	}{
		{"sgstRate", s.SGSTRate},
		{"cgstRate", s.CGSTRate},
		{"cessRate", s.CESSRate},
		{"apmcCommissionPercentage", s.APMCCommissionPercentage},
	}
	for _, p := range percents {
		if p.v == nil {
			continue
		}
		if p.v.IsNegative() || p.v.GreaterThan(hundred) {
			return apperror.Validationf(p.field, "must be between 0 and 100, got %s", p.v.String())
		}
	}

	fees := []struct {
		field string
		v     *decimal.Decimal
	}{
		{"unloadHamaliPerBag", s.UnloadHamaliPerBag},
		{"packagingPerBag", s.PackagingPerBag},
		{"weighingFeePerBag", s.WeighingFeePerBag},
	}
	for _, f := range fees {
		if f.v != nil && f.v.IsNegative() {
			return apperror.Validationf(f.field, "must not be negative, got %s", f.v.String())
		}
	}
	return nil
}

// Resolve produces the settings struct the billing engine consumes.
func (s TenantSettings) Resolve() billing.Settings {
	out := billing.DefaultSettings()
	pick := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	pick(&out.SGSTRate, s.SGSTRate)
	pick(&out.CGSTRate, s.CGSTRate)
	pick(&out.CESSRate, s.CESSRate)
	pick(&out.UnloadHamaliPerBag, s.UnloadHamaliPerBag)
	pick(&out.PackagingPerBag, s.PackagingPerBag)
	pick(&out.WeighingFeePerBag, s.WeighingFeePerBag)
	pick(&out.CommissionRate, s.APMCCommissionPercentage)
	return out
}

// Merge overlays the non-nil fields of patch onto s.
func (s TenantSettings) Merge(patch TenantSettings) TenantSettings {
	if patch.SGSTRate != nil {
		s.SGSTRate = patch.SGSTRate
	}
	if patch.CGSTRate != nil {
		s.CGSTRate = patch.CGSTRate
	}
	if patch.CESSRate != nil {
		s.CESSRate = patch.CESSRate
	}
	if patch.UnloadHamaliPerBag != nil {
		s.UnloadHamaliPerBag = patch.UnloadHamaliPerBag
	}
	if patch.PackagingPerBag != nil {
		s.PackagingPerBag = patch.PackagingPerBag
	}
	if patch.WeighingFeePerBag != nil {
		s.WeighingFeePerBag = patch.WeighingFeePerBag
	}
	if patch.APMCCommissionPercentage != nil {
		s.APMCCommissionPercentage = patch.APMCCommissionPercentage
	}
	return s
}
