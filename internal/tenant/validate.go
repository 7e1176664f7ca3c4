package tenant

import (
	"regexp"
	"strings"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/models"
)

var (
	mobilePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	ifscPattern   = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	gstinPattern  = regexp.MustCompile(`^[0-9]{2}[A-Z0-9]{13}$`)
)

func validateFarmer(f *models.Farmer) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Mobile = strings.TrimSpace(f.Mobile)
	f.IFSCCode = strings.ToUpper(strings.TrimSpace(f.IFSCCode))

	if f.Name == "" {
		return apperror.Validation("name", "is required")
	}
	if !mobilePattern.MatchString(f.Mobile) {
		return apperror.Validation("mobile", "must be 10 to 15 digits")
	}
	if f.IFSCCode != "" && !ifscPattern.MatchString(f.IFSCCode) {
		return apperror.Validation("ifsc_code", "is not a valid IFSC code")
	}
	return nil
}

func validateBuyer(b *models.Buyer) error {
	b.Name = strings.TrimSpace(b.Name)
	b.Mobile = strings.TrimSpace(b.Mobile)
	b.GSTIN = strings.ToUpper(strings.TrimSpace(b.GSTIN))

	if b.Name == "" {
		return apperror.Validation("name", "is required")
	}
	if b.Mobile != "" && !mobilePattern.MatchString(b.Mobile) {
		return apperror.Validation("mobile", "must be 10 to 15 digits")
	}
	if b.GSTIN != "" && !gstinPattern.MatchString(b.GSTIN) {
		return apperror.Validation("gstin", "must be a 15 character GSTIN")
	}
	return nil
}

func validateLot(l *models.Lot) error {
	l.LotNumber = strings.TrimSpace(l.LotNumber)
	if l.LotNumber == "" {
		return apperror.Validation("lot_number", "is required")
	}
	if l.FarmerID == 0 {
		return apperror.Validation("farmer_id", "is required")
	}
	if l.NumberOfBags < 1 {
		return apperror.Validation("number_of_bags", "must be at least 1")
	}
	if l.LotPrice != nil && l.LotPrice.IsNegative() {
		return apperror.Validation("lot_price", "must not be negative")
	}
	if l.VehicleRent.IsNegative() || l.Advance.IsNegative() || l.UnloadHamali.IsNegative() {
		return apperror.Validation("charges", "vehicle rent, advance and unload hamali must not be negative")
	}
	return nil
}
