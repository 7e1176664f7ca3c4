package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/billing"
	"apmc-backend/internal/metrics"
	"apmc-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads and writes exactly one tenant schema. Every query it issues is
// qualified with that schema and parameterised; nothing crosses tenants.
type Store struct {
	db       *gorm.DB
	schema   string
	tenantID uuid.UUID
}

func NewStore(db *gorm.DB, schemaID string, tenantID uuid.UUID) (*Store, error) {
	if err := ValidateSchemaID(schemaID); err != nil {
		return nil, err
	}
	return &Store{db: db, schema: schemaID, tenantID: tenantID}, nil
}

func (s *Store) TenantID() uuid.UUID { return s.tenantID }
func (s *Store) Schema() string      { return s.schema }

func (s *Store) table(ctx context.Context, name string) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.schema + "." + name)
}

func (s *Store) tx(tx *gorm.DB, name string) *gorm.DB {
	return tx.Table(s.schema + "." + name)
}

// translate maps constraint violations onto validation errors.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(entity, nil)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &apperror.ValidationError{Field: entity, Message: "duplicate " + entity, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &apperror.ValidationError{Field: entity, Message: "references a record that does not exist", Err: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &apperror.ValidationError{Field: entity, Message: "violates a value constraint", Err: err}
	default:
		return err
	}
}

// -------------------------
// Farmers
// -------------------------

type FarmerFilter struct {
	Search string
	Limit  int
	Offset int
}

func (s *Store) ListFarmers(ctx context.Context, f FarmerFilter) ([]models.Farmer, error) {
	q := s.table(ctx, "farmers")
	if f.Search != "" {
		like := containsPattern(f.Search)
		q = q.Where(`name ILIKE ? ESCAPE '\' OR mobile LIKE ? ESCAPE '\' OR place ILIKE ? ESCAPE '\'`, like, like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var rows []models.Farmer
	if err := q.Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches v literally anywhere in a column.
func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}

func (s *Store) GetFarmer(ctx context.Context, id uint) (*models.Farmer, error) {
	var f models.Farmer
	if err := s.table(ctx, "farmers").Where("id = ?", id).Take(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("farmer", id)
		}
		return nil, err
	}
	return &f, nil
}

func (s *Store) CreateFarmer(ctx context.Context, f *models.Farmer) error {
	if err := validateFarmer(f); err != nil {
		return err
	}
	f.ID = 0
	f.TenantID = s.tenantID
	if err := s.table(ctx, "farmers").Create(f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &apperror.ValidationError{Field: "mobile", Message: "a farmer with this mobile already exists", Err: err}
		}
		return err
	}
	return nil
}

// UpdateFarmer replaces the editable fields and returns the row before and
// after the change.
func (s *Store) UpdateFarmer(ctx context.Context, id uint, in models.Farmer) (before, after *models.Farmer, err error) {
	if err := validateFarmer(&in); err != nil {
		return nil, nil, err
	}
	before, err = s.GetFarmer(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	err = s.table(ctx, "farmers").Where("id = ?", id).Updates(map[string]any{
		"name":           in.Name,
		"mobile":         in.Mobile,
		"place":          in.Place,
		"bank_name":      in.BankName,
		"account_number": in.AccountNumber,
		"ifsc_code":      in.IFSCCode,
		"updated_at":     time.Now(),
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, &apperror.ValidationError{Field: "mobile", Message: "a farmer with this mobile already exists", Err: err}
		}
		return nil, nil, err
	}
	after, err = s.GetFarmer(ctx, id)
	return before, after, err
}

// -------------------------
// Buyers
// -------------------------

func (s *Store) ListBuyers(ctx context.Context) ([]models.Buyer, error) {
	var rows []models.Buyer
	if err := s.table(ctx, "buyers").Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetBuyer(ctx context.Context, id uint) (*models.Buyer, error) {
	var b models.Buyer
	if err := s.table(ctx, "buyers").Where("id = ?", id).Take(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("buyer", id)
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBuyer(ctx context.Context, b *models.Buyer) error {
	if err := validateBuyer(b); err != nil {
		return err
	}
	b.ID = 0
	b.TenantID = s.tenantID
	return translate(s.table(ctx, "buyers").Create(b).Error, "buyer")
}

// -------------------------
// Lots
// -------------------------

// LotFilter selects lots created in [From, Until) when either bound is set.
type LotFilter struct {
	Status   models.LotStatus
	FarmerID uint
	From     time.Time
	Until    time.Time
}

func (s *Store) ListLots(ctx context.Context, f LotFilter) ([]models.Lot, error) {
	q := s.table(ctx, "lots")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.FarmerID != 0 {
		q = q.Where("farmer_id = ?", f.FarmerID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.Until.IsZero() {
		q = q.Where("created_at < ?", f.Until)
	}
	var lots []models.Lot
	if err := q.Order("created_at DESC, id DESC").Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// GetLot loads a lot with its bags, farmer and buyer.
func (s *Store) GetLot(ctx context.Context, id uint) (*models.Lot, error) {
	var lot models.Lot
	if err := s.table(ctx, "lots").Where("id = ?", id).Take(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("lot", id)
		}
		return nil, err
	}
	lots := []models.Lot{lot}
	if err := s.attach(ctx, lots); err != nil {
		return nil, err
	}
	return &lots[0], nil
}

func (s *Store) CreateLot(ctx context.Context, lot *models.Lot) error {
	if err := validateLot(lot); err != nil {
		return err
	}
	if _, err := s.GetFarmer(ctx, lot.FarmerID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.Validationf("farmer_id", "farmer %d does not exist", lot.FarmerID)
		}
		return err
	}
	if lot.BuyerID != nil {
		if _, err := s.GetBuyer(ctx, *lot.BuyerID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.Validationf("buyer_id", "buyer %d does not exist", *lot.BuyerID)
			}
			return err
		}
	}

	lot.ID = 0
	lot.TenantID = s.tenantID
	lot.Status = models.LotStatusActive
	lot.TotalWeight = nil
	lot.CompletedAt = nil
	if err := s.table(ctx, "lots").Create(lot).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &apperror.ValidationError{Field: "lot_number", Message: "lot number already used", Err: err}
		}
		return translate(err, "lot")
	}
	return nil
}

// LotPricing carries the fields that can change while a lot is active.
type LotPricing struct {
	LotPrice     *decimal.Decimal
	BuyerID      *uint
	VehicleRent  *decimal.Decimal
	Advance      *decimal.Decimal
	UnloadHamali *decimal.Decimal
}

// UpdateLotPricing edits price, buyer and ancillary charges of an active lot.
func (s *Store) UpdateLotPricing(ctx context.Context, id uint, p LotPricing) (before, after *models.Lot, err error) {
	if p.LotPrice != nil && p.LotPrice.IsNegative() {
		return nil, nil, apperror.Validation("lot_price", "must not be negative")
	}
	for name, v := range map[string]*decimal.Decimal{"vehicle_rent": p.VehicleRent, "advance": p.Advance, "unload_hamali": p.UnloadHamali} {
		if v != nil && v.IsNegative() {
			return nil, nil, apperror.Validation(name, "must not be negative")
		}
	}
	if p.BuyerID != nil {
		if _, err := s.GetBuyer(ctx, *p.BuyerID); err != nil {
			if apperror.IsNotFound(err) {
				return nil, nil, apperror.Validationf("buyer_id", "buyer %d does not exist", *p.BuyerID)
			}
			return nil, nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockLot(tx, id)
		if err != nil {
			return err
		}
		if locked.Status != models.LotStatusActive {
			return apperror.Validationf("status", "lot %d is %s and can no longer be edited", id, locked.Status)
		}
		before = locked

		updates := map[string]any{"updated_at": time.Now()}
		if p.LotPrice != nil {
			updates["lot_price"] = *p.LotPrice
		}
		if p.BuyerID != nil {
			updates["buyer_id"] = *p.BuyerID
		}
		if p.VehicleRent != nil {
			updates["vehicle_rent"] = *p.VehicleRent
		}
		if p.Advance != nil {
			updates["advance"] = *p.Advance
		}
		if p.UnloadHamali != nil {
			updates["unload_hamali"] = *p.UnloadHamali
		}
		return s.tx(tx, "lots").Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, nil, err
	}
	after, err = s.GetLot(ctx, id)
	return before, after, err
}

func (s *Store) CancelLot(ctx context.Context, id uint) (*models.Lot, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lot, err := s.lockLot(tx, id)
		if err != nil {
			return err
		}
		if lot.Status != models.LotStatusActive {
			return apperror.Validationf("status", "only active lots can be cancelled, lot %d is %s", id, lot.Status)
		}
		return s.tx(tx, "lots").Where("id = ?", id).Updates(map[string]any{
			"status":     models.LotStatusCancelled,
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetLot(ctx, id)
}

// CompleteLot freezes a lot for billing. The lot row is locked for the whole
// transaction so concurrent completions and bag writes serialise; the second
// caller sees status completed and fails validation.
func (s *Store) CompleteLot(ctx context.Context, id uint) (*models.Lot, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lot, err := s.lockLot(tx, id)
		if err != nil {
			return err
		}
		if lot.Status != models.LotStatusActive {
			return apperror.Validationf("status", "lot %d is %s, only active lots can be completed", id, lot.Status)
		}
		if lot.LotPrice == nil || !lot.LotPrice.IsPositive() {
			return apperror.Validation("lot_price", "lot must be priced before completion")
		}

		var bags []models.Bag
		if err := s.tx(tx, "bags").Where("lot_id = ?", id).Order("bag_number ASC").Find(&bags).Error; err != nil {
			return err
		}
		engineLot := ToBillingLot(*lot)
		engineLot.Bags = toBillingBags(bags)

		st := billing.AnalyzeLotBags(engineLot)
		if st.MissingCount > 0 {
			return apperror.Validationf("bags", "missing bag numbers %v", st.MissingBagNumbers)
		}
		if st.EmptyWeightCount > 0 {
			return apperror.Validationf("bags", "bags without weight %v", st.EmptyWeightBagNumbers)
		}

		now := time.Now()
		return s.tx(tx, "lots").Where("id = ?", id).Updates(map[string]any{
			"status":       models.LotStatusCompleted,
			"total_weight": billing.TotalWeight(engineLot.Bags),
			"completed_at": now,
			"updated_at":   now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.LotsCompleted.Inc()
	return s.GetLot(ctx, id)
}

func (s *Store) lockLot(tx *gorm.DB, id uint) (*models.Lot, error) {
	var lot models.Lot
	err := s.tx(tx, "lots").Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("lot", id)
		}
		return nil, err
	}
	return &lot, nil
}

// -------------------------
// Bags
// -------------------------

// BagInput is the editable part of a bag.
type BagInput struct {
	BagNumber int
	Weight    *decimal.Decimal
	Grade     string
	Notes     string
}

// CreateBag adds a bag to an active lot. Bag numbers must lie in
// 1..number_of_bags and be unique within the lot.
func (s *Store) CreateBag(ctx context.Context, lotID uint, in BagInput) (*models.Bag, error) {
	if in.Weight != nil && in.Weight.IsNegative() {
		return nil, apperror.Validation("weight", "must not be negative")
	}
	bag := &models.Bag{
		TenantID:  s.tenantID,
		LotID:     lotID,
		BagNumber: in.BagNumber,
		Weight:    in.Weight,
		Grade:     in.Grade,
		Notes:     in.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lot, err := s.lockLot(tx, lotID)
		if err != nil {
			return err
		}
		if err := checkBagWritable(lot, in.BagNumber); err != nil {
			return err
		}
		if err := s.tx(tx, "bags").Create(bag).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &apperror.ValidationError{Field: "bag_number", Message: "bag number already entered for this lot", Err: err}
			}
			return translate(err, "bag")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bag, nil
}

// BagPatch holds the bag fields a caller sent; nil fields keep their value.
type BagPatch struct {
	Weight *decimal.Decimal
	Grade  *string
	Notes  *string
}

func (p BagPatch) updates() map[string]any {
	u := map[string]any{"updated_at": time.Now()}
	if p.Weight != nil {
		u["weight"] = *p.Weight
	}
	if p.Grade != nil {
		u["grade"] = *p.Grade
	}
	if p.Notes != nil {
		u["notes"] = *p.Notes
	}
	return u
}

// UpdateBag changes weight, grade or notes of a bag on an active lot.
func (s *Store) UpdateBag(ctx context.Context, bagID uint, in BagPatch) (before, after *models.Bag, err error) {
	if in.Weight != nil && in.Weight.IsNegative() {
		return nil, nil, apperror.Validation("weight", "must not be negative")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.bagByID(tx, bagID)
		if err != nil {
			return err
		}
		lot, err := s.lockLot(tx, current.LotID)
		if err != nil {
			return err
		}
		if err := checkBagWritable(lot, current.BagNumber); err != nil {
			return err
		}
		before = current
		return s.tx(tx, "bags").Where("id = ?", bagID).Updates(in.updates()).Error
	})
	if err != nil {
		return nil, nil, err
	}
	after, err = s.bagByID(s.db.WithContext(ctx), bagID)
	return before, after, err
}

func (s *Store) DeleteBag(ctx context.Context, bagID uint) (*models.Bag, error) {
	var deleted *models.Bag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bag, err := s.bagByID(tx, bagID)
		if err != nil {
			return err
		}
		lot, err := s.lockLot(tx, bag.LotID)
		if err != nil {
			return err
		}
		if lot.Status != models.LotStatusActive {
			return apperror.Validationf("status", "lot %d is %s, its bags are frozen", lot.ID, lot.Status)
		}
		deleted = bag
		return s.tx(tx, "bags").Where("id = ?", bagID).Delete(&models.Bag{}).Error
	})
	return deleted, err
}

func (s *Store) GetBagsByLot(ctx context.Context, lotID uint) ([]models.Bag, error) {
	var n int64
	if err := s.table(ctx, "lots").Where("id = ?", lotID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperror.NotFound("lot", lotID)
	}
	var bags []models.Bag
	if err := s.table(ctx, "bags").Where("lot_id = ?", lotID).Order("bag_number ASC").Find(&bags).Error; err != nil {
		return nil, err
	}
	return bags, nil
}

func (s *Store) bagByID(tx *gorm.DB, id uint) (*models.Bag, error) {
	var bag models.Bag
	if err := s.tx(tx, "bags").Where("id = ?", id).Take(&bag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("bag", id)
		}
		return nil, err
	}
	return &bag, nil
}

func checkBagWritable(lot *models.Lot, bagNumber int) error {
	if lot.Status != models.LotStatusActive {
		return apperror.Validationf("status", "lot %d is %s, its bags are frozen", lot.ID, lot.Status)
	}
	if bagNumber < 1 || bagNumber > lot.NumberOfBags {
		return apperror.Validationf("bag_number", "must be between 1 and %d, got %d", lot.NumberOfBags, bagNumber)
	}
	return nil
}

// -------------------------
// Billing inputs
// -------------------------

// ListCompletedLots returns completed lots created in [start, until) with bags,
// farmer and buyer attached.
func (s *Store) ListCompletedLots(ctx context.Context, start, until time.Time) ([]models.Lot, error) {
	return s.lotsCreatedBetween(ctx, start, until, models.LotStatusCompleted)
}

// ListLotsCreatedBetween returns all non-cancelled lots created in [start, until).
func (s *Store) ListLotsCreatedBetween(ctx context.Context, start, until time.Time) ([]models.Lot, error) {
	return s.lotsCreatedBetween(ctx, start, until, "")
}

func (s *Store) lotsCreatedBetween(ctx context.Context, start, until time.Time, status models.LotStatus) ([]models.Lot, error) {
	q := s.table(ctx, "lots").Where("created_at >= ? AND created_at < ?", start, until)
	if status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status <> ?", models.LotStatusCancelled)
	}
	var lots []models.Lot
	if err := q.Order("created_at ASC, id ASC").Find(&lots).Error; err != nil {
		return nil, err
	}
	if err := s.attach(ctx, lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// attach loads bags, farmers and buyers for lots with three IN queries.
func (s *Store) attach(ctx context.Context, lots []models.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	lotIDs := make([]uint, 0, len(lots))
	farmerIDs := make([]uint, 0, len(lots))
	var buyerIDs []uint
	for _, l := range lots {
		lotIDs = append(lotIDs, l.ID)
		farmerIDs = append(farmerIDs, l.FarmerID)
		if l.BuyerID != nil {
			buyerIDs = append(buyerIDs, *l.BuyerID)
		}
	}

	var bags []models.Bag
	if err := s.table(ctx, "bags").Where("lot_id IN ?", lotIDs).Order("bag_number ASC").Find(&bags).Error; err != nil {
		return err
	}
	byLot := make(map[uint][]models.Bag, len(lots))
	for _, b := range bags {
		byLot[b.LotID] = append(byLot[b.LotID], b)
	}

	var farmers []models.Farmer
	if err := s.table(ctx, "farmers").Where("id IN ?", farmerIDs).Find(&farmers).Error; err != nil {
		return err
	}
	farmerByID := make(map[uint]*models.Farmer, len(farmers))
	for i := range farmers {
		farmerByID[farmers[i].ID] = &farmers[i]
	}

	buyerByID := make(map[uint]*models.Buyer)
	if len(buyerIDs) > 0 {
		var buyers []models.Buyer
		if err := s.table(ctx, "buyers").Where("id IN ?", buyerIDs).Find(&buyers).Error; err != nil {
			return err
		}
		for i := range buyers {
			buyerByID[buyers[i].ID] = &buyers[i]
		}
	}

	for i := range lots {
		lots[i].Bags = byLot[lots[i].ID]
		lots[i].Farmer = farmerByID[lots[i].FarmerID]
		if lots[i].BuyerID != nil {
			lots[i].Buyer = buyerByID[*lots[i].BuyerID]
		}
	}
	return nil
}

// ToBillingLot converts a stored lot (with attached rows) into the engine's
// input shape.
func ToBillingLot(l models.Lot) billing.Lot {
	out := billing.Lot{
		ID:           l.ID,
		LotNumber:    l.LotNumber,
		FarmerID:     l.FarmerID,
		Variety:      l.Variety,
		Grade:        l.Grade,
		NumberOfBags: l.NumberOfBags,
		LotPrice:     l.LotPrice,
		Status:       string(l.Status),
		VehicleRent:  l.VehicleRent,
		Advance:      l.Advance,
		UnloadHamali: l.UnloadHamali,
		CreatedAt:    l.CreatedAt,
		Bags:         toBillingBags(l.Bags),
	}
	if l.Farmer != nil {
		out.FarmerName = l.Farmer.Name
	}
	if l.Buyer != nil {
		out.BuyerName = l.Buyer.Name
	}
	return out
}

func ToBillingLots(lots []models.Lot) []billing.Lot {
	out := make([]billing.Lot, 0, len(lots))
	for _, l := range lots {
		out = append(out, ToBillingLot(l))
	}
	return out
}

func toBillingBags(bags []models.Bag) []billing.Bag {
	out := make([]billing.Bag, 0, len(bags))
	for _, b := range bags {
		out = append(out, billing.Bag{BagNumber: b.BagNumber, Weight: b.Weight})
	}
	return out
}
