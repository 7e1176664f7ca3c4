package trading

import (
	"fmt"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/audit"
	"apmc-backend/internal/billing"
	"apmc-backend/internal/logger"
	"apmc-backend/internal/models"
	"apmc-backend/internal/report"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateLotRequest struct {
	LotNumber    string           `json:"lot_number"`
	FarmerID     uint             `json:"farmer_id"`
	BuyerID      *uint            `json:"buyer_id"`
	NumberOfBags int              `json:"number_of_bags"`
	Variety      string           `json:"variety"`
	Grade        string           `json:"grade"`
	LotPrice     *decimal.Decimal `json:"lot_price"` // per quintal
	VehicleRent  decimal.Decimal  `json:"vehicle_rent"`
	Advance      decimal.Decimal  `json:"advance"`
	UnloadHamali decimal.Decimal  `json:"unload_hamali"`
}

// UpdateLotRequest only touches the fields that are present.
type UpdateLotRequest struct {
	LotPrice     *decimal.Decimal `json:"lot_price"`
	BuyerID      *uint            `json:"buyer_id"`
	VehicleRent  *decimal.Decimal `json:"vehicle_rent"`
	Advance      *decimal.Decimal `json:"advance"`
	UnloadHamali *decimal.Decimal `json:"unload_hamali"`
}

type LotAmountsResponse struct {
	LotID     uint                 `json:"lot_id"`
	LotNumber string               `json:"lot_number"`
	Status    models.LotStatus     `json:"status"`
	Amounts   billing.LotAmounts   `json:"amounts"`
	Bags      billing.LotBagStatus `json:"bags"`
}

// GET /api/lots?status=active&farmer_id=1&from=2025-01-01&to=2025-01-31
func ListLotsHandler(svc *report.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}

		filter := tenant.LotFilter{Status: models.LotStatus(c.Query("status"))}
		switch filter.Status {
		case "", models.LotStatusActive, models.LotStatusCompleted, models.LotStatusCancelled:
		default:
			return apperror.Validationf("status", "unknown lot status %q", filter.Status)
		}
		if filter.FarmerID, err = queryID(c, "farmer_id"); err != nil {
			return err
		}
		from, err := svc.ParseDate("from", c.Query("from"))
		if err != nil {
			return err
		}
		to, err := svc.ParseDate("to", c.Query("to"))
		if err != nil {
			return err
		}
		if !from.IsZero() {
			filter.From = billing.DayRange(from).Start
		}
		if !to.IsZero() {
			filter.Until = billing.DayRange(to).Until()
		}

		lots, err := store.ListLots(c.UserContext(), filter)
		if err != nil {
			return err
		}
		return c.JSON(lots)
	}
}

// GET /api/lots/:id
func GetLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		lot, err := store.GetLot(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(lot)
	}
}

// POST /api/lots
func CreateLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLotRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}

		lot := models.Lot{
			LotNumber:    body.LotNumber,
			FarmerID:     body.FarmerID,
			BuyerID:      body.BuyerID,
			NumberOfBags: body.NumberOfBags,
			Variety:      body.Variety,
			Grade:        body.Grade,
			LotPrice:     body.LotPrice,
			VehicleRent:  body.VehicleRent,
			Advance:      body.Advance,
			UnloadHamali: body.UnloadHamali,
		}
		if err := store.CreateLot(c.UserContext(), &lot); err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "lot",
			EntityID:    lot.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("lot %s created with %d bags", lot.LotNumber, lot.NumberOfBags),
			After:       lot,
		})
		return c.Status(fiber.StatusCreated).JSON(lot)
	}
}

// PUT /api/lots/:id
func UpdateLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateLotRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		before, after, err := store.UpdateLotPricing(c.UserContext(), id, tenant.LotPricing{
			LotPrice:     body.LotPrice,
			BuyerID:      body.BuyerID,
			VehicleRent:  body.VehicleRent,
			Advance:      body.Advance,
			UnloadHamali: body.UnloadHamali,
		})
		if err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "lot",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("lot %s pricing updated", after.LotNumber),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// POST /api/lots/:id/cancel
func CancelLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		lot, err := store.CancelLot(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "lot",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("lot %s cancelled", lot.LotNumber),
			After:       fiber.Map{"status": lot.Status},
		})
		return c.JSON(lot)
	}
}

// POST /api/lots/:id/complete
func CompleteLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		lot, err := store.CompleteLot(c.UserContext(), id)
		if err != nil {
			return err
		}

		logger.FromCtx(c).Info("lot completed",
			zap.Uint("lot_id", lot.ID),
			zap.String("lot_number", lot.LotNumber),
		)
		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "lot",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("lot %s completed", lot.LotNumber),
			After:       fiber.Map{"status": lot.Status, "total_weight": lot.TotalWeight},
		})
		return c.JSON(lot)
	}
}

// GET /api/lots/:id/amounts
func LotAmountsHandler(svc *report.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := tenant.TenantFrom(c)
		if err != nil {
			return err
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		lot, err := store.GetLot(c.UserContext(), id)
		if err != nil {
			return err
		}

		return c.JSON(LotAmountsResponse{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Status:    lot.Status,
			Amounts:   svc.LotAmounts(*lot, t.Settings.Resolve()),
			Bags:      billing.AnalyzeLotBags(tenant.ToBillingLot(*lot)),
		})
	}
}
