package trading

import (
	"fmt"

	"apmc-backend/internal/audit"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type BagRequest struct {
	BagNumber int              `json:"bag_number"`
	Weight    *decimal.Decimal `json:"weight"` // kg
	Grade     string           `json:"grade"`
	Notes     string           `json:"notes"`
}

func (r BagRequest) input() tenant.BagInput {
	return tenant.BagInput{BagNumber: r.BagNumber, Weight: r.Weight, Grade: r.Grade, Notes: r.Notes}
}

// UpdateBagRequest only changes the fields present in the body.
type UpdateBagRequest struct {
	Weight *decimal.Decimal `json:"weight"`
	Grade  *string          `json:"grade"`
	Notes  *string          `json:"notes"`
}

func (r UpdateBagRequest) patch() tenant.BagPatch {
	return tenant.BagPatch{Weight: r.Weight, Grade: r.Grade, Notes: r.Notes}
}

// GET /api/lots/:id/bags
func ListBagsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		lotID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		bags, err := store.GetBagsByLot(c.UserContext(), lotID)
		if err != nil {
			return err
		}
		return c.JSON(bags)
	}
}

// POST /api/lots/:id/bags
func CreateBagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BagRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		lotID, err := paramID(c, "id")
		if err != nil {
			return err
		}

		bag, err := store.CreateBag(c.UserContext(), lotID, body.input())
		if err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "bag",
			EntityID:    bag.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("bag %d added to lot %d", bag.BagNumber, lotID),
			After:       bag,
		})
		return c.Status(fiber.StatusCreated).JSON(bag)
	}
}

// PUT /api/bags/:id
func UpdateBagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateBagRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Weight == nil && body.Grade == nil && body.Notes == nil {
			return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		before, after, err := store.UpdateBag(c.UserContext(), id, body.patch())
		if err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "bag",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("bag %d of lot %d updated", after.BagNumber, after.LotID),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DELETE /api/bags/:id
func DeleteBagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		bag, err := store.DeleteBag(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "bag",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("bag %d removed from lot %d", bag.BagNumber, bag.LotID),
			Before:      bag,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
