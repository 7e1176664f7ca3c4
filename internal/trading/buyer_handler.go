package trading

import (
	"fmt"

	"apmc-backend/internal/audit"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

type BuyerRequest struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
}

// GET /api/buyers
func ListBuyersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		buyers, err := store.ListBuyers(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(buyers)
	}
}

// GET /api/buyers/:id
func GetBuyerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		b, err := store.GetBuyer(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(b)
	}
}

// POST /api/buyers
func CreateBuyerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BuyerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}

		b := models.Buyer{Name: body.Name, Mobile: body.Mobile, Address: body.Address, GSTIN: body.GSTIN}
		if err := store.CreateBuyer(c.UserContext(), &b); err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "buyer",
			EntityID:    b.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("buyer registered: %s", b.Name),
			After:       b,
		})
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}
