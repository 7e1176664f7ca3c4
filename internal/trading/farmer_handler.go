package trading

import (
	"fmt"

	"apmc-backend/internal/audit"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

type FarmerRequest struct {
	Name          string `json:"name"`
	Mobile        string `json:"mobile"`
	Place         string `json:"place"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
}

func (r FarmerRequest) model() models.Farmer {
	return models.Farmer{
		Name:          r.Name,
		Mobile:        r.Mobile,
		Place:         r.Place,
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		IFSCCode:      r.IFSCCode,
	}
}

// GET /api/farmers?search=...&limit=50&offset=0
func ListFarmersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		limit, offset := c.QueryInt("limit"), c.QueryInt("offset")
		if limit < 0 || offset < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit and offset must not be negative")
		}
		farmers, err := store.ListFarmers(c.UserContext(), tenant.FarmerFilter{
			Search: c.Query("search"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(farmers)
	}
}

// GET /api/farmers/:id
func GetFarmerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		f, err := store.GetFarmer(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(f)
	}
}

// POST /api/farmers
func CreateFarmerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body FarmerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}

		f := body.model()
		if err := store.CreateFarmer(c.UserContext(), &f); err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "farmer",
			EntityID:    f.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("farmer registered: %s (%s)", f.Name, f.Mobile),
			After:       f,
		})
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

// PUT /api/farmers/:id
func UpdateFarmerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body FarmerRequest
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

		before, after, err := store.UpdateFarmer(c.UserContext(), id, body.model())
		if err != nil {
			return err
		}

		audit.WriteLog(c, store, audit.LogOptions{
			EntityType:  "farmer",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("farmer updated: %s", after.Name),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}
