package audit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"apmc-backend/internal/auth"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

type recorder struct {
	entries []tenant.AuditEntry
	err     error
}

func (r *recorder) WriteAudit(_ context.Context, e tenant.AuditEntry) error {
	r.entries = append(r.entries, e)
	return r.err
}

func run(t *testing.T, w Writer, userID any) {
	t.Helper()
	app := fiber.New()
	app.Post("/x", func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals(auth.CtxUserIDKey, userID)
		}
		WriteLog(c, w, LogOptions{
			EntityType: "farmer",
			EntityID:   4,
			Action:     models.AuditActionCreate,
			After:      map[string]any{"name": "Ravi"},
		})
		return c.SendStatus(fiber.StatusCreated)
	})
	resp, err := app.Test(httptest.NewRequest("POST", "/x", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestWriteLogRecordsActor(t *testing.T) {
	rec := &recorder{}
	run(t, rec, uint(12))
	if len(rec.entries) != 1 {
		t.Fatalf("entries = %d", len(rec.entries))
	}
	e := rec.entries[0]
	if e.UserID != 12 || e.EntityType != "farmer" || e.EntityID != 4 || e.Action != models.AuditActionCreate {
		t.Errorf("entry = %+v", e)
	}
}

func TestWriteLogFailureDoesNotFailRequest(t *testing.T) {
	rec := &recorder{err: errors.New("disk full")}
	run(t, rec, nil)
	if len(rec.entries) != 1 || rec.entries[0].UserID != 0 {
		t.Errorf("entries = %+v", rec.entries)
	}
}
