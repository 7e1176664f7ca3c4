package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatal(err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register() error = %v", err)
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/lots/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	before := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/lots/:id", "200"))
	if _, err := app.Test(httptest.NewRequest("GET", "/lots/42", nil)); err != nil {
		t.Fatal(err)
	}
	after := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/lots/:id", "200"))
	if after-before != 1 {
		t.Errorf("counter delta = %v", after-before)
	}
}
