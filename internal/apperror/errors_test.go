package apperror

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bag_number", "out of range"), fiber.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create bag: %w", Validation("bag_number", "dup")), fiber.StatusBadRequest},
		{"report type", &InvalidReportTypeError{ReportType: "hourly"}, fiber.StatusBadRequest},
		{"not found", NotFound("lot", 7), fiber.StatusNotFound},
		{"provisioning", &ProvisioningError{SchemaID: "t_x", Op: "create", Err: errors.New("denied")}, fiber.StatusInternalServerError},
		{"fiber", fiber.NewError(fiber.StatusForbidden, "no"), fiber.StatusForbidden},
		{"plain", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusCode(tc.err); got != tc.want {
				t.Errorf("StatusCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestProvisioningErrorUnwrap(t *testing.T) {
	cause := errors.New("permission denied for database")
	err := fmt.Errorf("onboard: %w", &ProvisioningError{SchemaID: "t_abc", Op: "create", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through errors.Is")
	}
	if !IsProvisioning(err) {
		t.Fatal("expected IsProvisioning to be true")
	}
}

func TestErrorHandlerBody(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/missing", func(c *fiber.Ctx) error { return NotFound("farmer", 3) })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "farmer 3 not found") {
		t.Errorf("body = %s", body)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	if strings.Contains(string(body), "db exploded") {
		t.Errorf("internal error leaked: %s", body)
	}
}
