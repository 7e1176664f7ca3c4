// Package apperror holds the error kinds shared by the tenant layer, the billing
// engine and the HTTP handlers.
package apperror

import (
	"errors"
	"fmt"
)

// ProvisioningError is returned when a tenant schema cannot be created or dropped.
// Callers must not retry automatically: a half-applied DDL batch needs an operator.
type ProvisioningError struct {
	SchemaID string
	Op       string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning %s %q: %v", e.Op, e.SchemaID, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// ValidationError rejects malformed farmer/lot/bag input before it is persisted.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// InvalidReportTypeError is returned for an unknown report granularity.
type InvalidReportTypeError struct {
	ReportType string
}

func (e *InvalidReportTypeError) Error() string {
	return fmt.Sprintf("invalid report type %q (expected daily, weekly, monthly, yearly or custom)", e.ReportType)
}

// NotFoundError reports a missing tenant, farmer, buyer, lot or bag.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsProvisioning(err error) bool {
	var p *ProvisioningError
	return errors.As(err, &p)
}

func IsInvalidReportType(err error) bool {
	var r *InvalidReportTypeError
	return errors.As(err, &r)
}
