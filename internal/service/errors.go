package service

import (
	"errors"
	"fmt"

	"profitpath-api/pkg/validator"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("stock transaction not found")
	ErrInsufficientStock   = errors.New("insufficient stock remaining")
	ErrFinancialYearClosed = errors.New("financial year is closed")
	ErrSKUExists           = errors.New("SKU already exists")
	ErrRoleNotFound        = errors.New("role not found")
)

// validate runs the struct tags of req and wraps the first failure in ErrValidation.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, validator.Message(errs))
	}
	return nil
}
