package catalog

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrValidation is matched by every field validation error.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupported is returned for catalog operations that do not exist yet.
	ErrUnsupported = errors.New("operation not supported")
)

// MissingFieldError indicates a required field is empty or not a number.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrValidation }

// InvalidCodeFormatError indicates a product code that is not 5 digits.
type InvalidCodeFormatError struct {
	Code string
}

func (e *InvalidCodeFormatError) Error() string {
	return fmt.Sprintf("product code %q must be exactly 5 digits", e.Code)
}

func (e *InvalidCodeFormatError) Is(target error) bool { return target == ErrValidation }

// InvalidPriceError indicates a price that is not greater than zero.
type InvalidPriceError struct {
	Price decimal.Decimal
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("price %s must be greater than 0", e.Price)
}

func (e *InvalidPriceError) Is(target error) bool { return target == ErrValidation }

// DuplicateCodeError indicates the code is taken by another product.
type DuplicateCodeError struct {
	Code        string
	ProductName string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("Code %s already exists for product: %s", e.Code, e.ProductName)
}

func (e *DuplicateCodeError) Is(target error) bool { return target == ErrValidation }

// InvalidCategoryError indicates a category outside the fixed set.
type InvalidCategoryError struct {
	Category string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

func (e *InvalidCategoryError) Is(target error) bool { return target == ErrValidation }
