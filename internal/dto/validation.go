package dto

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// decimalPositive validates that a decimal.Decimal field is strictly greater
// than zero. The stock numeric validators do not understand decimal.Decimal.
func decimalPositive(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && value.IsPositive()
}

// RegisterValidations installs the custom binding validators. Call once at
// startup, before any request is served.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("decimalgt0", decimalPositive)
}
