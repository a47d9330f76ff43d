package handler

import (
	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo's Validator
// interface so handlers can rely on struct tags after Bind.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns the request validator registered on the echo
// instance at startup.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
