package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidateInput checks struct-tag constraints on the New* input types.
// There is no HTTP binding layer in this service, so validation runs here,
// right before anything touches the database.
func ValidateInput(input any) error {
	return validate.Struct(input)
}
