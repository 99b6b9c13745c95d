package entity

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("product_category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks the struct tags of an entity or input.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// Validator exposes the shared instance so request binding uses the same tags.
func Validator() *validator.Validate {
	return validate
}
