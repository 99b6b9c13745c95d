package api

import (
	"github.com/go-playground/validator/v10"

	"marketsync/internal/domain/entity"
)

// CustomValidator plugs the entity validator into echo's request binding.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: entity.Validator()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
