package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aurora-backend/aurora/internal/models"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("currency_code", validateCurrencyCode)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// validateCurrencyCode accepts ISO 4217 alphabetic codes only
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return models.IsCurrencyCode(fl.Field().String())
}
