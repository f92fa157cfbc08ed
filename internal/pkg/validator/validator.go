package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Payment type validation
	validate.RegisterValidation("payment_type", func(fl validator.FieldLevel) bool {
		t := fl.Field().String()
		validTypes := []string{
			"registration_fee", "weekly_dues", "participation_fee",
			"penalty", "membership", "match_fee", "credits_purchase",
		}
		for _, v := range validTypes {
			if t == v {
				return true
			}
		}
		return false
	})

	// Payment method validation
	validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		m := fl.Field().String()
		validMethods := []string{"cash", "venmo", "cashapp", "card", "credits", ""}
		for _, v := range validMethods {
			if m == v {
				return true
			}
		}
		return false
	})

	// Strike level validation
	validate.RegisterValidation("strike_level", func(fl validator.FieldLevel) bool {
		level := fl.Field().Int()
		return level >= 1 && level <= 3
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email address"
		case "min":
			errors[field] = "Value is too small"
		case "max":
			errors[field] = "Value is too large"
		case "payment_type":
			errors[field] = "Unknown payment type"
		case "payment_method":
			errors[field] = "Unknown payment method"
		case "strike_level":
			errors[field] = "Strike level must be 1, 2 or 3"
		default:
			errors[field] = "Invalid value"
		}
	}
	return errors
}
