package validator

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with struct tag validation plus the custom
// password_strength rule used on signup.
func New() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.RegisterValidation("password_strength", passwordStrength); err != nil {
		return nil, err
	}
	return validate, nil
}

// passwordStrength requires at least 8 characters with one upper, one lower
// and one digit.
func passwordStrength(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
