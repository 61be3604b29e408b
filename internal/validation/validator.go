// Package validation provides custom validators for the application
package validation

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9 ()\-]{5,18}[0-9]$`)

// Initialize registers all custom validators with gin's binding engine
func Initialize() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := Register(v); err != nil {
			panic(err)
		}
	}
}

// Register adds the custom tags to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("nospaces", validateNoSpaces); err != nil {
		return err
	}
	return v.RegisterValidation("phone", validatePhone)
}

// validateNoSpaces checks if a string contains non-space characters
func validateNoSpaces(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return strings.TrimSpace(value) != ""
}

// validatePhone accepts digits with optional leading +, spaces, dashes and parentheses
func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) <= 20 && phonePattern.MatchString(value)
}
