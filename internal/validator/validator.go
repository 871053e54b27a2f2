package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)

// Path segments that can never be claimed as a custom alias because they
// collide with the application's own routes.
var reservedAliases = map[string]struct{}{
	"api":    {},
	"health": {},
	"qr":     {},
	"admin":  {},
	"static": {},
}

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// "notblank" rejects whitespace-only strings.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// "alias" constrains custom short-link aliases: 3-30 chars of
	// [A-Za-z0-9_-], and not a reserved route segment.
	_ = v.RegisterValidation("alias", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		if !aliasPattern.MatchString(str) {
			return false
		}
		_, reserved := reservedAliases[strings.ToLower(str)]
		return !reserved
	})

	return v
}
