package handler

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// jsonFieldName lowercases the first rune of a struct field name, which is
// how every DTO in this codebase maps fields to JSON keys.
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// formatValidationError converts validator errors into a human-readable
// message naming the first offending field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := jsonFieldName(fe.Field())
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be blank"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "min":
				return "invalid request: " + field + " is too short"
			case "url":
				return "invalid request: " + field + " must be a valid URL"
			case "email":
				return "invalid request: " + field + " must be a valid email"
			case "alias":
				return "invalid request: " + field + " must be 3-30 characters of letters, digits, dash or underscore"
			case "oneof":
				return "invalid request: " + field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}
