package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and returns the first failure as a
// *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := snake(fe.Field())
	switch fe.Tag() {
	case "required":
		return Invalid(field, "is required")
	case "email":
		return Invalid(field, "must be a valid email address")
	case "max":
		return Invalid(field, fmt.Sprintf("must be at most %s characters", fe.Param()))
	case "gte":
		return Invalid(field, fmt.Sprintf("must be at least %s", fe.Param()))
	default:
		return Invalid(field, fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}

// snake turns a Go field name into its wire name (CompanyName → company_name,
// TaxID → tax_id).
func snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	return b.String()
}
