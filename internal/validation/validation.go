// Package validation holds the field and document validators run before a
// quotation, template or product is saved.
package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/quotebuilder-backend/internal/formatting"
	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validate   = validator.New()
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Result is the outcome of an aggregate validation: a flag plus messages keyed
// by field path.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

func newResult() Result {
	return Result{IsValid: true, Errors: map[string]string{}}
}

func (r *Result) add(field, message string) {
	r.Errors[field] = message
	r.IsValid = false
}

// Err returns nil for a valid result and a VALIDATION_ERROR carrying the
// result as details otherwise.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(r)
}

// Email reports whether value looks like local@domain.tld.
func Email(value string) bool {
	if !emailShape.MatchString(value) {
		return false
	}
	return validate.Var(value, "email") == nil
}

// Phone accepts Thai numbers: ten digits with a leading 0, or eleven digits
// starting with the 66 country code. Separators are ignored.
func Phone(value string) bool {
	cleaned := formatting.DigitsOnly(value)
	switch {
	case len(cleaned) == 10 && strings.HasPrefix(cleaned, "0"):
		return true
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, "66"):
		return true
	}
	return false
}

// Required reports whether value is non-blank.
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MinLength reports whether value has at least min characters.
func MinLength(value string, min int) bool {
	return value != "" && utf8.RuneCountInString(value) >= min
}

// MaxLength reports whether value has at most max characters. Empty passes.
func MaxLength(value string, max int) bool {
	return utf8.RuneCountInString(value) <= max
}

// Number reports whether value parses as a number within the optional bounds.
func Number(value any, min, max *float64) bool {
	n, ok := pricing.ParseNumeric(value)
	if !ok {
		return false
	}
	if min != nil && n < *min {
		return false
	}
	if max != nil && n > *max {
		return false
	}
	return true
}

// Date reports whether value is a calendar date or ISO-8601 timestamp.
func Date(value string) bool {
	_, ok := formatting.ParseDate(value)
	return ok
}

// URL reports whether value is an absolute URL.
func URL(value string) bool {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Scheme == "" {
		return false
	}
	return validate.Var(value, "url") == nil
}

// Bound is a convenience for the optional bounds of Number.
func Bound(v float64) *float64 {
	return &v
}
