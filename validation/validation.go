package validation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Violations maps a form field name to a message code (see i18n).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already failed.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// Has reports whether field failed validation.
func (v Violations) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// Fields returns the failed field names in sorted order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Basic validators
func Required(field, value string, v Violations) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
		return false
	}
	return true
}

// OneOf accepts value only when it matches one of allowed exactly.
func OneOf(field, value string, allowed []string, v Violations) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	v.Add(field, "invalid_choice")
	return false
}

// Decimal parses value as a decimal number. Surrounding whitespace is ignored.
func Decimal(field, value string, v Violations) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		v.Add(field, "invalid_number")
		return decimal.Zero, false
	}
	return d, true
}
