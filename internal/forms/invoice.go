// Package forms turns submitted form values into validated records.
package forms

import (
	"math"
	"net/url"
	"strings"

	"github.com/diewo77/invoice-dashboard/internal/models"
	"github.com/diewo77/invoice-dashboard/validation"
	"github.com/shopspring/decimal"
)

// Form field names of the invoice create and edit forms.
const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

// Amounts longer than maxAmountLen or with an exponent outside
// [minExponent, maxExponent] are refused before any arithmetic.
const (
	maxAmountLen = 32
	minExponent  = -10
	maxExponent  = 10
)

// The invoices.amount column is a 4-byte INT.
var (
	maxCents = decimal.NewFromInt(math.MaxInt32)
	minCents = decimal.NewFromInt(math.MinInt32)
)

// InvoiceInput is an invoice form that passed validation.
type InvoiceInput struct {
	CustomerID string
	Amount     decimal.Decimal
	Status     models.InvoiceStatus
}

// Cents returns the amount in cents, rounded half away from zero.
func (in InvoiceInput) Cents() int64 {
	return cents(in.Amount).IntPart()
}

func cents(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(2).Round(0)
}

// ParseInvoice validates the customerId, amount and status fields. The id and date of an
// invoice are never read from the form. Negative amounts are accepted.
func ParseInvoice(values url.Values) (InvoiceInput, validation.Violations) {
	v := validation.Violations{}
	var in InvoiceInput

	customerID := strings.TrimSpace(values.Get(FieldCustomerID))
	if validation.Required(FieldCustomerID, customerID, v) {
		in.CustomerID = customerID
	}

	rawAmount := strings.TrimSpace(values.Get(FieldAmount))
	if validation.Required(FieldAmount, rawAmount, v) {
		if len(rawAmount) > maxAmountLen {
			v.Add(FieldAmount, "out_of_range")
		} else if amount, ok := validation.Decimal(FieldAmount, rawAmount, v); ok {
			if inRange(amount) {
				in.Amount = amount
			} else {
				v.Add(FieldAmount, "out_of_range")
			}
		}
	}

	status := values.Get(FieldStatus)
	if validation.Required(FieldStatus, status, v) {
		if validation.OneOf(FieldStatus, status, statusChoices(), v) {
			in.Status = models.InvoiceStatus(status)
		}
	}

	if !v.Empty() {
		return InvoiceInput{}, v
	}
	return in, nil
}

// inRange checks the exponent first so that Shift and Round never rescale a huge value.
func inRange(amount decimal.Decimal) bool {
	if exp := amount.Exponent(); exp < minExponent || exp > maxExponent {
		return false
	}
	c := cents(amount)
	return !c.GreaterThan(maxCents) && !c.LessThan(minCents)
}

func statusChoices() []string {
	out := make([]string, 0, len(models.InvoiceStatuses))
	for _, s := range models.InvoiceStatuses {
		out = append(out, string(s))
	}
	return out
}
