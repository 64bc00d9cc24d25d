package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// InvoiceStatuses lists every representable status, in form order.
var InvoiceStatuses = []InvoiceStatus{InvoiceStatusPending, InvoiceStatusPaid}

// Valid reports whether s is one of the enumerated statuses.
func (s InvoiceStatus) Valid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// DateLayout is the storage format of Invoice.Date.
const DateLayout = "2006-01-02"

// Invoice is a row of the invoices table. Amount is stored in cents.
type Invoice struct {
	ID         string        `gorm:"column:id;primaryKey" json:"id"`
	CustomerID string        `gorm:"column:customer_id" json:"customer_id"`
	Amount     int64         `gorm:"column:amount" json:"amount"`
	Status     InvoiceStatus `gorm:"column:status" json:"status"`
	Date       time.Time     `gorm:"column:date" json:"date"`
}

func (Invoice) TableName() string { return "invoices" }

// AmountDecimal returns the amount in currency units (cents / 100).
func (i *Invoice) AmountDecimal() decimal.Decimal {
	return decimal.New(i.Amount, -2)
}

// IsPaid returns true if the invoice has been paid.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// InvoiceRow is an invoice joined with its customer for listings.
type InvoiceRow struct {
	ID         string        `json:"id"`
	CustomerID string        `json:"customer_id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	ImageURL   string        `json:"image_url"`
	Amount     int64         `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	Date       time.Time     `json:"date"`
}

// CardData holds the dashboard overview figures. Sums are in cents.
type CardData struct {
	NumberOfInvoices  int64 `json:"number_of_invoices"`
	NumberOfCustomers int64 `json:"number_of_customers"`
	TotalPaid         int64 `json:"total_paid"`
	TotalPending      int64 `json:"total_pending"`
}
