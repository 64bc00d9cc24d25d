package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/diewo77/invoice-dashboard/internal/cache"
	"github.com/diewo77/invoice-dashboard/internal/forms"
	"github.com/diewo77/invoice-dashboard/internal/metrics"
	"github.com/diewo77/invoice-dashboard/internal/store"
	"github.com/diewo77/invoice-dashboard/validation"
	"github.com/rs/zerolog"
)

// Logical paths of the views an invoice write makes stale.
const (
	ListingPath   = "/dashboard/invoices"
	DashboardPath = "/dashboard"
)

// InvoiceWriter is the subset of store.InvoiceStore the write flow needs.
type InvoiceWriter interface {
	Create(ctx context.Context, in store.InvoiceWrite) error
	Update(ctx context.Context, id string, in store.InvoiceWrite) error
	Delete(ctx context.Context, id string) error
}

// ValidationError lists the form fields that failed. Nothing was written.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	return "invalid invoice: " + strings.Join(e.Fields.Fields(), ", ")
}

// InvoiceService runs validate, write, revalidate for every invoice mutation and returns
// the path the caller must be redirected to.
type InvoiceService struct {
	store   InvoiceWriter
	cache   cache.Revalidator
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewInvoiceService wires the flow. m may be nil.
func NewInvoiceService(st InvoiceWriter, rv cache.Revalidator, m *metrics.Metrics, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{store: st, cache: rv, metrics: m, log: log}
}

// Create validates values and inserts one invoice dated today.
func (s *InvoiceService) Create(ctx context.Context, values url.Values) (string, error) {
	in, v := forms.ParseInvoice(values)
	if !v.Empty() {
		s.record("create", metrics.ResultInvalid)
		return "", &ValidationError{Fields: v}
	}
	// The client going away must not abort a write already on the wire.
	if err := s.store.Create(context.WithoutCancel(ctx), toWrite(in)); err != nil {
		s.record("create", resultOf(err))
		return "", err
	}
	return s.committed(ctx, "create"), nil
}

// Update validates values and rewrites invoice id. An unknown id yields store.ErrNotFound.
func (s *InvoiceService) Update(ctx context.Context, id string, values url.Values) (string, error) {
	in, v := forms.ParseInvoice(values)
	if !v.Empty() {
		s.record("update", metrics.ResultInvalid)
		return "", &ValidationError{Fields: v}
	}
	if err := s.store.Update(context.WithoutCancel(ctx), id, toWrite(in)); err != nil {
		s.record("update", resultOf(err))
		return "", err
	}
	return s.committed(ctx, "update"), nil
}

// Delete removes invoice id. An unknown id yields store.ErrNotFound.
func (s *InvoiceService) Delete(ctx context.Context, id string) (string, error) {
	if err := s.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.record("delete", resultOf(err))
		return "", err
	}
	return s.committed(ctx, "delete"), nil
}

// committed marks the listing and the dashboard stale. A failed revalidation is logged
// only: the write already succeeded.
func (s *InvoiceService) committed(ctx context.Context, op string) string {
	s.record(op, metrics.ResultOK)
	for _, path := range []string{ListingPath, DashboardPath} {
		if err := s.cache.Revalidate(ctx, path); err != nil {
			s.log.Warn().Err(err).Str("op", op).Str("path", path).Msg("revalidate failed")
		}
	}
	return ListingPath
}

func (s *InvoiceService) record(op, result string) {
	if s.metrics != nil {
		s.metrics.InvoiceWrite(op, result)
	}
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return metrics.ResultNotFound
	case store.IsForeignKeyViolation(err):
		return metrics.ResultUnknownCustomer
	}
	return metrics.ResultError
}

func toWrite(in forms.InvoiceInput) store.InvoiceWrite {
	return store.InvoiceWrite{CustomerID: in.CustomerID, Cents: in.Cents(), Status: in.Status}
}
