// Package store runs the invoice and customer SQL statements.
package store

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/diewo77/invoice-dashboard/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ItemsPerPage is the listing page size.
const ItemsPerPage = 6

// maxPage is the last page whose OFFSET fits in an int.
const maxPage = math.MaxInt/ItemsPerPage + 1

// InvoiceWrite is a validated invoice ready to persist.
type InvoiceWrite struct {
	CustomerID string
	Cents      int64
	Status     models.InvoiceStatus
}

// InvoiceStore issues parameterized statements against the invoices table.
// Every call runs as a single autocommit statement on a pooled connection.
type InvoiceStore struct {
	db  *gorm.DB
	now func() time.Time
	loc *time.Location
}

// Option configures an InvoiceStore.
type Option func(*InvoiceStore)

// WithClock overrides the clock used for creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceStore) { s.now = now }
}

// WithLocation sets the location in which "today" is computed. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *InvoiceStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewInvoiceStore(db *gorm.DB, opts ...Option) *InvoiceStore {
	s := &InvoiceStore{db: db, now: time.Now, loc: time.UTC}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Today returns the current date in YYYY-MM-DD form.
func (s *InvoiceStore) Today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// Create inserts one invoice dated today. It is not idempotent: a retried call inserts another row.
func (s *InvoiceStore) Create(ctx context.Context, in InvoiceWrite) error {
	err := s.db.WithContext(ctx).Exec(
		"INSERT INTO invoices (customer_id, amount, status, date) VALUES (?, ?, ?, ?)",
		in.CustomerID, in.Cents, string(in.Status), s.Today(),
	).Error
	return wrap("create", err)
}

// Update rewrites customer, amount and status of an existing invoice.
func (s *InvoiceStore) Update(ctx context.Context, id string, in InvoiceWrite) error {
	key, ok := normalizeID(id)
	if !ok {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).Exec(
		"UPDATE invoices SET customer_id = ?, amount = ?, status = ? WHERE id = ?",
		in.CustomerID, in.Cents, string(in.Status), key,
	)
	if res.Error != nil {
		return wrap("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an invoice.
func (s *InvoiceStore) Delete(ctx context.Context, id string) error {
	key, ok := normalizeID(id)
	if !ok {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).Exec("DELETE FROM invoices WHERE id = ?", key)
	if res.Error != nil {
		return wrap("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID loads the invoice to edit.
func (s *InvoiceStore) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	key, ok := normalizeID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var inv models.Invoice
	res := s.db.WithContext(ctx).Raw(
		"SELECT id, customer_id, amount, status, date FROM invoices WHERE id = ?", key,
	).Scan(&inv)
	if res.Error != nil {
		return nil, wrap("find", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &inv, nil
}

const listingFrom = `
FROM invoices
JOIN customers ON invoices.customer_id = customers.id
WHERE LOWER(customers.name) LIKE ? ESCAPE '\'
   OR LOWER(customers.email) LIKE ? ESCAPE '\'
   OR CAST(invoices.amount AS TEXT) LIKE ? ESCAPE '\'
   OR CAST(invoices.date AS TEXT) LIKE ? ESCAPE '\'
   OR LOWER(invoices.status) LIKE ? ESCAPE '\'`

func likeArgs(query string) []any {
	p := likePattern(query)
	return []any{p, p, p, p, p}
}

// likePattern builds a case-insensitive substring pattern with LIKE metacharacters escaped.
func likePattern(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}

// Filtered returns one listing page of invoices matching query, newest first.
func (s *InvoiceStore) Filtered(ctx context.Context, query string, page int) ([]models.InvoiceRow, error) {
	if page < 1 {
		page = 1
	}
	rows := []models.InvoiceRow{}
	if page > maxPage {
		return rows, nil
	}
	args := append(likeArgs(query), ItemsPerPage, (page-1)*ItemsPerPage)
	err := s.db.WithContext(ctx).Raw(`
SELECT invoices.id, invoices.customer_id, invoices.amount, invoices.date, invoices.status,
       customers.name, customers.email, customers.image_url`+listingFrom+`
ORDER BY invoices.date DESC, invoices.id
LIMIT ? OFFSET ?`, args...).Scan(&rows).Error
	if err != nil {
		return nil, wrap("list", err)
	}
	return rows, nil
}

// Pages returns the number of listing pages for query (at least 1).
func (s *InvoiceStore) Pages(ctx context.Context, query string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw("SELECT COUNT(*)"+listingFrom, likeArgs(query)...).Scan(&count).Error
	if err != nil {
		return 0, wrap("count", err)
	}
	pages := int((count + ItemsPerPage - 1) / ItemsPerPage)
	if pages < 1 {
		pages = 1
	}
	return pages, nil
}

// Latest returns the n most recent invoices.
func (s *InvoiceStore) Latest(ctx context.Context, n int) ([]models.InvoiceRow, error) {
	rows := []models.InvoiceRow{}
	err := s.db.WithContext(ctx).Raw(`
SELECT invoices.id, invoices.customer_id, invoices.amount, invoices.date, invoices.status,
       customers.name, customers.email, customers.image_url
FROM invoices
JOIN customers ON invoices.customer_id = customers.id
ORDER BY invoices.date DESC, invoices.id
LIMIT ?`, n).Scan(&rows).Error
	if err != nil {
		return nil, wrap("latest", err)
	}
	return rows, nil
}

// CardData computes the dashboard figures. The three queries run concurrently.
func (s *InvoiceStore) CardData(ctx context.Context) (models.CardData, error) {
	var data models.CardData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Raw("SELECT COUNT(*) FROM invoices").Scan(&data.NumberOfInvoices).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Raw("SELECT COUNT(*) FROM customers").Scan(&data.NumberOfCustomers).Error
	})
	g.Go(func() error {
		var sums struct {
			Paid    int64
			Pending int64
		}
		err := s.db.WithContext(gctx).Raw(`
SELECT COALESCE(SUM(CASE WHEN status = 'paid' THEN amount ELSE 0 END), 0) AS paid,
       COALESCE(SUM(CASE WHEN status = 'pending' THEN amount ELSE 0 END), 0) AS pending
FROM invoices`).Scan(&sums).Error
		data.TotalPaid, data.TotalPending = sums.Paid, sums.Pending
		return err
	})
	if err := g.Wait(); err != nil {
		return models.CardData{}, wrap("cards", err)
	}
	return data, nil
}

// normalizeID returns the canonical lowercase form of a UUID, or false when id is malformed.
func normalizeID(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return u.String(), true
}
