package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/diewo77/invoice-dashboard/httpx"
	"github.com/diewo77/invoice-dashboard/i18n"
	"github.com/diewo77/invoice-dashboard/internal/cache"
	"github.com/diewo77/invoice-dashboard/internal/forms"
	"github.com/diewo77/invoice-dashboard/internal/models"
	"github.com/diewo77/invoice-dashboard/internal/services"
	"github.com/diewo77/invoice-dashboard/internal/store"
	"github.com/diewo77/invoice-dashboard/validation"
	"github.com/diewo77/invoice-dashboard/view"
	"github.com/rs/zerolog/hlog"
)

// InvoiceReader is the read side of store.InvoiceStore used by the pages.
type InvoiceReader interface {
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	Filtered(ctx context.Context, query string, page int) ([]models.InvoiceRow, error)
	Pages(ctx context.Context, query string) (int, error)
}

// CustomerLister feeds the customer select of the invoice form.
type CustomerLister interface {
	All(ctx context.Context) ([]models.Customer, error)
}

// InvoiceHandler serves the invoice listing and the create, edit and delete forms.
type InvoiceHandler struct {
	invoices  InvoiceReader
	customers CustomerLister
	svc       *services.InvoiceService
	pages     *cache.PageCache
}

func NewInvoiceHandler(invoices InvoiceReader, customers CustomerLister, svc *services.InvoiceService, pages *cache.PageCache) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, customers: customers, svc: svc, pages: pages}
}

// formValues echoes submitted values back into a re-rendered form.
type formValues struct {
	CustomerID string
	Amount     string
	Status     string
}

func valuesFrom(form url.Values) formValues {
	return formValues{
		CustomerID: form.Get(forms.FieldCustomerID),
		Amount:     form.Get(forms.FieldAmount),
		Status:     form.Get(forms.FieldStatus),
	}
}

// List: GET /dashboard/invoices – HTML or JSON
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			page = n
		}
	}

	if httpx.WantsJSON(r) {
		rows, page, total, err := h.listing(r.Context(), query, page)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("list invoices")
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": rows, "page": page, "total_pages": total, "query": query})
		return
	}

	total, err := h.invoices.Pages(r.Context(), query)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("count invoice pages")
		http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), "list_failed"), http.StatusInternalServerError)
		return
	}
	page = min(page, total)

	variant := i18n.LangFromContext(r.Context()) + "|" + query + "|" + strconv.Itoa(page)
	body, err := h.pages.Load(r.Context(), services.ListingPath, variant, func(ctx context.Context) ([]byte, error) {
		rows, page, total, err := h.listing(ctx, query, page)
		if err != nil {
			return nil, err
		}
		return view.RenderBytes(r, "invoices/index.html", map[string]any{
			"Invoices":   rows,
			"Query":      query,
			"Page":       page,
			"TotalPages": total,
		})
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render invoice listing")
		http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), "list_failed"), http.StatusInternalServerError)
		return
	}
	view.WriteHTML(w, http.StatusOK, body)
}

// listing clamps page to the existing pages and returns it with the rows.
func (h *InvoiceHandler) listing(ctx context.Context, query string, page int) ([]models.InvoiceRow, int, int, error) {
	total, err := h.invoices.Pages(ctx, query)
	if err != nil {
		return nil, 0, 0, err
	}
	page = max(1, min(page, total))
	rows, err := h.invoices.Filtered(ctx, query, page)
	if err != nil {
		return nil, 0, 0, err
	}
	return rows, page, total, nil
}

// New: GET /dashboard/invoices/create
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "invoices/create.html", "/dashboard/invoices/create", formValues{}, nil)
}

// Create: POST /dashboard/invoices/create
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	to, err := h.svc.Create(r.Context(), r.PostForm)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			h.invalid(w, r, "invoices/create.html", "/dashboard/invoices/create", verr)
			return
		}
		h.failed(w, r, err, "create_failed")
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// Edit: GET /dashboard/invoices/{id}/edit
func (h *InvoiceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inv, err := h.invoices.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		NotFound(w, r)
		return
	}
	if err != nil {
		h.failed(w, r, err, "load_failed")
		return
	}
	values := formValues{CustomerID: inv.CustomerID, Amount: inv.AmountDecimal().StringFixed(2), Status: string(inv.Status)}
	h.renderForm(w, r, http.StatusOK, "invoices/edit.html", editPath(inv.ID), values, nil)
}

// Update: POST /dashboard/invoices/{id}/edit
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	to, err := h.svc.Update(r.Context(), id, r.PostForm)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.Is(err, store.ErrNotFound):
			NotFound(w, r)
		case errors.As(err, &verr):
			// An invalid form for an unknown invoice is still a missing invoice.
			if _, ferr := h.invoices.FindByID(r.Context(), id); errors.Is(ferr, store.ErrNotFound) {
				NotFound(w, r)
				return
			}
			h.invalid(w, r, "invoices/edit.html", editPath(id), verr)
		default:
			h.failed(w, r, err, "update_failed")
		}
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// Delete: POST /dashboard/invoices/{id}/delete
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	to, err := h.svc.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		NotFound(w, r)
		return
	}
	if err != nil {
		h.failed(w, r, err, "delete_failed")
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func editPath(id string) string {
	return "/dashboard/invoices/" + url.PathEscape(id) + "/edit"
}

// invalid re-renders the form with inline messages. Nothing was written.
func (h *InvoiceHandler) invalid(w http.ResponseWriter, r *http.Request, page, action string, verr *services.ValidationError) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Fields)
		return
	}
	h.renderForm(w, r, http.StatusUnprocessableEntity, page, action, valuesFrom(r.PostForm), verr.Fields)
}

// failed reports a persistence failure without leaking its detail.
func (h *InvoiceHandler) failed(w http.ResponseWriter, r *http.Request, err error, code string) {
	hlog.FromRequest(r).Error().Err(err).
		Str("code", code).
		Bool("unknown_customer", store.IsForeignKeyViolation(err)).
		Msg("invoice request failed")
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, code, nil)
		return
	}
	http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), code), http.StatusInternalServerError)
}

func (h *InvoiceHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, page, action string, values formValues, errs validation.Violations) {
	customers, err := h.customers.All(r.Context())
	if err != nil {
		h.failed(w, r, err, "load_failed")
		return
	}
	submit, formError := "create_invoice", "form_invalid"
	if page == "invoices/edit.html" {
		submit, formError = "edit_invoice", "form_invalid_edit"
	}
	data := map[string]any{
		"Action":    action,
		"Submit":    submit,
		"Customers": customers,
		"Statuses":  models.InvoiceStatuses,
		"Values":    values,
		"Errors":    errs,
	}
	if !errs.Empty() {
		data["FormError"] = formError
	}
	if err := view.RenderStatus(w, r, status, page, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", page).Msg("render form")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}
