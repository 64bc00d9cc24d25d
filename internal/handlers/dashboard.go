package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/invoice-dashboard/i18n"
	"github.com/diewo77/invoice-dashboard/internal/cache"
	"github.com/diewo77/invoice-dashboard/internal/models"
	"github.com/diewo77/invoice-dashboard/internal/services"
	"github.com/diewo77/invoice-dashboard/view"
	"github.com/rs/zerolog/hlog"
)

// latestCount is the number of invoices shown on the overview.
const latestCount = 5

// Overview is the read side of the dashboard.
type Overview interface {
	Latest(ctx context.Context, n int) ([]models.InvoiceRow, error)
	CardData(ctx context.Context) (models.CardData, error)
}

type DashboardHandler struct {
	data  Overview
	pages *cache.PageCache
}

func NewDashboardHandler(data Overview, pages *cache.PageCache) *DashboardHandler {
	return &DashboardHandler{data: data, pages: pages}
}

// Overview: GET /dashboard
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	body, err := h.pages.Load(r.Context(), services.DashboardPath, lang, func(ctx context.Context) ([]byte, error) {
		cards, err := h.data.CardData(ctx)
		if err != nil {
			return nil, err
		}
		latest, err := h.data.Latest(ctx, latestCount)
		if err != nil {
			return nil, err
		}
		return view.RenderBytes(r, "dashboard/index.html", map[string]any{"Cards": cards, "Latest": latest})
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render dashboard")
		http.Error(w, i18n.T(lang, "list_failed"), http.StatusInternalServerError)
		return
	}
	view.WriteHTML(w, http.StatusOK, body)
}
