package handlers

import (
	"net/http"

	"github.com/diewo77/invoice-dashboard/httpx"
	"github.com/diewo77/invoice-dashboard/i18n"
	"github.com/diewo77/invoice-dashboard/view"
	"github.com/rs/zerolog/hlog"
)

// NotFound renders the terminal page for an invoice that cannot be resolved: a fixed
// message and one link back to the listing. It never touches the database.
func NotFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := view.RenderStatus(w, r, http.StatusNotFound, "invoices/not-found.html", nil); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render not-found")
		lang := i18n.LangFromContext(r.Context())
		http.Error(w, i18n.T(lang, "not_found_text"), http.StatusNotFound)
	}
}
