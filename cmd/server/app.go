package main

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/invoice-dashboard/auth"
	"github.com/diewo77/invoice-dashboard/httpx"
	"github.com/diewo77/invoice-dashboard/i18n"
	"github.com/diewo77/invoice-dashboard/internal/cache"
	"github.com/diewo77/invoice-dashboard/internal/config"
	"github.com/diewo77/invoice-dashboard/internal/db"
	"github.com/diewo77/invoice-dashboard/internal/handlers"
	"github.com/diewo77/invoice-dashboard/internal/logger"
	"github.com/diewo77/invoice-dashboard/internal/metrics"
	"github.com/diewo77/invoice-dashboard/internal/models"
	"github.com/diewo77/invoice-dashboard/internal/services"
	"github.com/diewo77/invoice-dashboard/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gorm.io/gorm"
)

// pageTTL bounds how long a rendered page survives without a write.
const pageTTL = 5 * time.Minute

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	db      *gorm.DB
	log     zerolog.Logger
	metrics *metrics.Metrics
	pages   *cache.PageCache
	handler http.Handler

	invoices  *handlers.InvoiceHandler
	dashboard *handlers.DashboardHandler
	auth      *handlers.AuthHandler
}

// NewApp wires stores, the invoice flow and the handlers over gdb.
func NewApp(gdb *gorm.DB, cfg *config.Config, log zerolog.Logger) *App {
	m := metrics.New()
	pages := cache.New(pageTTL, cache.WithObserver(m.CacheLookup))

	invoiceStore := store.NewInvoiceStore(gdb, store.WithLocation(cfg.App.Location()))
	customerStore := store.NewCustomerStore(gdb)
	svc := services.NewInvoiceService(invoiceStore, pages, m, logger.WithComponent(log, "invoices"))

	app := &App{
		mux:       http.NewServeMux(),
		db:        gdb,
		log:       log,
		metrics:   m,
		pages:     pages,
		invoices:  handlers.NewInvoiceHandler(invoiceStore, customerStore, svc, pages),
		dashboard: handlers.NewDashboardHandler(invoiceStore, pages),
		auth:      handlers.NewAuthHandler(gdb),
	}

	auth.SetUserVerifier(userVerifier(gdb, logger.WithComponent(log, "auth")))

	app.setupRoutes()
	app.handler = app.middleware(app.mux)
	return app
}

// userVerifier drops sessions pointing at a deleted user. A failed lookup keeps the
// session so that a database outage does not sign everyone out.
func userVerifier(gdb *gorm.DB, log zerolog.Logger) auth.UserVerifier {
	return func(ctx context.Context, uid string) bool {
		var count int64
		if err := gdb.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count).Error; err != nil {
			log.Error().Err(err).Str("user_id", uid).Msg("session user lookup failed")
			return true
		}
		return count > 0
	}
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// middleware wraps next, outermost first: request logger, request id, panic recovery,
// session, language, then access logging and metrics right around the mux so they see
// the matched pattern.
func (a *App) middleware(next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		a.metrics.ObserveRequest(r, status, d)
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("pattern", r.Pattern).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})(next)
	h = withPreferences(h)
	h = auth.Middleware(h)
	h = recoverer(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(a.log)(h)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// Public routes
	a.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	a.mux.HandleFunc("GET /login", a.auth.Login)
	a.mux.HandleFunc("POST /login", a.auth.Login)
	a.mux.HandleFunc("POST /logout", a.auth.Logout)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", a.metrics.Handler())
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Dashboard
	ih := a.invoices
	a.mux.Handle("GET /dashboard", auth.RequireAuth(http.HandlerFunc(a.dashboard.Overview)))
	a.mux.Handle("GET /dashboard/invoices", auth.RequireAuth(http.HandlerFunc(ih.List)))
	a.mux.Handle("GET /dashboard/invoices/create", auth.RequireAuth(http.HandlerFunc(ih.New)))
	a.mux.Handle("POST /dashboard/invoices/create", auth.RequireAuth(http.HandlerFunc(ih.Create)))
	a.mux.Handle("GET /dashboard/invoices/{id}/edit", auth.RequireAuth(http.HandlerFunc(ih.Edit)))
	a.mux.Handle("POST /dashboard/invoices/{id}/edit", auth.RequireAuth(http.HandlerFunc(ih.Update)))
	a.mux.Handle("POST /dashboard/invoices/{id}/delete", auth.RequireAuth(http.HandlerFunc(ih.Delete)))
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(a.db.WithContext(r.Context())); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("health check failed")
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recoverer turns a panicking handler into a logged 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hlog.FromRequest(r).Error().Interface("panic", rec).Msg("handler panicked")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withPreferences picks the request language: query (persisted in a cookie), then cookie,
// then Accept-Language.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
