package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diewo77/invoice-dashboard/auth"
	"github.com/diewo77/invoice-dashboard/i18n"
	"github.com/diewo77/invoice-dashboard/internal/cache"
	"github.com/diewo77/invoice-dashboard/internal/store"
	"github.com/diewo77/invoice-dashboard/internal/testdb"
)

func TestDashboardOverview(t *testing.T) {
	gdb := testdb.Seeded(t)
	h := NewDashboardHandler(store.NewInvoiceStore(gdb), cache.New(0))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "410544b2-4001-4271-9855-fec4b6a6442a"))
	rr := httptest.NewRecorder()
	h.Overview(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"$803.85", "$1,256.32", "Latest Invoices", "Balazs Orban", "Sign Out"} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in dashboard", want)
		}
	}
}

func TestDashboardFrench(t *testing.T) {
	gdb := testdb.Seeded(t)
	h := NewDashboardHandler(store.NewInvoiceStore(gdb), cache.New(0))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(i18n.WithLang(context.Background(), "fr"))
	rr := httptest.NewRecorder()
	h.Overview(rr, req)
	if !strings.Contains(rr.Body.String(), "Dernières factures") {
		t.Fatalf("expected french labels, got %s", rr.Body.String())
	}
}

func TestNotFoundJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/invoices/x/edit", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	NotFound(rr, req)
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), `"not_found"`) {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}
}

func TestLogin(t *testing.T) {
	gdb := testdb.Seeded(t)
	h := NewAuthHandler(gdb)

	login := func(password string) *httptest.ResponseRecorder {
		form := url.Values{"email": {"user@nextmail.com"}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		h.Login(rr, req)
		return rr
	}

	rr := login("123456")
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie")
	}

	rr = login("wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Invalid credentials.") {
		t.Fatalf("missing error message: %s", rr.Body.String())
	}
}

func TestLoginDatabaseFailureIs500(t *testing.T) {
	gdb := testdb.Seeded(t)
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	_ = sqlDB.Close()

	form := url.Values{"email": {"user@nextmail.com"}, "password": {"123456"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	NewAuthHandler(gdb).Login(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Invalid credentials.") {
		t.Fatalf("a database failure is not a credentials failure")
	}
}

func TestLogout(t *testing.T) {
	h := NewAuthHandler(nil)
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/logout", nil))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("unexpected %d %q", rr.Code, rr.Header().Get("Location"))
	}
}
