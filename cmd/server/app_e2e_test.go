package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diewo77/invoice-dashboard/internal/config"
	"github.com/diewo77/invoice-dashboard/internal/testdb"
	"github.com/rs/zerolog"
)

const evilRabbit = "d6e15727-9fe1-4961-8c5b-ea44a9bd81aa"

func newTestApp(t *testing.T) *App {
	t.Helper()
	return NewApp(testdb.Seeded(t), &config.Config{}, zerolog.Nop())
}

func loginCookie(t *testing.T, app *App) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {"user@nextmail.com"}, "password": {"123456"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("login: expected 303 got %d body=%s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatalf("no session cookie")
	return nil
}

func do(app *App, req *http.Request, sess *http.Cookie) *httptest.ResponseRecorder {
	if sess != nil {
		req.AddCookie(sess)
	}
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	return rr
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	app := newTestApp(t)

	rr := do(app, httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil), nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil)
	req.Header.Set("Accept", "application/json")
	if rr := do(app, req, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for JSON client, got %d", rr.Code)
	}

	form := url.Values{"customerId": {evilRabbit}, "amount": {"1"}, "status": {"paid"}}
	req = httptest.NewRequest(http.MethodPost, "/dashboard/invoices/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rr := do(app, req, nil); rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("anonymous create must not write, got %d", rr.Code)
	}
}

func TestCreateInvoiceE2E(t *testing.T) {
	app := newTestApp(t)
	sess := loginCookie(t, app)

	rr := do(app, httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil), sess)
	if rr.Code != http.StatusOK {
		t.Fatalf("listing: expected 200 got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "$45.00") {
		t.Fatalf("unexpected invoice before create")
	}

	rr = do(app, httptest.NewRequest(http.MethodGet, "/dashboard/invoices/create", nil), sess)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Evil Rabbit") {
		t.Fatalf("create form: %d", rr.Code)
	}

	form := url.Values{"customerId": {evilRabbit}, "amount": {"45.00"}, "status": {"pending"}}
	req := httptest.NewRequest(http.MethodPost, "/dashboard/invoices/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = do(app, req, sess)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard/invoices" {
		t.Fatalf("create: expected 303 to listing, got %d %q body=%s", rr.Code, rr.Header().Get("Location"), rr.Body.String())
	}

	rr = do(app, httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil), sess)
	if !strings.Contains(rr.Body.String(), "$45.00") {
		t.Fatalf("listing is stale after create")
	}

	rr = do(app, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `invoices_invoice_writes_total{op="create",result="ok"} 1`) {
		t.Fatalf("write not counted: %s", body)
	}
	if !strings.Contains(string(body), `invoices_http_requests_total{handler="POST /dashboard/invoices/create",status="303"} 1`) {
		t.Fatalf("request not counted by pattern: %s", body)
	}
}

func TestEditUnknownInvoiceE2E(t *testing.T) {
	app := newTestApp(t)
	sess := loginCookie(t, app)

	rr := do(app, httptest.NewRequest(http.MethodGet, "/dashboard/invoices/2e94d1ed-d220-449f-9f11-f0bbceed9645/edit", nil), sess)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Could not find the requested invoice.") {
		t.Fatalf("not-found view missing: %s", rr.Body.String())
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	app := newTestApp(t)
	rr := do(app, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestLanguageQueryPersists(t *testing.T) {
	app := newTestApp(t)
	sess := loginCookie(t, app)
	rr := do(app, httptest.NewRequest(http.MethodGet, "/dashboard?lang=fr", nil), sess)
	if !strings.Contains(rr.Body.String(), "Tableau de bord") {
		t.Fatalf("expected french dashboard")
	}
	found := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == "lang" && c.Value == "fr" {
			found = true
		}
	}
	if !found {
		t.Fatalf("lang cookie not set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "seed"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestUserVerifier(t *testing.T) {
	gdb := testdb.Seeded(t)
	verify := userVerifier(gdb, zerolog.Nop())
	ctx := context.Background()

	if !verify(ctx, "410544b2-4001-4271-9855-fec4b6a6442a") {
		t.Fatal("seeded user must be accepted")
	}
	if verify(ctx, "2e94d1ed-d220-449f-9f11-f0bbceed9645") {
		t.Fatal("unknown user must be rejected")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	_ = sqlDB.Close()
	if !verify(ctx, "410544b2-4001-4271-9855-fec4b6a6442a") {
		t.Fatal("a failed lookup must not drop the session")
	}
}
