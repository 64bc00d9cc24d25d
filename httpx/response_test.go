package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"status": "invalid_choice"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "validation_failed" || body.Details["status"] != "invalid_choice" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestJSONNil(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, nil)
	if w.Body.String() != "null" {
		t.Fatalf("expected null body got %q", w.Body.String())
	}
}

func TestWantsJSON(t *testing.T) {
	cases := map[string]bool{
		"application/json":           true,
		"text/html,application/json": false,
		"":                           false,
		"text/html":                  false,
	}
	for accept, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", accept)
		if got := WantsJSON(r); got != want {
			t.Errorf("WantsJSON(%q) = %v, want %v", accept, got, want)
		}
	}
}
