package view

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/invoice-dashboard/auth"
	"github.com/diewo77/invoice-dashboard/i18n"
	"github.com/diewo77/invoice-dashboard/validation"
	"github.com/shopspring/decimal"
)

var (
	baseDir  string
	baseMu   sync.Mutex
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

func detectBase() string {
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Join(c, "layout.html")); err == nil && !fi.IsDir() {
			return filepath.Clean(c)
		}
	}
	return "templates"
}

func templatesDir() string {
	baseMu.Lock()
	defer baseMu.Unlock()
	if baseDir == "" {
		baseDir = detectBase()
	}
	return baseDir
}

// SetBaseDir overrides the template base directory (useful for tests or custom setups).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseMu.Lock()
	baseDir = filepath.Clean(path)
	baseMu.Unlock()
	ResetCache()
}

// ResetCache drops every parsed template.
func ResetCache() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
}

// Funcs returns the standard func map including i18n and simple helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.LangFromContext(r.Context())
	return template.FuncMap{
		"t":     func(code string) string { return i18n.T(lang, code) },
		"lang":  func() string { return lang },
		"year":  func() int { return time.Now().Year() },
		"asset": versionedAsset,
		"money": Money,
		"date":  func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"add":   func(a, b int) int { return a + b },
		// seq returns 1..n, for pagination links.
		"seq": func(n int) []int {
			out := make([]int, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, i)
			}
			return out
		},
		"fieldError": func(v validation.Violations, field string) string {
			if code, ok := v[field]; ok {
				return i18n.T(lang, code)
			}
			return ""
		},
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Money formats an amount in cents as dollars, e.g. 123456 -> "$1,234.56".
func Money(cents int64) string {
	s := decimal.New(cents, -2).Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if cents < 0 {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	b, err := os.ReadFile(filepath.Join("static", rel))
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return "/static/" + rel + "?v=" + fmt.Sprintf("%x", h[:8])
}

// parse loads layout.html, every partial and the page. Parsed templates are cached unless DEV=1.
// The cached template is never executed itself; each request runs a clone carrying its own funcs.
func parse(r *http.Request, name string) (*template.Template, error) {
	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok {
			c, err := t.Clone()
			if err != nil {
				return nil, err
			}
			return c.Funcs(Funcs(r)), nil
		}
	}

	dir := templatesDir()
	files := []string{filepath.Join(dir, "layout.html")}
	partials, err := filepath.Glob(filepath.Join(dir, "partials", "*.html"))
	if err != nil {
		return nil, err
	}
	files = append(files, partials...)
	files = append(files, filepath.Join(dir, name))

	t, err := template.New("layout.html").Funcs(Funcs(r)).ParseFiles(files...)
	if err != nil {
		return nil, err
	}
	if devMode {
		return t, nil
	}
	tplCache.Lock()
	tplCache.m[name] = t
	tplCache.Unlock()
	c, err := t.Clone()
	if err != nil {
		return nil, err
	}
	return c.Funcs(Funcs(r)), nil
}

// RenderBytes executes page name inside the layout and returns the document.
func RenderBytes(r *http.Request, name string, data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	if _, exists := data["Path"]; !exists {
		data["Path"] = r.URL.Path
	}
	t, err := parse(r, name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes page name with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus writes page name with the given status. Nothing is written if rendering fails.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	body, err := RenderBytes(r, name, data)
	if err != nil {
		return err
	}
	WriteHTML(w, status, body)
	return nil
}

// WriteHTML writes an already rendered document.
func WriteHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
