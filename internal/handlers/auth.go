package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/invoice-dashboard/auth"
	"github.com/diewo77/invoice-dashboard/i18n"
	"github.com/diewo77/invoice-dashboard/internal/models"
	"github.com/diewo77/invoice-dashboard/view"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

// Login: GET/POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if _, ok := auth.UserIDFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		h.render(w, r, http.StatusOK, nil)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	var user models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.render(w, r, http.StatusUnauthorized, map[string]any{"Error": "login_failed", "Email": email})
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("login lookup failed")
		http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), "login_error"), http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		h.render(w, r, http.StatusUnauthorized, map[string]any{"Error": "login_failed", "Email": email})
		return
	}

	auth.CreateSession(w, user.ID)
	hlog.FromRequest(r).Info().Str("user_id", user.ID).Msg("user logged in")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout: POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if err := view.RenderStatus(w, r, status, "login.html", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render login")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}
