// Package i18n holds the UI and validation message tables.
package i18n

import (
	"context"
	"strings"
)

// Default is used when a request carries no supported language.
const Default = "en"

var messages = map[string]map[string]string{
	"en": {
		"required":       "Required",
		"invalid_number": "Please enter a valid amount.",
		"invalid_choice": "Please select an invoice status.",
		"out_of_range":   "Amount is too large.",

		"customer_required": "Please select a customer.",
		"form_invalid":      "Missing Fields. Failed to Create Invoice.",
		"create_failed":     "Database Error: Failed to Create Invoice.",
		"update_failed":     "Database Error: Failed to Update Invoice.",
		"delete_failed":     "Database Error: Failed to Delete Invoice.",
		"load_failed":       "Database Error: Failed to Fetch Invoice.",
		"list_failed":       "Database Error: Failed to Fetch Invoices.",
		"form_invalid_edit": "Missing Fields. Failed to Update Invoice.",
		"login_failed":      "Invalid credentials.",
		"login_error":       "Something went wrong. Please try again.",

		"invoices":        "Invoices",
		"create_invoice":  "Create Invoice",
		"edit_invoice":    "Edit Invoice",
		"customer":        "Customer",
		"choose_customer": "Select a customer",
		"amount":          "Amount",
		"status":          "Status",
		"date":            "Date",
		"email":           "Email",
		"password":        "Password",
		"pending":         "Pending",
		"paid":            "Paid",
		"cancel":          "Cancel",
		"delete":          "Delete",
		"edit":            "Edit",
		"search":          "Search invoices...",
		"no_invoices":     "No invoices found.",
		"dashboard":       "Dashboard",
		"collected":       "Collected",
		"total_invoices":  "Total Invoices",
		"total_customers": "Total Customers",
		"latest_invoices": "Latest Invoices",
		"log_in":          "Log in",
		"sign_out":        "Sign Out",
		"not_found_title": "404 Not Found",
		"not_found_text":  "Could not find the requested invoice.",
		"go_back":         "Go Back",
		"previous":        "Previous",
		"next":            "Next",
	},
	"fr": {
		"required":       "Requis",
		"invalid_number": "Veuillez saisir un montant valide.",
		"invalid_choice": "Veuillez choisir un statut.",
		"out_of_range":   "Montant trop élevé.",

		"customer_required": "Veuillez choisir un client.",
		"form_invalid":      "Champs manquants. La facture n'a pas été créée.",
		"create_failed":     "Erreur base de données : la facture n'a pas été créée.",
		"update_failed":     "Erreur base de données : la facture n'a pas été modifiée.",
		"delete_failed":     "Erreur base de données : la facture n'a pas été supprimée.",
		"load_failed":       "Erreur base de données : impossible de charger la facture.",
		"list_failed":       "Erreur base de données : impossible de charger les factures.",
		"form_invalid_edit": "Champs manquants. La facture n'a pas été modifiée.",
		"login_failed":      "Identifiants invalides.",
		"login_error":       "Une erreur est survenue. Veuillez réessayer.",

		"invoices":        "Factures",
		"create_invoice":  "Nouvelle facture",
		"edit_invoice":    "Modifier la facture",
		"customer":        "Client",
		"choose_customer": "Choisir un client",
		"amount":          "Montant",
		"status":          "Statut",
		"date":            "Date",
		"email":           "Email",
		"password":        "Mot de passe",
		"pending":         "En attente",
		"paid":            "Payée",
		"cancel":          "Annuler",
		"delete":          "Supprimer",
		"edit":            "Modifier",
		"search":          "Rechercher des factures...",
		"no_invoices":     "Aucune facture.",
		"dashboard":       "Tableau de bord",
		"collected":       "Encaissé",
		"total_invoices":  "Nombre de factures",
		"total_customers": "Nombre de clients",
		"latest_invoices": "Dernières factures",
		"log_in":          "Connexion",
		"sign_out":        "Déconnexion",
		"not_found_title": "404 Introuvable",
		"not_found_text":  "Impossible de trouver la facture demandée.",
		"go_back":         "Retour",
		"previous":        "Précédent",
		"next":            "Suivant",
	},
}

// Supported reports whether lang has a message table.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// T translates code into lang, falling back to the default language and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[Default][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks the first supported primary tag of an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(primary) {
			return primary
		}
	}
	return Default
}

type ctxKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the stored language or Default.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKey{}).(string); ok && lang != "" {
		return lang
	}
	return Default
}
