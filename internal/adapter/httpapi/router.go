package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the HTTP surface. Auth endpoints are public;
// everything else requires a bearer token, and the /api/admin subtree
// additionally requires the ADMIN role.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(h.Authenticate, h.RequireAdmin)
	admin.HandleFunc("/cards", h.CreateCard).Methods(http.MethodPost)
	admin.HandleFunc("/cards", h.ListAllCards).Methods(http.MethodGet)
	admin.HandleFunc("/cards/{id}/status", h.ChangeCardStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/cards/{id}", h.DeleteCard).Methods(http.MethodDelete)

	user := r.PathPrefix("/api").Subrouter()
	user.Use(h.Authenticate)
	user.HandleFunc("/cards", h.ListMyCards).Methods(http.MethodGet)
	user.HandleFunc("/cards/{id}", h.GetCard).Methods(http.MethodGet)
	user.HandleFunc("/cards/{id}/balance", h.GetBalance).Methods(http.MethodGet)
	user.HandleFunc("/cards/{id}/block", h.BlockCard).Methods(http.MethodPost)
	user.HandleFunc("/transfers", h.Transfer).Methods(http.MethodPost)

	return r
}
