package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"hajiri.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(webhook *handler.WebhookHandler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/webhook/whatsapp", webhook.Verify).Methods(http.MethodGet)
	api.HandleFunc("/webhook/whatsapp", webhook.Receive).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
