package planserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"shopping-planner/internal/auth"
)

// NewRouter builds the HTTP handler of the plan server. Every /v1 route requires a bearer
// token; rows are always those of the token's subject.
func NewRouter(h *PlanHandler, authority *auth.Authority, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(requireToken(authority))
	v1.HandleFunc("/plans", h.ListPlans).Methods(http.MethodGet)
	v1.HandleFunc("/plans/{week}", h.GetPlan).Methods(http.MethodGet)
	v1.HandleFunc("/plans/{week}", h.PutPlan).Methods(http.MethodPut)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(loggingMiddleware(r))
}
