package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/api/recovery"
	"github.com/foodiary/foodiary-chat/internal/history"
	"github.com/foodiary/foodiary-chat/internal/telemetry"
)

// NewRouter assembles all HTTP routes with recovery and CORS middleware.
func NewRouter(b ChatService, hist *history.Manager, metrics *telemetry.Publisher, allowedOrigins []string, log zerolog.Logger) http.Handler {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	// Create handlers
	healthHandler := NewHealthHandler()
	chatHandler := NewChatHandler(b, metrics, log)
	recordsHandler := NewRecordsHandler(hist, log)

	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/chat", chatHandler.Chat).Methods("POST")
	router.HandleFunc("/api/users/{userId}/records", recordsHandler.ListRecords).Methods("GET")

	if len(allowedOrigins) == 0 {
		return router
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(router)
}
