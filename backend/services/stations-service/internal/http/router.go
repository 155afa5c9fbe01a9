package httpserver

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	stationhandlers "evmap/backend/services/stations-service/internal/http/handlers"
	"evmap/backend/services/stations-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	StationsHandlers *stationhandlers.StationsHandlers
	HealthHandler    http.HandlerFunc
	// LiveUpdates serves /api/ws; nil disables the route.
	LiveUpdates http.Handler
	// AdminAuth guards /api/refresh when set.
	AdminAuth      func(http.Handler) http.Handler
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires HTTP routes with middleware. The WebSocket route stays out
// of the gzip wrapper so the upgrade can hijack the connection.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	if deps.LiveUpdates != nil {
		r.Handle("/api/ws", deps.LiveUpdates).Methods(http.MethodGet)
	}

	web := r.NewRoute().Subrouter()
	web.Use(handlers.CompressHandler)

	web.Handle("/health", deps.HealthHandler).Methods(http.MethodGet)

	h := deps.StationsHandlers
	refresh := http.Handler(http.HandlerFunc(h.Refresh))
	if deps.AdminAuth != nil {
		refresh = deps.AdminAuth(refresh)
	}
	web.HandleFunc("/api/data", h.Data).Methods(http.MethodGet)
	web.HandleFunc("/api/refresh/history", h.History).Methods(http.MethodGet)
	web.Handle("/api/refresh", refresh).Methods(http.MethodGet, http.MethodPost)
	web.HandleFunc("/api/stations", h.Stations).Methods(http.MethodGet)
	web.HandleFunc("/api/stations/{vendor}/{id}/popup", h.Popup).Methods(http.MethodGet)
	web.HandleFunc("/", h.Index).Methods(http.MethodGet)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
	})

	return middleware.Chain(r,
		middleware.RequestID,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		c.Handler,
	)
}
