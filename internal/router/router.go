package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kiwari-pos/dinein-terminal/internal/config"
	"github.com/kiwari-pos/dinein-terminal/internal/handler"
	"github.com/kiwari-pos/dinein-terminal/internal/ws"
)

// New creates a Chi router with all terminal routes wired up.
func New(cfg *config.Config, catalogSrc handler.CatalogSource, tableSrc handler.TableSource, sessions handler.SessionServicer, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS: terminal UIs are browser apps served from another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Push feed for table/catalog change events.
	r.Get("/ws/tables", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	catalogHandler := handler.NewCatalogHandler(catalogSrc)
	r.Route("/catalog", catalogHandler.RegisterRoutes)

	tablesHandler := handler.NewTablesHandler(tableSrc)
	r.Route("/tables", tablesHandler.RegisterRoutes)

	sessionHandler := handler.NewSessionHandler(sessions)
	r.Route("/sessions", sessionHandler.RegisterRoutes)

	return r
}
