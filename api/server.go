/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request counters keyed by route pattern
  5. CORS:       Cross-origin requests for the dashboard front end

ROUTE GROUPS:
  /healthz                       Fact store reachability
  /metrics                       Prometheus exposition
  /api/regions, /api/demand      Region selector and treemap
  /api/regions/{region}/*        Region views and exports
  /*                             Static files (dashboard front end)

STATIC FILE SERVING:
  Serves the built dashboard from web/dist/ when present.
  Falls back to index.html for client-side routing.

SECURITY NOTE:
  No authentication middleware. The fact store is opened read-only and
  every endpoint is GET.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/seva-insights/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Report-ID"},
	}))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/demand", h.Demand)

		r.Route("/regions", func(r chi.Router) {
			r.Get("/", h.ListRegions)

			r.Route("/{region}", func(r chi.Router) {
				r.Get("/overview", h.Overview)
				r.Get("/districts", h.Districts)
				r.Get("/priority", h.Priority)
				r.Get("/forecast", h.Forecast)
				r.Get("/records", h.Records)

				// Export routes
				r.Group(func(r chi.Router) {
					r.Use(h.limitExports)
					r.Get("/records.xlsx", h.RecordsXLSX)
					r.Get("/report.pdf", h.ReportPDF)
					r.Get("/charts/{chart}.png", h.Chart)
				})
			})
		})
	})

	mountStatic(r)
	return r
}

// mountStatic serves the dashboard build, or a landing page when it is absent.
func mountStatic(r chi.Router) {
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, filepath.Clean(r.URL.Path))
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
		return
	}

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Aadhaar Seva Kendra Insights</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Aadhaar Seva Kendra Insights API</h1>
<p>The dashboard front end is not built. The JSON API is available:</p>
<ul>
<li><a href="/api/regions">/api/regions</a> - Selectable regions</li>
<li><a href="/api/demand">/api/demand</a> - Update demand per region</li>
<li><a href="/healthz">/healthz</a> - Fact store status</li>
<li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
</ul>
</body>
</html>`))
	})
}
