package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classgate/kiosk/internal/notify"
	"github.com/classgate/kiosk/internal/recognizer"
	"github.com/classgate/kiosk/internal/web/handlers"
	"github.com/classgate/kiosk/internal/web/static"
)

func (s *Server) setupRoutes(client *recognizer.Client, notes *notify.Center) {
	stateHandler := handlers.NewStateHandler(s.config, s.session, notes, s.baseCtx)
	recognizeHandler := handlers.NewRecognizeHandler(s.config, s.session, s.baseCtx)
	eventsHandler := handlers.NewEventsHandler(s.config, s.session)
	adminHandler := handlers.NewAdminHandler(s.config, client)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Kiosk state machine
		r.Get("/state", stateHandler.Get)
		r.Post("/navigate", stateHandler.Navigate)
		r.Put("/form", stateHandler.UpdateForm)

		// Registration captures
		r.Post("/capture", stateHandler.Capture)
		r.Delete("/capture", stateHandler.ClearCaptures)
		r.Post("/register", stateHandler.Register)

		// Recognition loop
		r.Post("/recognize/start", recognizeHandler.Start)
		r.Post("/recognize/stop", recognizeHandler.Stop)
		r.Post("/recognize/once", recognizeHandler.Once)
		r.Get("/frame", recognizeHandler.Frame)

		// Live updates
		r.Get("/events", eventsHandler.Stream)

		// Recognition service maintenance
		r.Post("/train", adminHandler.Train)
		r.Get("/teachers", adminHandler.Teachers)
		r.Get("/service/health", adminHandler.ServiceHealth)
	})

	// Serve static files for frontend (SPA)
	s.router.Get("/*", s.serveSPA)
}

// serveSPA serves the single-page application.
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	if static.HasDist() {
		fs := static.GetFileSystem()
		path := r.URL.Path
		if path == "/" {
			path = "/index.html"
		}

		f, err := fs.Open(path)
		if err == nil {
			defer f.Close()

			stat, err := f.Stat()
			if err == nil && !stat.IsDir() {
				contentType := "application/octet-stream"
				switch {
				case strings.HasSuffix(path, ".html"):
					contentType = "text/html; charset=utf-8"
				case strings.HasSuffix(path, ".css"):
					contentType = "text/css; charset=utf-8"
				case strings.HasSuffix(path, ".js"):
					contentType = "application/javascript; charset=utf-8"
				case strings.HasSuffix(path, ".json"):
					contentType = "application/json"
				case strings.HasSuffix(path, ".svg"):
					contentType = "image/svg+xml"
				case strings.HasSuffix(path, ".png"):
					contentType = "image/png"
				case strings.HasSuffix(path, ".ico"):
					contentType = "image/x-icon"
				}

				w.Header().Set("Content-Type", contentType)
				if strings.HasPrefix(path, "/assets/") {
					w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
				}

				w.WriteHeader(http.StatusOK)
				io.Copy(w, f)
				return
			}
		}

		// For SPA routing, serve index.html for non-asset paths.
		if !strings.HasPrefix(path, "/assets/") {
			indexFile, err := fs.Open("/index.html")
			if err == nil {
				defer indexFile.Close()
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				io.Copy(w, indexFile)
				return
			}
		}
	}

	// Fallback: placeholder page when no frontend is embedded.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>ClassGate Kiosk</title>
</head>
<body>
    <h1>ClassGate Kiosk</h1>
    <p>Frontend is not built. API is available at <a href="/api/v1/health">/api/v1/health</a></p>
</body>
</html>`))
}
