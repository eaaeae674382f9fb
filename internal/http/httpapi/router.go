package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"quizforge/internal/http/handlers"
	"quizforge/internal/middleware"
)

func NewRouter(app *handlers.App, triggerSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TriggerAuth(triggerSecret))

		r.Route("/v1/jobs", func(r chi.Router) {
			r.Post("/", app.JobsCreate)
			r.Get("/{id}", app.JobGet)
		})

		r.Route("/v1/stages", func(r chi.Router) {
			r.Post("/generate", app.StageGenerate)
			r.Post("/render", app.StageRender)
			r.Post("/assemble", app.StageAssemble)
			r.Post("/publish", app.StagePublish)
		})

		r.Route("/v1/reconcile", func(r chi.Router) {
			r.Post("/orphans", app.ReconcileOrphans)
			r.Post("/retries", app.ReconcileRetries)
		})
	})

	return r
}
