package handler

import (
	"net/http"

	"athena-be/internal/service"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health     *HealthHandler
	Hackathons *HackathonHandler
	Projects   *ProjectHandler
	Teams      *TeamHandler
	Scores     *ScoreHandler
	IPFS       *IPFSHandler
}

// NewHandlers builds the handlers over services
func NewHandlers(services *service.Services, maxUploadBytes int64, checks map[string]HealthCheck, log *logger.Logger) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(checks, log),
		Hackathons: NewHackathonHandler(services.Hackathons, services.Registration, services.Projects, log),
		Projects:   NewProjectHandler(services.Projects, log),
		Teams:      NewTeamHandler(services.Teams, log),
		Scores:     NewScoreHandler(services.Scores, log),
		IPFS:       NewIPFSHandler(services.Storage, maxUploadBytes, log),
	}
}

// Routes mounts the API on r. guard wraps every write route.
func (h *Handlers) Routes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/health", h.Health.Check)

	r.Route("/api", func(r chi.Router) {
		r.Route("/hackathons", func(r chi.Router) {
			r.Get("/", h.Hackathons.List)
			r.Get("/{id}", h.Hackathons.Get)
			r.Get("/{id}/projects", h.Hackathons.Projects)
			r.Post("/{id}/check-registration", h.Hackathons.CheckRegistration)

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Post("/create", h.Hackathons.Create)
				r.Put("/{id}", h.Hackathons.Update)
				r.Post("/{id}/register", h.Hackathons.Register)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.Projects.List)
			r.Get("/{id}", h.Projects.Get)
			r.With(guard).Post("/create", h.Projects.Create)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Teams.List)
			r.With(guard).Post("/create", h.Teams.Create)
		})

		r.With(guard).Post("/scores/create", h.Scores.Create)

		r.Route("/ipfs", func(r chi.Router) {
			r.Get("/list", h.IPFS.List)
			r.Get("/signed-url", h.IPFS.SignedURL)

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Post("/signed-url", h.IPFS.SignedURL)
				r.Post("/upload", h.IPFS.Upload)
				r.Post("/upload-json", h.IPFS.UploadJSON)
				r.Post("/update-file", h.IPFS.UpdateFile)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, apperrors.ErrorResponse{Error: "Endpoint not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, apperrors.ErrorResponse{Error: "Method not allowed"})
	})
}
