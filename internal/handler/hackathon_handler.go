package handler

import (
	"net/http"
	"strings"

	"athena-be/internal/domain"
	"athena-be/internal/service"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// HackathonHandler serves hackathon listing, creation, updates and registration
type HackathonHandler struct {
	hackathons   *service.HackathonService
	registration *service.RegistrationCoordinator
	projects     *service.ProjectService
	logger       *logger.Logger
}

func NewHackathonHandler(hackathons *service.HackathonService, registration *service.RegistrationCoordinator, projects *service.ProjectService, log *logger.Logger) *HackathonHandler {
	return &HackathonHandler{
		hackathons:   hackathons,
		registration: registration,
		projects:     projects,
		logger:       log.Named("hackathon_handler"),
	}
}

// MutationResponse answers create and update
type MutationResponse struct {
	Success   bool              `json:"success"`
	Hackathon *domain.Hackathon `json:"hackathon"`
	IPFS      IPFSInfo          `json:"ipfs"`
}

// RegisterResponse answers a registration
type RegisterResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Hackathon *domain.Hackathon `json:"hackathon"`
	FileID    string            `json:"fileId"`
}

// List handles GET /api/hackathons
func (h *HackathonHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.HackathonFilter{
		Status: domain.Status(strings.ToLower(r.URL.Query().Get("status"))),
		Query:  r.URL.Query().Get("q"),
	}
	switch filter.Status {
	case "", domain.StatusUpcoming, domain.StatusActive, domain.StatusEnded:
	default:
		respondError(w, r, apperrors.NewValidationError("Invalid status filter", nil), h.logger)
		return
	}

	hackathons, err := h.hackathons.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, hackathons)
}

// Get handles GET /api/hackathons/{id}
func (h *HackathonHandler) Get(w http.ResponseWriter, r *http.Request) {
	hackathon, err := h.hackathons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, hackathon)
}

// Create handles POST /api/hackathons/create
func (h *HackathonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.HackathonInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if in.OrganizerID == "" {
		if user := currentUser(r); user != nil {
			in.OrganizerID = user.Sub
		}
	}

	hackathon, res, err := h.hackathons.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, MutationResponse{Success: true, Hackathon: hackathon, IPFS: ipfsInfo(res)})
}

// Update handles PUT /api/hackathons/{id}
func (h *HackathonHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.HackathonInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if in.OrganizerID == "" {
		if user := currentUser(r); user != nil {
			in.OrganizerID = user.Sub
		}
	}

	hackathon, res, err := h.hackathons.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, MutationResponse{Success: true, Hackathon: hackathon, IPFS: ipfsInfo(res)})
}

// Register handles POST /api/hackathons/{id}/register
func (h *HackathonHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if user := currentUser(r); user != nil {
		if req.UserID == "" {
			req.UserID = user.Sub
		}
		if req.UserEmail == "" {
			req.UserEmail = user.Email
		}
		if req.UserName == "" {
			req.UserName = user.Name
		}
	}

	result, err := h.registration.Register(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, RegisterResponse{
		Success:   true,
		Message:   "Successfully registered for hackathon",
		Hackathon: result.Hackathon,
		FileID:    result.FileID,
	})
}

// CheckRegistration handles POST /api/hackathons/{id}/check-registration
func (h *HackathonHandler) CheckRegistration(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckRegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if req.UserID == "" {
		if user := currentUser(r); user != nil {
			req.UserID = user.Sub
		}
	}

	status, err := h.hackathons.CheckRegistration(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Projects handles GET /api/hackathons/{id}/projects
func (h *HackathonHandler) Projects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListByHackathon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}
