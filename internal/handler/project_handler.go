package handler

import (
	"net/http"

	"athena-be/internal/domain"
	"athena-be/internal/service"
	"athena-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ProjectHandler serves project submissions
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *logger.Logger
}

func NewProjectHandler(projects *service.ProjectService, log *logger.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: log.Named("project_handler")}
}

// ProjectResponse answers a submission
type ProjectResponse struct {
	Success  bool                   `json:"success"`
	Project  *domain.Project        `json:"project"`
	Metadata domain.ProjectMetadata `json:"metadata"`
	IPFS     IPFSInfo               `json:"ipfs"`
}

// List handles GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projects, err := h.projects.List(r.Context(), domain.ProjectFilter{
		HackathonID: q.Get("hackathonId"),
		TeamID:      q.Get("teamId"),
		UserID:      q.Get("userId"),
		Limit:       queryInt(r, "limit"),
	})
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// Get handles GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Create handles POST /api/projects/create
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if req.SubmittedBy == "" {
		if user := currentUser(r); user != nil {
			req.SubmittedBy = user.Sub
		}
	}

	project, res, err := h.projects.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, ProjectResponse{
		Success:  true,
		Project:  project,
		Metadata: project.Metadata(),
		IPFS:     ipfsInfo(res),
	})
}
