package handler

import (
	"net/http"

	"athena-be/internal/domain"
	"athena-be/internal/service"
	"athena-be/pkg/logger"
)

// TeamHandler serves teams
type TeamHandler struct {
	teams  *service.TeamService
	logger *logger.Logger
}

func NewTeamHandler(teams *service.TeamService, log *logger.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, logger: log.Named("team_handler")}
}

// TeamResponse answers a team creation
type TeamResponse struct {
	Success bool         `json:"success"`
	Team    *domain.Team `json:"team"`
	IPFS    IPFSInfo     `json:"ipfs"`
}

// List handles GET /api/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.List(r.Context(), domain.TeamFilter{
		HackathonID: r.URL.Query().Get("hackathonId"),
		Limit:       queryInt(r, "limit"),
	})
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// Create handles POST /api/teams/create
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if user := currentUser(r); user != nil && req.LeaderID == "" {
		req.LeaderID = user.Sub
		if req.LeaderName == "" {
			req.LeaderName = user.Name
		}
	}

	team, res, err := h.teams.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, TeamResponse{Success: true, Team: team, IPFS: ipfsInfo(res)})
}
