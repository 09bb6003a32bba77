package handler

import (
	"net/http"

	"athena-be/internal/domain"
	"athena-be/internal/service"
	"athena-be/pkg/logger"
)

// ScoreHandler records judge scores
type ScoreHandler struct {
	scores *service.ScoreService
	logger *logger.Logger
}

func NewScoreHandler(scores *service.ScoreService, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{scores: scores, logger: log.Named("score_handler")}
}

// ScoreResponse answers a score submission
type ScoreResponse struct {
	Success  bool                 `json:"success"`
	Score    domain.ScoreSummary  `json:"score"`
	Metadata domain.ScoreMetadata `json:"metadata"`
	IPFS     IPFSInfo             `json:"ipfs"`
}

// Create handles POST /api/scores/create
func (h *ScoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	if req.JudgeID == "" {
		if user := currentUser(r); user != nil {
			req.JudgeID = user.Sub
		}
	}

	score, res, err := h.scores.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, ScoreResponse{
		Success:  true,
		Score:    service.Summary(score),
		Metadata: service.Metadata(score),
		IPFS:     ipfsInfo(res),
	})
}
