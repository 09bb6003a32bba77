package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"athena-be/internal/domain"
	"athena-be/internal/repository"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/ids"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
)

const missingScoreFields = "Missing required fields: projectId, judgeId, scores, feedback"

// ScoreService records judge scores
type ScoreService struct {
	store  repository.ScoreStore
	logger *logger.Logger
	now    func() time.Time
}

func NewScoreService(store repository.ScoreStore, log *logger.Logger) *ScoreService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ScoreService{
		store:  store,
		logger: log.Named("score_service"),
		now:    time.Now,
	}
}

// Create validates every criterion and pins the score
func (s *ScoreService) Create(ctx context.Context, req domain.CreateScoreRequest) (*domain.Score, *pinata.UploadResult, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.JudgeID) == "" ||
		req.Scores == nil || strings.TrimSpace(req.Feedback) == "" {
		return nil, nil, apperrors.NewValidationError(missingScoreFields, nil)
	}
	if len(req.Scores) == 0 {
		return nil, nil, apperrors.NewValidationError("Scores must be a non-empty object", nil)
	}

	scores, err := parseScores(req.Scores)
	if err != nil {
		return nil, nil, err
	}

	criteria := req.CriteriaScores
	if criteria == nil {
		criteria = []json.RawMessage{}
	}

	now := s.now().UTC()
	score := &domain.Score{
		ID:             ids.NewRecordIDAt("score", now),
		ProjectID:      req.ProjectID,
		JudgeID:        req.JudgeID,
		Scores:         scores,
		Feedback:       req.Feedback,
		PrivateNotes:   req.PrivateNotes,
		TotalScore:     req.TotalScore,
		CriteriaScores: criteria,
		IsDraft:        req.IsDraft,
		SubmittedAt:    now,
		Version:        domain.ScoreVersion,
		Platform:       domain.ScorePlatform,
		JudgeSignature: "",
	}

	res, err := s.store.Create(ctx, score)
	if err != nil {
		s.logger.WithError(err).WithField("score_id", score.ID).Error("Failed to store score")
		return nil, nil, apperrors.NewUnavailableError("Failed to store score data on IPFS", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"score_id":   score.ID,
		"project_id": score.ProjectID,
		"draft":      score.IsDraft,
	}).Info("Score recorded")
	return score, res, nil
}

// Summary is the public view of a score
func Summary(s *domain.Score) domain.ScoreSummary {
	keys := make([]string, 0, len(s.Scores))
	for k := range s.Scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return domain.ScoreSummary{
		JudgeID:     s.JudgeID,
		Criteria:    strings.Join(keys, ", "),
		Score:       s.TotalScore,
		Feedback:    s.Feedback,
		SubmittedAt: s.SubmittedAt,
	}
}

// Metadata is the judge-side view of a score
func Metadata(s *domain.Score) domain.ScoreMetadata {
	return domain.ScoreMetadata{
		ID:             s.ID,
		ProjectID:      s.ProjectID,
		Scores:         s.Scores,
		PrivateNotes:   s.PrivateNotes,
		IsDraft:        s.IsDraft,
		CriteriaScores: s.CriteriaScores,
	}
}

// parseScores decodes each criterion as a number within range. Criteria are
// checked in name order so the reported one is deterministic.
func parseScores(raw map[string]json.RawMessage) (map[string]float64, error) {
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(map[string]float64, len(raw))
	for _, name := range names {
		var v *float64
		if err := json.Unmarshal(raw[name], &v); err != nil || v == nil || *v < domain.ScoreMin || *v > domain.ScoreMax {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("Invalid score for %s. Must be between %d and %d", name, domain.ScoreMin, domain.ScoreMax), nil)
		}
		out[name] = *v
	}
	return out, nil
}
