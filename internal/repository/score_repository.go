package repository

import (
	"context"
	"fmt"
	"strconv"

	"athena-be/internal/domain"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
)

// ScoreRepository stores judge scores. Drafts are pinned once; final scores
// are pinned again with the CID of the first entry.
type ScoreRepository struct {
	store  BlobStore
	logger *logger.Logger
}

func NewScoreRepository(store BlobStore, log *logger.Logger) *ScoreRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &ScoreRepository{store: store, logger: log.Named("score_repository")}
}

// Create pins s and returns the entry that represents it
func (r *ScoreRepository) Create(ctx context.Context, s *domain.Score) (*pinata.UploadResult, error) {
	tags := map[string]string{
		TagScoreID:    s.ID,
		TagProjectID:  s.ProjectID,
		"judgeId":     s.JudgeID,
		"totalScore":  strconv.FormatFloat(s.TotalScore, 'f', -1, 64),
		"isDraft":     strconv.FormatBool(s.IsDraft),
		"submittedAt": formatTime(s.SubmittedAt),
	}

	if s.IsDraft {
		res, err := r.store.PutJSON(ctx, s, pinata.Metadata{
			Name:      "score-" + s.ID + "-draft",
			KeyValues: copyTags(tags, map[string]string{TagType: TypeScoreDraft}),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to pin draft score: %w", err)
		}
		return res, nil
	}

	first := pinata.Metadata{
		Name:      "score-" + s.ID,
		KeyValues: copyTags(tags, map[string]string{TagType: TypeScoreFinal}),
	}
	// the hash tag is only known after the first pin
	final := pinata.Metadata{Name: "score-" + s.ID + "-final"}

	draft, err := r.store.PutJSON(ctx, s, first)
	if err != nil {
		return nil, fmt.Errorf("failed to pin score: %w", err)
	}
	s.IPFSHash = draft.CID
	final.KeyValues = copyTags(tags, map[string]string{TagType: TypeScoreFinalWithHash, TagIPFSHash: draft.CID})

	res, err := r.store.PutJSON(ctx, s, final)
	if err != nil {
		return nil, fmt.Errorf("failed to pin final score: %w", err)
	}
	return res, nil
}
