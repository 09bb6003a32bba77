package repository

import (
	"context"
	"fmt"

	"athena-be/internal/domain"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
)

// TeamRepository stores teams the same two-phase way as projects
type TeamRepository struct {
	store  BlobStore
	logger *logger.Logger
}

func NewTeamRepository(store BlobStore, log *logger.Logger) *TeamRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &TeamRepository{store: store, logger: log.Named("team_repository")}
}

func (r *TeamRepository) Create(ctx context.Context, t *domain.Team) (*pinata.UploadResult, error) {
	tags := map[string]string{
		TagTeamID:      t.ID,
		TagHackathonID: t.HackathonID,
		"leaderId":     t.LeaderID,
		"createdAt":    formatTime(t.CreatedAt),
	}

	_, final, err := pinWithHash(ctx, r.store, t,
		func(cid string) { t.IPFSHash = cid },
		pinata.Metadata{Name: "team-" + t.ID, KeyValues: copyTags(tags, map[string]string{TagType: TypeTeam})},
		pinata.Metadata{Name: "team-" + t.ID + "-final", KeyValues: copyTags(tags, map[string]string{TagType: TypeTeamFinal})},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pin team: %w", err)
	}
	return final, nil
}

func (r *TeamRepository) List(ctx context.Context, filter domain.TeamFilter) ([]*domain.Team, error) {
	kv := map[string]string{TagType: TypeTeamFinal}
	if filter.HackathonID != "" {
		kv[TagHackathonID] = filter.HackathonID
	}

	files, err := r.store.List(ctx, pinata.ListFilter{KeyValues: kv, Order: "DESC"})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	newestFirst(files)

	limit := limitOrDefault(filter.Limit)
	if len(files) > limit {
		files = files[:limit]
	}

	entries, err := fetchAll[domain.Team](ctx, r.store, files, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}

	out := make([]*domain.Team, 0, len(entries))
	for _, e := range entries {
		if e.record.ID == "" {
			e.record.ID = e.file.KeyValues[TagTeamID]
		}
		out = append(out, e.record)
	}
	return out, nil
}
