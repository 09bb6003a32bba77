package repository

import (
	"context"
	"errors"
	"fmt"

	"athena-be/internal/domain"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
)

// ErrProjectNotFound is returned by Get
var ErrProjectNotFound = errors.New("Project not found")

// ProjectRepository stores submissions in two phases: a working entry, then a
// final entry that carries the working CID and is the one listings read.
type ProjectRepository struct {
	store  BlobStore
	logger *logger.Logger
}

func NewProjectRepository(store BlobStore, log *logger.Logger) *ProjectRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &ProjectRepository{store: store, logger: log.Named("project_repository")}
}

// Create pins p and returns the final entry
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) (*pinata.UploadResult, error) {
	tags := map[string]string{
		TagProjectID:   p.ID,
		TagHackathonID: p.HackathonID,
		"trackId":      p.TrackID,
		TagTeamID:      p.TeamID,
		"submittedBy":  p.SubmittedBy,
		"createdAt":    formatTime(p.SubmittedAt),
	}

	_, final, err := pinWithHash(ctx, r.store, p,
		func(cid string) { p.IPFSHash = cid },
		pinata.Metadata{Name: "project-" + p.ID, KeyValues: copyTags(tags, map[string]string{TagType: TypeProject})},
		pinata.Metadata{Name: "project-" + p.ID + "-final", KeyValues: copyTags(tags, map[string]string{TagType: TypeProjectFinal})},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pin project: %w", err)
	}
	return final, nil
}

// List returns final submissions matching filter, newest first
func (r *ProjectRepository) List(ctx context.Context, filter domain.ProjectFilter) ([]*domain.Project, error) {
	kv := map[string]string{TagType: TypeProjectFinal}
	if filter.HackathonID != "" {
		kv[TagHackathonID] = filter.HackathonID
	}

	files, err := r.store.List(ctx, pinata.ListFilter{KeyValues: kv, Order: "DESC"})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	newestFirst(files)

	entries, err := fetchAll[domain.Project](ctx, r.store, files, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	limit := limitOrDefault(filter.Limit)
	out := make([]*domain.Project, 0, len(entries))
	for _, e := range entries {
		p := e.record
		if p.ID == "" {
			p.ID = e.file.KeyValues[TagProjectID]
		}
		if !filter.Matches(p) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Get returns the final submission with id
func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	files, err := r.store.List(ctx, pinata.ListFilter{
		KeyValues: map[string]string{TagType: TypeProjectFinal, TagProjectID: id},
		Order:     "DESC",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	newestFirst(files)

	entries, err := fetchAll[domain.Project](ctx, r.store, files, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrProjectNotFound
	}
	return entries[0].record, nil
}
