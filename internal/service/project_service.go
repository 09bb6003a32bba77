package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"athena-be/internal/domain"
	"athena-be/internal/repository"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/ids"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
	"athena-be/pkg/validator"
)

const missingProjectFields = "Missing required fields: title, description, hackathonId, trackId, submittedBy"

// ProjectService handles project submissions
type ProjectService struct {
	store     repository.ProjectStore
	validator *validator.Validator
	logger    *logger.Logger
	now       func() time.Time
}

func NewProjectService(store repository.ProjectStore, v *validator.Validator, log *logger.Logger) *ProjectService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ProjectService{
		store:     store,
		validator: v,
		logger:    log.Named("project_service"),
		now:       time.Now,
	}
}

// Create validates req and pins the submission
func (s *ProjectService) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, *pinata.UploadResult, error) {
	for _, v := range []string{req.Title, req.Description, req.HackathonID, req.TrackID, req.SubmittedBy} {
		if strings.TrimSpace(v) == "" {
			return nil, nil, apperrors.NewValidationError(missingProjectFields, nil)
		}
	}
	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, nil, invalidRequest(err, missingProjectFields)
	}

	now := s.now().UTC()
	p := &domain.Project{
		ID:            ids.NewRecordIDAt("project", now),
		Title:         req.Title,
		Description:   req.Description,
		Team:          []domain.TeamMember{},
		HackathonID:   req.HackathonID,
		TrackID:       req.TrackID,
		TeamID:        req.TeamID,
		RepositoryURL: req.RepositoryURL,
		DemoURL:       req.DemoURL,
		VideoURL:      req.VideoURL,
		Technologies:  req.Technologies,
		Challenges:    req.Challenges,
		Achievements:  req.Achievements,
		FutureWork:    req.FutureWork,
		Files:         req.Files,
		SubmittedBy:   req.SubmittedBy,
		TeamInfo:      req.Team,
		SubmittedAt:   now,
	}
	if req.Team != nil {
		if req.Team.Members != nil {
			p.Team = req.Team.Members
		}
		if p.TeamID == "" {
			p.TeamID = req.Team.ID
		}
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	if p.Files == nil {
		p.Files = []json.RawMessage{}
	}

	res, err := s.store.Create(ctx, p)
	if err != nil {
		s.logger.WithError(err).WithField("project_id", p.ID).Error("Failed to store project")
		return nil, nil, apperrors.NewUnavailableError("Failed to store project data on IPFS", err)
	}
	// the stored body carries the working entry CID, clients get the final one
	p.IPFSHash = res.CID

	s.logger.WithFields(map[string]interface{}{
		"project_id":   p.ID,
		"hackathon_id": p.HackathonID,
		"cid":          res.CID,
	}).Info("Project submitted")
	return p, res, nil
}

// List returns final submissions matching filter
func (s *ProjectService) List(ctx context.Context, filter domain.ProjectFilter) ([]*domain.Project, error) {
	projects, err := s.store.List(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list projects")
		return nil, apperrors.NewInternalError("Failed to fetch projects", err)
	}
	return projects, nil
}

// ListByHackathon returns the final submissions of hackathonID
func (s *ProjectService) ListByHackathon(ctx context.Context, hackathonID string) ([]*domain.Project, error) {
	projects, err := s.store.List(ctx, domain.ProjectFilter{HackathonID: hackathonID})
	if err != nil {
		s.logger.WithError(err).WithField("hackathon_id", hackathonID).Error("Failed to list hackathon projects")
		return nil, apperrors.NewInternalError("Failed to fetch hackathon projects", err)
	}
	return projects, nil
}

// Get returns one final submission
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperrors.NewNotFoundError("Project not found")
		}
		s.logger.WithError(err).WithField("project_id", id).Error("Failed to fetch project")
		return nil, apperrors.NewInternalError("Failed to fetch project", err)
	}
	return p, nil
}
