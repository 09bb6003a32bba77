package service

import (
	"context"
	"fmt"
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

const (
	missingTeamFields = "Missing required fields: name, hackathonId, leaderId"
	inviteCodeLength  = 8
)

// TeamService handles team creation and listing
type TeamService struct {
	store     repository.TeamStore
	validator *validator.Validator
	logger    *logger.Logger
	now       func() time.Time
}

func NewTeamService(store repository.TeamStore, v *validator.Validator, log *logger.Logger) *TeamService {
	if log == nil {
		log = logger.NewNop()
	}
	return &TeamService{
		store:     store,
		validator: v,
		logger:    log.Named("team_service"),
		now:       time.Now,
	}
}

// Create pins a new team with the leader as its first member
func (s *TeamService) Create(ctx context.Context, req domain.CreateTeamRequest) (*domain.Team, *pinata.UploadResult, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.HackathonID) == "" || strings.TrimSpace(req.LeaderID) == "" {
		return nil, nil, apperrors.NewValidationError(missingTeamFields, nil)
	}
	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, nil, invalidRequest(err, missingTeamFields)
	}

	now := s.now().UTC()
	skills := req.Skills
	if skills == nil {
		skills = []string{}
	}
	lookingFor := req.LookingFor
	if lookingFor == nil {
		lookingFor = []string{}
	}
	leaderName := req.LeaderName
	if leaderName == "" {
		leaderName = "Team Leader"
	}
	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = domain.DefaultTeamSize
	}

	t := &domain.Team{
		ID:          ids.NewRecordIDAt("team", now),
		Name:        req.Name,
		Description: req.Description,
		HackathonID: req.HackathonID,
		LeaderID:    req.LeaderID,
		Members: []domain.TeamMember{{
			ID:       fmt.Sprintf("member-%d", now.UnixMilli()),
			UserID:   req.LeaderID,
			Name:     leaderName,
			Role:     "Leader",
			JoinedAt: &now,
			Skills:   skills,
		}},
		InviteCode: ids.InviteCode(inviteCodeLength),
		MaxMembers: maxMembers,
		IsPublic:   req.IsPublic == nil || *req.IsPublic,
		Skills:     skills,
		LookingFor: lookingFor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res, err := s.store.Create(ctx, t)
	if err != nil {
		s.logger.WithError(err).WithField("team_id", t.ID).Error("Failed to store team")
		return nil, nil, apperrors.NewUnavailableError("Failed to store team data on IPFS", err)
	}
	// the stored body carries the working entry CID, clients get the final one
	t.IPFSHash = res.CID

	s.logger.WithFields(map[string]interface{}{
		"team_id":      t.ID,
		"hackathon_id": t.HackathonID,
	}).Info("Team created")
	return t, res, nil
}

// List returns teams matching filter
func (s *TeamService) List(ctx context.Context, filter domain.TeamFilter) ([]*domain.Team, error) {
	teams, err := s.store.List(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list teams")
		return nil, apperrors.NewInternalError("Failed to fetch teams", err)
	}
	return teams, nil
}
