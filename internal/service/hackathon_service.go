package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"athena-be/internal/domain"
	"athena-be/internal/repository"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/events"
	"athena-be/pkg/ids"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
	"athena-be/pkg/validator"
)

// HackathonService handles hackathon listing, creation and updates
type HackathonService struct {
	store     repository.HackathonStore
	cache     *CacheService
	events    events.Publisher
	validator *validator.Validator
	logger    *logger.Logger
	now       func() time.Time
}

func NewHackathonService(store repository.HackathonStore, cache *CacheService, publisher events.Publisher, v *validator.Validator, log *logger.Logger) *HackathonService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &HackathonService{
		store:     store,
		cache:     cache,
		events:    publisher,
		validator: v,
		logger:    log.Named("hackathon_service"),
		now:       time.Now,
	}
}

// List returns hackathons matching filter with their status derived at call time
func (s *HackathonService) List(ctx context.Context, filter domain.HackathonFilter) ([]*domain.Hackathon, error) {
	all, err := s.cache.GetHackathonsWithCache(ctx, s.store.List)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list hackathons")
		return nil, apperrors.NewInternalError("Failed to fetch hackathons", err)
	}

	now := s.now()
	out := make([]*domain.Hackathon, 0, len(all))
	for _, h := range all {
		h.Status = h.StatusAt(now)
		if filter.Matches(h, now) {
			out = append(out, h)
		}
	}
	return out, nil
}

// Get returns the current record of id
func (s *HackathonService) Get(ctx context.Context, id string) (*domain.Hackathon, error) {
	h, err := s.store.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrHackathonNotFound) {
			return nil, apperrors.NewNotFoundError(domain.ErrHackathonNotFound.Error())
		}
		s.logger.WithError(err).WithField("hackathon_id", id).Error("Failed to fetch hackathon")
		return nil, apperrors.NewInternalError("Failed to fetch hackathon", err)
	}
	h.Status = h.StatusAt(s.now())
	return h, nil
}

// Create validates in and pins a new hackathon
func (s *HackathonService) Create(ctx context.Context, in domain.HackathonInput) (*domain.Hackathon, *pinata.UploadResult, error) {
	if err := s.check(ctx, in); err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	h := s.build(ids.NewRecordIDAt("hackathon", now), in, now)
	h.CreatedAt = now

	res, err := s.store.Create(ctx, h)
	if err != nil {
		s.logger.WithError(err).WithField("hackathon_id", h.ID).Error("Failed to store hackathon")
		return nil, nil, apperrors.NewUnavailableError("Failed to store hackathon data on IPFS", err)
	}
	h.IPFSHash = res.CID
	h.FileID = res.ID

	s.cache.InvalidateHackathons(ctx)
	s.publish(ctx, events.HackathonCreated, h)

	s.logger.WithFields(map[string]interface{}{
		"hackathon_id": h.ID,
		"cid":          res.CID,
	}).Info("Hackathon created")
	return h, res, nil
}

// Update pins a new version of id carrying over its participants
func (s *HackathonService) Update(ctx context.Context, id string, in domain.HackathonInput) (*domain.Hackathon, *pinata.UploadResult, error) {
	if err := s.check(ctx, in); err != nil {
		return nil, nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	h := s.build(current.ID, in, now)
	h.Participants = current.Participants
	h.CreatedAt = current.CreatedAt
	h.Version = current.Version + 1

	res, err := s.store.Replace(ctx, h, current.FileID)
	if err != nil {
		s.logger.WithError(err).WithField("hackathon_id", id).Error("Failed to store hackathon update")
		return nil, nil, apperrors.NewUnavailableError("Failed to store hackathon data on IPFS", err)
	}
	h.IPFSHash = res.CID
	h.FileID = res.ID

	s.cache.InvalidateHackathons(ctx)
	return h, res, nil
}

// CheckRegistration reports whether userID is registered for id
func (s *HackathonService) CheckRegistration(ctx context.Context, id, userID string) (*domain.RegistrationStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewValidationError("User ID is required", nil)
	}

	h, err := s.store.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrHackathonNotFound) {
			return nil, apperrors.NewNotFoundError(domain.ErrHackathonNotFound.Error())
		}
		s.logger.WithError(err).WithField("hackathon_id", id).Error("Failed to check registration")
		return nil, apperrors.NewInternalError("Failed to check registration", err)
	}

	return &domain.RegistrationStatus{
		IsRegistered:     h.IsRegistered(userID),
		HackathonID:      id,
		UserID:           userID,
		ParticipantCount: len(h.Participants),
	}, nil
}

// check runs the field and cross-field rules shared by create and update
func (s *HackathonService) check(ctx context.Context, in domain.HackathonInput) error {
	if err := s.validator.Struct(ctx, in); err != nil {
		return invalidRequest(err, "Missing required fields")
	}

	start, _ := domain.ParseTimestamp(in.StartDate)
	end, _ := domain.ParseTimestamp(in.EndDate)
	deadline, _ := domain.ParseTimestamp(in.RegistrationDeadline)

	if !start.Before(end) {
		return apperrors.NewValidationError("End date must be after start date", nil)
	}
	if !deadline.Before(start) {
		return apperrors.NewValidationError("Registration deadline must be before start date", nil)
	}
	if len(in.Prizes) == 0 {
		return apperrors.NewValidationError("At least one prize is required", nil)
	}
	return nil
}

func (s *HackathonService) build(id string, in domain.HackathonInput, now time.Time) *domain.Hackathon {
	h := &domain.Hackathon{
		ID:                   id,
		Title:                in.Title,
		Description:          in.Description,
		Image:                in.Image,
		StartDate:            in.StartDate,
		EndDate:              in.EndDate,
		RegistrationDeadline: in.RegistrationDeadline,
		MaxParticipants:      in.MaxParticipants,
		Requirements:         in.Requirements,
		Rules:                in.Rules,
		OrganizerID:          in.OrganizerID,
		UpdatedAt:            now,
	}

	h.Prizes = make([]domain.Prize, len(in.Prizes))
	for i, p := range in.Prizes {
		if p.ID == "" {
			p.ID = fmt.Sprintf("prize-%d", i)
		}
		h.Prizes[i] = p
	}
	h.Judges = make([]domain.Judge, len(in.Judges))
	for i, j := range in.Judges {
		if j.ID == "" {
			j.ID = fmt.Sprintf("judge-%d", i)
		}
		h.Judges[i] = j
	}
	h.Tracks = make([]domain.Track, len(in.Tracks))
	for i, t := range in.Tracks {
		if t.ID == "" {
			t.ID = fmt.Sprintf("track-%d", i)
		}
		if t.Criteria == nil {
			t.Criteria = []string{}
		}
		h.Tracks[i] = t
	}

	h.Status = h.StatusAt(now)
	h.Normalize()
	return h
}

func (s *HackathonService) publish(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		s.logger.WithError(err).WithField("routing_key", routingKey).Warn("Failed to publish event")
	}
}
