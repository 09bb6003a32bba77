package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"athena-be/internal/domain"
	"athena-be/internal/repository"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/events"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
	"athena-be/pkg/retry"
	"athena-be/pkg/validator"
)

// RegistrationConfig bounds one registration
type RegistrationConfig struct {
	Policy retry.Policy
	// Timeout bounds the whole registration including lock wait
	Timeout time.Duration
	// LockTimeout bounds the wait for the per-hackathon lock
	LockTimeout time.Duration
}

// RegistrationResult is a committed registration
type RegistrationResult struct {
	Hackathon *domain.Hackathon
	FileID    string
	Attempts  int
}

// RegistrationCoordinator appends participants to a hackathon entry with a
// read-modify-write over its tags. The store has no compare-and-swap, so each
// write happens under a per-hackathon lock and every attempt re-reads and
// re-validates the current entry. The optional ledger adds a transactional
// check of the duplicate and capacity rules.
type RegistrationCoordinator struct {
	hackathons repository.HackathonStore
	ledger     repository.RegistrationLedger
	locker     Locker
	cache      *CacheService
	events     events.Publisher
	validator  *validator.Validator
	cfg        RegistrationConfig
	logger     *logger.Logger
	now        func() time.Time
}

func NewRegistrationCoordinator(
	hackathons repository.HackathonStore,
	ledger repository.RegistrationLedger,
	locker Locker,
	cache *CacheService,
	publisher events.Publisher,
	v *validator.Validator,
	cfg RegistrationConfig,
	log *logger.Logger,
) *RegistrationCoordinator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Policy.MaxAttempts < 1 {
		cfg.Policy = retry.LinearPolicy(3, time.Second)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 10 * time.Second
	}
	return &RegistrationCoordinator{
		hackathons: hackathons,
		ledger:     ledger,
		locker:     locker,
		cache:      cache,
		events:     publisher,
		validator:  v,
		cfg:        cfg,
		logger:     log.Named("registration"),
		now:        time.Now,
	}
}

// Register adds the requesting user to hackathonID
func (c *RegistrationCoordinator) Register(ctx context.Context, hackathonID string, req domain.RegisterRequest) (*RegistrationResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, apperrors.NewValidationError("User ID is required", nil)
	}
	if err := c.validator.Struct(ctx, req); err != nil {
		return nil, invalidRequest(err, "")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	log := c.logger.WithFields(map[string]interface{}{
		"hackathon_id": hackathonID,
		"user_id":      userID,
	})

	lockCtx, lockCancel := context.WithTimeout(ctx, c.cfg.LockTimeout)
	release, err := c.locker.Acquire(lockCtx, hackathonID)
	lockCancel()
	if err != nil {
		log.WithError(err).Warn("Failed to acquire registration lock")
		return nil, apperrors.NewUnavailableError("Registration is busy, please try again", err)
	}
	defer release()

	userName := req.UserName
	if userName == "" {
		userName = userID
	}
	participant := domain.Participant{
		UserID:       userID,
		UserEmail:    req.UserEmail,
		UserName:     userName,
		RegisteredAt: c.now().UTC(),
	}

	var (
		reserved bool
		result   *domain.Hackathon
		fileID   string
	)

	policy := c.cfg.Policy
	policy.Notify = func(attempt int, err error, wait time.Duration) {
		log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("Registration attempt failed, retrying")
	}

	attempts, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		current, err := c.hackathons.Resolve(ctx, hackathonID)
		if err != nil {
			return classify(err)
		}

		if err := current.CanRegister(c.now(), userID); err != nil {
			return retry.Permanent(err)
		}

		if c.ledger != nil && !reserved {
			if err := c.ledger.Reserve(ctx, hackathonID, participant, current.MaxParticipants); err != nil {
				return classify(err)
			}
			reserved = true
		}

		next := *current
		next.Participants = make(domain.ParticipantList, 0, len(current.Participants)+1)
		next.Participants = append(next.Participants, current.Participants...)
		next.Participants = append(next.Participants, participant)
		next.ParticipantCount = len(next.Participants)
		next.Version = current.Version + 1
		next.UpdatedAt = c.now().UTC()

		res, err := c.hackathons.SaveParticipants(ctx, current.FileID, &next)
		if err != nil {
			return classify(err)
		}

		result = &next
		fileID = current.FileID
		if res != nil && res.ID != "" {
			fileID = res.ID
		}
		return nil
	})

	if err != nil {
		if reserved {
			c.release(hackathonID, userID, log)
		}
		return nil, c.registrationError(err, attempts, log)
	}

	c.cache.InvalidateHackathons(ctx)

	event := domain.ParticipantRegisteredEvent{
		HackathonID:      hackathonID,
		UserID:           userID,
		UserName:         userName,
		ParticipantCount: len(result.Participants),
		Version:          result.Version,
		RegisteredAt:     participant.RegisteredAt,
	}
	if err := c.events.Publish(ctx, events.ParticipantRegistered, event); err != nil {
		log.WithError(err).Warn("Failed to publish registration event")
	}

	log.WithFields(map[string]interface{}{
		"attempts":          attempts,
		"participant_count": len(result.Participants),
		"version":           result.Version,
	}).Info("Participant registered")

	result.Status = result.StatusAt(c.now())
	return &RegistrationResult{Hackathon: result, FileID: fileID, Attempts: attempts}, nil
}

// classify marks errors that another attempt cannot fix as permanent
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrHackathonNotFound),
		errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrHackathonFull),
		!pinata.Retryable(err):
		return retry.Permanent(err)
	}
	return err
}

func (c *RegistrationCoordinator) registrationError(err error, attempts int, log *logger.Logger) error {
	switch {
	case errors.Is(err, domain.ErrHackathonNotFound):
		return apperrors.NewNotFoundError(domain.ErrHackathonNotFound.Error())
	case errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrRegistrationClosed),
		errors.Is(err, domain.ErrDeadlinePassed),
		errors.Is(err, domain.ErrHackathonFull):
		return apperrors.NewConflictError(rootMessage(err), err)
	}
	log.WithError(err).WithField("attempts", attempts).Error("Failed to save registration")
	return apperrors.NewInternalError("Failed to save registration to IPFS", err)
}

// rootMessage returns the message of the domain sentinel in err's chain
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrAlreadyRegistered,
		domain.ErrRegistrationClosed,
		domain.ErrDeadlinePassed,
		domain.ErrHackathonFull,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func (c *RegistrationCoordinator) release(hackathonID, userID string, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.ledger.Release(ctx, hackathonID, userID); err != nil {
		log.WithError(err).Error("Failed to release ledger reservation")
	}
}
