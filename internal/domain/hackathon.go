package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"athena-be/pkg/validator"
)

// Status is derived from the current time against start and end dates
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
)

// Registration precondition failures. Messages are returned to clients as is.
var (
	ErrHackathonNotFound  = errors.New("Hackathon not found")
	ErrAlreadyRegistered  = errors.New("User is already registered for this hackathon")
	ErrRegistrationClosed = errors.New("Hackathon has ended. Registration is closed.")
	ErrDeadlinePassed     = errors.New("Registration deadline has passed.")
	ErrHackathonFull      = errors.New("Hackathon is full. Maximum participants reached.")
)

// Hackathon is the canonical hackathon record stored as one JSON blob.
// Participants, ParticipantCount and Version are overlaid from the store
// entry's tags on read, since registrations patch tags rather than re-pin.
type Hackathon struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Image                string          `json:"image"`
	StartDate            string          `json:"startDate"`
	EndDate              string          `json:"endDate"`
	RegistrationDeadline string          `json:"registrationDeadline"`
	Status               Status          `json:"status"`
	Participants         ParticipantList `json:"participants"`
	ParticipantCount     int             `json:"participantCount"`
	MaxParticipants      int             `json:"maxParticipants,omitempty"`
	Prizes               []Prize         `json:"prizes"`
	Judges               []Judge         `json:"judges"`
	Tracks               []Track         `json:"tracks"`
	Requirements         []string        `json:"requirements"`
	Rules                []string        `json:"rules"`
	OrganizerID          string          `json:"organizerId"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
	IPFSHash             string          `json:"ipfsHash"`
	FileID               string          `json:"fileId,omitempty"`
	Version              int             `json:"version"`
}

// Participant is one registered user
type Participant struct {
	ID           string    `json:"id,omitempty"`
	UserID       string    `json:"userId"`
	UserEmail    string    `json:"userEmail"`
	UserName     string    `json:"userName"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ParticipantList decodes both the participant array and the bare count
// written by older records (which carries no identities and reads as empty).
type ParticipantList []Participant

func (p *ParticipantList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] != '[' {
		*p = ParticipantList{}
		return nil
	}
	var list []Participant
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*p = list
	return nil
}

// Prize awarded to a placing
type Prize struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Position    int     `json:"position"`
}

// Judge scoring submissions
type Judge struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Company     string      `json:"company"`
	Avatar      string      `json:"avatar"`
	Bio         string      `json:"bio"`
	SocialLinks SocialLinks `json:"socialLinks"`
}

type SocialLinks struct {
	Twitter  string `json:"twitter"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// Track is a themed category with its own judging criteria
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Criteria    []string `json:"criteria"`
}

// ParseTimestamp parses a user supplied date in any layout the request
// validator accepts. Zone-less values are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range validator.TimestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// StatusAt derives the lifecycle status at now. Unparseable dates keep the stored status.
func (h *Hackathon) StatusAt(now time.Time) Status {
	start, errStart := ParseTimestamp(h.StartDate)
	end, errEnd := ParseTimestamp(h.EndDate)
	if errStart != nil || errEnd != nil {
		if h.Status == "" {
			return StatusUpcoming
		}
		return h.Status
	}
	switch {
	case now.After(end):
		return StatusEnded
	case !now.Before(start):
		return StatusActive
	default:
		return StatusUpcoming
	}
}

// IsRegistered reports whether userID matches a participant's userId or id
func (h *Hackathon) IsRegistered(userID string) bool {
	for _, p := range h.Participants {
		if p.UserID == userID || (p.ID != "" && p.ID == userID) {
			return true
		}
	}
	return false
}

// CanRegister checks the registration preconditions in order: duplicate,
// ended, deadline, capacity. Missing or unparseable dates skip their check.
func (h *Hackathon) CanRegister(now time.Time, userID string) error {
	if h.IsRegistered(userID) {
		return ErrAlreadyRegistered
	}
	if end, err := ParseTimestamp(h.EndDate); err == nil && now.After(end) {
		return ErrRegistrationClosed
	}
	if h.RegistrationDeadline != "" {
		if deadline, err := ParseTimestamp(h.RegistrationDeadline); err == nil && now.After(deadline) {
			return ErrDeadlinePassed
		}
	}
	if h.MaxParticipants > 0 && len(h.Participants) >= h.MaxParticipants {
		return ErrHackathonFull
	}
	return nil
}

// Normalize fills empty collections so they encode as [] and syncs the count
func (h *Hackathon) Normalize() {
	if h.Participants == nil {
		h.Participants = ParticipantList{}
	}
	if h.Prizes == nil {
		h.Prizes = []Prize{}
	}
	if h.Judges == nil {
		h.Judges = []Judge{}
	}
	if h.Tracks == nil {
		h.Tracks = []Track{}
	}
	if h.Requirements == nil {
		h.Requirements = []string{}
	}
	if h.Rules == nil {
		h.Rules = []string{}
	}
	h.ParticipantCount = len(h.Participants)
}

// HackathonInput is the body of create and update requests
type HackathonInput struct {
	Title                string   `json:"title" validate:"required,max=200"`
	Description          string   `json:"description" validate:"required"`
	Image                string   `json:"image"`
	StartDate            string   `json:"startDate" validate:"required,timestamp"`
	EndDate              string   `json:"endDate" validate:"required,timestamp"`
	RegistrationDeadline string   `json:"registrationDeadline" validate:"required,timestamp"`
	MaxParticipants      int      `json:"maxParticipants" validate:"gte=0"`
	Prizes               []Prize  `json:"prizes"`
	Judges               []Judge  `json:"judges"`
	Tracks               []Track  `json:"tracks"`
	Requirements         []string `json:"requirements"`
	Rules                []string `json:"rules"`
	OrganizerID          string   `json:"organizerId" validate:"required"`
}

// HackathonFilter narrows the listing
type HackathonFilter struct {
	Status Status
	Query  string
}

// Matches reports whether h passes the filter at now
func (f HackathonFilter) Matches(h *Hackathon, now time.Time) bool {
	if f.Status != "" && h.StatusAt(now) != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(h.Title), q) ||
			strings.Contains(strings.ToLower(h.Description), q)
	}
	return true
}

// RegisterRequest is the body of a registration
type RegisterRequest struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail" validate:"omitempty,email"`
	UserName  string `json:"userName"`
}

// CheckRegistrationRequest is the body of a registration check
type CheckRegistrationRequest struct {
	UserID string `json:"userId"`
}

// RegistrationStatus answers a registration check
type RegistrationStatus struct {
	IsRegistered     bool   `json:"isRegistered"`
	HackathonID      string `json:"hackathonId"`
	UserID           string `json:"userId"`
	ParticipantCount int    `json:"participantCount"`
}

// ParticipantRegisteredEvent is published after a successful registration
type ParticipantRegisteredEvent struct {
	HackathonID      string    `json:"hackathonId"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName"`
	ParticipantCount int       `json:"participantCount"`
	Version          int       `json:"version"`
	RegisteredAt     time.Time `json:"registeredAt"`
}
