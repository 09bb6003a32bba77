package repository

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"athena-be/internal/domain"
	"athena-be/pkg/pinata"
)

// BlobStore is the pinning service as seen by the repositories. Entries are
// immutable JSON blobs with mutable string tags; UpdateMetadata merges tags
// and has no compare-and-swap.
type BlobStore interface {
	// List returns entries whose tags match the filter
	List(ctx context.Context, filter pinata.ListFilter) ([]pinata.FileInfo, error)

	// Fetch returns the JSON body stored under cid
	Fetch(ctx context.Context, cid string) (json.RawMessage, error)

	// PutJSON pins value as a new entry
	PutJSON(ctx context.Context, value interface{}, meta pinata.Metadata) (*pinata.UploadResult, error)

	// PutFile pins raw bytes as a new entry
	PutFile(ctx context.Context, name, contentType string, r io.Reader, meta pinata.Metadata) (*pinata.UploadResult, error)

	// UpdateMetadata merges kv into the tags of an existing entry
	UpdateMetadata(ctx context.Context, fileID string, kv map[string]string) (*pinata.UpdateResult, error)

	// SignedUploadURL returns a pre-authorized direct upload URL
	SignedUploadURL(ctx context.Context, expires time.Duration) (string, error)
}

// HackathonStore persists hackathon records
type HackathonStore interface {
	// List returns one record per hackathon id, the most recently pinned one
	List(ctx context.Context) ([]*domain.Hackathon, error)

	// Resolve reads the current entry of id straight from the store
	Resolve(ctx context.Context, id string) (*domain.Hackathon, error)

	// Create pins a new record
	Create(ctx context.Context, h *domain.Hackathon) (*pinata.UploadResult, error)

	// Replace pins a new version of h and marks the entry it replaces stale
	Replace(ctx context.Context, h *domain.Hackathon, previousFileID string) (*pinata.UploadResult, error)

	// SaveParticipants patches participants, count and version onto fileID
	SaveParticipants(ctx context.Context, fileID string, h *domain.Hackathon) (*pinata.UpdateResult, error)
}

// ProjectStore persists project submissions
type ProjectStore interface {
	Create(ctx context.Context, p *domain.Project) (*pinata.UploadResult, error)
	List(ctx context.Context, filter domain.ProjectFilter) ([]*domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
}

// TeamStore persists teams
type TeamStore interface {
	Create(ctx context.Context, t *domain.Team) (*pinata.UploadResult, error)
	List(ctx context.Context, filter domain.TeamFilter) ([]*domain.Team, error)
}

// ScoreStore persists judge scores
type ScoreStore interface {
	Create(ctx context.Context, s *domain.Score) (*pinata.UploadResult, error)
}

// RegistrationLedger is a transactional record of registrations. Reserve is
// a conditional write: it fails with domain.ErrAlreadyRegistered or
// domain.ErrHackathonFull instead of exceeding the invariants.
type RegistrationLedger interface {
	Reserve(ctx context.Context, hackathonID string, p domain.Participant, maxParticipants int) error
	Release(ctx context.Context, hackathonID, userID string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Hackathons HackathonStore
	Projects   ProjectStore
	Teams      TeamStore
	Scores     ScoreStore
	// Ledger is nil when no database is configured
	Ledger RegistrationLedger
}
