package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"athena-be/internal/domain"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
)

// HackathonRepository keeps one JSON blob per hackathon version. The
// participant roster lives in the entry's tags so that registrations can
// patch it without re-pinning the body.
type HackathonRepository struct {
	store  BlobStore
	logger *logger.Logger
}

func NewHackathonRepository(store BlobStore, log *logger.Logger) *HackathonRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &HackathonRepository{store: store, logger: log.Named("hackathon_repository")}
}

// List returns every hackathon, newest first
func (r *HackathonRepository) List(ctx context.Context) ([]*domain.Hackathon, error) {
	files, err := r.store.List(ctx, pinata.ListFilter{
		KeyValues: map[string]string{TagType: TypeHackathon},
		Order:     "DESC",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list hackathons: %w", err)
	}

	entries, err := fetchAll[domain.Hackathon](ctx, r.store, files, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hackathons: %w", err)
	}

	latest := make(map[string]fetched[domain.Hackathon], len(entries))
	for _, e := range entries {
		overlayTags(e.record, e.file)
		if e.record.Title == "" {
			continue
		}
		if prev, ok := latest[e.record.ID]; ok && !e.file.CreatedAt.After(prev.file.CreatedAt) {
			continue
		}
		latest[e.record.ID] = e
	}

	out := make([]*domain.Hackathon, 0, len(latest))
	for _, e := range latest {
		out = append(out, e.record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Resolve finds the current entry of id. Untagged entries written before the
// hackathonId tag existed are matched by body id or file id.
func (r *HackathonRepository) Resolve(ctx context.Context, id string) (*domain.Hackathon, error) {
	files, err := r.store.List(ctx, pinata.ListFilter{
		KeyValues: map[string]string{TagType: TypeHackathon, TagHackathonID: id},
		Order:     "DESC",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hackathon %s: %w", id, err)
	}
	newestFirst(files)

	for _, f := range files {
		if f.CID == "" || f.CID == PendingCID || f.KeyValues[TagStale] == "true" {
			continue
		}
		h, err := r.read(ctx, f)
		if errors.Is(err, pinata.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range all {
		if h.ID == id || h.FileID == id {
			return h, nil
		}
	}
	return nil, domain.ErrHackathonNotFound
}

func (r *HackathonRepository) read(ctx context.Context, f pinata.FileInfo) (*domain.Hackathon, error) {
	body, err := r.store.Fetch(ctx, f.CID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hackathon body %s: %w", f.CID, err)
	}
	var h domain.Hackathon
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("failed to decode hackathon %s: %w", f.ID, err)
	}
	overlayTags(&h, f)
	return &h, nil
}

// Create pins h as a new entry
func (r *HackathonRepository) Create(ctx context.Context, h *domain.Hackathon) (*pinata.UploadResult, error) {
	h.Normalize()
	tags, err := hackathonTags(h)
	if err != nil {
		return nil, err
	}
	tags["isUpdate"] = "false"

	res, err := r.store.PutJSON(ctx, h, pinata.Metadata{Name: "hackathon-" + h.ID, KeyValues: tags})
	if err != nil {
		return nil, fmt.Errorf("failed to pin hackathon: %w", err)
	}
	return res, nil
}

// Replace pins h as a new version. The replaced entry is tagged stale; if that
// fails the newer entry still wins on read by creation time.
func (r *HackathonRepository) Replace(ctx context.Context, h *domain.Hackathon, previousFileID string) (*pinata.UploadResult, error) {
	h.Normalize()
	tags, err := hackathonTags(h)
	if err != nil {
		return nil, err
	}
	tags["isUpdate"] = "true"
	tags["updateType"] = "full"
	tags["originalId"] = previousFileID

	res, err := r.store.PutJSON(ctx, h, pinata.Metadata{Name: "hackathon-" + h.ID, KeyValues: tags})
	if err != nil {
		return nil, fmt.Errorf("failed to pin hackathon update: %w", err)
	}

	if previousFileID != "" && previousFileID != res.ID {
		if _, err := r.store.UpdateMetadata(ctx, previousFileID, map[string]string{TagStale: "true"}); err != nil {
			r.logger.WithError(err).WithField("file_id", previousFileID).Warn("Failed to mark replaced hackathon entry stale")
		}
	}
	return res, nil
}

// SaveParticipants writes the roster, count and version of h onto fileID.
// The store stamps updatedAt.
func (r *HackathonRepository) SaveParticipants(ctx context.Context, fileID string, h *domain.Hackathon) (*pinata.UpdateResult, error) {
	h.Normalize()
	tags, err := hackathonTags(h)
	if err != nil {
		return nil, err
	}

	res, err := r.store.UpdateMetadata(ctx, fileID, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to save participants: %w", err)
	}
	return res, nil
}

func hackathonTags(h *domain.Hackathon) (map[string]string, error) {
	participants, err := json.Marshal(h.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participants: %w", err)
	}
	return map[string]string{
		TagType:             TypeHackathon,
		TagHackathonID:      h.ID,
		"title":             h.Title,
		"organizerId":       h.OrganizerID,
		TagParticipants:     string(participants),
		TagParticipantCount: strconv.Itoa(len(h.Participants)),
		TagVersion:          strconv.Itoa(h.Version),
	}, nil
}

// overlayTags applies the mutable tag state of f to the body decoded from it
func overlayTags(h *domain.Hackathon, f pinata.FileInfo) {
	if raw := f.KeyValues[TagParticipants]; raw != "" {
		var list domain.ParticipantList
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			h.Participants = list
		}
	}
	if v, ok := f.KeyValues[TagVersion]; ok {
		h.Version = atoiOrZero(v)
	}
	if v := f.KeyValues[TagUpdatedAt]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			h.UpdatedAt = t
		}
	}
	if h.ID == "" {
		h.ID = f.KeyValues[TagHackathonID]
	}
	if h.ID == "" {
		h.ID = f.ID
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = f.CreatedAt
	}
	h.FileID = f.ID
	h.IPFSHash = f.CID
	h.Normalize()
}
