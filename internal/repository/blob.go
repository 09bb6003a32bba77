package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"

	"golang.org/x/sync/errgroup"
)

// Tag keys written to store entries
const (
	TagType             = "type"
	TagHackathonID      = "hackathonId"
	TagProjectID        = "projectId"
	TagTeamID           = "teamId"
	TagScoreID          = "scoreId"
	TagParticipants     = "participants"
	TagParticipantCount = "participantCount"
	TagVersion          = "version"
	TagStale            = "stale"
	TagUpdatedAt        = "updatedAt"
	TagIPFSHash         = "ipfsHash"
)

// Entry types
const (
	TypeHackathon          = "hackathon"
	TypeProject            = "project"
	TypeProjectFinal       = "project-final"
	TypeTeam               = "team"
	TypeTeamFinal          = "team-final"
	TypeScoreDraft         = "score-draft"
	TypeScoreFinal         = "score-final"
	TypeScoreFinalWithHash = "score-final-with-hash"
)

// PendingCID marks an entry whose upload never completed
const PendingCID = "pending"

const fetchConcurrency = 8

// DefaultListLimit applies to project and team listings
const DefaultListLimit = 50

// fetched pairs a decoded body with the entry it came from
type fetched[T any] struct {
	file   pinata.FileInfo
	record *T
}

// fetchAll fetches and decodes entry bodies concurrently. Entries that cannot
// be read or decoded are logged and skipped; results keep the input order.
func fetchAll[T any](ctx context.Context, store BlobStore, files []pinata.FileInfo, log *logger.Logger) ([]fetched[T], error) {
	results := make([]*T, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, f := range files {
		if f.CID == "" || f.CID == PendingCID || f.KeyValues[TagStale] == "true" {
			continue
		}
		i, f := i, f
		g.Go(func() error {
			body, err := store.Fetch(gctx, f.CID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WithError(err).Warn(fmt.Sprintf("Skipping unreadable entry %s", f.ID))
				return nil
			}
			var rec T
			if err := json.Unmarshal(body, &rec); err != nil {
				log.WithError(err).Warn(fmt.Sprintf("Skipping undecodable entry %s", f.ID))
				return nil
			}
			results[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]fetched[T], 0, len(files))
	for i, rec := range results {
		if rec != nil {
			out = append(out, fetched[T]{file: files[i], record: rec})
		}
	}
	return out, nil
}

// pinWithHash pins rec under first, stamps the resulting CID through setHash
// and pins it again under final. The second entry is the one listings read.
func pinWithHash(ctx context.Context, store BlobStore, rec interface{}, setHash func(cid string), first, final pinata.Metadata) (*pinata.UploadResult, *pinata.UploadResult, error) {
	draft, err := store.PutJSON(ctx, rec, first)
	if err != nil {
		return nil, nil, err
	}
	setHash(draft.CID)

	done, err := store.PutJSON(ctx, rec, final)
	if err != nil {
		return draft, nil, err
	}
	return draft, done, nil
}

// copyTags returns a copy of kv with extra merged over it
func copyTags(kv map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(kv)+len(extra))
	for k, v := range kv {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// newestFirst sorts entries by creation time, newest first
func newestFirst(files []pinata.FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
