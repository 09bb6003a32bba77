// Package testutil holds in-memory doubles for the pinning service and the
// registration ledger, used by repository, service and handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"athena-be/pkg/pinata"
)

// FakeStore is an in-memory pinning service. It has the real store's merge
// semantics for tags and no compare-and-swap.
type FakeStore struct {
	mu      sync.Mutex
	files   map[string]*storedFile
	seq     int
	clock   time.Time
	gateway string

	// Hooks may be set before use. A non-nil error fails the call.
	PutErr    func(meta pinata.Metadata) error
	UpdateErr func(fileID string, call int) error
	ListErr   func(filter pinata.ListFilter) error
	FetchErr  func(cid string) error
	// UpdateDelay widens the window between reading and writing tags
	UpdateDelay time.Duration

	Puts    int
	Updates int
	Lists   int
	Fetches int
}

type storedFile struct {
	info pinata.FileInfo
	body []byte
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		files:   make(map[string]*storedFile),
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		gateway: "https://gateway.test",
	}
}

// Seed stores value directly, bypassing hooks and counters
func (s *FakeStore) Seed(value interface{}, meta pinata.Metadata) pinata.FileInfo {
	body, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(body, "application/json", meta)
}

func (s *FakeStore) add(body []byte, mime string, meta pinata.Metadata) pinata.FileInfo {
	s.seq++
	s.clock = s.clock.Add(time.Second)
	kv := make(map[string]string, len(meta.KeyValues))
	for k, v := range meta.KeyValues {
		kv[k] = v
	}
	if kv["type"] == "" {
		kv["type"] = "json"
	}
	cid := fmt.Sprintf("bafy%04d", s.seq)
	info := pinata.FileInfo{
		ID:        fmt.Sprintf("file-%04d", s.seq),
		CID:       cid,
		Name:      meta.Name,
		Size:      int64(len(body)),
		MimeType:  mime,
		KeyValues: kv,
		CreatedAt: s.clock,
		URL:       pinata.GatewayURL(s.gateway, cid),
	}
	s.files[info.ID] = &storedFile{info: info, body: body}
	return info
}

func (s *FakeStore) List(ctx context.Context, filter pinata.ListFilter) ([]pinata.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lists++
	if s.ListErr != nil {
		if err := s.ListErr(filter); err != nil {
			return nil, err
		}
	}

	out := make([]pinata.FileInfo, 0)
	for _, f := range s.files {
		if matches(f.info.KeyValues, filter.KeyValues) {
			out = append(out, cloneInfo(f.info))
		}
	}
	asc := strings.EqualFold(filter.Order, "ASC")
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *FakeStore) Fetch(ctx context.Context, cid string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetches++
	if s.FetchErr != nil {
		if err := s.FetchErr(cid); err != nil {
			return nil, err
		}
	}
	for _, f := range s.files {
		if f.info.CID == cid {
			return append(json.RawMessage(nil), f.body...), nil
		}
	}
	return nil, pinata.ErrNotFound
}

func (s *FakeStore) PutJSON(ctx context.Context, value interface{}, meta pinata.Metadata) (*pinata.UploadResult, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, body, "application/json", meta)
}

func (s *FakeStore) PutFile(ctx context.Context, name, contentType string, r io.Reader, meta pinata.Metadata) (*pinata.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	if meta.Name == "" {
		meta.Name = name
	}
	if meta.KeyValues == nil {
		meta.KeyValues = map[string]string{}
	}
	if meta.KeyValues["type"] == "" {
		meta.KeyValues["type"] = "file"
	}
	return s.put(ctx, buf.Bytes(), contentType, meta)
}

func (s *FakeStore) put(ctx context.Context, body []byte, mime string, meta pinata.Metadata) (*pinata.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts++
	if s.PutErr != nil {
		if err := s.PutErr(meta); err != nil {
			return nil, err
		}
	}
	info := s.add(body, mime, meta)
	return &pinata.UploadResult{
		ID:        info.ID,
		CID:       info.CID,
		Name:      info.Name,
		Size:      info.Size,
		MimeType:  info.MimeType,
		CreatedAt: info.CreatedAt,
		URL:       info.URL,
	}, nil
}

func (s *FakeStore) UpdateMetadata(ctx context.Context, fileID string, kv map[string]string) (*pinata.UpdateResult, error) {
	if s.UpdateDelay > 0 {
		select {
		case <-time.After(s.UpdateDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates++
	if s.UpdateErr != nil {
		if err := s.UpdateErr(fileID, s.Updates); err != nil {
			return nil, err
		}
	}
	f, ok := s.files[fileID]
	if !ok {
		return nil, pinata.ErrNotFound
	}
	for k, v := range kv {
		if v == "" {
			continue
		}
		f.info.KeyValues[k] = v
	}
	f.info.KeyValues["updatedAt"] = s.clock.Add(time.Millisecond).Format(time.RFC3339Nano)
	return &pinata.UpdateResult{ID: f.info.ID, CID: f.info.CID, URL: f.info.URL}, nil
}

func (s *FakeStore) SignedUploadURL(ctx context.Context, expires time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://uploads.test/signed?expires=%d", int(expires.Seconds())), nil
}

// File returns a copy of the stored entry with id
func (s *FakeStore) File(id string) (pinata.FileInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return pinata.FileInfo{}, false
	}
	return cloneInfo(f.info), true
}

// Body returns the stored body of the entry with id
func (s *FakeStore) Body(id string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[id]; ok {
		return append([]byte(nil), f.body...)
	}
	return nil
}

// Count returns how many entries carry the given type tag
func (s *FakeStore) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.files {
		if f.info.KeyValues["type"] == kind {
			n++
		}
	}
	return n
}

func matches(kv, want map[string]string) bool {
	for k, v := range want {
		if kv[k] != v {
			return false
		}
	}
	return true
}

func cloneInfo(info pinata.FileInfo) pinata.FileInfo {
	kv := make(map[string]string, len(info.KeyValues))
	for k, v := range info.KeyValues {
		kv[k] = v
	}
	info.KeyValues = kv
	return info
}
