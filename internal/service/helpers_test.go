package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"athena-be/internal/domain"
	"athena-be/internal/repository"
	"athena-be/internal/testutil"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

type recordedEvent struct {
	key     string
	payload interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{key: key, payload: payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

func seedHackathon(t *testing.T, repo *repository.HackathonRepository, mutate func(h *domain.Hackathon)) *domain.Hackathon {
	t.Helper()
	h := &domain.Hackathon{
		ID:                   "hackathon-1",
		Title:                "Athena",
		Description:          "Build things",
		StartDate:            "2025-03-15T09:00:00Z",
		EndDate:              "2025-03-17T18:00:00Z",
		RegistrationDeadline: "2025-03-14T23:59:59Z",
		OrganizerID:          "org-1",
		Prizes:               []domain.Prize{{ID: "prize-0", Title: "First"}},
	}
	if mutate != nil {
		mutate(h)
	}
	res, err := repo.Create(context.Background(), h)
	require.NoError(t, err)
	h.FileID = res.ID
	return h
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.StatusCode)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}

func newFakeStore() *testutil.FakeStore {
	return testutil.NewFakeStore()
}
