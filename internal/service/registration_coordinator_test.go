package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"athena-be/internal/domain"
	"athena-be/internal/repository"
	"athena-be/internal/testutil"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/events"
	"athena-be/pkg/mutex"
	"athena-be/pkg/pinata"
	"athena-be/pkg/retry"
	"athena-be/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registrationFixture struct {
	store     *testutil.FakeStore
	repo      *repository.HackathonRepository
	publisher *recordingPublisher
	coord     *RegistrationCoordinator
}

func newRegistrationFixture(t *testing.T, ledger repository.RegistrationLedger, mutate func(h *domain.Hackathon)) *registrationFixture {
	t.Helper()
	store := newFakeStore()
	repo := repository.NewHackathonRepository(store, nil)
	seedHackathon(t, repo, mutate)

	pub := &recordingPublisher{}
	coord := NewRegistrationCoordinator(
		repo,
		ledger,
		mutex.NewKeyedMutex(),
		NewCacheService(nil, nil, 0),
		pub,
		validator.New(),
		RegistrationConfig{Policy: retry.LinearPolicy(3, time.Millisecond), Timeout: 5 * time.Second},
		nil,
	)
	coord.now = clock
	return &registrationFixture{store: store, repo: repo, publisher: pub, coord: coord}
}

func (f *registrationFixture) participants(t *testing.T) domain.ParticipantList {
	t.Helper()
	h, err := f.repo.Resolve(context.Background(), "hackathon-1")
	require.NoError(t, err)
	return h.Participants
}

func TestRegister_Success(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)

	res, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1", UserEmail: "u1@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Attempts)
	assert.NotEmpty(t, res.FileID)
	require.Len(t, res.Hackathon.Participants, 1)
	assert.Equal(t, "u1", res.Hackathon.Participants[0].UserName, "userName defaults to userId")
	assert.Equal(t, 1, res.Hackathon.ParticipantCount)
	assert.Equal(t, 1, res.Hackathon.Version)
	assert.Equal(t, domain.StatusUpcoming, res.Hackathon.Status)

	stored := f.participants(t)
	require.Len(t, stored, 1)
	assert.Equal(t, "u1@example.com", stored[0].UserEmail)

	evts := f.publisher.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.ParticipantRegistered, evts[0].key)
	evt := evts[0].payload.(domain.ParticipantRegisteredEvent)
	assert.Equal(t, 1, evt.ParticipantCount)
	assert.Equal(t, "hackathon-1", evt.HackathonID)
}

func TestRegister_RequiresUserID(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "  "})
	requireAppError(t, err, http.StatusBadRequest, "User ID is required")
	assert.Equal(t, 0, f.store.Updates)
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1", UserEmail: "nope"})
	requireAppError(t, err, http.StatusBadRequest, "userEmail must be a valid email address")
}

func TestRegister_Duplicate(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.coord.Register(ctx, "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	require.NoError(t, err)

	_, err = f.coord.Register(ctx, "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusBadRequest, "User is already registered for this hackathon")

	assert.Len(t, f.participants(t), 1)
	assert.Equal(t, 1, f.store.Updates)
}

func TestRegister_Capacity(t *testing.T) {
	f := newRegistrationFixture(t, nil, func(h *domain.Hackathon) { h.MaxParticipants = 2 })
	ctx := context.Background()

	for _, u := range []string{"u1", "u2"} {
		_, err := f.coord.Register(ctx, "hackathon-1", domain.RegisterRequest{UserID: u})
		require.NoError(t, err)
	}

	_, err := f.coord.Register(ctx, "hackathon-1", domain.RegisterRequest{UserID: "u3"})
	requireAppError(t, err, http.StatusBadRequest, "Hackathon is full. Maximum participants reached.")
	assert.Len(t, f.participants(t), 2)
}

func TestRegister_DeadlinePassed(t *testing.T) {
	f := newRegistrationFixture(t, nil, func(h *domain.Hackathon) {
		h.RegistrationDeadline = "2025-03-09T00:00:00Z"
		h.MaxParticipants = 100
	})

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusBadRequest, "Registration deadline has passed.")
	assert.Equal(t, 0, f.store.Updates)
}

func TestRegister_Ended(t *testing.T) {
	f := newRegistrationFixture(t, nil, func(h *domain.Hackathon) {
		h.StartDate = "2025-03-01T09:00:00Z"
		h.EndDate = "2025-03-02T09:00:00Z"
		h.RegistrationDeadline = "2025-02-28T00:00:00Z"
	})

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusBadRequest, "Hackathon has ended. Registration is closed.")
}

func TestRegister_NotFoundFailsFast(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)
	listsBefore := f.store.Lists

	_, err := f.coord.Register(context.Background(), "hackathon-404", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusNotFound, "Hackathon not found")

	// one attempt resolves by tag and then by full listing
	assert.Equal(t, 2, f.store.Lists-listsBefore)
	assert.Equal(t, 0, f.store.Updates)
}

func TestRegister_RetryBound(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	f := newRegistrationFixture(t, ledger, nil)
	f.store.UpdateErr = func(string, int) error {
		return &pinata.StatusError{Op: "update", StatusCode: http.StatusBadGateway}
	}

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusInternalServerError, "Failed to save registration to IPFS")

	assert.Equal(t, 3, f.store.Updates)
	assert.Empty(t, f.participants(t))
	assert.Equal(t, 0, ledger.Len("hackathon-1"), "reservation is released")
	assert.Equal(t, 1, ledger.Released)
	assert.Empty(t, f.publisher.Events())
}

func TestRegister_RecoversFromTransientFailure(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)
	f.store.UpdateErr = func(_ string, call int) error {
		if call == 1 {
			return errors.New("connection reset")
		}
		return nil
	}

	res, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, f.participants(t), 1)
}

func TestRegister_UnauthorizedIsNotRetried(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)
	f.store.UpdateErr = func(string, int) error { return pinata.ErrUnauthorized }

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusInternalServerError, "Failed to save registration to IPFS")
	assert.Equal(t, 1, f.store.Updates)
}

func TestRegister_LedgerRejects(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	require.NoError(t, ledger.Reserve(context.Background(), "hackathon-1", domain.Participant{UserID: "other-instance"}, 0))
	f := newRegistrationFixture(t, ledger, func(h *domain.Hackathon) { h.MaxParticipants = 1 })

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusBadRequest, "Hackathon is full. Maximum participants reached.")
	assert.Equal(t, 0, f.store.Updates)
}

func TestRegister_LedgerReservesOnce(t *testing.T) {
	ledger := testutil.NewFakeLedger()
	f := newRegistrationFixture(t, ledger, nil)
	f.store.UpdateErr = func(_ string, call int) error {
		if call < 3 {
			return errors.New("timeout")
		}
		return nil
	}

	res, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 1, ledger.Len("hackathon-1"))
}

func TestRegister_ConcurrentLastSeat(t *testing.T) {
	f := newRegistrationFixture(t, nil, func(h *domain.Hackathon) { h.MaxParticipants = 1 })
	f.store.UpdateDelay = 20 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: fmt.Sprintf("u%d", i)})
		}(i)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		if appErr.Message == domain.ErrHackathonFull.Error() {
			full++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, full)
	assert.Len(t, f.participants(t), 1)
}

func TestRegister_ConcurrentDistinctUsers(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)
	f.store.UpdateDelay = 2 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: fmt.Sprintf("user-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// serialized read-modify-write loses no update
	assert.Len(t, f.participants(t), 8)
	h, err := f.repo.Resolve(context.Background(), "hackathon-1")
	require.NoError(t, err)
	assert.Equal(t, 8, h.Version)
}

type failingLocker struct{}

func (failingLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return nil, context.DeadlineExceeded
}

func TestRegister_LockUnavailable(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)
	f.coord.locker = failingLocker{}

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	requireAppError(t, err, http.StatusServiceUnavailable, "")
	assert.Equal(t, 0, f.store.Updates)
}

func TestRegister_PublishFailureDoesNotFail(t *testing.T) {
	f := newRegistrationFixture(t, nil, nil)
	f.publisher.err = errors.New("broker down")

	_, err := f.coord.Register(context.Background(), "hackathon-1", domain.RegisterRequest{UserID: "u1"})
	require.NoError(t, err)
}
