package testutil

import (
	"context"
	"sync"

	"athena-be/internal/domain"
)

// FakeLedger is an in-memory registration ledger
type FakeLedger struct {
	mu      sync.Mutex
	entries map[string]map[string]domain.Participant

	ReserveErr error
	Released   int
}

func NewFakeLedger() *FakeLedger {
	return &FakeLedger{entries: make(map[string]map[string]domain.Participant)}
}

func (l *FakeLedger) Reserve(ctx context.Context, hackathonID string, p domain.Participant, maxParticipants int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ReserveErr != nil {
		return l.ReserveErr
	}
	users := l.entries[hackathonID]
	if users == nil {
		users = make(map[string]domain.Participant)
		l.entries[hackathonID] = users
	}
	if _, ok := users[p.UserID]; ok {
		return domain.ErrAlreadyRegistered
	}
	if maxParticipants > 0 && len(users) >= maxParticipants {
		return domain.ErrHackathonFull
	}
	users[p.UserID] = p
	return nil
}

func (l *FakeLedger) Release(ctx context.Context, hackathonID, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries[hackathonID], userID)
	l.Released++
	return nil
}

// Len returns the number of reservations for hackathonID
func (l *FakeLedger) Len(hackathonID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[hackathonID])
}
