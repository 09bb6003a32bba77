package service

import (
	"context"

	"athena-be/internal/domain"
)

// Locker serializes work per key. Implemented by the process-local
// mutex.KeyedMutex and the Redis-backed redis.Locker.
type Locker interface {
	// Acquire blocks until key is held or ctx ends and returns the release func
	Acquire(ctx context.Context, key string) (func(), error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	// ValidateToken verifies a bearer token and returns the caller profile
	ValidateToken(ctx context.Context, token string) (*domain.UserProfile, error)
}

// Services aggregates all services
type Services struct {
	Hackathons   *HackathonService
	Registration *RegistrationCoordinator
	Projects     *ProjectService
	Teams        *TeamService
	Scores       *ScoreService
	Storage      *StorageService
	Cache        *CacheService
	Auth         AuthService
}
