package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"athena-be/internal/repository"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
	"athena-be/pkg/retry"
)

const (
	DefaultSignedURLExpiry = 30
	MaxSignedURLExpiry     = 300
)

// SignedURL is a pre-authorized direct upload
type SignedURL struct {
	SignedURL string    `json:"signedUrl"`
	Expires   int       `json:"expires"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService exposes the pinning service to clients as is
type StorageService struct {
	store        repository.BlobStore
	updatePolicy retry.Policy
	logger       *logger.Logger
	now          func() time.Time
}

func NewStorageService(store repository.BlobStore, updatePolicy retry.Policy, log *logger.Logger) *StorageService {
	if log == nil {
		log = logger.NewNop()
	}
	if updatePolicy.MaxAttempts < 1 {
		updatePolicy = retry.ExponentialPolicy(5, time.Second, 0.3)
	}
	return &StorageService{
		store:        store,
		updatePolicy: updatePolicy,
		logger:       log.Named("storage_service"),
		now:          time.Now,
	}
}

// Upload pins a client file. Tags default to type=file.
func (s *StorageService) Upload(ctx context.Context, name, contentType string, r io.Reader, keyvalues map[string]string) (*pinata.UploadResult, error) {
	kv := map[string]string{"type": "file"}
	for k, v := range keyvalues {
		kv[k] = v
	}
	res, err := s.store.PutFile(ctx, name, contentType, r, pinata.Metadata{Name: name, KeyValues: kv})
	if err != nil {
		s.logger.WithError(err).WithField("name", name).Error("File upload failed")
		return nil, apperrors.NewInternalError("Upload failed", err)
	}
	return res, nil
}

// UploadJSON pins arbitrary client JSON
func (s *StorageService) UploadJSON(ctx context.Context, data json.RawMessage, meta pinata.Metadata) (*pinata.UploadResult, error) {
	if isEmptyJSON(data) {
		return nil, apperrors.NewValidationError("No data provided", nil)
	}
	if meta.Name == "" {
		meta.Name = "data.json"
	}
	kv := map[string]string{"type": "json"}
	for k, v := range meta.KeyValues {
		kv[k] = v
	}
	meta.KeyValues = kv

	res, err := s.store.PutJSON(ctx, data, meta)
	if err != nil {
		s.logger.WithError(err).WithField("name", meta.Name).Error("JSON upload failed")
		return nil, apperrors.NewInternalError("JSON upload failed", err)
	}
	return res, nil
}

// SignedURL creates an upload URL valid for expires seconds (default 30, at most 300)
func (s *StorageService) SignedURL(ctx context.Context, expires int) (*SignedURL, error) {
	if expires > MaxSignedURLExpiry {
		return nil, apperrors.NewValidationError("Expires time cannot exceed 300 seconds", nil)
	}
	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}

	url, err := s.store.SignedUploadURL(ctx, time.Duration(expires)*time.Second)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create signed URL")
		return nil, apperrors.NewInternalError("Failed to create signed URL", err)
	}
	return &SignedURL{
		SignedURL: url,
		Expires:   expires,
		ExpiresAt: s.now().UTC().Add(time.Duration(expires) * time.Second),
	}, nil
}

// UpdateFile merges keyvalues into the tags of fileID, retrying transient failures
func (s *StorageService) UpdateFile(ctx context.Context, fileID string, keyvalues map[string]string) (*pinata.UpdateResult, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, apperrors.NewValidationError("File ID is required", nil)
	}

	policy := s.updatePolicy
	policy.Notify = func(attempt int, err error, wait time.Duration) {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"file_id": fileID,
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("Metadata update failed, retrying")
	}

	var result *pinata.UpdateResult
	attempts, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		res, err := s.store.UpdateMetadata(ctx, fileID, keyvalues)
		if err != nil {
			if !pinata.Retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if errors.Is(err, pinata.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("File not found")
		}
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"file_id":  fileID,
			"attempts": attempts,
		}).Error("Failed to update file")
		return nil, apperrors.NewInternalError("Failed to update file", err)
	}
	return result, nil
}

// List returns stored entries, optionally narrowed by type tag
func (s *StorageService) List(ctx context.Context, kind string, limit int, order string) ([]pinata.FileInfo, error) {
	filter := pinata.ListFilter{Limit: limit, Order: strings.ToUpper(order)}
	if kind != "" {
		filter.KeyValues = map[string]string{"type": kind}
	}
	files, err := s.store.List(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list files")
		return nil, apperrors.NewInternalError("Failed to list files", err)
	}
	if files == nil {
		files = []pinata.FileInfo{}
	}
	return files, nil
}

func isEmptyJSON(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}
