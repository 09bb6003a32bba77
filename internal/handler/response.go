package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"athena-be/internal/domain"
	"athena-be/internal/middleware"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
)

// maxJSONBody bounds every JSON request body
const maxJSONBody = 1 << 20

// IPFSInfo is the storage part of a create response
type IPFSInfo struct {
	CID  string `json:"cid"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

func ipfsInfo(res *pinata.UploadResult) IPFSInfo {
	if res == nil {
		return IPFSInfo{}
	}
	return IPFSInfo{CID: res.CID, URL: res.URL, Size: res.Size}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError answers {"error": message}. Anything that is not an
// *AppError is logged and reported as a bare 500.
func respondError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("Internal server error", err)
	}

	entry := log.WithError(err).WithFields(map[string]interface{}{
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     appErr.StatusCode,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	respondJSON(w, appErr.StatusCode, apperrors.ErrorResponse{Error: appErr.Message})
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperrors.NewPayloadTooLargeError("Request body too large")
		case errors.Is(err, io.EOF):
			return apperrors.NewValidationError("Request body is required", nil)
		default:
			return apperrors.NewValidationError("Invalid request body", nil)
		}
	}
	return nil
}

// currentUser returns the authenticated caller, or nil
func currentUser(r *http.Request) *domain.UserProfile {
	return middleware.UserFromContext(r.Context())
}

// queryInt reads a non-negative integer query parameter, 0 when absent or malformed
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
