package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"athena-be/internal/service"
	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/logger"
	"athena-be/pkg/pinata"
)

// multipartMemory is how much of a multipart form is kept in memory before spilling to disk
const multipartMemory = 8 << 20

// IPFSHandler exposes the pinning service directly
type IPFSHandler struct {
	storage        *service.StorageService
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewIPFSHandler(storage *service.StorageService, maxUploadBytes int64, log *logger.Logger) *IPFSHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &IPFSHandler{storage: storage, maxUploadBytes: maxUploadBytes, logger: log.Named("ipfs_handler")}
}

// UploadJSONRequest is the body of /api/ipfs/upload-json
type UploadJSONRequest struct {
	Data     json.RawMessage `json:"data"`
	Metadata *struct {
		Name      string          `json:"name"`
		KeyValues json.RawMessage `json:"keyvalues"`
	} `json:"metadata"`
}

// UpdateFileRequest is the body of /api/ipfs/update-file
type UpdateFileRequest struct {
	FileID    string          `json:"fileId"`
	KeyValues json.RawMessage `json:"keyvalues"`
}

// UpdateFileResponse answers a tag update
type UpdateFileResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"fileId"`
	CID     string `json:"cid"`
	URL     string `json:"url"`
}

// Upload handles POST /api/ipfs/upload (multipart "file" plus optional "metadata" JSON tags)
func (h *IPFSHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, apperrors.NewPayloadTooLargeError("File too large"), h.logger)
			return
		}
		respondError(w, r, apperrors.NewValidationError("No file provided", nil), h.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, apperrors.NewValidationError("No file provided", nil), h.logger)
		return
	}
	defer file.Close()

	var keyvalues map[string]string
	if raw := r.FormValue("metadata"); raw != "" {
		keyvalues, err = parseKeyValues(json.RawMessage(raw))
		if err != nil {
			respondError(w, r, apperrors.NewValidationError("Invalid metadata format", nil), h.logger)
			return
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	res, err := h.storage.Upload(r.Context(), header.Filename, contentType, file, keyvalues)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// UploadJSON handles POST /api/ipfs/upload-json
func (h *IPFSHandler) UploadJSON(w http.ResponseWriter, r *http.Request) {
	var req UploadJSONRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	var meta pinata.Metadata
	if req.Metadata != nil {
		meta.Name = req.Metadata.Name
		kv, err := parseKeyValues(req.Metadata.KeyValues)
		if err != nil {
			respondError(w, r, apperrors.NewValidationError("Invalid metadata format", nil), h.logger)
			return
		}
		meta.KeyValues = kv
	}

	res, err := h.storage.UploadJSON(r.Context(), req.Data, meta)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// SignedURL handles GET and POST /api/ipfs/signed-url
func (h *IPFSHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	expires := service.DefaultSignedURLExpiry
	if r.Method == http.MethodPost {
		var body struct {
			Expires *int `json:"expires"`
		}
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &body); err != nil {
				respondError(w, r, err, h.logger)
				return
			}
		}
		if body.Expires != nil {
			expires = *body.Expires
		}
	} else if v := r.URL.Query().Get("expires"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			expires = n
		}
	}

	url, err := h.storage.SignedURL(r.Context(), expires)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, url)
}

// UpdateFile handles POST /api/ipfs/update-file
func (h *IPFSHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	var req UpdateFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	kv, err := parseKeyValues(req.KeyValues)
	if err != nil {
		respondError(w, r, apperrors.NewValidationError("Invalid keyvalues format", nil), h.logger)
		return
	}

	res, err := h.storage.UpdateFile(r.Context(), req.FileID, kv)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, UpdateFileResponse{Success: true, FileID: res.ID, CID: res.CID, URL: res.URL})
}

// List handles GET /api/ipfs/list
func (h *IPFSHandler) List(w http.ResponseWriter, r *http.Request) {
	order := strings.ToUpper(r.URL.Query().Get("order"))
	if order != "ASC" && order != "DESC" {
		order = ""
	}

	files, err := h.storage.List(r.Context(), r.URL.Query().Get("type"), queryInt(r, "limit"), order)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

// parseKeyValues decodes a flat JSON object into string tags. Non-string
// values are kept in their JSON form.
func parseKeyValues(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		if string(v) == "null" {
			continue
		}
		out[k] = string(v)
	}
	return out, nil
}
