// Package pinata is a small client for the Pinata v3 files API and an IPFS
// gateway. It is the only component that talks to the pinning service.
//
// The store has no compare-and-swap: concurrent UpdateMetadata calls on the
// same file race and the last writer wins.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"athena-be/pkg/logger"
)

const (
	DefaultAPIURL    = "https://api.pinata.cloud"
	DefaultUploadURL = "https://uploads.pinata.cloud"

	maxPageSize = 1000
)

var (
	// ErrNotFound is returned when the file or CID does not exist. Not retryable.
	ErrNotFound = errors.New("pinata: not found")
	// ErrUnauthorized is returned for rejected credentials. Not retryable.
	ErrUnauthorized = errors.New("pinata: unauthorized")
)

// StatusError is any other non-2xx answer. Callers may retry it.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinata %s returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Retryable reports whether err is worth another attempt
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnauthorized)
}

// Config holds the pinning service credentials and endpoints
type Config struct {
	JWT       string
	Gateway   string
	GroupID   string
	APIURL    string
	UploadURL string
	Timeout   time.Duration
}

// Metadata is attached to an upload. All key-values are strings.
type Metadata struct {
	Name      string
	KeyValues map[string]string
}

// FileInfo describes one stored entry
type FileInfo struct {
	ID        string            `json:"id"`
	CID       string            `json:"cid"`
	Name      string            `json:"name"`
	Size      int64             `json:"size"`
	MimeType  string            `json:"mimeType"`
	KeyValues map[string]string `json:"keyvalues"`
	CreatedAt time.Time         `json:"createdAt"`
	URL       string            `json:"url"`
}

// UploadResult is returned by PutJSON and PutFile
type UploadResult struct {
	ID        string    `json:"id"`
	CID       string    `json:"cid"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}

// UpdateResult is returned by UpdateMetadata
type UpdateResult struct {
	ID  string `json:"id"`
	CID string `json:"cid"`
	URL string `json:"url"`
}

// ListFilter narrows List. KeyValues must all match. Limit 0 lists everything.
type ListFilter struct {
	KeyValues map[string]string
	Limit     int
	Order     string // ASC or DESC
}

// Client talks to Pinata over HTTP
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logger.Logger
	now        func() time.Time
}

// NewClient creates a new Pinata client
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.UploadURL = strings.TrimRight(cfg.UploadURL, "/")
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.Named("pinata"),
		now:    time.Now,
	}
}

// GatewayURL returns the public gateway URL of a CID
func GatewayURL(gateway, cid string) string {
	if !strings.HasPrefix(gateway, "http") {
		gateway = "https://" + gateway
	}
	return strings.TrimRight(gateway, "/") + "/ipfs/" + cid
}

func (c *Client) gatewayURL(cid string) string {
	return GatewayURL(c.cfg.Gateway, cid)
}

// v3 API file object
type apiFile struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CID       string            `json:"cid"`
	Size      int64             `json:"size"`
	MimeType  string            `json:"mime_type"`
	GroupID   string            `json:"group_id"`
	KeyValues map[string]string `json:"keyvalues"`
	CreatedAt time.Time         `json:"created_at"`
}

func (f apiFile) uploadResult(gw string) *UploadResult {
	return &UploadResult{
		ID:        f.ID,
		CID:       f.CID,
		Name:      f.Name,
		Size:      f.Size,
		MimeType:  f.MimeType,
		CreatedAt: f.CreatedAt,
		URL:       GatewayURL(gw, f.CID),
	}
}

// PutJSON serializes value and uploads it as a JSON file
func (c *Client) PutJSON(ctx context.Context, value interface{}, meta Metadata) (*UploadResult, error) {
	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
	}
	name := meta.Name
	if name == "" {
		name = "data.json"
	}
	return c.upload(ctx, name, "application/json", bytes.NewReader(body), withDefaults(meta.KeyValues, "json", c.now()))
}

// PutFile uploads a raw file
func (c *Client) PutFile(ctx context.Context, name, contentType string, r io.Reader, meta Metadata) (*UploadResult, error) {
	if meta.Name != "" {
		name = meta.Name
	}
	return c.upload(ctx, name, contentType, r, withDefaults(meta.KeyValues, "file", c.now()))
}

func withDefaults(kv map[string]string, kind string, now time.Time) map[string]string {
	out := map[string]string{
		"type":       kind,
		"uploadedAt": now.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range kv {
		out[k] = v
	}
	return out
}

func (c *Client) upload(ctx context.Context, name, contentType string, r io.Reader, kv map[string]string) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload body: %w", err)
	}

	kvJSON, err := json.Marshal(kv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keyvalues: %w", err)
	}
	fields := map[string]string{
		"network":   "public",
		"name":      name,
		"keyvalues": string(kvJSON),
	}
	if c.cfg.GroupID != "" {
		fields["group_id"] = c.cfg.GroupID
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL+"/v3/files", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Data apiFile `json:"data"`
	}
	if err := c.do(req, "upload", &out); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"file_id": out.Data.ID,
		"cid":     out.Data.CID,
		"type":    kv["type"],
		"size":    out.Data.Size,
	}).Debug("Uploaded file to Pinata")

	return out.Data.uploadResult(c.cfg.Gateway), nil
}

// List returns stored entries matching filter, following page tokens
func (c *Client) List(ctx context.Context, filter ListFilter) ([]FileInfo, error) {
	var files []FileInfo
	pageToken := ""

	for {
		q := url.Values{}
		pageSize := maxPageSize
		if filter.Limit > 0 && filter.Limit-len(files) < pageSize {
			pageSize = filter.Limit - len(files)
		}
		q.Set("limit", strconv.Itoa(pageSize))
		if filter.Order != "" {
			q.Set("order", strings.ToUpper(filter.Order))
		}
		if c.cfg.GroupID != "" {
			q.Set("group", c.cfg.GroupID)
		}
		for k, v := range filter.KeyValues {
			q.Set("keyvalues["+k+"]", v)
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/v3/files/public?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		var out struct {
			Data struct {
				Files         []apiFile `json:"files"`
				NextPageToken string    `json:"next_page_token"`
			} `json:"data"`
		}
		if err := c.do(req, "list", &out); err != nil {
			return nil, err
		}

		for _, f := range out.Data.Files {
			files = append(files, FileInfo{
				ID:        f.ID,
				CID:       f.CID,
				Name:      f.Name,
				Size:      f.Size,
				MimeType:  f.MimeType,
				KeyValues: f.KeyValues,
				CreatedAt: f.CreatedAt,
				URL:       c.gatewayURL(f.CID),
			})
		}

		pageToken = out.Data.NextPageToken
		if pageToken == "" || len(out.Data.Files) == 0 || (filter.Limit > 0 && len(files) >= filter.Limit) {
			break
		}
	}

	return files, nil
}

// Fetch downloads the JSON body of cid through the gateway
func (c *Client) Fetch(ctx context.Context, cid string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL(cid), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from gateway: %w", cid, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if err := statusErr("fetch", resp.StatusCode, body); err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("gateway returned non-JSON content for %s", cid)
	}
	return json.RawMessage(body), nil
}

// UpdateMetadata merges kv into the tags of fileID. Empty values are dropped
// and updatedAt is always stamped. The content and CID are unchanged.
func (c *Client) UpdateMetadata(ctx context.Context, fileID string, kv map[string]string) (*UpdateResult, error) {
	clean := make(map[string]string, len(kv)+1)
	for k, v := range kv {
		if v != "" {
			clean[k] = v
		}
	}
	clean["updatedAt"] = c.now().UTC().Format(time.RFC3339Nano)

	body, err := json.Marshal(map[string]interface{}{"keyvalues": clean})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keyvalues: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.cfg.APIURL+"/v3/files/public/"+url.PathEscape(fileID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Data apiFile `json:"data"`
	}
	if err := c.do(req, "update", &out); err != nil {
		return nil, err
	}

	return &UpdateResult{ID: fileID, CID: out.Data.CID, URL: c.gatewayURL(out.Data.CID)}, nil
}

// SignedUploadURL creates a pre-authorized upload URL valid for expires
func (c *Client) SignedUploadURL(ctx context.Context, expires time.Duration) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"date":    c.now().Unix(),
		"expires": int64(expires.Seconds()),
		"network": "public",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL+"/v3/files/sign", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Data string `json:"data"`
	}
	if err := c.do(req, "sign", &out); err != nil {
		return "", err
	}
	if out.Data == "" {
		return "", fmt.Errorf("pinata sign returned an empty URL")
	}
	return out.Data, nil
}

// do sends an authenticated API request and decodes the JSON answer into out
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.cfg.JWT)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call pinata %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read pinata %s response: %w", op, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"op":          op,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("pinata_request")

	if err := statusErr(op, resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"op":          op,
			"status_code": resp.StatusCode,
		}).Error("Failed to parse Pinata response")
		return fmt.Errorf("failed to parse pinata %s response: %w", op, err)
	}
	return nil
}

func statusErr(op string, code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	default:
		msg := string(body)
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return &StatusError{Op: op, StatusCode: code, Body: msg}
	}
}
