package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
	"github.com/proscan/docsync/internal/utils"
	"github.com/proscan/docsync/models"
)

const defaultRequestTimeout = 30 * time.Second

type httpBackendClient struct {
	client *utils.HTTPClient

	userID string

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPBackendClient constructs an HTTP/REST implementation of
// [BackendClient]. It normalises and validates the base URL from
// backendCfg.BaseURL, configures the underlying HTTP client with the
// resolved base URL and request timeout, and initialises the shared HMAC
// hasher pool used for request signatures.
//
// Returns an error if backendCfg.BaseURL is empty or cannot be parsed as a
// valid URL.
func NewHTTPBackendClient(backendCfg config.Backend, appCfg config.App, log *logger.Logger) (BackendClient, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(backendCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	timeout := backendCfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	utils.InitHasherPool(appCfg.SigningSecret)

	c := &httpBackendClient{
		client: client,
		userID: appCfg.UserID,
		logger: log,
	}
	c.SetToken(appCfg.SessionToken)

	return c, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [BackendClient]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent requests. Hosts
// sometimes hand over the whole Authorization header value; a "Bearer x"
// form is unwrapped to the bare token.
func (h *httpBackendClient) SetToken(token string) {
	if bare, err := utils.ParseBearerToken(token); err == nil {
		token = bare
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [BackendClient]. It returns the bearer token currently
// held by the client, or an empty string if none has been set.
func (h *httpBackendClient) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// ListDocuments implements [BackendClient]. It GETs /api/documents with
// either a since filter (delta pull) or page/pageSize parameters (full
// pagination) and decodes the page envelope.
func (h *httpBackendClient) ListDocuments(ctx context.Context, since time.Time, page, pageSize int) (models.DocumentsPage, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return models.DocumentsPage{}, err
	}

	if !since.IsZero() {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339Nano))
	} else {
		req.SetQueryParam("page", strconv.Itoa(page))
		req.SetQueryParam("pageSize", strconv.Itoa(pageSize))
	}

	resp, err := req.Get("/api/documents")
	if err != nil {
		return models.DocumentsPage{}, fmt.Errorf("list documents request: %w: %s", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DocumentsPage{}, err
	}

	var pageResp models.DocumentsPage
	if err = json.Unmarshal(resp.Body(), &pageResp); err != nil {
		return models.DocumentsPage{}, fmt.Errorf("decode documents page: %w: %s", ErrValidation, err)
	}

	return pageResp, nil
}

// GetDocument implements [BackendClient]. It GETs /api/documents/:id and
// decodes a single record.
func (h *httpBackendClient) GetDocument(ctx context.Context, id string) (models.RemoteDocument, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return models.RemoteDocument{}, err
	}

	resp, err := req.Get("/api/documents/" + url.PathEscape(id))
	if err != nil {
		return models.RemoteDocument{}, fmt.Errorf("get document request: %w: %s", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteDocument{}, err
	}

	var doc models.RemoteDocument
	if err = json.Unmarshal(resp.Body(), &doc); err != nil {
		return models.RemoteDocument{}, fmt.Errorf("decode document: %w: %s", ErrValidation, err)
	}

	return doc, nil
}

// CreateDocument implements [BackendClient]. It POSTs the record to
// /api/documents and returns the server's stored version.
func (h *httpBackendClient) CreateDocument(ctx context.Context, doc models.RemoteDocument) (models.RemoteDocument, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return models.RemoteDocument{}, err
	}

	var created models.RemoteDocument
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		SetResult(&created).
		Post("/api/documents")
	if err != nil {
		return models.RemoteDocument{}, fmt.Errorf("create document request: %w: %s", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteDocument{}, err
	}

	return created, nil
}

// UpdateDocument implements [BackendClient]. It PUTs the record to
// /api/documents/:id with signature headers. On 409 the returned error is a
// *ConflictError carrying the backend's current record.
func (h *httpBackendClient) UpdateDocument(ctx context.Context, doc models.RemoteDocument) (models.RemoteDocument, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return models.RemoteDocument{}, err
	}

	path := "/api/documents/" + url.PathEscape(doc.ID)
	body, err := json.Marshal(doc)
	if err != nil {
		return models.RemoteDocument{}, fmt.Errorf("encode document: %w", err)
	}
	h.signRequest(req, http.MethodPut, path, body)

	var updated models.RemoteDocument
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&updated).
		Put(path)
	if err != nil {
		return models.RemoteDocument{}, fmt.Errorf("update document request: %w: %s", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteDocument{}, err
	}

	return updated, nil
}

// DeleteDocument implements [BackendClient]. It DELETEs /api/documents/:id
// with signature headers. On 409 the returned error is a *ConflictError.
func (h *httpBackendClient) DeleteDocument(ctx context.Context, id string) error {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return err
	}

	path := "/api/documents/" + url.PathEscape(id)
	h.signRequest(req, http.MethodDelete, path, nil)

	resp, err := req.Delete(path)
	if err != nil {
		return fmt.Errorf("delete document request: %w: %s", ErrNetwork, err)
	}

	return mapHTTPError(resp)
}

// SearchDocuments implements [BackendClient].
func (h *httpBackendClient) SearchDocuments(ctx context.Context, query string) ([]models.RemoteDocument, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.
		SetQueryParam("q", query).
		Get("/api/documents/search")
	if err != nil {
		return nil, fmt.Errorf("search request: %w: %s", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var docs []models.RemoteDocument
	if err = json.Unmarshal(resp.Body(), &docs); err != nil {
		return nil, fmt.Errorf("decode search response: %w: %s", ErrValidation, err)
	}

	return docs, nil
}

// SearchSuggestions implements [BackendClient].
func (h *httpBackendClient) SearchSuggestions(ctx context.Context, prefix string) ([]models.SearchSuggestion, error) {
	req, err := h.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.
		SetQueryParam("q", prefix).
		Get("/api/documents/search/suggestions")
	if err != nil {
		return nil, fmt.Errorf("suggestions request: %w: %s", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var suggestions []models.SearchSuggestion
	if err = json.Unmarshal(resp.Body(), &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions response: %w: %s", ErrValidation, err)
	}

	return suggestions, nil
}

// authedRequest builds a request carrying the bearer token. The token's exp
// claim is checked locally first so an expired session fails fast with
// ErrUnauthenticated instead of burning a network round trip.
func (h *httpBackendClient) authedRequest(ctx context.Context) (*resty.Request, error) {
	token := h.Token()
	if token == "" {
		return nil, fmt.Errorf("%w: no session token", ErrUnauthenticated)
	}
	if err := utils.CheckTokenExpiry(token, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnauthenticated, err)
	}

	return h.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token), nil
}

// signRequest attaches the X-Signature and X-Timestamp headers for critical
// mutating calls. The timestamp in the header must be the one the signature
// was computed with.
func (h *httpBackendClient) signRequest(req *resty.Request, method, path string, body []byte) {
	now := time.Now()
	req.SetHeader("X-Signature", utils.SignRequest(method, path, body, now, h.userID))
	req.SetHeader("X-Timestamp", strconv.FormatInt(now.Unix(), 10))
}
