package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/planfold/plotd/internal/model"
)

// HTTPClient implements DiagramClient using the backend's HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Diagrams ---

// GenerateDiagram issues a generation request and normalizes the data
// field once, so downstream code always sees structured JSON regardless of
// whether the backend string-encoded it.
func (c *HTTPClient) GenerateDiagram(ctx context.Context, req *model.DiagramRequest) (*model.DiagramResponse, error) {
	var wire struct {
		Kind   model.DiagramKind `json:"diagram_type"`
		Format model.Format      `json:"format"`
		Cached bool              `json:"cached"`
		Data   json.RawMessage   `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/diagrams/generate", req, &wire); err != nil {
		return nil, err
	}

	data, err := model.NormalizeData(wire.Data)
	if err != nil {
		return nil, err
	}
	return &model.DiagramResponse{
		Kind:   wire.Kind,
		Format: wire.Format,
		Cached: wire.Cached,
		Data:   data,
	}, nil
}

// ExportDiagram issues an export request. The export endpoint replies with
// a raw text body (not JSON-wrapped) for vector/text formats, so the
// response Content-Type is inspected before assuming JSON.
func (c *HTTPClient) ExportDiagram(ctx context.Context, req *model.DiagramRequest) (*ExportPayload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/diagrams/export", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, respBody)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		// Raw body: SVG markup, PDF bytes, PNG bytes.
		return &ExportPayload{Format: req.Format, Raw: true, Data: respBody}, nil
	}

	var wire struct {
		Format model.Format    `json:"format"`
		Cached bool            `json:"cached"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	data, err := model.NormalizeData(wire.Data)
	if err != nil {
		return nil, err
	}
	return &ExportPayload{Format: wire.Format, Cached: wire.Cached, Data: data}, nil
}

// --- GitHub integrations ---

func (c *HTTPClient) ListIntegrations(ctx context.Context) ([]*model.Integration, error) {
	var resp struct {
		Integrations []*model.Integration `json:"integrations"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/integrations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Integrations, nil
}

func (c *HTTPClient) GetIntegration(ctx context.Context, projectID string) (*model.Integration, error) {
	var integ model.Integration
	path := "/v1/projects/" + url.PathEscape(projectID) + "/integration"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &integ); err != nil {
		return nil, err
	}
	return &integ, nil
}

// FetchIntegration adapts GetIntegration to the cache's Fetcher interface.
func (c *HTTPClient) FetchIntegration(ctx context.Context, projectID string) (*model.Integration, error) {
	return c.GetIntegration(ctx, projectID)
}

func (c *HTTPClient) CreateIntegration(ctx context.Context, req *CreateIntegrationRequest) (*model.Integration, error) {
	var integ model.Integration
	if err := c.doJSON(ctx, http.MethodPost, "/v1/integrations", req, &integ); err != nil {
		return nil, err
	}
	return &integ, nil
}

func (c *HTTPClient) UpdateIntegration(ctx context.Context, id string, req *UpdateIntegrationRequest) (*model.Integration, error) {
	var integ model.Integration
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/integrations/"+url.PathEscape(id), req, &integ); err != nil {
		return nil, err
	}
	return &integ, nil
}

func (c *HTTPClient) DeleteIntegration(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/integrations/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) SyncCommits(ctx context.Context, projectID string) (*model.SyncResult, error) {
	var result model.SyncResult
	path := "/v1/projects/" + url.PathEscape(projectID) + "/integration/sync"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// decodeError maps an error body to either a domain *model.BackendError
// (when the backend reported a machine-readable code) or a transport-level
// *APIError.
func decodeError(status int, body []byte) error {
	var errResp struct {
		Error string          `json:"error"`
		Code  model.ErrorCode `json:"code"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Code != "" {
			return &model.BackendError{Code: errResp.Code, Message: errResp.Error}
		}
		if errResp.Error != "" {
			return &APIError{StatusCode: status, Message: errResp.Error}
		}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
