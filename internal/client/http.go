package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/alfredjeanlab/agritag/internal/interchange"
	"github.com/alfredjeanlab/agritag/internal/model"
)

// HTTPClient implements Client using the agritag HTTP/JSON API.
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

// --- Features ---

func (c *HTTPClient) ListFeatures(ctx context.Context, filter model.FeatureFilter) (*FeatureList, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Crop != "" {
		q.Set("crop", filter.Crop)
	}
	path := "/v1/features"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp FeatureList
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetFeature(ctx context.Context, id string) (*Feature, error) {
	var f Feature
	if err := c.doJSON(ctx, http.MethodGet, "/v1/features/"+url.PathEscape(id), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) UpdateFeature(ctx context.Context, id string, patch model.AttributePatch) (*Feature, error) {
	var f Feature
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/features/"+url.PathEscape(id), patch, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) DeleteFeature(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/features/"+url.PathEscape(id), nil, nil)
}

// --- Drawing ---

func (c *HTTPClient) Draw(ctx context.Context, shape model.ShapeKind, g orb.Geometry) (*Feature, error) {
	body := map[string]any{
		"action":   "create",
		"shape":    shape,
		"geometry": geojson.NewGeometry(g),
	}
	var resp struct {
		Feature Feature `json:"feature"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/draw", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Feature, nil
}

// --- Interchange ---

// Import uploads the document as-is; the server reports malformed input.
func (c *HTTPClient) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/import", interchange.MediaType, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var out ImportResult
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Export(ctx context.Context) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/export", "", nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, "", apiError(resp.StatusCode, data)
	}

	var filename string
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return data, filename, nil
}

func (c *HTTPClient) Vocabulary(ctx context.Context) (model.Vocabulary, error) {
	var v model.Vocabulary
	if err := c.doJSON(ctx, http.MethodGet, "/v1/vocabulary", nil, &v); err != nil {
		return model.Vocabulary{}, err
	}
	return v, nil
}

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

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func apiError(status int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	return resp, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	var contentType string
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, contentType, bodyReader)
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// decodeResponse closes resp and decodes its JSON body into result.
func decodeResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
