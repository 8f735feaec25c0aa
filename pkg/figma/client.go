package figma

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Version is the figma-asset-publisher release version.
const Version = "1.0.0"

const figmaAPIBase = "https://api.figma.com/v1"

// minRequestInterval is the minimum spacing between Figma API calls. The API
// tolerates bursts poorly on large files, so every request goes through a
// shared pacer.
const minRequestInterval = 100 * time.Millisecond

// Client represents a Figma API client with configured HTTP settings for
// reliable communication with the Figma API. It includes retry logic,
// request pacing, and transport settings tuned for large files.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client

	mu              sync.Mutex
	lastRequestTime time.Time
}

// NewClient creates a new Figma API client with the provided personal access
// token. The client disables HTTP/2 (stream errors on large files) and uses a
// 10-minute timeout so very large documents can be fetched in one request.
func NewClient(accessToken string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		ForceAttemptHTTP2:   false,
	}

	return &Client{
		accessToken: accessToken,
		baseURL:     figmaAPIBase,
		httpClient: &http.Client{
			Timeout:   10 * time.Minute,
			Transport: transport,
		},
	}
}

// pace enforces the minimum inter-request spacing.
func (c *Client) pace() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastRequestTime)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequestTime = time.Now()
}

// get performs a paced GET request against the Figma API with up to three
// attempts. Rate-limit (429) and server (5xx) responses are retried with
// linear backoff; other non-200 responses fail immediately.
func (c *Client) get(path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	const maxRetries = 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		c.pace()

		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("X-Figma-Token", c.accessToken)
		// Keep connections short-lived; long-lived streams error on large files.
		req.Header.Set("Connection", "close")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("attempt %d failed to execute request: %w", attempt, err)
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * 2 * time.Second)
				continue
			}
			return nil, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
			if attempt < maxRetries && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) {
				time.Sleep(time.Duration(attempt) * 2 * time.Second)
				continue
			}
			return nil, lastErr
		}

		if readErr != nil {
			lastErr = fmt.Errorf("attempt %d failed to read response body: %w", attempt, readErr)
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * 2 * time.Second)
				continue
			}
			return nil, lastErr
		}

		return body, nil
	}

	return nil, lastErr
}

// ValidateToken checks the access token against the /me endpoint and returns
// the authenticated account's email for logging.
func (c *Client) ValidateToken() (string, error) {
	body, err := c.get("/me", nil)
	if err != nil {
		return "", fmt.Errorf("validate token: %w", err)
	}

	var me meResponse
	if err := json.Unmarshal(body, &me); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if me.ID == "" {
		return "", fmt.Errorf("token validation returned no account id")
	}

	return me.Email, nil
}

// GetFile retrieves complete file data from the Figma API including the full
// document tree. The response is decoded twice: into the typed model used by
// classification and into a generic map (FileResponse.Raw) used by manifest
// embedding and URL rewriting.
func (c *Client) GetFile(fileKey string) (*FileResponse, error) {
	body, err := c.get("/files/"+fileKey, nil)
	if err != nil {
		return nil, err
	}

	var fileResp FileResponse
	if err := json.Unmarshal(body, &fileResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if err := json.Unmarshal(body, &fileResp.Raw); err != nil {
		return nil, fmt.Errorf("failed to parse raw response: %w", err)
	}

	return &fileResp, nil
}

// GetFileNodes retrieves specific nodes from a Figma file.
func (c *Client) GetFileNodes(fileKey string, nodeIDs []string) (*NodesResponse, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(nodeIDs, ","))

	body, err := c.get("/files/"+fileKey+"/nodes", query)
	if err != nil {
		return nil, err
	}

	var nodesResp NodesResponse
	if err := json.Unmarshal(body, &nodesResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &nodesResp, nil
}

// GetImages requests export URLs for the given node IDs in the given format
// ("svg", "png", "jpg", "pdf"). SVG exports keep node IDs embedded and
// simplified strokes so downstream tooling can correlate shapes with nodes.
// The endpoint has a practical per-call node ceiling; callers batch IDs.
func (c *Client) GetImages(fileKey string, nodeIDs []string, format string, scale float64) (*ImagesResponse, error) {
	if len(nodeIDs) == 0 {
		return &ImagesResponse{Images: map[string]string{}}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(nodeIDs, ","))
	query.Set("format", format)
	if format == "svg" {
		query.Set("svg_outline_text", "false")
		query.Set("svg_include_id", "true")
		query.Set("svg_simplify_stroke", "true")
	} else if scale > 0 {
		query.Set("scale", strconv.FormatFloat(scale, 'g', -1, 64))
	}

	body, err := c.get("/images/"+fileKey, query)
	if err != nil {
		return nil, err
	}

	var imgResp ImagesResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if imgResp.Err != "" {
		return nil, fmt.Errorf("image export API error: %s", imgResp.Err)
	}

	return &imgResp, nil
}

// GetFileImages retrieves the map of imageRef values to original download
// URLs for every image fill in the file. This is the preferred acquisition
// path for bitmap fills; rendering individual nodes is the fallback.
func (c *Client) GetFileImages(fileKey string) (map[string]string, error) {
	body, err := c.get("/files/"+fileKey+"/images", nil)
	if err != nil {
		return nil, err
	}

	var fillsResp imageFillsResponse
	if err := json.Unmarshal(body, &fillsResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return fillsResp.Meta.Images, nil
}

// ExtractFileKey extracts the unique file identifier from a Figma URL.
// Supports both /file/ and /design/ URL patterns
// (e.g., figma.com/file/ABC123/Design-Name).
func ExtractFileKey(figmaURL string) (string, error) {
	// Anchored to ensure the entire URL matches the expected pattern.
	re := regexp.MustCompile(`^https?://(?:www\.)?figma\.com/(?:file|design)/([A-Za-z0-9]+)(?:/|$)`)
	matches := re.FindStringSubmatch(figmaURL)

	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Figma URL format: must be a valid figma.com URL with /file/ or /design/ path")
	}

	return matches[1], nil
}

// nodeIDPattern matches the dash-separated node id form Figma uses in URLs
// (e.g. 11933-305884), which corresponds to the API's 11933:305884.
var nodeIDPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// ExtractNodeIDs extracts node IDs from a Figma URL. Node IDs can appear as a
// node-id query parameter, a hash fragment, or a /nodes/ path segment, in
// either colon or dash form; the result always uses the API's colon form,
// trimmed and deduplicated. An empty slice with no error means the URL simply
// targets the whole file.
func ExtractNodeIDs(figmaURL string) ([]string, error) {
	parsed, err := url.Parse(figmaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	var raw string
	switch {
	case parsed.Query().Get("node-id") != "":
		raw = parsed.Query().Get("node-id")
	case parsed.Fragment != "":
		raw = parsed.Fragment
	default:
		if idx := strings.Index(parsed.Path, "/nodes/"); idx != -1 {
			raw = parsed.Path[idx+len("/nodes/"):]
		}
	}

	if raw == "" {
		return []string{}, nil
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if m := nodeIDPattern.FindStringSubmatch(id); m != nil {
			id = m[1] + ":" + m[2]
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return ids, nil
}
