package imagery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// ErrImageTooLarge is returned when a remote image exceeds the configured size cap.
var ErrImageTooLarge = errors.New("remote image exceeds size limit")

// UpstreamError carries a non-200 provider response so handlers can pass the
// status through to the caller.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("imagery provider returned status %d: %s", e.StatusCode, e.Body)
}

// SearchRequest is the provider's scene search filter: an area of interest plus
// optional date-range, cloud-cover and quality constraints.
type SearchRequest struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	FromDate   string            `json:"fromDate,omitempty"`
	ToDate     string            `json:"toDate,omitempty"`
	CloudCover *float64          `json:"cloudCover,omitempty"`
	Quality    *int              `json:"quality,omitempty"`
}

// ImageItem is one scene returned by the provider search.
type ImageItem struct {
	ID          string    `json:"id"`
	DownloadURL string    `json:"downloadUrl"`
	ThumbURL    string    `json:"thumbUrl,omitempty"`
	CapturedAt  string    `json:"capturedAt"`
	CloudCover  float64   `json:"cloudCover"`
	Quality     int       `json:"quality"`
	BBox        []float64 `json:"bbox,omitempty"`
}

type searchResponse struct {
	Items []ImageItem `json:"items"`
}

// Client talks to the satellite imagery provider's search API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient creates an imagery provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Search submits the scene search and returns matching image items. Non-200
// provider responses come back as *UpstreamError.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]ImageItem, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not serialize search request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "imagery provider request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "could not decode provider response")
	}
	return parsed.Items, nil
}

// DownloadImage streams a remote image to destPath, refusing anything over
// maxBytes. The partially written file is removed on failure.
func (c *Client) DownloadImage(ctx context.Context, imageURL, destPath string, maxBytes int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrap(err, "image download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: "image download failed"}
	}
	if resp.ContentLength > maxBytes {
		return ErrImageTooLarge
	}

	out, err := os.Create(destPath)
	if err != nil {
		return errors.Wrap(err, "could not create image file")
	}
	defer out.Close()

	// Read one byte past the cap so truncated-at-limit downloads are detected.
	written, err := io.Copy(out, io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		os.Remove(destPath)
		return errors.Wrap(err, "failed to write image file")
	}
	if written > maxBytes {
		os.Remove(destPath)
		return ErrImageTooLarge
	}
	return nil
}
