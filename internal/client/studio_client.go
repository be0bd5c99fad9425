package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/versecraft/api/internal/config"
	"github.com/versecraft/api/internal/model"
)

// StudioDriver defines the interface for the browser-automation sidecar
// that fronts the external song studio. The sidecar owns selectors,
// sessions and element timeouts; this client only speaks its HTTP API.
type StudioDriver interface {
	GenerateSong(ctx context.Context, req *GenerateSongRequest) (*model.GenerationResult, error)
	DownloadSong(ctx context.Context, title string, slot model.DownloadSlot) (string, error)
}

// StudioClient implements StudioDriver over the sidecar HTTP API
type StudioClient struct {
	generateClient *http.Client
	downloadClient *http.Client
	baseURL        string
}

// GenerateSongRequest represents a song submission to the studio
type GenerateSongRequest struct {
	Lyrics string `json:"lyrics"`
	Style  string `json:"style"`
	Title  string `json:"title"`
}

type generateSongResponse struct {
	Success        bool   `json:"success"`
	ExternalSongID string `json:"external_song_id,omitempty"`
	ProgressID     string `json:"progress_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

type downloadSongRequest struct {
	Title string `json:"title"`
	Slot  string `json:"slot"`
}

type downloadSongResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewStudioClient creates a new studio driver client. Each call type
// carries its own bounded timeout since a hung browser session would
// otherwise block the workflow indefinitely.
func NewStudioClient(cfg *config.StudioConfig) *StudioClient {
	return &StudioClient{
		generateClient: &http.Client{
			Timeout: time.Duration(cfg.GenerateTimeout) * time.Second,
		},
		downloadClient: &http.Client{
			Timeout: time.Duration(cfg.DownloadTimeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
	}
}

// GenerateSong submits lyrics/style/title for generation. A missing
// progress_id in a successful response is expected when the studio does
// not redirect to a retrievable page; callers must treat it as a
// degraded, not failed, generation.
func (c *StudioClient) GenerateSong(ctx context.Context, req *GenerateSongRequest) (*model.GenerationResult, error) {
	var resp generateSongResponse
	if err := c.post(ctx, c.generateClient, "/v1/songs/generate", req, &resp); err != nil {
		return nil, err
	}

	result := &model.GenerationResult{
		Success:        resp.Success,
		ExternalSongID: resp.ExternalSongID,
		ProgressID:     resp.ProgressID,
		Error:          resp.Error,
	}
	if resp.Success && resp.ProgressID == "" {
		log.Printf("[Studio] generation for %q returned no progress_id, review will run degraded", req.Title)
	}
	return result, nil
}

// DownloadSong retrieves one generated variant by recency slot and
// returns the local file path the sidecar wrote it to.
func (c *StudioClient) DownloadSong(ctx context.Context, title string, slot model.DownloadSlot) (string, error) {
	req := downloadSongRequest{Title: title, Slot: string(slot)}

	var resp downloadSongResponse
	if err := c.post(ctx, c.downloadClient, "/v1/songs/download", req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("download failed for slot %s: %s", slot, resp.Error)
	}
	return resp.FilePath, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *StudioClient) IsConfigured() bool {
	return c.baseURL != ""
}

// post sends a POST request with JSON body
func (c *StudioClient) post(ctx context.Context, httpClient *http.Client, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[Studio] → POST %s", req.URL.String())

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Printf("[Studio] ✗ POST %s — request failed: %v", req.URL.String(), err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[Studio] ← %d POST %s", resp.StatusCode, req.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("studio driver error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
