// Package autoplay implements an idle-game bot that plays a running game
// server through its HTTP API. Each cycle observes the game state, decides
// on one action and performs it.
package autoplay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/atom-clicker/internal/engine"
)

// Status mirrors GET /api/v1/status.
type Status struct {
	Frame   uint64  `json:"frame"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
	Uptime  string  `json:"uptime"`
	Clock   float64 `json:"clock"`
}

// Snapshot holds everything collected during one observation.
type Snapshot struct {
	Status Status      `json:"status"`
	State  engine.View `json:"state"`
}

// Observer fetches game state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Observe fetches the status and state endpoints.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}
	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/state", &snap.State); err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
