package autoplay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Result is the outcome of one decision.
type Result struct {
	Success bool   `json:"success"`
	Details string `json:"details"`
}

// Actor performs decisions through the player endpoints.
type Actor struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL.
func NewActor(baseURL string) *Actor {
	return &Actor{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Act performs d. A rejected purchase (409) is reported as unsuccessful,
// not as an error.
func (a *Actor) Act(d Decision) (*Result, error) {
	switch d.Action {
	case ActionClickBoost:
		return a.post("/api/v1/boosts/"+url.PathEscape(d.Target)+"/click", nil)
	case ActionBuyUpgrade:
		return a.post("/api/v1/upgrades/"+url.PathEscape(d.Target)+"/buy", nil)
	case ActionBuyBuilding:
		return a.post("/api/v1/buildings/"+url.PathEscape(d.Target)+"/buy", map[string]bool{"bulk": d.Bulk})
	case ActionClick:
		res := &Result{Success: true}
		for i := 0; i < d.Clicks; i++ {
			r, err := a.post("/api/v1/click", nil)
			if err != nil {
				return nil, err
			}
			if !r.Success {
				// Rate limited; try again next cycle.
				return &Result{Details: fmt.Sprintf("%d of %d clicks: %s", i, d.Clicks, r.Details)}, nil
			}
		}
		res.Details = fmt.Sprintf("%d clicks", d.Clicks)
		return res, nil
	case ActionWait:
		return &Result{Success: true, Details: "waited"}, nil
	}
	return nil, fmt.Errorf("unknown action %q", d.Action)
}

func (a *Actor) post(path string, payload any) (*Result, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, a.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &Result{Success: true, Details: string(bytes.TrimSpace(respBody))}, nil
	case http.StatusConflict, http.StatusNotFound, http.StatusTooManyRequests:
		return &Result{Details: fmt.Sprintf("%d: %s", resp.StatusCode, bytes.TrimSpace(respBody))}, nil
	}
	return nil, fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, string(respBody))
}
