package autoplay

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

const maxRecords = 100

// CycleRecord captures what happened in a single cycle.
type CycleRecord struct {
	Clock   float64 `json:"clock"`
	Phase   Phase   `json:"phase"`
	Action  string  `json:"action"`
	Target  string  `json:"target,omitempty"`
	Success bool    `json:"success"`
	Atoms   string  `json:"atoms"`
	APS     string  `json:"aps"`
}

// Journal keeps the most recent cycles, optionally on disk so a restarted
// bot can report what it did before.
type Journal struct {
	Records []CycleRecord `json:"records"`

	path string
}

// LoadJournal reads the journal at path. A missing or unreadable file
// yields an empty journal; an empty path keeps it in memory only.
func LoadJournal(path string) *Journal {
	j := &Journal{path: path}
	if path == "" {
		return j
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("autoplay journal unreadable, starting fresh", "error", err)
		}
		return j
	}
	if err := json.Unmarshal(data, j); err != nil {
		slog.Warn("autoplay journal corrupted, starting fresh", "error", err)
		j.Records = nil
	}
	return j
}

// Save writes the journal to its path.
func (j *Journal) Save() error {
	if j.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	return os.WriteFile(j.path, data, 0o644)
}

// Record adds a cycle record, trimming to maxRecords.
func (j *Journal) Record(r CycleRecord) {
	j.Records = append(j.Records, r)
	if len(j.Records) > maxRecords {
		j.Records = j.Records[len(j.Records)-maxRecords:]
	}
}

// Summary counts successful actions by kind, e.g. "buy_building=4 click=10".
func (j *Journal) Summary() string {
	counts := make(map[string]int)
	for _, r := range j.Records {
		if r.Success {
			counts[r.Action]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
