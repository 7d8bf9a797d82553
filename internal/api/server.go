// Package api provides the HTTP API the game UI talks to.
// Reads and player actions are public. Speed control and forced boost
// spawns require the admin bearer token.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/talgya/atom-clicker/internal/engine"
	"github.com/talgya/atom-clicker/internal/persistence"
	"github.com/talgya/atom-clicker/internal/save"
)

const (
	maxBodyBytes      = 1 << 20
	defaultSnapshots  = 20
	maxSnapshotLimit  = 200
	defaultEventLimit = 50
)

// Server serves one game session over HTTP.
type Server struct {
	Session  *engine.Session
	Eng      *engine.Engine
	Addr     string
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	// ClickLimiter throttles POST /click per client. Nil = unlimited.
	ClickLimiter *RateLimiter

	hub     *Hub
	subID   uint64
	started time.Time
	once    sync.Once
}

// Handler returns the routed handler and starts the websocket hub.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		s.started = time.Now()
		s.hub = NewHub()
		go s.hub.Run()
		var events <-chan engine.Event
		s.subID, events = s.Session.Subscribe()
		go s.forwardEvents(events)
	})

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	// Player actions.
	v1.HandleFunc("/click", RateLimitMiddleware(s.ClickLimiter, s.handleClick)).Methods(http.MethodPost)
	v1.HandleFunc("/buildings/{name}/buy", s.handleBuyBuilding).Methods(http.MethodPost)
	v1.HandleFunc("/upgrades/{name}/buy", s.handleBuyUpgrade).Methods(http.MethodPost)
	v1.HandleFunc("/boosts/{id}/click", s.handleClickBoost).Methods(http.MethodPost)

	// Saves.
	v1.HandleFunc("/save", s.handleExport).Methods(http.MethodGet)
	v1.HandleFunc("/save", s.handleSave).Methods(http.MethodPost)
	v1.HandleFunc("/load", s.handleLoad).Methods(http.MethodPost)
	v1.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	v1.HandleFunc("/snapshots", s.handleListSnapshots).Methods(http.MethodGet)
	v1.HandleFunc("/snapshots", s.handleCreateSnapshot).Methods(http.MethodPost)
	v1.HandleFunc("/snapshots/{id}", s.handleGetSnapshot).Methods(http.MethodGet)
	v1.HandleFunc("/snapshots/{id}/restore", s.handleRestoreSnapshot).Methods(http.MethodPost)

	// Admin endpoints (POST requires bearer token).
	v1.HandleFunc("/speed", s.adminOnly(s.handleSpeed)).Methods(http.MethodGet, http.MethodPost)
	v1.HandleFunc("/boosts/spawn", s.adminOnly(s.handleSpawnBoost)).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.hub.ServeWs).Methods(http.MethodGet)

	return corsMiddleware(r)
}

// Start begins serving the HTTP API in a goroutine. The returned server
// can be shut down by the caller.
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "", "click_limit", s.ClickLimiter != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// Close stops event forwarding and disconnects websocket clients.
func (s *Server) Close() {
	if s.hub == nil {
		return
	}
	s.Session.Unsubscribe(s.subID)
	s.hub.Stop()
}

// BroadcastState pushes the current view to websocket clients, if any.
func (s *Server) BroadcastState() {
	if s.hub == nil || s.hub.Clients() == 0 {
		return
	}
	s.hub.Publish("state", s.Session.View())
}

func (s *Server) forwardEvents(events <-chan engine.Event) {
	for e := range events {
		s.hub.Publish("event", e)
	}
}

// allowedOrigins lists frontend origins allowed by CORS and the websocket.
// Set CORS_ORIGINS to a comma-separated list; localhost dev servers are
// always allowed.
func allowedOrigins() map[string]bool {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowed[origin] = true
			}
		}
	}
	return allowed
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := allowedOrigins()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly guards POST requests with the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ATOMSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// decodeBody reads an optional JSON body into v. An empty body is fine.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	frame := s.Eng.Frame()
	writeJSON(w, map[string]any{
		"frame":   frame,
		"fps":     s.Eng.FPS,
		"speed":   s.Eng.Speed(),
		"running": s.Eng.Running(),
		"uptime":  engine.Uptime(frame, s.Eng.FPS),
		"clock":   s.Session.Clock(),
		"clients": s.hub.Clients(),
		"since":   s.started.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.View())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultEventLimit, 1, 100)
	writeJSON(w, s.Session.Events(limit))
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	// Pointer position is relayed back for the UI's floating text.
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	yield := s.Session.Click()
	writeJSON(w, map[string]any{"yield": yield.String(), "x": req.X, "y": req.Y})
}

func (s *Server) handleBuyBuilding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bulk bool `json:"bulk"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	name := mux.Vars(r)["name"]
	n, err := s.Session.BuyBuilding(name, req.Bulk)
	if err != nil {
		writeActionError(w, err)
		return
	}
	status := http.StatusOK
	if n == 0 {
		status = http.StatusConflict
	}
	writeJSONStatus(w, status, map[string]any{"name": name, "bought": n})
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ok, err := s.Session.BuyUpgrade(name)
	if err != nil {
		writeActionError(w, err)
		return
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	writeJSONStatus(w, status, map[string]any{"name": name, "bought": ok})
}

func (s *Server) handleClickBoost(w http.ResponseWriter, r *http.Request) {
	spec, err := s.Session.ClickBoost(mux.Vars(r)["id"])
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"name":     spec.Name,
		"effect":   spec.Effect.Describe(),
		"duration": spec.Duration,
	})
}

func (s *Server) handleSpawnBoost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	b, err := s.Session.SpawnBoost(req.Name)
	if err != nil {
		writeActionError(w, err)
		return
	}
	slog.Info("boost spawned by admin", "name", b.Name, "id", b.ID)
	writeJSON(w, b)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	text, err := s.Session.Export()
	if err != nil {
		slog.Error("export failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"save": text})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Save(); err != nil {
		slog.Error("save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"saved": true})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Save string `json:"save"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Session.Load(strings.TrimSpace(req.Save)); err != nil {
		if errors.Is(err, save.ErrCorrupt) {
			http.Error(w, "save could not be loaded", http.StatusBadRequest)
			return
		}
		slog.Error("load failed", "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"loaded": true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeBody(r, &req); err != nil || !req.Confirm {
		http.Error(w, `reset requires {"confirm": true}`, http.StatusBadRequest)
		return
	}
	if err := s.Session.Reset(); err != nil {
		slog.Error("reset failed", "error", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"reset": true})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultSnapshots, 1, maxSnapshotLimit)
	list, err := s.Session.Snapshots(limit)
	if err != nil {
		slog.Error("list snapshots", "error", err)
		http.Error(w, "list snapshots failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	snap, err := s.Session.Snapshot(req.Label)
	if err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Session.GetSnapshot(mux.Vars(r)["id"])
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.RestoreSnapshot(mux.Vars(r)["id"]); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"loaded": true})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// writeActionError maps session errors onto HTTP statuses.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownItem),
		errors.Is(err, engine.ErrUnknownBoost),
		errors.Is(err, persistence.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, save.ErrCorrupt):
		http.Error(w, "save could not be loaded", http.StatusBadRequest)
	default:
		slog.Error("action failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return max(lo, min(v, hi))
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
