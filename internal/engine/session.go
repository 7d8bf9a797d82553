package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/talgya/atom-clicker/internal/catalog"
	"github.com/talgya/atom-clicker/internal/game"
	"github.com/talgya/atom-clicker/internal/persistence"
	"github.com/talgya/atom-clicker/internal/save"
)

var (
	// ErrUnknownItem is returned for a building or upgrade name the game does not hold.
	ErrUnknownItem = errors.New("unknown item")
	// ErrUnknownBoost is returned when a boost is not on screen (missed or already clicked).
	ErrUnknownBoost = errors.New("boost not on screen")
)

// Store is the save storage a session writes to. *persistence.DB implements it.
type Store interface {
	Put(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
	SaveSnapshot(label, data string) (persistence.Snapshot, error)
	ListSnapshots(limit int) ([]persistence.Snapshot, error)
	GetSnapshot(id string) (persistence.Snapshot, error)
}

var _ Store = (*persistence.DB)(nil)

// Event kinds.
const (
	EventUnlock         = "unlock"
	EventBoostSpawned   = "boost_spawned"
	EventBoostMissed    = "boost_missed"
	EventBoostActivated = "boost_activated"
	EventBoostExpired   = "boost_expired"
	EventSaved          = "saved"
	EventLoaded         = "loaded"
	EventLoadFailed     = "load_failed"
	EventReset          = "reset"
)

// UnreadableSaveLabel labels the snapshot holding a stored save that
// failed to load at startup.
const UnreadableSaveLabel = "unreadable save"

// maxEvents is how many recent events a session keeps for late subscribers.
const maxEvents = 100

// Event is a notable change in the game.
type Event struct {
	Time    time.Time     `json:"time"`
	Kind    string        `json:"kind"`
	Message string        `json:"message"`
	Name    string        `json:"name,omitempty"`
	Boost   *SpawnedBoost `json:"boost,omitempty"`
}

// Session owns the live game state. Every method is safe for concurrent
// use; the frame loop, HTTP handlers and autosave all go through it.
//
// saveMu orders writes to the stored save against swaps of the live state,
// so the stored key never ends up holding a game that was already replaced.
// It is always taken before mu.
type Session struct {
	saveMu  sync.Mutex
	mu      sync.Mutex
	state   *game.State
	catalog *catalog.Catalog
	codec   *save.Codec
	store   Store
	spawner *Spawner

	subMu   sync.Mutex
	subs    map[uint64]chan Event
	nextSub uint64
	events  []Event
}

// NewSession starts a fresh game from cat. Call LoadSaved to resume.
func NewSession(cat *catalog.Catalog, store Store, seed int64) *Session {
	return &Session{
		state:   cat.NewGame(),
		catalog: cat,
		codec:   save.NewCodec(cat),
		store:   store,
		spawner: NewSpawner(seed),
		subs:    make(map[uint64]chan Event),
	}
}

// LoadSaved replaces the fresh game with the stored save, if one exists.
// A corrupt save leaves the fresh game in place, is copied into a snapshot
// labelled UnreadableSaveLabel so the next Save cannot destroy it, and
// returns an error wrapping save.ErrCorrupt.
func (s *Session) LoadSaved() (bool, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	text, err := s.store.Get(persistence.SaveKey)
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read save: %w", err)
	}

	s.mu.Lock()
	err = s.swapLocked(text)
	s.mu.Unlock()
	if err != nil {
		snap, serr := s.store.SaveSnapshot(UnreadableSaveLabel, text)
		if serr != nil {
			return false, errors.Join(err, fmt.Errorf("keep unreadable save: %w", serr))
		}
		slog.Warn("unreadable save kept as snapshot", "id", snap.ID)
		return false, fmt.Errorf("%w (kept as snapshot %s)", err, snap.ID)
	}
	s.emit(Event{Kind: EventLoaded, Message: "Save loaded."})
	return true, nil
}

// swapLocked decodes text and replaces the live state only on success.
func (s *Session) swapLocked(text string) error {
	st, err := s.codec.Decode(text)
	if err != nil {
		slog.Warn("save rejected", "error", err)
		s.emit(Event{Kind: EventLoadFailed, Message: "The save could not be loaded."})
		return err
	}
	s.state = st
	s.spawner.Clear()
	s.state.ReevaluateUnlocks()
	return nil
}

// Advance moves the game forward by dt game seconds: production, boost
// expiry, unlocks and boost spawning.
func (s *Session) Advance(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := s.state.ActiveBoosts()
	s.state.Tick(dt)
	for _, a := range running {
		if a.ExpiresAt <= s.state.Clock {
			s.emit(Event{Kind: EventBoostExpired, Name: a.Name, Message: a.Name + " wore off."})
		}
	}
	s.unlocksLocked()

	spawned, missed := s.spawner.Advance(dt, s.state, s.catalog.Boosts)
	for _, b := range missed {
		s.emit(Event{Kind: EventBoostMissed, Name: b.Name, Message: b.Name + " faded away."})
	}
	if spawned != nil {
		slog.Debug("boost spawned", "name", spawned.Name, "id", spawned.ID)
		s.emit(Event{Kind: EventBoostSpawned, Name: spawned.Name, Message: spawned.Name + " appeared!", Boost: spawned})
	}
}

func (s *Session) unlocksLocked() {
	for _, u := range s.state.ReevaluateUnlocks() {
		s.emit(Event{Kind: EventUnlock, Name: u.Name, Message: "Upgrade available: " + u.Name})
	}
}

// Click grants one click and returns the yield.
func (s *Session) Click() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.state.Click()
	s.unlocksLocked()
	return v
}

// BuyBuilding buys the named building, as many as affordable when bulk is
// set. Zero bought means the purchase was rejected.
func (s *Session) BuyBuilding(name string, bulk bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.state.Building(name)
	if b == nil {
		return 0, fmt.Errorf("building %q: %w", name, ErrUnknownItem)
	}
	n := s.state.PurchaseBuilding(b, bulk)
	if n > 0 {
		s.unlocksLocked()
	}
	return n, nil
}

// BuyUpgrade buys the named upgrade. False means it is locked, owned or
// unaffordable.
func (s *Session) BuyUpgrade(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.state.Upgrade(name)
	if u == nil {
		return false, fmt.Errorf("upgrade %q: %w", name, ErrUnknownItem)
	}
	ok, err := s.state.PurchaseUpgrade(u)
	if err != nil {
		return ok, err
	}
	if ok {
		s.unlocksLocked()
	}
	return ok, nil
}

// ClickBoost activates the spawned boost with the given ID.
func (s *Session) ClickBoost(id string) (game.BoostSpec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.spawner.Take(id)
	if !ok {
		return game.BoostSpec{}, ErrUnknownBoost
	}
	spec, ok := s.catalog.Boost(b.Name)
	if !ok {
		return game.BoostSpec{}, fmt.Errorf("boost %q: %w", b.Name, ErrUnknownBoost)
	}
	if err := s.state.ActivateBoost(spec); err != nil {
		return spec, err
	}
	s.unlocksLocked()
	s.emit(Event{Kind: EventBoostActivated, Name: spec.Name, Message: spec.Effect.Describe()})
	return spec, nil
}

// SpawnBoost puts the named catalog boost on screen now.
func (s *Session) SpawnBoost(name string) (SpawnedBoost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalog.Boost(name); !ok {
		return SpawnedBoost{}, fmt.Errorf("boost %q: %w", name, ErrUnknownItem)
	}
	b := s.spawner.Force(name, s.state)
	s.emit(Event{Kind: EventBoostSpawned, Name: name, Message: name + " appeared!", Boost: &b})
	return b, nil
}

// Export returns the current save text without storing it.
func (s *Session) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec.Encode(s.state)
}

// Save writes the current save text under persistence.SaveKey.
func (s *Session) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	text, err := s.codec.Encode(s.state)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.store.Put(persistence.SaveKey, text); err != nil {
		return fmt.Errorf("store save: %w", err)
	}
	s.emit(Event{Kind: EventSaved, Message: "Game saved."})
	return nil
}

// Load replaces the game with the one in text and stores it. A corrupt
// save changes nothing.
func (s *Session) Load(text string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	err := s.swapLocked(text)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.store.Put(persistence.SaveKey, text); err != nil {
		return fmt.Errorf("store save: %w", err)
	}
	slog.Info("save loaded")
	s.emit(Event{Kind: EventLoaded, Message: "Save loaded."})
	return nil
}

// Reset deletes the stored save and starts over.
func (s *Session) Reset() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.store.Delete(persistence.SaveKey); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	s.mu.Lock()
	s.state = s.catalog.NewGame()
	s.spawner.Clear()
	s.mu.Unlock()

	slog.Info("game reset")
	s.emit(Event{Kind: EventReset, Message: "A new game begins."})
	return nil
}

// Snapshot stores the current save as a labelled snapshot.
func (s *Session) Snapshot(label string) (persistence.Snapshot, error) {
	text, err := s.Export()
	if err != nil {
		return persistence.Snapshot{}, err
	}
	return s.store.SaveSnapshot(label, text)
}

// Snapshots lists the newest snapshots, without their data.
func (s *Session) Snapshots(limit int) ([]persistence.Snapshot, error) {
	return s.store.ListSnapshots(limit)
}

// GetSnapshot returns one snapshot with its save text.
func (s *Session) GetSnapshot(id string) (persistence.Snapshot, error) {
	return s.store.GetSnapshot(id)
}

// RestoreSnapshot loads the snapshot with the given ID.
func (s *Session) RestoreSnapshot(id string) error {
	snap, err := s.GetSnapshot(id)
	if err != nil {
		return err
	}
	return s.Load(snap.Data)
}

// Clock returns the game clock in seconds.
func (s *Session) Clock() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clock
}

// Subscribe registers a listener for events. The channel is closed by
// Unsubscribe. Slow listeners miss events rather than block the game.
func (s *Session) Subscribe() (uint64, <-chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	ch := make(chan Event, 32)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *Session) Unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Events returns up to n of the most recent events, oldest first.
func (s *Session) Events(n int) []Event {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	start := len(s.events) - n
	if start < 0 {
		start = 0
	}
	return append([]Event(nil), s.events[start:]...)
}

func (s *Session) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.events = append(s.events, e)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
