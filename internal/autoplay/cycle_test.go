package autoplay

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/atom-clicker/internal/api"
	"github.com/talgya/atom-clicker/internal/catalog"
	"github.com/talgya/atom-clicker/internal/engine"
	"github.com/talgya/atom-clicker/internal/persistence"
)

func newGameServer(t *testing.T) (*api.Server, string) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)

	srv := &api.Server{Session: engine.NewSession(cat, db, 1), Eng: engine.NewEngine(60)}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		db.Close()
	})
	return srv, ts.URL
}

func TestBot_ClicksThenBuys(t *testing.T) {
	srv, url := newGameServer(t)
	bot := NewBot(url, nil, Options{ClicksPerCycle: 20})

	d, res, err := bot.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ActionClick, d.Action)
	assert.True(t, res.Success)
	assert.Equal(t, "20", srv.Session.View().Atoms)

	// Producing one atom unlocks the first rare atom at 10.
	d, res, err = bot.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ActionBuyUpgrade, d.Action)
	assert.Equal(t, "Rare Atom 1", d.Target)
	assert.True(t, res.Success)

	d, _, err = bot.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ActionClick, d.Action)

	d, res, err = bot.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ActionBuyBuilding, d.Action)
	assert.Equal(t, "Electron", d.Target)
	assert.True(t, res.Success)
	assert.Equal(t, 1, srv.Session.View().Buildings[0].Owned)

	assert.Equal(t, "buy_building=1 buy_upgrade=1 click=2", bot.Journal.Summary())
}

func TestBot_ClicksBoost(t *testing.T) {
	srv, url := newGameServer(t)
	b, err := srv.Session.SpawnBoost("Click Frenzy")
	require.NoError(t, err)

	bot := NewBot(url, nil, Options{})
	d, res, err := bot.Cycle()
	require.NoError(t, err)
	assert.Equal(t, ActionClickBoost, d.Action)
	assert.Equal(t, b.ID, d.Target)
	assert.True(t, res.Success)
	assert.Len(t, srv.Session.View().ActiveBoosts, 1)
}

func TestActor_RejectedPurchaseIsNotAnError(t *testing.T) {
	_, url := newGameServer(t)
	res, err := NewActor(url).Act(Decision{Action: ActionBuyBuilding, Target: "Galaxy"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Details, "409")

	_, err = NewActor(url).Act(Decision{Action: "dance"})
	assert.Error(t, err)
}

func TestObserver_Unreachable(t *testing.T) {
	_, err := NewObserver("http://127.0.0.1:1").Observe()
	assert.Error(t, err)
}
