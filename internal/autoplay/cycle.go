package autoplay

import (
	"fmt"
	"log/slog"
)

// Bot ties an observer, the decision rules and an actor together.
type Bot struct {
	Observer *Observer
	Actor    *Actor
	Journal  *Journal
	Options  Options
}

// NewBot creates a bot for the API at baseURL.
func NewBot(baseURL string, journal *Journal, opts Options) *Bot {
	if journal == nil {
		journal = LoadJournal("")
	}
	return &Bot{
		Observer: NewObserver(baseURL),
		Actor:    NewActor(baseURL),
		Journal:  journal,
		Options:  opts,
	}
}

// Cycle runs one observe → decide → act round.
func (b *Bot) Cycle() (Decision, *Result, error) {
	snap, err := b.Observer.Observe()
	if err != nil {
		return Decision{}, nil, fmt.Errorf("observe: %w", err)
	}
	p := Triage(snap)
	d := Decide(snap, p, b.Options)
	slog.Debug("autoplay decision", "action", d.Action, "target", d.Target, "phase", p.Phase, "rationale", d.Rationale)

	res, err := b.Actor.Act(d)
	if err != nil {
		return d, nil, fmt.Errorf("act %s: %w", d.Action, err)
	}
	b.Journal.Record(CycleRecord{
		Clock:   snap.Status.Clock,
		Phase:   p.Phase,
		Action:  d.Action,
		Target:  d.Target,
		Success: res.Success,
		Atoms:   snap.State.AtomsShort,
		APS:     snap.State.APSShort,
	})
	return d, res, nil
}
