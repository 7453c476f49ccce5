package tracker

import (
	"github.com/cuemby/maintwatch/pkg/storage"
	"github.com/cuemby/maintwatch/pkg/types"
	"github.com/rs/zerolog"
)

// Tracker remembers the last maintenance event and reports changes
type Tracker struct {
	store   storage.Store
	persist bool
	current types.MaintenanceEvent
	logger  zerolog.Logger
}

// New creates a tracker. With persist set, the starting event is loaded
// from store and every change is written back; otherwise the tracker
// starts from None and never touches store.
func New(store storage.Store, persist bool, logger zerolog.Logger) *Tracker {
	t := &Tracker{
		store:   store,
		persist: persist,
		current: types.None,
		logger:  logger,
	}

	if persist {
		t.current = t.load()
		t.logger.Info().
			Str("event", t.current.String()).
			Msg("Loaded persisted maintenance state")
	}

	return t
}

// Current returns the event held in memory
func (t *Tracker) Current() types.MaintenanceEvent {
	return t.current
}

// Observe feeds one response body into the tracker. It returns the
// transition and true when the normalized value differs from the current
// event, and false when it repeats it.
func (t *Tracker) Observe(raw string) (*types.Transition, bool) {
	incoming := types.Normalize(raw)

	if t.persist {
		// Honor changes made on disk since the last poll, e.g. a restart
		// or an operator reset
		t.current = t.load()
	}

	if incoming == t.current {
		return nil, false
	}

	tr := &types.Transition{Previous: t.current, Current: incoming}
	t.current = incoming

	if t.persist {
		if err := t.store.Save(incoming); err != nil {
			t.logger.Error().Err(err).
				Str("event", incoming.String()).
				Msg("Failed to persist maintenance state")
		}
	}

	return tr, true
}

func (t *Tracker) load() types.MaintenanceEvent {
	event, err := t.store.Load()
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to read persisted maintenance state, assuming NONE")
		return types.None
	}
	return event
}
