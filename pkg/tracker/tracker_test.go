package tracker

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cuemby/maintwatch/pkg/storage"
	"github.com/cuemby/maintwatch/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrate = types.EventMigrate

// failingStore returns errors for every operation
type failingStore struct {
	saves int
}

func (f *failingStore) Load() (types.MaintenanceEvent, error) {
	return types.None, errors.New("disk on fire")
}

func (f *failingStore) Save(types.MaintenanceEvent) error {
	f.saves++
	return errors.New("disk on fire")
}

func (f *failingStore) Clear() error { return nil }
func (f *failingStore) Close() error { return nil }

func TestObserve_RepeatIsIgnored(t *testing.T) {
	bodies := []string{"NONE", migrate, "TERMINATE_ON_HOST_MAINTENANCE", "FUTURE"}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			tr := New(storage.NewMemoryStore(types.None), false, zerolog.Nop())

			tr.Observe(body)
			_, changed := tr.Observe(body)
			assert.False(t, changed)
		})
	}
}

func TestObserve_ChangeEmitsOneTransition(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "none to migrate", a: "NONE", b: migrate, want: true},
		{name: "migrate to none", a: migrate, b: "NONE", want: true},
		{name: "migrate to terminate", a: migrate, b: types.EventTerminate, want: true},
		{name: "none to padded none", a: "NONE", b: " NONE\n", want: false},
		{name: "padded event", a: migrate, b: migrate + "\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(storage.NewMemoryStore(types.None), false, zerolog.Nop())
			tr.Observe(tt.a)

			transition, changed := tr.Observe(tt.b)
			assert.Equal(t, tt.want, changed)
			if tt.want {
				require.NotNil(t, transition)
				assert.Equal(t, types.Normalize(tt.a), transition.Previous)
				assert.Equal(t, types.Normalize(tt.b), transition.Current)
			} else {
				assert.Nil(t, transition)
			}
			assert.Equal(t, types.Normalize(tt.b), tr.Current())
		})
	}
}

func TestObserve_FirstNoneIsNotATransition(t *testing.T) {
	tr := New(storage.NewMemoryStore(types.None), false, zerolog.Nop())

	_, changed := tr.Observe("NONE")
	assert.False(t, changed)
}

// TestRestart_PersistedEventNotRetriggered tests a restart mid-maintenance
func TestRestart_PersistedEventNotRetriggered(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "last_event"))

	first := New(store, true, zerolog.Nop())
	_, changed := first.Observe(migrate)
	require.True(t, changed)

	// Process restarts
	second := New(store, true, zerolog.Nop())
	assert.Equal(t, types.Event(migrate), second.Current())

	_, changed = second.Observe(migrate)
	assert.False(t, changed)

	transition, changed := second.Observe("NONE")
	require.True(t, changed)
	assert.False(t, transition.Entering())
}

func TestRestart_PersistenceDisabledStartsFromNone(t *testing.T) {
	store := storage.NewMemoryStore(types.Event(migrate))

	tr := New(store, false, zerolog.Nop())
	assert.True(t, tr.Current().IsNone())

	transition, changed := tr.Observe(migrate)
	require.True(t, changed)
	assert.True(t, transition.Entering())

	// Store untouched when persistence is disabled
	stored, _ := store.Load()
	assert.Equal(t, types.Event(migrate), stored)
	require.NoError(t, store.Save(types.None))
	_, changed = tr.Observe(migrate)
	assert.False(t, changed, "in-memory state is authoritative without persistence")
}

// TestObserve_RereadsStore tests that external edits between polls are honored
func TestObserve_RereadsStore(t *testing.T) {
	store := storage.NewMemoryStore(types.None)
	tr := New(store, true, zerolog.Nop())

	_, changed := tr.Observe(migrate)
	require.True(t, changed)

	// Operator resets the state out of band
	require.NoError(t, store.Clear())

	transition, changed := tr.Observe(migrate)
	require.True(t, changed)
	assert.True(t, transition.Previous.IsNone())
}

func TestObserve_PersistsChanges(t *testing.T) {
	store := storage.NewMemoryStore(types.None)
	tr := New(store, true, zerolog.Nop())

	tr.Observe(migrate)
	stored, _ := store.Load()
	assert.Equal(t, types.Event(migrate), stored)

	tr.Observe("NONE")
	stored, _ = store.Load()
	assert.True(t, stored.IsNone())
}

func TestObserve_StoreErrorsAreAbsorbed(t *testing.T) {
	store := &failingStore{}
	tr := New(store, true, zerolog.Nop())
	assert.True(t, tr.Current().IsNone())

	transition, changed := tr.Observe(migrate)
	require.True(t, changed)
	assert.True(t, transition.Entering())
	assert.Equal(t, 1, store.saves)

	// Unreadable store degrades to NONE, so the event is seen again
	_, changed = tr.Observe(migrate)
	assert.True(t, changed)
}
