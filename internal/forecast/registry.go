package forecast

import (
	"strconv"
	"sync"
)

// Registry hands out one forecaster per user, created on first use.
type Registry struct {
	store BundleStore
	opts  Options

	mu    sync.Mutex
	users map[int]*Forecaster
}

// NewRegistry returns a registry whose forecasters persist through st.
func NewRegistry(st BundleStore, opts Options) *Registry {
	return &Registry{store: st, opts: opts, users: make(map[int]*Forecaster)}
}

// BundleName is the bundle key of a user's forecaster.
func BundleName(userID int) string {
	return "forecaster/" + strconv.Itoa(userID)
}

// Get returns the user's forecaster, restoring it from the store if needed.
func (r *Registry) Get(userID int) *Forecaster {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.users[userID]
	if !ok {
		f = New(BundleName(userID), r.store, r.opts)
		r.users[userID] = f
	}
	return f
}

// Forget drops the in-memory forecaster for a user.
func (r *Registry) Forget(userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
}

type bundleDeleter interface {
	DeleteBundle(name string) error
}

// Reset forgets the user's forecaster and deletes its persisted bundle
// when the store supports deletion.
func (r *Registry) Reset(userID int) error {
	r.Forget(userID)
	if d, ok := r.store.(bundleDeleter); ok {
		return d.DeleteBundle(BundleName(userID))
	}
	return nil
}
