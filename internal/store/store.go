package store

import (
	"context"
	"encoding/json"
	"log"
)

// Backend is a raw key-value engine. Backends are allowed to fail; the
// Adapter absorbs every failure.
type Backend interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Adapter is the single persistence boundary of the quiz engine. All three
// operations are total: a backend or encoding failure degrades to a no-op
// (Save, Delete) or an absent result (Load). Persistence is best-effort and
// never required for correctness of the in-memory session.
type Adapter struct {
	backend Backend
	logf    func(format string, args ...interface{})
}

func NewAdapter(b Backend) *Adapter {
	return &Adapter{backend: b, logf: log.Printf}
}

// Save serializes v under key. Failures are logged and swallowed.
func (a *Adapter) Save(ctx context.Context, key string, v interface{}) {
	buf, err := json.Marshal(v)
	if err != nil {
		a.logf("store: save %q: marshal: %v", key, err)
		return
	}
	if err := a.backend.Put(ctx, key, string(buf)); err != nil {
		a.logf("store: save %q: %v", key, err)
	}
}

// Load reads key into dst. Returns false when nothing usable is persisted:
// missing key, backend failure, or a corrupt value.
func (a *Adapter) Load(ctx context.Context, key string, dst interface{}) bool {
	val, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		a.logf("store: load %q: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		a.logf("store: load %q: corrupt value: %v", key, err)
		return false
	}
	return true
}

// Delete removes key. Failures are logged and swallowed.
func (a *Adapter) Delete(ctx context.Context, key string) {
	if err := a.backend.Delete(ctx, key); err != nil {
		a.logf("store: delete %q: %v", key, err)
	}
}
