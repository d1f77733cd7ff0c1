package pop3appid

import (
	"sync"

	"github.com/google/uuid"
)

// FlowKey identifies one TCP flow across calls into this package. It is
// a [uuid.UUID] rather than the 5-tuple the real framework would key on,
// since 5-tuple reconstruction belongs to the packet-reassembly layer
// this core deliberately excludes (§1).
type FlowKey = uuid.UUID

// NewFlowKey allocates a fresh, random flow identifier, for use by
// embedders and tests that have no 5-tuple of their own to key on.
func NewFlowKey() FlowKey {
	return uuid.New()
}

// FlowStore is a concurrency-safe registry of per-flow blobs, grounded
// on the teacher's Server session registry (a mutex-protected map plus
// graceful-shutdown draining). §5 guarantees that any one FlowState is
// touched by exactly one worker at a time — but the store itself, which
// many workers share to look flows up and tear them down, needs its own
// synchronization.
//
// FlowStore is a usable [Session] blob-storage backend for embedders
// that have no session container of their own; see [NoopSession].
type FlowStore struct {
	mu    sync.RWMutex
	flows map[FlowKey]*flowEntry
}

type flowEntry struct {
	blob map[BlobKey]any
	free map[BlobKey]func()
}

// NewFlowStore creates an empty store.
func NewFlowStore() *FlowStore {
	return &FlowStore{flows: make(map[FlowKey]*flowEntry)}
}

// Get returns the blob attached under key for the flow identified by k.
// A flow with no entry reports false; Get never creates an entry.
func (s *FlowStore) Get(k FlowKey, key BlobKey) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.flows[k]
	if !ok {
		return nil, false
	}
	v, ok := e.blob[key]
	return v, ok
}

// Set attaches blob under key for the flow identified by k, registering
// free to be called when the flow is closed.
func (s *FlowStore) Set(k FlowKey, key BlobKey, blob any, free func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.flows[k]
	if !ok {
		e = &flowEntry{blob: make(map[BlobKey]any), free: make(map[BlobKey]func())}
		s.flows[k] = e
	}
	e.blob[key] = blob
	if free != nil {
		e.free[key] = free
	}
}

// Close tears a flow down, invoking every registered free function and
// removing it from the store. Calling Close twice for the same key is a
// no-op.
func (s *FlowStore) Close(k FlowKey) {
	s.mu.Lock()
	e, ok := s.flows[k]
	if ok {
		delete(s.flows, k)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	for _, free := range e.free {
		free()
	}
}

// Len reports the number of live flows, for diagnostics and tests.
func (s *FlowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}
