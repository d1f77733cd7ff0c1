package pop3appid

import "sync"

// sanity check the interface is properly implemented, per the teacher's
// empty_mailbox.go idiom.
var _ Session = (*NoopSession)(nil)

// NoopSession is a trivial [Session] implementation backed by a
// [FlowStore] for blob storage and an in-memory bitmask for flags —
// both of which affect this package's own control flow and so must
// behave correctly — but which discards every report
// (AddApp/AddUser/AddServiceConsumeSubtype/FailService/ServiceInProcess)
// instead of forwarding it anywhere. It is grounded on the teacher's
// EmptyMailboxProvider/AllowAllAuthorizer: a working default for tests
// and for embedders with no detection framework of their own.
type NoopSession struct {
	store *FlowStore
	key   FlowKey

	mu    sync.Mutex
	flags SessionFlag
}

// NewNoopSession creates a NoopSession for flow key in store.
func NewNoopSession(store *FlowStore, key FlowKey) *NoopSession {
	return &NoopSession{store: store, key: key}
}

func (s *NoopSession) GetBlob(key BlobKey) (any, bool) {
	return s.store.Get(s.key, key)
}

func (s *NoopSession) SetBlob(key BlobKey, blob any, free func()) {
	s.store.Set(s.key, key, blob, free)
}

func (s *NoopSession) GetFlag(flag SessionFlag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags&flag != 0
}

func (s *NoopSession) SetFlag(flag SessionFlag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags |= flag
}

func (s *NoopSession) ClearFlag(flag SessionFlag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags &^= flag
}

func (s *NoopSession) AddApp(clientApp, payloadApp AppID, version string)        {}
func (s *NoopSession) AddUser(username string, app AppID, success bool)         {}
func (s *NoopSession) FailService()                                             {}
func (s *NoopSession) ServiceInProcess()                                        {}
func (s *NoopSession) AddServiceConsumeSubtype(app AppID, vendor, version string, subtype []Subtype) {
}
