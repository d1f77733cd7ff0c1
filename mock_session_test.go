package pop3appid

import (
	"github.com/stretchr/testify/mock"
)

// testSession is a testify mock of Session, kept in-package so the
// white-box tests in this package do not import a package that in turn
// imports pop3appid (which would form an import cycle for the test
// binary).
type testSession struct {
	mock.Mock

	flags SessionFlag
	blobs map[BlobKey]any
}

// newTestSession creates a testSession mock with working flag/blob
// storage, so tests only need to set expectations on the reporting
// methods.
func newTestSession() *testSession {
	return &testSession{blobs: make(map[BlobKey]any)}
}

func (s *testSession) GetBlob(key BlobKey) (any, bool) {
	v, ok := s.blobs[key]
	return v, ok
}

func (s *testSession) SetBlob(key BlobKey, blob any, free func()) {
	s.blobs[key] = blob
}

func (s *testSession) GetFlag(flag SessionFlag) bool {
	return s.flags&flag != 0
}

func (s *testSession) SetFlag(flag SessionFlag) {
	s.flags |= flag
}

func (s *testSession) ClearFlag(flag SessionFlag) {
	s.flags &^= flag
}

func (s *testSession) AddApp(clientApp, payloadApp AppID, version string) {
	s.Called(clientApp, payloadApp, version)
}

func (s *testSession) AddUser(username string, app AppID, success bool) {
	s.Called(username, app, success)
}

func (s *testSession) AddServiceConsumeSubtype(app AppID, vendor, version string, subtype []Subtype) {
	s.Called(app, vendor, version, subtype)
}

func (s *testSession) FailService() {
	s.Called()
}

func (s *testSession) ServiceInProcess() {
	s.Called()
}
