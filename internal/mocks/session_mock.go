// Package mocks holds test doubles for this module's collaborator
// interfaces, grounded on the teacher's internal/mocks package and its
// session_test.go usage of testify's mock.Mock.
package mocks

import (
	"github.com/stretchr/testify/mock"

	pop3appid "github.com/netappid/pop3appid"
)

// Session is a testify mock of pop3appid.Session.
type Session struct {
	mock.Mock

	flags pop3appid.SessionFlag
	blobs map[pop3appid.BlobKey]any
}

// NewSession creates a Session mock with working flag/blob storage, so
// tests only need to set expectations on the reporting methods.
func NewSession() *Session {
	return &Session{blobs: make(map[pop3appid.BlobKey]any)}
}

func (s *Session) GetBlob(key pop3appid.BlobKey) (any, bool) {
	v, ok := s.blobs[key]
	return v, ok
}

func (s *Session) SetBlob(key pop3appid.BlobKey, blob any, free func()) {
	s.blobs[key] = blob
}

func (s *Session) GetFlag(flag pop3appid.SessionFlag) bool {
	return s.flags&flag != 0
}

func (s *Session) SetFlag(flag pop3appid.SessionFlag) {
	s.flags |= flag
}

func (s *Session) ClearFlag(flag pop3appid.SessionFlag) {
	s.flags &^= flag
}

func (s *Session) AddApp(clientApp, payloadApp pop3appid.AppID, version string) {
	s.Called(clientApp, payloadApp, version)
}

func (s *Session) AddUser(username string, app pop3appid.AppID, success bool) {
	s.Called(username, app, success)
}

func (s *Session) AddServiceConsumeSubtype(app pop3appid.AppID, vendor, version string, subtype []pop3appid.Subtype) {
	s.Called(app, vendor, version, subtype)
}

func (s *Session) FailService() {
	s.Called()
}

func (s *Session) ServiceInProcess() {
	s.Called()
}
