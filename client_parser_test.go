package pop3appid

import (
	"testing"
)

func newClientTestParser() (*ClientParser, *testSession) {
	server := NewServerParser()
	return NewClientParser(server), newTestSession()
}

func TestFeedClientUserPassWithoutGotUser(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("USER alice\r\nPASS s3cret\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status = %v, want StatusInProgress", status)
	}
	if flow.Username != "alice" {
		t.Fatalf("username = %q, want alice", flow.Username)
	}
	// PASS does not transition to TRANS until the server side has
	// recorded a successful login (got_user), which this test never
	// drives — only the client side is under test here.
	if flow.Client != ClientAuth {
		t.Fatalf("client state = %v, want AUTH", flow.Client)
	}

	session.AssertExpectations(t)
}

func TestFeedClientTransactionCommandAfterGotUser(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()
	flow.GotUser = true

	session.On("AddApp", AppIDPOP3, AppIDPOP3, "").Return()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("PASS s3cret\r\nSTAT\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status = %v, want StatusInProgress", status)
	}
	if flow.Client != ClientTrans {
		t.Fatalf("client state = %v, want TRANS", flow.Client)
	}
	if !flow.Detected {
		t.Fatalf("flow should be marked detected")
	}

	session.AssertExpectations(t)
}

// TestFeedClientApopAtomic covers §8 P5.
func TestFeedClientApopAtomic(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("APOP bob c4fa5\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status = %v, want StatusInProgress", status)
	}
	if flow.Client != ClientTrans {
		t.Fatalf("client state = %v, want TRANS", flow.Client)
	}
	if flow.Username != "bob" {
		t.Fatalf("username = %q, want bob", flow.Username)
	}

	session.AssertExpectations(t)
}

// TestFeedClientBacktickSanitization covers §8 P8.
func TestFeedClientBacktickSanitization(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("USER foo`bar@x\r\n"), Session: session})
	if flow.Username != "foo" {
		t.Fatalf("username = %q, want foo", flow.Username)
	}

	session.AssertExpectations(t)
}

// TestFeedClientUsernameOverflowAbandonsCapture covers the original
// detector's p == p_end loop guard: an argument longer than
// usernameCap is dropped entirely, not stored as a truncated prefix.
func TestFeedClientUsernameOverflowAbandonsCapture(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	long := make([]byte, usernameCap+10)
	for i := range long {
		long[i] = 'a'
	}
	payload := append([]byte("USER "), long...)
	payload = append(payload, '\r', '\n')

	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: payload, Session: session})
	if flow.Username != "" {
		t.Fatalf("username = %q, want empty after overflow", flow.Username)
	}

	session.AssertExpectations(t)
}

func TestFeedClientNonPop3TerminatesDetection(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("GET / HTTP/1.1\r\n"), Session: session})
	if status != StatusSuccess {
		t.Fatalf("status = %v, want StatusSuccess", status)
	}
	if flow.NeedContinue {
		t.Fatalf("need_continue should be cleared")
	}
	if !session.GetFlag(FlagClientDetected) {
		t.Fatalf("FlagClientDetected should be set")
	}

	session.AssertExpectations(t)
}

func TestFeedClientAuthMechanismCaptured(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	session.On("AddApp", AppIDPOP3, AppIDPOP3, "").Return()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("AUTH PLAIN\r\nSTAT\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status = %v, want StatusInProgress", status)
	}
	if flow.AuthMechanism != "PLAIN" {
		t.Fatalf("auth mechanism = %q, want PLAIN", flow.AuthMechanism)
	}
	if flow.Client != ClientTrans {
		t.Fatalf("client state = %v, want TRANS", flow.Client)
	}

	session.AssertExpectations(t)
}

func TestFeedClientListNoArgSetsExpectMultiline(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()
	flow.Client = ClientTrans

	session.On("AddApp", AppIDPOP3, AppIDPOP3, "").Return()

	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("LIST\r\n"), Session: session})
	if !flow.ExpectMultiline {
		t.Fatalf("ExpectMultiline should be set after a bare LIST")
	}

	session.AssertExpectations(t)
}

func TestFeedClientListWithArgIsSingleLine(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()
	flow.Client = ClientTrans
	flow.ExpectMultiline = true

	session.On("AddApp", AppIDPOP3, AppIDPOP3, "").Return()

	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("LIST 1\r\n"), Session: session})
	if flow.ExpectMultiline {
		t.Fatalf("ExpectMultiline should be cleared after LIST with a message argument")
	}

	session.AssertExpectations(t)
}

func TestFeedClientStatDoesNotSetExpectMultiline(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()
	flow.Client = ClientTrans
	flow.ExpectMultiline = true

	session.On("AddApp", AppIDPOP3, AppIDPOP3, "").Return()

	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("STAT\r\n"), Session: session})
	if flow.ExpectMultiline {
		t.Fatalf("ExpectMultiline should be cleared after STAT")
	}

	session.AssertExpectations(t)
}

// TestFeedClientCapaInAuthPhaseSetsExpectMultiline covers RFC 2449:
// CAPA is explicitly allowed before login, and its reply is multi-line
// regardless of which phase sent it.
func TestFeedClientCapaInAuthPhaseSetsExpectMultiline(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("CAPA\r\n"), Session: session})
	if !flow.ExpectMultiline {
		t.Fatalf("ExpectMultiline should be set after CAPA in the authorization phase")
	}
	if flow.Client != ClientAuth {
		t.Fatalf("client state = %v, want AUTH (CAPA causes no transition)", flow.Client)
	}

	session.AssertExpectations(t)
}

// TestFeedClientUserSplitMidArgument covers §8 P7 for the client
// direction: a USER argument split right in the middle ("USER al" /
// "ice\r\n") must resolve to the same username as the command arriving
// whole, not a false conclusion that the flow isn't POP3.
func TestFeedClientUserSplitMidArgument(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("USER al"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status after first half = %v, want StatusInProgress", status)
	}
	if flow.Username != "" {
		t.Fatalf("username should not be set yet, got %q", flow.Username)
	}

	status = parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("ice\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status after second half = %v, want StatusInProgress", status)
	}
	if flow.Username != "alice" {
		t.Fatalf("username = %q, want alice", flow.Username)
	}

	session.AssertExpectations(t)
}

// TestFeedClientAuthMechanismSplitMidArgument covers the same §8 P7
// boundary for a speculative AUTH argument.
func TestFeedClientAuthMechanismSplitMidArgument(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	session.On("AddApp", AppIDPOP3, AppIDPOP3, "").Return()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("AUTH PL"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status after first half = %v, want StatusInProgress", status)
	}
	if flow.Client != ClientTrans {
		t.Fatalf("client state = %v, want TRANS (set immediately on a non-empty AUTH argument)", flow.Client)
	}

	status = parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("AIN\r\nSTAT\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status after second half = %v, want StatusInProgress", status)
	}
	if flow.AuthMechanism != "PLAIN" {
		t.Fatalf("auth mechanism = %q, want PLAIN", flow.AuthMechanism)
	}

	session.AssertExpectations(t)
}

// TestFeedClientCommandPatternSplitMidBytes covers §8 P7 where the
// split falls inside the anchored command pattern itself, before any
// argument capture begins.
func TestFeedClientCommandPatternSplitMidBytes(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()
	flow.Client = ClientTrans

	session.On("AddApp", AppIDPOP3, AppIDPOP3, "").Return()

	status := parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("LIS"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status after first half = %v, want StatusInProgress", status)
	}

	status = parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("T\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status after second half = %v, want StatusInProgress", status)
	}
	if !flow.ExpectMultiline {
		t.Fatalf("ExpectMultiline should be set after a bare LIST split mid-pattern")
	}

	session.AssertExpectations(t)
}

func TestFeedClientStlsThenAuthDowngrade(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("STLS\r\n"), Session: session})
	if flow.Client != ClientSTLSPending {
		t.Fatalf("client state = %v, want STLS_PENDING", flow.Client)
	}

	// Per §9(b), any subsequent client command downgrades STLS_PENDING
	// back to AUTH, even without an explicit server -ERR.
	parser.FeedClient(flow, Args{Direction: FromInitiator, Payload: []byte("NOOP\r\n"), Session: session})
	if flow.Client != ClientAuth {
		t.Fatalf("client state = %v, want AUTH after downgrade", flow.Client)
	}

	session.AssertExpectations(t)
}

func TestFeedClientCrossDirectionHook(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()

	status := parser.FeedClient(flow, Args{Direction: FromResponder, Payload: []byte("+OK greetings\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status = %v, want StatusInProgress", status)
	}
	if flow.Server != ServerResponse {
		t.Fatalf("server state = %v, want RESPONSE", flow.Server)
	}

	session.AssertExpectations(t)
}

func TestFeedClientCrossDirectionHookClearsFlagOnError(t *testing.T) {
	parser, session := newClientTestParser()
	flow := NewFlowState()
	session.SetFlag(FlagClientGetsServerPackets)

	status := parser.FeedClient(flow, Args{Direction: FromResponder, Payload: []byte("garbage without status prefix\r\n"), Session: session})
	if status != StatusInProgress {
		t.Fatalf("status = %v, want StatusInProgress", status)
	}
	if session.GetFlag(FlagClientGetsServerPackets) {
		t.Fatalf("FlagClientGetsServerPackets should have been cleared on parse failure")
	}

	session.AssertExpectations(t)
}
