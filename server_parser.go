package pop3appid

import (
	"bytes"

	"github.com/pkg/errors"
)

const (
	pop3OK   = "+OK"
	pop3ERR  = "-ERR"
	pop3Term = ".\r\n"

	// minResponseHeadroom mirrors the original detector's
	// "size < sizeof(POP3_ERR)" guard, whose sizeof includes the C
	// string's NUL terminator — one byte more than len("-ERR").
	minResponseHeadroom = 5
)

// ServerParser implements server-direction POP3 response parsing
// (§4.4). It is stateless; all mutable state lives in the [FlowState]
// passed to FeedServer.
type ServerParser struct{}

// NewServerParser creates a ServerParser.
func NewServerParser() *ServerParser {
	return &ServerParser{}
}

// FeedServer parses as many complete response lines as data contains,
// advancing flow.Server as needed and reporting AddUser/AddApp/flag
// side effects on session along the way. extractVendorInfo gates the
// vendor/version/subtype scan of a successful greeting: only the
// service detector wants it, not the client detector's cross-direction
// hook (§4.4, §4.4.1).
//
// Any line left incomplete by the end of data (§4.2's Ok(incomplete))
// is stashed on flow and prepended to the next call, so that splitting
// the same byte stream at a different packet boundary produces the
// same result (§8 P7). FeedServer returns ErrMalformedResponse the
// first time a line is genuinely malformed — matching the original
// detector's behavior of bailing out of the whole call on corruption —
// and records the same in flow.Error.
//
// A completed status line commits as a single-line response, or opens
// a CONTINUE body, based on flow.ExpectMultiline rather than on
// whether further bytes happen to already be sitting in this call's
// buffer: the latter would make the decision depend on where the
// stream happens to be cut, which P7 forbids. The outer loop below
// keeps committing single-line responses as long as more status lines
// follow in the same buffer, instead of misreading a second pipelined
// response as the first one's body.
func (p *ServerParser) FeedServer(flow *FlowState, session Session, data []byte, extractVendorInfo bool) error {
	if len(flow.pendingServer) > 0 {
		data = append(flow.pendingServer, data...)
		flow.pendingServer = nil
	}
	pos := 0
	end := len(data)

	for flow.Server == ServerConnect || flow.Server == ServerResponse {
		lineStart := pos
		wasConnect := flow.Server == ServerConnect
		begin := -1
		if wasConnect {
			begin = lineStart
		}

		if end-pos < 2 {
			flow.pendingServer = append([]byte(nil), data[lineStart:]...)
			return nil
		}

		if begin < 0 && data[pos] == '+' && data[pos+1] == ' ' {
			n, res, lerr := scanLine(data[pos+2:])
			if lerr != nil {
				flow.Error = true
				return errors.Wrap(ErrMalformedResponse, "malformed continuation line")
			}
			if res == LineIncomplete {
				flow.pendingServer = append([]byte(nil), data[lineStart:]...)
				return nil
			}
			total := 2 + n + 2
			if total != end-pos {
				flow.Error = true
				return errors.Wrap(ErrMalformedResponse, "trailing bytes after continuation line")
			}
			flow.Error = false
			return nil
		}

		if end-pos < minResponseHeadroom {
			flow.pendingServer = append([]byte(nil), data[lineStart:]...)
			return nil
		}

		var isError bool
		switch {
		case bytes.HasPrefix(data[pos:], []byte(pop3OK)):
			pos += len(pop3OK)
		case bytes.HasPrefix(data[pos:], []byte(pop3ERR)):
			begin = -1
			pos += len(pop3ERR)
			isError = true
		default:
			if wasConnect {
				flow.Server = ServerResponse
			}
			flow.Error = true
			return errors.Wrap(ErrMalformedResponse, "response missing +OK/-ERR prefix")
		}

		n, res, lerr := scanLine(data[pos:])
		if lerr != nil {
			if wasConnect {
				flow.Server = ServerResponse
			}
			flow.Error = true
			return errors.Wrap(ErrMalformedResponse, "malformed status line")
		}
		if res == LineIncomplete {
			flow.pendingServer = append([]byte(nil), data[lineStart:]...)
			return nil
		}
		pos += n + 2

		if wasConnect {
			flow.Server = ServerResponse
		}
		flow.LastResponseWasError = isError

		switch {
		case flow.Client == ClientSTLSPending:
			if isError {
				// Failed to transition to POP3S; fall back to AUTH.
				flow.Client = ClientAuth
			} else {
				session.SetFlag(FlagEncrypted)
				session.ClearFlag(FlagClientGetsServerPackets)
				session.AddApp(AppIDPOP3S, AppIDPOP3S, "")
			}
		case flow.Username != "":
			// Only possible without TLS, so the app is plain POP3.
			if isError {
				session.AddUser(flow.Username, AppIDPOP3, false)
				flow.clearUsername()
			} else {
				session.AddUser(flow.Username, AppIDPOP3, true)
				flow.clearUsername()
				flow.NeedContinue = false
				session.ClearFlag(FlagClientGetsServerPackets)
				flow.GotUser = true
				if flow.Detected {
					session.SetFlag(FlagClientDetected)
				}
			}
		}

		if extractVendorInfo && begin >= 0 && !isError {
			lineEnd := pos - 2
			if lineEnd > begin {
				vendor, version, subtypes := extractVendor(string(data[begin:lineEnd]))
				if vendor != "" {
					flow.Vendor = vendor
					if version != "" {
						flow.versionBuf.reset()
						flow.versionBuf.appendString(version)
						flow.Version = flow.versionBuf.String()
					}
					flow.Subtype = subtypes
				}
			}
		}

		flow.Error = false

		// The greeting and any STLS/-ERR response are never
		// multi-line, regardless of flow.ExpectMultiline's leftover
		// value from some earlier command.
		multiline := flow.ExpectMultiline && !wasConnect && !isError && flow.Client != ClientSTLSPending
		if multiline {
			flow.Server = ServerContinue
			break
		}

		flow.ResponseCount++
		if pos >= end {
			return nil
		}
		// More bytes remain: another status line follows in the same
		// buffer, so loop back and parse it instead of treating it as
		// this response's body.
	}

	for pos < end {
		lineStart := pos
		// The terminator is only recognized when it is exactly the
		// remainder of this call's data, per the original's raw
		// buffer-length comparison — preserved as-is.
		if end-pos == len(pop3Term) && string(data[pos:]) == pop3Term {
			flow.ResponseCount++
			flow.Server = ServerResponse
			flow.Error = false
			return nil
		}
		n, res, lerr := scanLine(data[pos:])
		if lerr != nil {
			flow.Error = true
			return errors.Wrap(ErrMalformedResponse, "malformed line in multi-line body")
		}
		if res == LineIncomplete {
			flow.pendingServer = append([]byte(nil), data[lineStart:]...)
			return nil
		}
		pos += n + 2
	}
	flow.Error = false
	return nil
}
