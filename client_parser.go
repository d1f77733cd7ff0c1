package pop3appid

// ClientParser implements client-direction POP3 command parsing
// (§4.3). It is stateless; all mutable state lives in the [FlowState]
// passed to FeedClient.
type ClientParser struct {
	server *ServerParser
}

// NewClientParser creates a ClientParser. server is used for the
// cross-direction hook (§4.3, §4.4): this core asks the framework to
// also deliver server→client bytes to the client detector so it can
// keep FlowState in sync with STLS/login outcomes even when only the
// client detector is registered for a flow.
func NewClientParser(server *ServerParser) *ClientParser {
	return &ClientParser{server: server}
}

// FeedClient parses as many complete client commands as data
// contains, per args.Direction.
//
// When args.Direction is FromResponder, bytes are server bytes
// delivered to this detector's cross-direction hook; FeedClient
// forwards them to the server parser (without vendor extraction, since
// that belongs to the service detector) purely to keep flow.Server in
// sync, clears FlagClientGetsServerPackets on parse failure, and
// always returns StatusInProgress.
//
// Otherwise it walks the command loop described in §4.3: on the first
// byte sequence that cannot possibly be the start of any pattern it
// concludes the flow is not POP3 and returns StatusSuccess with no app
// reported; on exhausting all bytes without such a failure it returns
// StatusInProgress.
//
// A command line split across two calls — either mid-pattern (e.g.
// "LIS" then "T\r\n") or mid-argument (e.g. "USER al" then "ice\r\n")
// — must parse identically to the same bytes delivered whole (§8 P7).
// Bytes that are a truncated-but-live prefix of some pattern are
// buffered in flow.pendingClient and retried, rather than mistaken for
// a dead end; an argument capture that runs off the end of a call
// before its terminator arrives leaves flow.clientArgActive set so the
// next call resumes the same capture instead of matching a fresh
// command line.
func (p *ClientParser) FeedClient(flow *FlowState, args Args) Status {
	if !flow.FlagsInitialized {
		flow.NeedContinue = true
		flow.FlagsInitialized = true
		args.Session.SetFlag(FlagClientGetsServerPackets)
	}

	if args.Direction == FromResponder {
		if err := p.server.FeedServer(flow, args.Session, args.Payload, false); err != nil {
			args.Session.ClearFlag(FlagClientGetsServerPackets)
		}
		return StatusInProgress
	}

	data := args.Payload
	if len(flow.pendingClient) > 0 {
		data = append(flow.pendingClient, data...)
		flow.pendingClient = nil
	}
	pos := 0
	end := len(data)

	if flow.clientArgActive {
		switch flow.clientArgKind {
		case CmdApop, CmdUser:
			pos = extractUsername(flow, data, pos, end)
		case CmdAuth:
			pos = extractAuthMechanism(flow, data, pos, end)
		}
		if flow.clientArgActive {
			// Still no terminator by the end of this call either.
			return StatusInProgress
		}
		pos = skipToEOL(data, pos, end)
		pos = skipCRLFRun(data, pos, end)
	}

	for pos < end {
		pat, n, ok := matchCommand(data[pos:])
		if !ok {
			if matchCommandPrefix(data[pos:]) {
				flow.pendingClient = append([]byte(nil), data[pos:]...)
				return StatusInProgress
			}
			flow.NeedContinue = false
			args.Session.SetFlag(FlagClientDetected)
			return StatusSuccess
		}
		pos += n

		if flow.Client == ClientSTLSPending {
			// We failed to transition to POP3S — fall back to AUTH and
			// handle this command as if freshly arrived there.
			flow.Client = ClientAuth
		}

		switch flow.Client {
		case ClientAuth:
			pos = p.dispatchAuth(flow, data, pos, end, pat)
		case ClientTrans:
			pos = p.dispatchTrans(flow, args.Session, data, pos, end, pat)
		}
	}

	return StatusInProgress
}

// dispatchAuth handles one matched command while flow.Client == AUTH,
// returning the cursor position after skipping whatever of the
// command's line the pattern itself didn't cover.
func (p *ClientParser) dispatchAuth(flow *FlowState, data []byte, pos, end int, pat commandPattern) int {
	// A command matched during the authorization phase may still
	// provoke a multi-line reply — CAPA is explicitly allowed before
	// login (RFC 2449) — so track it the same way dispatchTrans does,
	// not only once the flow has reached TRANS.
	flow.ExpectMultiline = isMultilineReply(pat.kind)

	switch pat.kind {
	case CmdSTLSEOC, CmdSTLSEOC2:
		flow.Client = ClientSTLSPending
		return skipCRLFRun(data, pos, end)

	case CmdApop, CmdUser:
		flow.clientArgKind = pat.kind
		pos = extractUsername(flow, data, pos, end)
		if pat.kind == CmdApop {
			// APOP authenticates atomically; no PASS follows.
			flow.Client = ClientTrans
		}
		if flow.clientArgActive {
			return pos
		}
		pos = skipToEOL(data, pos, end)
		return skipCRLFRun(data, pos, end)

	case CmdAuth:
		// An "AUTH " command implies non-TLS SASL negotiation; look
		// ahead speculatively for normal POP3 commands. The transition
		// happens whether or not an argument follows: "AUTH \r\n"
		// resolves to this pattern too (see matchCommand).
		flow.clientArgKind = pat.kind
		pos = extractAuthMechanism(flow, data, pos, end)
		flow.Client = ClientTrans
		if flow.clientArgActive {
			return pos
		}
		pos = skipToEOL(data, pos, end)
		return skipCRLFRun(data, pos, end)

	case CmdAuthEOC, CmdAuthEOC2, CmdAuthEOC3, CmdAuthEOC4:
		return skipCRLFRun(data, pos, end)

	case CmdPass:
		if flow.GotUser {
			flow.Client = ClientTrans
			pos = skipToEOL(data, pos, end)
			return skipCRLFRun(data, pos, end)
		}
		fallthrough

	default:
		if !pat.eoc {
			pos = skipToEOL(data, pos, end)
		}
		return skipCRLFRun(data, pos, end)
	}
}

// dispatchTrans handles one matched command while flow.Client ==
// TRANS.
func (p *ClientParser) dispatchTrans(flow *FlowState, session Session, data []byte, pos, end int, pat commandPattern) int {
	if pat.kind >= CmdOtherThreshold {
		session.AddApp(AppIDPOP3, AppIDPOP3, "")
		flow.Detected = true
	}
	flow.ExpectMultiline = isMultilineReply(pat.kind)
	// An authorization-phase command seen in TRANS is ignored, not a
	// regression.
	if !pat.eoc {
		pos = skipToEOL(data, pos, end)
	}
	return skipCRLFRun(data, pos, end)
}

// isMultilineReply reports whether kind's response may carry a
// ".\r\n"-terminated multi-line body. Only the argument-less forms of
// LIST and UIDL are multi-line — "LIST 3" or "UIDL 3" name a single
// message and always get a one-line reply — while RETR, TOP, and CAPA
// are multi-line regardless of arguments.
func isMultilineReply(kind CommandKind) bool {
	switch kind {
	case CmdListEOC, CmdListEOC2, CmdUidlEOC, CmdUidlEOC2, CmdRetr, CmdTop, CmdCapa, CmdCapa2:
		return true
	default:
		return false
	}
}

// extractUsername consumes a USER/APOP argument starting at pos,
// accepting [A-Za-z0-9.@_-], dropping everything from a backtick
// onward until the terminator (§8 P8), and stores the result
// (replacing any previous username) once a CR, LF, or space is seen.
// An argument that overflows usernameCap abandons the capture entirely
// rather than storing a truncated prefix, matching the original
// detector's p == p_end loop guard. It returns the cursor position
// just past the consumed characters (the terminator itself is left for
// the caller's end-of-line skip).
//
// If data runs out before a terminator arrives, flow.clientArgActive
// is left set so the next call resumes the same capture from pos 0 of
// its own data instead of starting over or matching a fresh command
// (§8 P7, client direction) — foundTick/overflowed persist on flow for
// exactly that reason.
func extractUsername(flow *FlowState, data []byte, pos, end int) int {
	if !flow.clientArgActive {
		flow.usernameBuf.reset()
		flow.clientArgFoundTick = false
		flow.clientArgOverflowed = false
	}
	flow.clientArgActive = true
	i := pos
	for ; i < end; i++ {
		c := data[i]
		switch {
		case isUsernameChar(c):
			if !flow.clientArgFoundTick && !flow.usernameBuf.append(c) {
				flow.clientArgOverflowed = true
			}
		case c == '`':
			flow.clientArgFoundTick = true
		case c == '\r' || c == '\n' || c == ' ':
			if flow.usernameBuf.Len() > 0 && !flow.clientArgOverflowed {
				flow.Username = flow.usernameBuf.String()
			}
			flow.clientArgActive = false
			return i
		default:
			flow.clientArgActive = false
			return i
		}
	}
	return i
}

// extractAuthMechanism captures the first whitespace-delimited token
// following an "AUTH " command into flow.AuthMechanism — a
// diagnostic-only field, never consulted by this core's own state
// machine (SPEC_FULL.md §4, supplemented feature). Like
// extractUsername, it leaves flow.clientArgActive set if data runs out
// before the token's terminator arrives, so the next call resumes the
// same capture (§8 P7, client direction).
func extractAuthMechanism(flow *FlowState, data []byte, pos, end int) int {
	if !flow.clientArgActive {
		flow.authArgBuf.reset()
	}
	flow.clientArgActive = true
	i := pos
	for ; i < end; i++ {
		c := data[i]
		if c == '\r' || c == '\n' || c == ' ' {
			flow.clientArgActive = false
			break
		}
		flow.authArgBuf.append(c)
	}
	if flow.authArgBuf.Len() > 0 {
		flow.AuthMechanism = flow.authArgBuf.String()
	}
	return i
}

func isUsernameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '@' || c == '-' || c == '_':
		return true
	default:
		return false
	}
}

// skipToEOL advances pos past every byte that is not CR or LF.
func skipToEOL(data []byte, pos, end int) int {
	for pos < end && data[pos] != '\r' && data[pos] != '\n' {
		pos++
	}
	return pos
}

// skipCRLFRun advances pos past a run of CR/LF bytes.
func skipCRLFRun(data []byte, pos, end int) int {
	for pos < end && (data[pos] == '\r' || data[pos] == '\n') {
		pos++
	}
	return pos
}
